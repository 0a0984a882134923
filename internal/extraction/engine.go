// Package extraction turns document bytes into text through an ordered chain
// of engines, from the most reliable to the least reliable.
package extraction

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/medpal/docextract/internal/analysis"
)

// ErrEngineTier marks an engine failure. The chain logs it and moves on to
// the next engine.
var ErrEngineTier = errors.New("extraction engine failed")

func init() {
	// pdfcpu must not try to write its config directory on read-only hosts.
	api.DisableConfigDir()
}

// Attempt is the raw output of a single engine invocation.
type Attempt struct {
	Text           string
	PagesProcessed int
	TableRows      int
}

// Outcome is the accepted result of a chain run. Text is normalized and
// LinesExtracted counts its lines, except for the placeholder outcome.
type Outcome struct {
	Text           string
	PagesProcessed int
	LinesExtracted int
	Tier           analysis.Tier
	Engine         string
	TableRows      int
}

// Placeholder reports whether no engine produced usable text.
func (o Outcome) Placeholder() bool {
	return o.Tier == analysis.TierNone
}

// Engine extracts text from a document.
type Engine interface {
	Name() string
	Tier() analysis.Tier
	Extract(ctx context.Context, data []byte) (*Attempt, error)
}
