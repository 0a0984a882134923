package extraction

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/medpal/docextract/internal/analysis"
)

// Transcriber reads the text of a whole PDF, typically with a hosted model.
type Transcriber interface {
	Transcribe(ctx context.Context, pdf []byte) (string, error)
}

// VisionEngine delegates to a Transcriber. It is the only engine that can
// read scanned documents.
type VisionEngine struct {
	Transcriber Transcriber
}

func (VisionEngine) Name() string        { return "vision" }
func (VisionEngine) Tier() analysis.Tier { return analysis.TierVision }

func (e VisionEngine) Extract(ctx context.Context, data []byte) (*Attempt, error) {
	if e.Transcriber == nil {
		return nil, errors.New("no transcriber configured")
	}
	text, err := e.Transcriber.Transcribe(ctx, data)
	if err != nil {
		return nil, err
	}
	return &Attempt{Text: text, PagesProcessed: pageCount(data)}, nil
}

// DefaultEngines returns the standard engine order. The vision engine is
// included only when a transcriber is available.
func DefaultEngines(transcriber Transcriber, rawMaxLines int) []Engine {
	engines := []Engine{StructuredEngine{}, PageEngine{}}
	if transcriber != nil {
		engines = append(engines, VisionEngine{Transcriber: transcriber})
	}
	return append(engines, RawEngine{MaxLines: rawMaxLines})
}
