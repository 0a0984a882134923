package extraction

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/medpal/docextract/internal/analysis"
)

// DefaultRawMaxLines caps the output of the raw engine.
const DefaultRawMaxLines = 50

var (
	lineBreakRe = regexp.MustCompile(`\r\n|\r|\n`)
	nonWordRe   = regexp.MustCompile(`[^\p{L}\p{N}\s.,:;/%()\-]+`)
)

// RawEngine decodes the bytes as text and keeps whatever looks like words.
// It works on any input, PDF or not.
type RawEngine struct {
	MaxLines int
}

func (RawEngine) Name() string        { return "raw" }
func (RawEngine) Tier() analysis.Tier { return analysis.TierRaw }

func (e RawEngine) Extract(_ context.Context, data []byte) (*Attempt, error) {
	limit := e.MaxLines
	if limit <= 0 {
		limit = DefaultRawMaxLines
	}

	text := strings.ToValidUTF8(string(data), "")
	var kept []string
	for _, line := range lineBreakRe.Split(text, -1) {
		if len(kept) >= limit {
			break
		}
		line = strings.TrimSpace(line)
		if len([]rune(line)) <= 5 || !strings.ContainsFunc(line, unicode.IsLetter) {
			continue
		}
		line = analysis.CollapseSpace(nonWordRe.ReplaceAllString(line, " "))
		if line == "" {
			continue
		}
		kept = append(kept, line)
	}
	return &Attempt{Text: strings.Join(kept, "\n"), PagesProcessed: 1}, nil
}
