package extraction

import (
	"context"
	"strings"

	"github.com/medpal/docextract/internal/analysis"
)

// PageEngine reads each page's text in content stream order. It tolerates
// documents that fail strict validation and knows nothing about tables.
type PageEngine struct{}

func (PageEngine) Name() string        { return "page" }
func (PageEngine) Tier() analysis.Tier { return analysis.TierPage }

func (PageEngine) Extract(ctx context.Context, data []byte) (*Attempt, error) {
	doc, err := openText(data)
	if err != nil {
		return nil, err
	}

	pages := doc.NumPage()
	var lines []string
	for pageNr := 1; pageNr <= pages; pageNr++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := doc.Page(pageNr)
		if page.V.IsNull() {
			continue
		}
		text, err := pageText(page)
		if err != nil {
			// one unreadable page does not sink the rest of the document
			continue
		}
		lines = append(lines, cleanup(strings.Split(text, "\n"))...)
	}

	if pages < 1 {
		pages = 1
	}
	return &Attempt{Text: strings.Join(lines, "\n"), PagesProcessed: pages}, nil
}

// cleanup drops page numbers, fragments and lines that are mostly symbols.
func cleanup(lines []string) []string {
	var out []string
	for _, line := range lines {
		line = analysis.CollapseSpace(line)
		if analysis.KeepLine(line) {
			out = append(out, line)
		}
	}
	return out
}
