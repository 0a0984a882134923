package extraction

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ledongthuc/pdf"

	"github.com/medpal/docextract/internal/analysis"
)

// cellSeparator joins the cells of a flattened table row.
const cellSeparator = " | "

// StructuredEngine validates the PDF object model, places every glyph on the
// page and rebuilds rows and simple tables from the glyph positions.
type StructuredEngine struct{}

func (StructuredEngine) Name() string        { return "structured" }
func (StructuredEngine) Tier() analysis.Tier { return analysis.TierStructured }

func (StructuredEngine) Extract(ctx context.Context, data []byte) (*Attempt, error) {
	checked, err := readStrict(data)
	if err != nil {
		return nil, err
	}
	if checked.PageCount < 1 {
		return nil, errors.New("document has no pages")
	}
	doc, err := openText(data)
	if err != nil {
		return nil, err
	}

	var pages []string
	tableRows := 0
	for pageNr := 1; pageNr <= checked.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := doc.Page(pageNr)
		if page.V.IsNull() {
			return nil, errors.Newf("page %d is not in the page tree", pageNr)
		}
		glyphs, err := pageGlyphs(page)
		if err != nil {
			return nil, errors.Wrapf(err, "page %d", pageNr)
		}
		text, rows := layoutPage(glyphs)
		tableRows += rows
		if text != "" {
			pages = append(pages, text)
		}
	}
	return &Attempt{
		Text:           strings.Join(pages, "\n"),
		PagesProcessed: checked.PageCount,
		TableRows:      tableRows,
	}, nil
}

type layoutRow struct {
	y      float64
	size   float64
	glyphs []pdf.Text
	cells  []string
}

// layoutPage renders glyphs top to bottom. Blocks of at least two consecutive
// rows with the same number (≥2) of separated cells are treated as a table
// and flattened with cellSeparator.
func layoutPage(glyphs []pdf.Text) (string, int) {
	rows := groupRows(glyphs)
	for i := range rows {
		rows[i].cells = splitCells(rows[i].glyphs)
	}

	var lines []string
	tableRows := 0
	for i := 0; i < len(rows); {
		n := len(rows[i].cells)
		j := i + 1
		if n >= 2 {
			for j < len(rows) && len(rows[j].cells) == n {
				j++
			}
		}
		if n >= 2 && j-i >= 2 {
			for _, r := range rows[i:j] {
				lines = append(lines, strings.Join(r.cells, cellSeparator))
			}
			tableRows += j - i
		} else {
			j = i + 1
			if len(rows[i].cells) > 0 {
				lines = append(lines, strings.Join(rows[i].cells, " "))
			}
		}
		i = j
	}
	return strings.Join(lines, "\n"), tableRows
}

// groupRows clusters glyphs sharing a baseline, ordered top of page first.
func groupRows(glyphs []pdf.Text) []layoutRow {
	sorted := make([]pdf.Text, len(glyphs))
	copy(sorted, glyphs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var rows []layoutRow
	for _, g := range sorted {
		if len(rows) > 0 {
			last := &rows[len(rows)-1]
			tol := math.Max(math.Min(last.size, g.FontSize)*0.5, 1)
			if math.Abs(last.y-g.Y) <= tol {
				last.glyphs = append(last.glyphs, g)
				continue
			}
		}
		rows = append(rows, layoutRow{y: g.Y, size: g.FontSize, glyphs: []pdf.Text{g}})
	}
	for i := range rows {
		sort.SliceStable(rows[i].glyphs, func(a, b int) bool { return rows[i].glyphs[a].X < rows[i].glyphs[b].X })
	}
	return rows
}

// splitCells joins the glyphs of a row into words and starts a new cell
// wherever the horizontal gap exceeds two glyph heights.
func splitCells(glyphs []pdf.Text) []string {
	var cells []string
	var cur strings.Builder
	end := 0.0
	for _, g := range glyphs {
		text := strings.TrimSpace(g.S)
		if text == "" {
			continue
		}
		gap := g.X - end
		switch {
		case cur.Len() == 0:
		case gap > g.FontSize*2:
			cells = append(cells, cur.String())
			cur.Reset()
		case gap > g.FontSize*0.15:
			cur.WriteByte(' ')
		}
		cur.WriteString(text)
		end = g.X + g.W
	}
	if cur.Len() > 0 {
		cells = append(cells, cur.String())
	}
	return cells
}
