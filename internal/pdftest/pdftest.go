// Package pdftest writes small, valid PDF files for tests. Content streams are
// left uncompressed and the cross-reference table carries exact offsets.
package pdftest

import (
	"fmt"
	"strings"
)

const (
	fontSize   = 11
	lineHeight = 14
	topMargin  = 740
	leftMargin = 72
	// ColumnWidth is the horizontal distance between table columns.
	ColumnWidth = 150
	// GlyphWidth is the advance of every printable ASCII glyph, in
	// thousandths of the font size.
	GlyphWidth = 600

	firstChar = 32
	lastChar  = 126
)

// Page is one page content stream.
type Page string

// Escape quotes text for use inside a PDF literal string.
func Escape(text string) string {
	r := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`)
	return r.Replace(text)
}

// TextPage lays out lines top to bottom, one text object per line.
func TextPage(lines ...string) Page {
	var b strings.Builder
	for i, line := range lines {
		fmt.Fprintf(&b, "BT\n/F1 %d Tf\n%d %d Td\n(%s) Tj\nET\n", fontSize, leftMargin, topMargin-i*lineHeight, Escape(line))
	}
	return Page(b.String())
}

// FlowPage writes all lines in a single text object using T* line breaks.
func FlowPage(lines ...string) Page {
	var b strings.Builder
	fmt.Fprintf(&b, "BT\n/F1 %d Tf\n%d TL\n%d %d Td\n", fontSize, lineHeight, leftMargin, topMargin)
	for i, line := range lines {
		if i > 0 {
			b.WriteString("T*\n")
		}
		fmt.Fprintf(&b, "(%s) Tj\n", Escape(line))
	}
	b.WriteString("ET\n")
	return Page(b.String())
}

// TablePage writes heading lines followed by a grid of cells, each cell placed
// ColumnWidth apart on the row baseline.
func TablePage(heading []string, rows [][]string) Page {
	var b strings.Builder
	b.WriteString(string(TextPage(heading...)))
	y := topMargin - (len(heading)+1)*lineHeight
	for _, row := range rows {
		for col, cell := range row {
			fmt.Fprintf(&b, "BT\n/F1 %d Tf\n%d %d Td\n(%s) Tj\nET\n", fontSize, leftMargin+col*ColumnWidth, y, Escape(cell))
		}
		y -= lineHeight
	}
	return Page(b.String())
}

// Build assembles pages into a PDF document sharing one monospaced font.
func Build(pages ...Page) []byte {
	return build(pages, false)
}

// ImageOnly returns a single-page PDF that paints one image and has no text layer.
func ImageOnly() []byte {
	return build([]Page{"q 100 0 0 100 72 692 cm /Im1 Do Q"}, true)
}

// object numbers: 1 catalog, 2 page tree, 3 font, 4 image, then page and content pairs.
func build(pages []Page, withImage bool) []byte {
	const firstPage = 5
	total := firstPage + 2*len(pages)

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, total)

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", firstPage+2*i)
	}

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	offsets[2] = b.Len()
	fmt.Fprintf(&b, "2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", strings.Join(kids, " "), len(pages))

	offsets[3] = b.Len()
	fmt.Fprintf(&b, "3 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Courier /FirstChar %d /LastChar %d /Widths [%s] >>\nendobj\n",
		firstChar, lastChar, strings.TrimSpace(strings.Repeat(fmt.Sprintf("%d ", GlyphWidth), lastChar-firstChar+1)))

	offsets[4] = b.Len()
	img := "\x80"
	fmt.Fprintf(&b, "4 0 obj\n<< /Type /XObject /Subtype /Image /Width 1 /Height 1 /ColorSpace /DeviceGray /BitsPerComponent 8 /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(img), img)

	resources := "<< /Font << /F1 3 0 R >> >>"
	if withImage {
		resources = "<< /XObject << /Im1 4 0 R >> >>"
	}
	for i, page := range pages {
		pageObj := firstPage + 2*i
		offsets[pageObj] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents %d 0 R /Resources %s >>\nendobj\n", pageObj, pageObj+1, resources)

		stream := strings.TrimRight(string(page), "\n")
		offsets[pageObj+1] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", pageObj+1, len(stream), stream)
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", total)
	b.WriteString("0000000000 65535 f \n")
	for i := 1; i < total; i++ {
		fmt.Fprintf(&b, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", total, xref)
	return []byte(b.String())
}
