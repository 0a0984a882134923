package extraction

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// readStrict reads, validates and optimizes a PDF.
func readStrict(data []byte) (*model.Context, error) {
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}
	return ctx, nil
}

// pageCount returns the number of pages of a PDF, or 1 when it cannot be read.
// Only the page tree is resolved, so documents failing validation still count.
func pageCount(data []byte) int {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return 1
	}
	if err := ctx.EnsurePageCount(); err != nil || ctx.PageCount < 1 {
		return 1
	}
	return ctx.PageCount
}

// openText opens a PDF for text extraction. The reader does not validate the
// document beyond its cross-reference table.
func openText(data []byte) (r *pdf.Reader, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("pdf reader: %v", p)
		}
	}()
	r, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("pdf reader: %w", err)
	}
	return r, nil
}

// pageFonts resolves the fonts a page references.
func pageFonts(p pdf.Page) map[string]*pdf.Font {
	fonts := make(map[string]*pdf.Font)
	for _, name := range p.Fonts() {
		f := p.Font(name)
		fonts[name] = &f
	}
	return fonts
}

// pageText returns the text a page shows, in content stream order.
func pageText(p pdf.Page) (string, error) {
	return p.GetPlainText(pageFonts(p))
}

// pageGlyphs returns the positioned glyphs of a page. Word spacing shows up
// as gaps between glyphs.
func pageGlyphs(p pdf.Page) (glyphs []pdf.Text, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page content: %v", r)
		}
	}()
	return p.Content().Text, nil
}
