package extraction

import (
	"context"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medpal/docextract/internal/analysis"
	"github.com/medpal/docextract/internal/pdftest"
)

type fakeEngine struct {
	name    string
	tier    analysis.Tier
	attempt *Attempt
	err     error
	panics  bool
	calls   int
}

func (f *fakeEngine) Name() string        { return f.name }
func (f *fakeEngine) Tier() analysis.Tier { return f.tier }
func (f *fakeEngine) Extract(context.Context, []byte) (*Attempt, error) {
	f.calls++
	if f.panics {
		panic("boom")
	}
	return f.attempt, f.err
}

func TestChain_FirstSuccessWins(t *testing.T) {
	first := &fakeEngine{name: "a", tier: analysis.TierStructured, attempt: &Attempt{Text: "Patient record one\nSecond useful line", PagesProcessed: 3, TableRows: 2}}
	second := &fakeEngine{name: "b", tier: analysis.TierPage, attempt: &Attempt{Text: "never used"}}

	out := NewChain(nil, first, second).Run(context.Background(), nil)

	assert.Equal(t, "a", out.Engine)
	assert.Equal(t, analysis.TierStructured, out.Tier)
	assert.Equal(t, 2, out.LinesExtracted)
	assert.Equal(t, 3, out.PagesProcessed)
	assert.Equal(t, 2, out.TableRows)
	assert.Zero(t, second.calls)
}

func TestChain_FallsBackOnErrorPanicAndEmptyText(t *testing.T) {
	failing := &fakeEngine{name: "fails", tier: analysis.TierStructured, err: errors.New("bad xref")}
	panicking := &fakeEngine{name: "panics", tier: analysis.TierPage, panics: true}
	empty := &fakeEngine{name: "empty", tier: analysis.TierVision, attempt: &Attempt{Text: "1\n--\n   \n"}}
	nilAttempt := &fakeEngine{name: "nil", tier: analysis.TierVision}
	last := &fakeEngine{name: "last", tier: analysis.TierRaw, attempt: &Attempt{Text: "  recovered   text line  "}}

	out := NewChain(nil, failing, panicking, empty, nilAttempt, last).Run(context.Background(), nil)

	assert.Equal(t, "last", out.Engine)
	assert.Equal(t, "recovered text line", out.Text)
	assert.Equal(t, 1, out.LinesExtracted)
	assert.Equal(t, 1, out.PagesProcessed, "page count is at least one")
	for _, e := range []*fakeEngine{failing, panicking, empty, nilAttempt, last} {
		assert.Equal(t, 1, e.calls, e.name)
	}
}

func TestChain_PlaceholderWhenAllFail(t *testing.T) {
	out := NewChain(nil,
		&fakeEngine{name: "a", err: errors.New("x")},
		&fakeEngine{name: "b", attempt: &Attempt{Text: "", PagesProcessed: -4, TableRows: -1}},
	).Run(context.Background(), nil)

	assert.Equal(t, Placeholder(), out)
	assert.True(t, out.Placeholder())
	assert.Equal(t, PlaceholderText, out.Text)
	assert.Equal(t, 1, out.PagesProcessed)
	assert.Zero(t, out.LinesExtracted)
	assert.Equal(t, "none", out.Engine)
}

func TestChain_NeverNegative(t *testing.T) {
	out := NewChain(nil, &fakeEngine{name: "neg", tier: analysis.TierRaw, attempt: &Attempt{Text: "some decent text", PagesProcessed: -2, TableRows: -7}}).Run(context.Background(), nil)
	assert.Equal(t, 1, out.PagesProcessed)
	assert.Zero(t, out.TableRows)
	assert.Equal(t, 1, out.LinesExtracted)
}

func TestChain_TryMarksEngineErrors(t *testing.T) {
	c := NewChain(nil)
	_, err := c.try(context.Background(), &fakeEngine{name: "a", err: errors.New("x")}, nil)
	assert.True(t, errors.Is(err, ErrEngineTier))

	_, err = c.try(context.Background(), &fakeEngine{name: "p", panics: true}, nil)
	assert.True(t, errors.Is(err, ErrEngineTier))
	assert.Contains(t, err.Error(), "boom")
}

type stubTranscriber struct {
	text string
	err  error
}

func (s stubTranscriber) Transcribe(context.Context, []byte) (string, error) { return s.text, s.err }

func TestDefaultEngines(t *testing.T) {
	c := NewChain(nil, DefaultEngines(nil, 10)...)
	assert.Equal(t, []string{"structured", "page", "raw"}, c.Engines())

	c = NewChain(nil, DefaultEngines(stubTranscriber{}, 10)...)
	assert.Equal(t, []string{"structured", "page", "vision", "raw"}, c.Engines())
}

// Digitally native, multi-page, with a lab table.
func TestChain_TablePDF(t *testing.T) {
	data := pdftest.Build(
		pdftest.TablePage([]string{"Laboratory Report", "Patient: Jane Doe", "Test results for fasting glucose and cholesterol."}, labRows),
		pdftest.FlowPage("All values are within the reference range.", "Repeat the laboratory panel in six months."),
	)

	out := NewChain(nil, DefaultEngines(nil, 0)...).Run(context.Background(), data)

	require.Equal(t, "structured", out.Engine)
	assert.Contains(t, out.Text, "Cholesterol | 180 | mg/dL")
	assert.Equal(t, 2, out.PagesProcessed)
	assert.Equal(t, 4, out.TableRows)
	assert.Equal(t, len(analysis.Lines(out.Text)), out.LinesExtracted)

	conf := analysis.Score(out.Text, out.Tier, out.TableRows)
	assert.GreaterOrEqual(t, conf, 0.85)
	assert.Equal(t, analysis.TypeLabResult, analysis.Classify(out.Text).DocumentType)
}

// Single column, no tables.
func TestChain_PlainTextPDF(t *testing.T) {
	data := pdftest.Build(pdftest.TextPage(
		"Consultation with the doctor regarding recurring headaches.",
		"The patient reports mild pain in the evening.",
		"Treatment plan discussed and accepted.",
	))

	out := NewChain(nil, DefaultEngines(nil, 0)...).Run(context.Background(), data)

	require.Equal(t, "structured", out.Engine)
	assert.NotContains(t, out.Text, "|")
	assert.Zero(t, out.TableRows)
	assert.Equal(t, 3, out.LinesExtracted)

	conf := analysis.Score(out.Text, out.Tier, out.TableRows)
	assert.GreaterOrEqual(t, conf, 0.5)
	assert.LessOrEqual(t, conf, 0.95)
}

// Scanned page: no text layer at all.
func TestChain_ImageOnlyPDFFallsToRaw(t *testing.T) {
	out := NewChain(nil, DefaultEngines(nil, 0)...).Run(context.Background(), pdftest.ImageOnly())

	assert.Equal(t, "raw", out.Engine)
	assert.Equal(t, analysis.TierRaw, out.Tier)
	assert.Positive(t, out.LinesExtracted)
	assert.LessOrEqual(t, out.LinesExtracted, DefaultRawMaxLines)
	assert.LessOrEqual(t, analysis.Score(out.Text, out.Tier, out.TableRows), 0.6)
}

// Scanned page with a transcriber available.
func TestChain_ImageOnlyPDFUsesVision(t *testing.T) {
	tr := stubTranscriber{text: "Prescription\nAmoxicillin 500 mg three times daily"}
	out := NewChain(nil, DefaultEngines(tr, 0)...).Run(context.Background(), pdftest.ImageOnly())

	assert.Equal(t, "vision", out.Engine)
	assert.Equal(t, 1, out.PagesProcessed)
	assert.True(t, strings.HasPrefix(out.Text, "Prescription"))
}

func TestChain_VisionErrorFallsThrough(t *testing.T) {
	tr := stubTranscriber{err: errors.New("quota exceeded")}
	out := NewChain(nil, DefaultEngines(tr, 0)...).Run(context.Background(), pdftest.ImageOnly())
	assert.Equal(t, "raw", out.Engine)
}

// Empty or corrupted objects.
func TestChain_EmptyAndCorruptInput(t *testing.T) {
	chain := NewChain(nil, DefaultEngines(nil, 0)...)

	assert.Equal(t, Placeholder(), chain.Run(context.Background(), nil))
	assert.Equal(t, Placeholder(), chain.Run(context.Background(), []byte{0x00, 0x13, 0x37, 0x42, 0x99}))
	assert.Zero(t, analysis.Score("", analysis.TierNone, 0))
}
