package extraction

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/medpal/docextract/internal/analysis"
)

// PlaceholderText is returned when every engine fails or yields nothing.
const PlaceholderText = "no extractable text"

// Chain runs engines in order and accepts the first one that yields at least
// one normalized line.
type Chain struct {
	engines []Engine
	logger  *slog.Logger
}

// NewChain builds a chain that tries engines in the given order.
func NewChain(logger *slog.Logger, engines ...Engine) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{engines: engines, logger: logger}
}

// Engines returns the engine names in invocation order.
func (c *Chain) Engines() []string {
	names := make([]string, len(c.engines))
	for i, e := range c.engines {
		names[i] = e.Name()
	}
	return names
}

// Placeholder is the outcome used when no engine produced text.
func Placeholder() Outcome {
	return Outcome{
		Text:           PlaceholderText,
		PagesProcessed: 1,
		LinesExtracted: 0,
		Tier:           analysis.TierNone,
		Engine:         "none",
	}
}

// Run extracts text from data. It never fails: engine errors and panics are
// logged and the next engine is tried.
func (c *Chain) Run(ctx context.Context, data []byte) Outcome {
	for _, engine := range c.engines {
		logCtx := c.logger.With("engine", engine.Name(), "tier", engine.Tier().String())

		attempt, err := c.try(ctx, engine, data)
		if err != nil {
			logCtx.Warn("Extraction engine failed, falling back.", "error", err)
			continue
		}

		text := analysis.Normalize(attempt.Text)
		lines := analysis.Lines(text)
		if len(lines) == 0 {
			logCtx.Info("Extraction engine produced no usable lines, falling back.")
			continue
		}

		pages := attempt.PagesProcessed
		if pages < 1 {
			pages = 1
		}
		tableRows := attempt.TableRows
		if tableRows < 0 {
			tableRows = 0
		}
		logCtx.Info("Extraction engine accepted.", "lines", len(lines), "pages", pages, "tableRows", tableRows)
		return Outcome{
			Text:           text,
			PagesProcessed: pages,
			LinesExtracted: len(lines),
			Tier:           engine.Tier(),
			Engine:         engine.Name(),
			TableRows:      tableRows,
		}
	}

	c.logger.Warn("No extraction engine produced text, using placeholder.")
	return Placeholder()
}

func (c *Chain) try(ctx context.Context, engine Engine, data []byte) (attempt *Attempt, err error) {
	defer func() {
		if r := recover(); r != nil {
			attempt = nil
			err = errors.Mark(errors.Newf("%s engine panicked: %v", engine.Name(), r), ErrEngineTier)
		}
	}()

	attempt, err = engine.Extract(ctx, data)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "%s engine", engine.Name()), ErrEngineTier)
	}
	if attempt == nil {
		return nil, errors.Mark(errors.Newf("%s engine returned no attempt", engine.Name()), ErrEngineTier)
	}
	return attempt, nil
}
