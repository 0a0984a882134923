package services

import (
	"github.com/cockroachdb/errors"

	"github.com/medpal/docextract/internal/extraction"
	"github.com/medpal/docextract/internal/fetch"
	"github.com/medpal/docextract/internal/store"
)

// Failure classes of a pipeline run. Check them with errors.Is.
var (
	ErrFetch          = fetch.ErrFetch
	ErrEngineTier     = extraction.ErrEngineTier
	ErrScoring        = errors.New("confidence scoring failed")
	ErrClassification = errors.New("classification failed")
	ErrPersistence    = errors.New("record persistence failed")
	ErrRecordExists   = store.ErrRecordExists
)

// guard runs a pure stage and converts a panic into an error marked with sentinel.
func guard(sentinel error, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Mark(errors.Newf("panic: %v", r), sentinel)
		}
	}()
	fn()
	return nil
}
