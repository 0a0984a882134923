// Package store defines where result records go and ships a SQLite-backed
// implementation for local runs.
package store

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/medpal/docextract/internal/models"
)

var (
	// ErrRecordExists is returned by Put when a record with the same id is already stored.
	ErrRecordExists = errors.New("record already exists")
	// ErrNotFound is returned by Get for unknown ids.
	ErrNotFound = errors.New("record not found")
)

// RecordStore persists result records. Put never overwrites.
type RecordStore interface {
	Put(ctx context.Context, rec *models.ResultRecord) error
	Get(ctx context.Context, documentID string) (*models.ResultRecord, error)
	// FindByHash returns the id of a completed record for the given content hash.
	FindByHash(ctx context.Context, fileHash string) (string, bool, error)
}
