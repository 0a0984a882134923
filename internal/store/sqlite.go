package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite"

	"github.com/medpal/docextract/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	document_id       TEXT PRIMARY KEY,
	source_key        TEXT NOT NULL,
	file_hash         TEXT NOT NULL DEFAULT '',
	processing_status TEXT NOT NULL,
	created_at        TEXT NOT NULL,
	body              TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS records_file_hash ON records(file_hash, processing_status);
`

// SQLiteStore keeps records in a local SQLite file. The full record is
// stored as JSON next to the columns used for lookups.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=10000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Put(ctx context.Context, rec *models.ResultRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", rec.DocumentID, err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO records (document_id, source_key, file_hash, processing_status, created_at, body)
		 VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT(document_id) DO NOTHING`,
		rec.DocumentID, rec.SourceKey, rec.FileHash, rec.ProcessingStatus, rec.CreatedAt, string(body))
	if err != nil {
		return fmt.Errorf("failed to insert record %s: %w", rec.DocumentID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to insert record %s: %w", rec.DocumentID, err)
	}
	if n == 0 {
		return errors.Mark(errors.Newf("record %s", rec.DocumentID), ErrRecordExists)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, documentID string) (*models.ResultRecord, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM records WHERE document_id = ?`, documentID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Mark(errors.Newf("record %s", documentID), ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record %s: %w", documentID, err)
	}
	var rec models.ResultRecord
	if err := json.Unmarshal([]byte(body), &rec); err != nil {
		return nil, fmt.Errorf("failed to decode record %s: %w", documentID, err)
	}
	return &rec, nil
}

func (s *SQLiteStore) FindByHash(ctx context.Context, fileHash string) (string, bool, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT document_id FROM records WHERE file_hash = ? AND processing_status = ? ORDER BY created_at LIMIT 1`,
		fileHash, models.StatusCompleted).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query for duplicates: %w", err)
	}
	return id, true, nil
}

// List returns records newest first, at most limit of them.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]models.ResultRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT body FROM records ORDER BY created_at DESC, document_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var out []models.ResultRecord
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		var rec models.ResultRecord
		if err := json.Unmarshal([]byte(body), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
