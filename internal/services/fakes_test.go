package services

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/medpal/docextract/internal/config"
	"github.com/medpal/docextract/internal/fetch"
	"github.com/medpal/docextract/internal/models"
	"github.com/medpal/docextract/internal/store"
)

var fixedNow = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		SourceContainer:     "medpal-uploads",
		SourcePrefix:        "uploads/",
		SourceSuffixes:      []string{".pdf"},
		RecordTable:         "ocr-text-extraction",
		Region:              "us-central1",
		Workers:             2,
		EntityLimit:         15,
		PreviewChars:        1000,
		RawFallbackMaxLines: 50,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memFetcher serves objects from memory through the real staging code.
type memFetcher struct {
	mu       sync.Mutex
	objects  map[string][]byte
	panicOn  string
	metadata map[string]map[string]string
	staged   []*fetch.SourceDocument
}

func newMemFetcher() *memFetcher {
	return &memFetcher{objects: map[string][]byte{}, metadata: map[string]map[string]string{}}
}

func (m *memFetcher) put(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
}

func (m *memFetcher) Fetch(_ context.Context, container, key string) (*fetch.SourceDocument, error) {
	if key == m.panicOn {
		panic("fetcher exploded")
	}
	m.mu.Lock()
	data, ok := m.objects[key]
	meta := m.metadata[key]
	m.mu.Unlock()
	if !ok {
		return nil, errors.Mark(errors.Newf("object %s/%s not found", container, key), fetch.ErrFetch)
	}

	doc, err := fetch.Stage(container, key, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	doc.DeclaredName = fetch.DeclaredName(meta, key)
	doc.ContentKind = "application/pdf"

	m.mu.Lock()
	m.staged = append(m.staged, doc)
	m.mu.Unlock()
	return doc, nil
}

func (m *memFetcher) stagedPaths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, len(m.staged))
	for i, d := range m.staged {
		paths[i] = d.Path
	}
	return paths
}

// memStore is a RecordStore that can be told to fail.
type memStore struct {
	mu      sync.Mutex
	records map[string]*models.ResultRecord
	order   []string
	puts    int
	failPut error
}

func newMemStore() *memStore {
	return &memStore{records: map[string]*models.ResultRecord{}}
}

func (s *memStore) Put(_ context.Context, rec *models.ResultRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.failPut != nil {
		return s.failPut
	}
	if _, ok := s.records[rec.DocumentID]; ok {
		return errors.Mark(errors.Newf("record %s", rec.DocumentID), store.ErrRecordExists)
	}
	cp := *rec
	s.records[rec.DocumentID] = &cp
	s.order = append(s.order, rec.DocumentID)
	return nil
}

func (s *memStore) Get(_ context.Context, id string) (*models.ResultRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return rec, nil
}

func (s *memStore) FindByHash(_ context.Context, hash string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.order {
		rec := s.records[id]
		if rec.FileHash == hash && rec.ProcessingStatus == models.StatusCompleted {
			return id, true, nil
		}
	}
	return "", false, nil
}

func (s *memStore) all() []*models.ResultRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.ResultRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out
}

// flakyStore fails its first failFirst writes.
type flakyStore struct {
	*memStore
	failFirst int
}

func (s *flakyStore) Put(ctx context.Context, rec *models.ResultRecord) error {
	s.mu.Lock()
	if s.failFirst > 0 {
		s.failFirst--
		s.puts++
		s.mu.Unlock()
		return errors.New("deadline exceeded")
	}
	s.mu.Unlock()
	return s.memStore.Put(ctx, rec)
}

type recordingNotifier struct {
	mu        sync.Mutex
	summaries []models.Summary
	err       error
}

func (n *recordingNotifier) Notify(_ context.Context, s models.Summary) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.summaries = append(n.summaries, s)
	return n.err
}

func newTestProcessor(cfg *config.Config, f fetch.Fetcher, rs store.RecordStore, n Notifier) *ProcessorFunction {
	return NewProcessor(cfg, Deps{
		Fetcher:  f,
		Store:    rs,
		Notifier: n,
		Logger:   discardLogger(),
		Now:      func() time.Time { return fixedNow },
	})
}
