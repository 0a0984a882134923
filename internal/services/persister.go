package services

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/medpal/docextract/internal/analysis"
	"github.com/medpal/docextract/internal/extraction"
	"github.com/medpal/docextract/internal/models"
	"github.com/medpal/docextract/internal/store"
)

// ChainName prefixes the processingEngine tag of every record.
const ChainName = "docextract-chain"

// summaryEntities is the number of keyword matches echoed in a summary.
const summaryEntities = 5

var idempotencyNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:docextract:idempotency-key"))

// NewDocumentID mints a random id, or a stable one derived from the
// idempotency key when the caller supplied it.
func NewDocumentID(idempotencyKey string) string {
	if idempotencyKey == "" {
		return uuid.NewString()
	}
	return uuid.NewSHA1(idempotencyNamespace, []byte(idempotencyKey)).String()
}

// EngineTag is the processingEngine value for records produced by engine.
func EngineTag(engine string) string {
	return fmt.Sprintf("%s/%s", ChainName, engine)
}

// documentMeta is what a run knows about its source before extraction.
type documentMeta struct {
	DocumentID      string
	Filename        string
	FileSize        int64
	ContentType     string
	FileHash        string
	SourceContainer string
	SourceKey       string
	IdempotencyKey  string
}

// analysisResult is everything derived from an accepted extraction outcome.
type analysisResult struct {
	Outcome        extraction.Outcome
	Confidence     float64
	Classification analysis.Classification
	Entities       []models.EntityMatch
}

// Persister builds result records and writes them exactly once.
type Persister struct {
	store store.RecordStore
	now   func() time.Time
}

func NewPersister(rs store.RecordStore, now func() time.Time) *Persister {
	if now == nil {
		now = time.Now
	}
	return &Persister{store: rs, now: now}
}

func (p *Persister) createdAt() string {
	return p.now().UTC().Format(time.RFC3339)
}

// Completed assembles the record of a successful run.
func (p *Persister) Completed(meta documentMeta, res analysisResult) *models.ResultRecord {
	return &models.ResultRecord{
		DocumentID:       meta.DocumentID,
		Filename:         meta.Filename,
		ExtractedText:    res.Outcome.Text,
		DocumentType:     res.Classification.DocumentType,
		Confidence:       res.Confidence,
		TotalLines:       res.Outcome.LinesExtracted,
		TotalPages:       res.Outcome.PagesProcessed,
		FileSize:         meta.FileSize,
		ContentType:      meta.ContentType,
		FileHash:         meta.FileHash,
		SourceContainer:  meta.SourceContainer,
		SourceKey:        meta.SourceKey,
		CreatedAt:        p.createdAt(),
		ProcessingEngine: EngineTag(res.Outcome.Engine),
		ProcessingStatus: models.StatusCompleted,
		QualityScore:     analysis.Quality(res.Confidence, res.Outcome.LinesExtracted),
		MedicalKeywords:  res.Entities,
		IdempotencyKey:   meta.IdempotencyKey,
	}
}

// Failed assembles the error record of a run that stopped in stage. Error
// records never take the id derived from an idempotency key, so a later retry
// can still write the completed record under it.
func (p *Persister) Failed(meta documentMeta, stage Stage, cause error) *models.ResultRecord {
	id := meta.DocumentID
	if meta.IdempotencyKey != "" {
		id = uuid.NewString()
	}
	return &models.ResultRecord{
		DocumentID:       id,
		Filename:         meta.Filename,
		FileSize:         meta.FileSize,
		ContentType:      meta.ContentType,
		FileHash:         meta.FileHash,
		SourceContainer:  meta.SourceContainer,
		SourceKey:        meta.SourceKey,
		CreatedAt:        p.createdAt(),
		ProcessingEngine: ChainName,
		ProcessingStatus: models.StatusFailed,
		IdempotencyKey:   meta.IdempotencyKey,
		ErrorMessage:     fmt.Sprintf("%s: %v", stage, cause),
	}
}

// Save writes rec. Failures are marked ErrPersistence; a conflicting id is
// additionally marked ErrRecordExists.
func (p *Persister) Save(ctx context.Context, rec *models.ResultRecord) error {
	if err := p.store.Put(ctx, rec); err != nil {
		return errors.Mark(errors.Wrapf(err, "failed to persist record %s", rec.DocumentID), ErrPersistence)
	}
	return nil
}

// Summarize produces the caller-facing outcome of a record.
func Summarize(rec *models.ResultRecord, previewChars int) models.Summary {
	s := models.Summary{
		DocumentID:   rec.DocumentID,
		Status:       rec.ProcessingStatus,
		SourceKey:    rec.SourceKey,
		DocumentType: rec.DocumentType,
		Confidence:   rec.Confidence,
		TotalLines:   rec.TotalLines,
		TotalPages:   rec.TotalPages,
		QualityScore: rec.QualityScore,
		Error:        rec.ErrorMessage,
	}
	if rec.Failed() {
		return s
	}
	s.TextPreview = preview(rec.ExtractedText, previewChars)
	if len(rec.MedicalKeywords) > summaryEntities {
		s.MedicalKeywords = rec.MedicalKeywords[:summaryEntities]
	} else {
		s.MedicalKeywords = rec.MedicalKeywords
	}
	return s
}

func preview(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
