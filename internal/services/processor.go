package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/storage"
	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/medpal/docextract/internal/analysis"
	"github.com/medpal/docextract/internal/config"
	"github.com/medpal/docextract/internal/extraction"
	"github.com/medpal/docextract/internal/fetch"
	"github.com/medpal/docextract/internal/gcp"
	"github.com/medpal/docextract/internal/models"
	"github.com/medpal/docextract/internal/store"
)

// Stage is the state of a document run.
type Stage string

const (
	StageFetching    Stage = "fetching"
	StageExtracting  Stage = "extracting"
	StageScoring     Stage = "scoring"
	StageClassifying Stage = "classifying"
	StagePersisting  Stage = "persisting"
	StageDone        Stage = "done"
	StageFailed      Stage = "failed"
)

// Batch statuses.
const (
	BatchCompleted = "completed"
	BatchPartial   = "partial"
	BatchFailed    = "failed"
)

// Notifier is told about every finished document.
type Notifier interface {
	Notify(ctx context.Context, summary models.Summary) error
}

// Deps are the collaborators of a ProcessorFunction.
type Deps struct {
	Fetcher     fetch.Fetcher
	Store       store.RecordStore
	Transcriber extraction.Transcriber
	Notifier    Notifier
	Logger      *slog.Logger
	Now         func() time.Time
}

// ProcessorFunction runs documents through fetch, extraction, analysis and persistence.
type ProcessorFunction struct {
	config    *config.Config
	filter    ObjectFilter
	fetcher   fetch.Fetcher
	chain     *extraction.Chain
	persister *Persister
	notifier  Notifier
	logger    *slog.Logger
	closers   []func() error
}

// NewProcessor wires a processor from explicit dependencies.
func NewProcessor(cfg *config.Config, deps Deps) *ProcessorFunction {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessorFunction{
		config:    cfg,
		filter:    ObjectFilter{Prefix: cfg.SourcePrefix, Suffixes: cfg.SourceSuffixes},
		fetcher:   deps.Fetcher,
		chain:     extraction.NewChain(logger, extraction.DefaultEngines(deps.Transcriber, cfg.RawFallbackMaxLines)...),
		persister: NewPersister(deps.Store, deps.Now),
		notifier:  deps.Notifier,
		logger:    logger,
	}
}

// NewProcessorFunction builds a processor backed by Cloud Storage and
// Firestore, plus Vertex AI and Workflows when they are configured.
func NewProcessorFunction(ctx context.Context, cfg *config.Config) (*ProcessorFunction, error) {
	if err := cfg.RequireProject(); err != nil {
		return nil, err
	}

	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	firestoreClient, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID)
	if err != nil {
		storageClient.Close()
		return nil, err
	}
	closers := []func() error{storageClient.Close, firestoreClient.Close}

	deps := Deps{
		Fetcher: gcp.NewStorageFetcher(storageClient),
		Store:   gcp.NewFirestoreStore(firestoreClient, cfg.RecordTable),
	}

	if cfg.VertexOCRModel != "" {
		transcriber, err := gcp.NewVertexTranscriber(ctx, cfg.ProjectID, cfg.Region, cfg.VertexOCRModel)
		if err != nil {
			closeAll(closers)
			return nil, err
		}
		deps.Transcriber = transcriber
		closers = append(closers, transcriber.Close)
	}
	if cfg.WorkflowID != "" {
		notifier, err := gcp.NewWorkflowNotifier(ctx, cfg.ProjectID, cfg.WorkflowLocation, cfg.WorkflowID)
		if err != nil {
			closeAll(closers)
			return nil, err
		}
		deps.Notifier = notifier
		closers = append(closers, notifier.Close)
	}

	f := NewProcessor(cfg, deps)
	f.closers = closers
	f.logger.Info("Processor initialized.", "engines", f.chain.Engines(), "recordTable", cfg.RecordTable, "notifier", cfg.WorkflowID != "")
	return f, nil
}

func closeAll(closers []func() error) {
	for _, c := range closers {
		_ = c()
	}
}

// Close releases the clients created by NewProcessorFunction.
func (f *ProcessorFunction) Close() error {
	var firstErr error
	for _, c := range f.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Filter exposes the object filter the processor was configured with.
func (f *ProcessorFunction) Filter() ObjectFilter {
	return f.filter
}

// run carries the state of one document through the pipeline.
type run struct {
	meta   documentMeta
	stage  Stage
	logCtx *slog.Logger
}

func (r *run) enter(stage Stage) {
	r.stage = stage
	r.logCtx.Debug("Entering stage.", "stage", string(stage))
}

// Process runs one object end to end. The summary is always usable; the
// error is non-nil only for failed runs.
func (f *ProcessorFunction) Process(ctx context.Context, ref models.ObjectRef) (summary models.Summary, err error) {
	container := ref.Container
	if container == "" {
		container = f.config.SourceContainer
	}
	r := &run{
		meta: documentMeta{
			DocumentID:      NewDocumentID(ref.IdempotencyKey),
			Filename:        fetch.DeclaredName(nil, ref.Key),
			SourceContainer: container,
			SourceKey:       ref.Key,
			IdempotencyKey:  ref.IdempotencyKey,
		},
		stage: StageFetching,
	}
	r.logCtx = f.logger.With("sourceContainer", container, "sourceKey", ref.Key, "documentId", r.meta.DocumentID)
	r.logCtx.Info("Processing document.")

	defer func() {
		if p := recover(); p != nil {
			summary, err = f.handleError(ctx, r, errors.Newf("panic: %v", p))
		}
		f.notify(ctx, r, summary)
	}()

	return f.process(ctx, r)
}

func (f *ProcessorFunction) process(ctx context.Context, r *run) (models.Summary, error) {
	r.enter(StageFetching)
	doc, err := f.fetcher.Fetch(ctx, r.meta.SourceContainer, r.meta.SourceKey)
	if err != nil {
		if gcp.IsNotFound(err) {
			r.logCtx.Warn("Source object does not exist.")
		}
		return f.handleError(ctx, r, errors.Mark(err, ErrFetch))
	}
	defer doc.Release()

	r.meta.Filename = doc.DeclaredName
	r.meta.FileSize = doc.SizeBytes
	r.meta.ContentType = doc.ContentKind

	data, err := doc.Bytes()
	if err != nil {
		return f.handleError(ctx, r, err)
	}
	fileHash, err := doc.Hash()
	if err != nil {
		return f.handleError(ctx, r, errors.Mark(errors.Wrap(err, "failed to calculate file hash"), ErrFetch))
	}
	r.meta.FileHash = fileHash
	r.logCtx = r.logCtx.With("fileHash", fileHash)

	if f.config.DedupByHash {
		existing, found, err := f.persister.store.FindByHash(ctx, fileHash)
		switch {
		case err != nil:
			r.logCtx.Warn("Duplicate check failed, processing anyway.", "error", err)
		case found:
			r.logCtx.Info("Duplicate file detected. Skipping.", "existingDocId", existing)
			r.stage = StageDone
			return models.Summary{DocumentID: existing, Status: models.StatusDuplicate, SourceKey: r.meta.SourceKey}, nil
		}
	}

	r.enter(StageExtracting)
	outcome := f.chain.Run(ctx, data)
	r.logCtx = r.logCtx.With("engine", outcome.Engine)

	res := analysisResult{Outcome: outcome}
	r.enter(StageScoring)
	if err := guard(ErrScoring, func() {
		res.Confidence = analysis.Score(outcome.Text, outcome.Tier, outcome.TableRows)
	}); err != nil {
		return f.handleError(ctx, r, err)
	}

	r.enter(StageClassifying)
	if err := guard(ErrClassification, func() {
		res.Classification = analysis.Classify(outcome.Text)
		res.Entities = analysis.ExtractEntities(outcome.Text, f.config.EntityLimit)
	}); err != nil {
		return f.handleError(ctx, r, err)
	}

	r.enter(StagePersisting)
	rec := f.persister.Completed(r.meta, res)
	if err := f.persister.Save(ctx, rec); err != nil {
		if errors.Is(err, ErrRecordExists) && r.meta.IdempotencyKey != "" {
			r.logCtx.Info("Record for idempotency key already exists. Skipping.", "idempotencyKey", r.meta.IdempotencyKey)
			r.stage = StageDone
			return models.Summary{DocumentID: r.meta.DocumentID, Status: models.StatusDuplicate, SourceKey: r.meta.SourceKey}, nil
		}
		return f.handleError(ctx, r, err)
	}

	r.enter(StageDone)
	r.logCtx.Info("Document processed.",
		"documentType", rec.DocumentType,
		"confidence", rec.Confidence,
		"totalLines", rec.TotalLines,
		"totalPages", rec.TotalPages,
		"tableRows", outcome.TableRows,
	)
	return Summarize(rec, f.config.PreviewChars), nil
}

// handleError logs the failure, makes one best-effort attempt to record it,
// and returns the failed summary with the error.
func (f *ProcessorFunction) handleError(ctx context.Context, r *run, cause error) (models.Summary, error) {
	failedIn := r.stage
	r.stage = StageFailed
	r.logCtx.Error("Document processing failed.", "stage", string(failedIn), "error", cause)

	rec := f.persister.Failed(r.meta, failedIn, cause)
	if err := f.persister.Save(ctx, rec); err != nil {
		r.logCtx.Error("CRITICAL: Failed to write error record after a processing error.", "writeError", err)
	}
	return Summarize(rec, f.config.PreviewChars), errors.Wrapf(cause, "%s", failedIn)
}

func (f *ProcessorFunction) notify(ctx context.Context, r *run, summary models.Summary) {
	if f.notifier == nil {
		return
	}
	if err := f.notifier.Notify(ctx, summary); err != nil {
		r.logCtx.Warn("Failed to notify completion.", "status", summary.Status, "error", err)
	}
}

// ProcessBatch runs every accepted object of the trigger on a bounded worker
// pool. One document's failure never affects the others, and results keep
// the order of the accepted objects.
func (f *ProcessorFunction) ProcessBatch(ctx context.Context, event models.TriggerEvent) models.BatchResponse {
	accepted, skipped := f.filter.Split(event.Objects)
	logCtx := f.logger.With("objects", len(event.Objects), "accepted", len(accepted), "skipped", skipped)
	logCtx.Info("Starting batch.", "workers", f.config.Workers)

	results := make([]models.Summary, len(accepted))
	var eg errgroup.Group
	eg.SetLimit(max(f.config.Workers, 1))
	for i, ref := range accepted {
		eg.Go(func() error {
			results[i], _ = f.Process(ctx, ref)
			return nil
		})
	}
	_ = eg.Wait()

	resp := models.BatchResponse{Skipped: skipped, Results: results}
	for _, s := range results {
		if s.Status == models.StatusFailed {
			resp.Failed++
		} else {
			resp.Processed++
		}
	}
	switch {
	case resp.Failed == 0:
		resp.Status = BatchCompleted
	case resp.Processed == 0:
		resp.Status = BatchFailed
	default:
		resp.Status = BatchPartial
	}
	logCtx.Info("Batch finished.", "status", resp.Status, "processed", resp.Processed, "failed", resp.Failed)
	return resp
}
