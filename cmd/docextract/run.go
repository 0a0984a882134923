package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/medpal/docextract/internal/fetch"
	"github.com/medpal/docextract/internal/gcp"
	"github.com/medpal/docextract/internal/models"
	"github.com/medpal/docextract/internal/services"
	"github.com/medpal/docextract/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run FILE...",
	Short: "Process local files and store the records in SQLite",
	Long: `Process local files through the extraction pipeline.

Records are written to the SQLite file given by --db. The batch response is
printed as JSON. Files without an accepted suffix (SOURCE_SUFFIXES) are skipped.
When PROJECT_ID and VERTEX_OCR_MODEL are set, scanned pages are transcribed with
Vertex AI.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// local paths are not under the upload prefix
	cfg.SourcePrefix = ""

	records, err := store.OpenSQLite(cfg.SQLitePath)
	if err != nil {
		return err
	}
	defer records.Close()

	deps := services.Deps{Fetcher: fetch.DirFetcher{}, Store: records}
	if cfg.VertexOCRModel != "" && cfg.ProjectID != "" {
		transcriber, err := gcp.NewVertexTranscriber(cmd.Context(), cfg.ProjectID, cfg.Region, cfg.VertexOCRModel)
		if err != nil {
			return err
		}
		defer transcriber.Close()
		deps.Transcriber = transcriber
	}

	var event models.TriggerEvent
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", arg, err)
		}
		event.Objects = append(event.Objects, models.ObjectRef{Container: filepath.Dir(abs), Key: filepath.Base(abs)})
	}

	resp := services.NewProcessor(cfg, deps).ProcessBatch(cmd.Context(), event)
	if err := printJSON(cmd.OutOrStdout(), resp); err != nil {
		return err
	}
	if resp.Failed > 0 {
		return fmt.Errorf("%d of %d documents failed", resp.Failed, len(resp.Results))
	}
	return nil
}
