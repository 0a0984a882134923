package main

import (
	"fmt"
	"log/slog"

	"cloud.google.com/go/storage"
	"github.com/spf13/cobra"

	"github.com/medpal/docextract/internal/gcp"
	"github.com/medpal/docextract/internal/models"
	"github.com/medpal/docextract/internal/services"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Process existing Cloud Storage objects into Firestore",
	Long: `List the source container and run every object under the prefix through the
pipeline, exactly as the cloud functions would. Requires PROJECT_ID.

With --dry-run the matching keys are printed and nothing is processed.`,
	Args: cobra.NoArgs,
	RunE: runBackfill,
}

var (
	backfillContainer string
	backfillPrefix    string
	backfillDryRun    bool
	backfillKeyed     bool
)

func init() {
	backfillCmd.Flags().StringVar(&backfillContainer, "container", "", "Bucket to list (default SOURCE_CONTAINER)")
	backfillCmd.Flags().StringVar(&backfillPrefix, "prefix", "", "Key prefix to list (default SOURCE_PREFIX)")
	backfillCmd.Flags().BoolVar(&backfillDryRun, "dry-run", false, "Only print the matching keys")
	backfillCmd.Flags().BoolVar(&backfillKeyed, "idempotent", true, "Use gs://container/key as idempotency key so reruns are skipped")
}

func runBackfill(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireProject(); err != nil {
		return err
	}
	if backfillContainer == "" {
		backfillContainer = cfg.SourceContainer
	}
	if backfillPrefix != "" {
		cfg.SourcePrefix = backfillPrefix
	}

	ctx := cmd.Context()
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create storage client: %w", err)
	}
	defer storageClient.Close()

	keys, err := gcp.ListObjects(ctx, storageClient, backfillContainer, cfg.SourcePrefix, cfg.SourceSuffixes)
	if err != nil {
		return err
	}
	slog.Info("Listed source objects.", "container", backfillContainer, "prefix", cfg.SourcePrefix, "count", len(keys))

	if backfillDryRun {
		for _, key := range keys {
			fmt.Fprintln(cmd.OutOrStdout(), key)
		}
		return nil
	}

	processor, err := services.NewProcessorFunction(ctx, cfg)
	if err != nil {
		return err
	}
	defer processor.Close()

	event := models.TriggerEvent{Objects: make([]models.ObjectRef, len(keys))}
	for i, key := range keys {
		ref := models.ObjectRef{Container: backfillContainer, Key: key}
		if backfillKeyed {
			ref.IdempotencyKey = fmt.Sprintf("gs://%s/%s", backfillContainer, key)
		}
		event.Objects[i] = ref
	}

	resp := processor.ProcessBatch(ctx, event)
	if err := printJSON(cmd.OutOrStdout(), resp); err != nil {
		return err
	}
	if resp.Failed > 0 {
		return fmt.Errorf("%d of %d documents failed", resp.Failed, len(resp.Results))
	}
	return nil
}
