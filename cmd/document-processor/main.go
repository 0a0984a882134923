package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/medpal/docextract/internal/config"
	"github.com/medpal/docextract/internal/models"
	"github.com/medpal/docextract/internal/services"
)

var (
	processorInstance *services.ProcessorFunction
	once              sync.Once
	initErr           error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.CloudEvent("ProcessDocument", processDocument)
}

// main is required by the Go Functions Framework.
func main() {}

// processDocument handles storage object finalize events.
func processDocument(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			initErr = err
			return
		}
		processorInstance, initErr = services.NewProcessorFunction(context.Background(), cfg)
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var gcsEvent models.GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	if !processorInstance.Filter().Accept(gcsEvent.Name) {
		slog.Info("Ignoring object outside the upload prefix or suffixes.", "gcsBucket", gcsEvent.Bucket, "gcsObject", gcsEvent.Name)
		return nil
	}

	trigger := services.TriggerFromGCSEvent(gcsEvent)
	// A returned error marks the invocation failed; retries are up to the trigger.
	_, err := processorInstance.Process(ctx, trigger.Objects[0])
	return err
}
