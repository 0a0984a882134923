package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/medpal/docextract/internal/config"
	"github.com/medpal/docextract/internal/services"
)

const maxBodyBytes = 1 << 20

var (
	processorInstance *services.ProcessorFunction
	once              sync.Once
	initErr           error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("ProcessBatch", processBatch)
}

// main is required by the Go Functions Framework.
func main() {}

// processBatch accepts a JSON TriggerEvent and answers with a BatchResponse.
func processBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

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
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		slog.Error("Could not read request body", "error", err)
		http.Error(w, "Bad Request: could not read body", http.StatusBadRequest)
		return
	}
	event, err := services.DecodeTrigger(body)
	if err != nil {
		slog.Error("Could not decode request body", "error", err)
		http.Error(w, "Bad Request: "+err.Error(), http.StatusBadRequest)
		return
	}

	// Per-document failures are reported in the body, never as an HTTP error.
	res := processorInstance.ProcessBatch(r.Context(), event)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}
