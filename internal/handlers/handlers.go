// Package handlers exposes the pipeline's HTTP surface: health probes and a
// replay endpoint for manually re-processing notification batches.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/smartstream-data/refinery/internal/logging"
	"github.com/smartstream-data/refinery/internal/notify"
	"github.com/smartstream-data/refinery/internal/pipeline"
)

// Processor runs the transform for a notification batch.
type Processor interface {
	ProcessBatch(ctx context.Context, notifs []notify.Notification) pipeline.Result
}

// Handler serves the refinery HTTP endpoints.
type Handler struct {
	processor Processor
	logger    *logging.Logger
}

// New creates a Handler.
func New(processor Processor, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{processor: processor, logger: logger}
}

// Health responds to liveness probes.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready responds to readiness probes.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Replay accepts a bucket-notification payload and runs the pipeline for it
// synchronously, returning the structured completion status. Used to re-run
// objects after a fix without waiting for redelivery.
func (h *Handler) Replay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read request body"})
		return
	}

	notifs, err := notify.ParseBatch(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if len(notifs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no notification records in payload"})
		return
	}

	result := h.processor.ProcessBatch(r.Context(), notifs)
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
