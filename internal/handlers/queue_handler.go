package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/cadenzahq/cadenza/internal/interfaces"
	"github.com/cadenzahq/cadenza/internal/models"
	"github.com/cadenzahq/cadenza/internal/services/queue"
	"github.com/cadenzahq/cadenza/internal/services/transfer"
)

// maxImportSize bounds uploaded export documents
const maxImportSize = 10 << 20

// QueueHandler serves the queue CRUD and processing API
type QueueHandler struct {
	orchestrator interfaces.Orchestrator
	store        interfaces.QueueStore
	transfer     *transfer.Service
	voices       interfaces.VoiceCatalog
	client       interfaces.GenerationClient
	logger       arbor.ILogger
}

// NewQueueHandler creates the queue API handler
func NewQueueHandler(orchestrator interfaces.Orchestrator, store interfaces.QueueStore, transferService *transfer.Service, voices interfaces.VoiceCatalog, client interfaces.GenerationClient, logger arbor.ILogger) *QueueHandler {
	return &QueueHandler{
		orchestrator: orchestrator,
		store:        store,
		transfer:     transferService,
		voices:       voices,
		client:       client,
		logger:       logger,
	}
}

// ListHandler returns the current queue snapshot.
// GET /api/queue
func (h *QueueHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, h.orchestrator.Snapshot(r.Context()))
}

// enqueueRequest is the POST /api/queue payload
type enqueueRequest struct {
	Topics     []models.Topic `json:"topics"`
	HostVoice  string         `json:"host_voice"`
	GuestVoice string         `json:"guest_voice"`
}

// EnqueueHandler adds topics to the queue.
// POST /api/queue
func (h *QueueHandler) EnqueueHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req enqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if len(req.Topics) == 0 {
		WriteError(w, http.StatusBadRequest, "No topics provided")
		return
	}
	if err := h.voices.Validate(req.HostVoice, req.GuestVoice); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := h.orchestrator.Enqueue(r.Context(), req.Topics, req.HostVoice, req.GuestVoice)
	WriteJSON(w, http.StatusOK, result)
}

// ProcessHandler starts a queue run in the background.
// POST /api/queue/process
func (h *QueueHandler) ProcessHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	go func() {
		// Detached from the request: the run outlives the HTTP response
		if _, err := h.orchestrator.ProcessQueue(context.Background()); err != nil {
			if errors.Is(err, queue.ErrProcessingActive) {
				return
			}
			h.logger.Warn().Err(err).Msg("Queue run failed")
		}
	}()

	WriteStarted(w, "Queue processing started")
}

// GenerateNowHandler runs a single item immediately.
// POST /api/queue/{id}/generate
func (h *QueueHandler) GenerateNowHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/queue/"), "/generate")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Missing queue item id")
		return
	}

	go func() {
		err := h.orchestrator.GenerateNow(context.Background(), id)
		if err != nil && !errors.Is(err, queue.ErrCancelled) {
			h.logger.Warn().Err(err).Str("item_id", id).Msg("Single-item generation failed")
		}
	}()

	WriteStarted(w, "Generation started")
}

// CancelHandler cancels the in-flight single-item generation.
// POST /api/queue/cancel
func (h *QueueHandler) CancelHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	h.orchestrator.CancelGeneration()
	WriteSuccess(w, "Cancellation requested")
}

// RemoveHandler deletes a queue item.
// DELETE /api/queue/{id}
func (h *QueueHandler) RemoveHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/queue/")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Missing queue item id")
		return
	}

	if _, err := h.store.Get(r.Context(), id); err != nil {
		WriteError(w, http.StatusNotFound, "Queue item not found")
		return
	}

	h.store.Remove(r.Context(), id)
	WriteSuccess(w, "Queue item removed")
}

// ClearCompletedHandler removes all terminal items.
// POST /api/queue/clear-completed
func (h *QueueHandler) ClearCompletedHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	removed := h.store.ClearTerminal(r.Context())
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"removed": removed,
	})
}

// ExportHandler serializes the queue as a downloadable document.
// GET /api/queue/export?filter=all|pending|completed
func (h *QueueHandler) ExportHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	filter := models.ExportFilter(r.URL.Query().Get("filter"))
	if filter == "" {
		filter = models.ExportFilterAll
	}

	doc, filename, err := h.transfer.Export(r.Context(), filter)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	WriteJSON(w, http.StatusOK, doc)
}

// ImportHandler rehydrates an uploaded export document.
// POST /api/queue/import
func (h *QueueHandler) ImportHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportSize))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	result, err := h.transfer.Import(r.Context(), data)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// estimateRequest is the POST /api/queue/estimate payload
type estimateRequest struct {
	Content string `json:"content"`
}

// EstimateHandler proxies a cost estimate for a document.
// POST /api/queue/estimate
func (h *QueueHandler) EstimateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req estimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		WriteError(w, http.StatusBadRequest, "Content is required")
		return
	}

	estimate, err := h.client.EstimateCost(r.Context(), req.Content)
	if err != nil {
		WriteError(w, http.StatusBadGateway, fmt.Sprintf("Cost estimate failed: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, estimate)
}
