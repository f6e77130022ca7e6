package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/cadenzahq/cadenza/internal/interfaces"
)

// StatusHandler reports aggregate application state for the UI status bar
type StatusHandler struct {
	orchestrator interfaces.Orchestrator
	ledger       interfaces.HistoryLedger
	startedAt    time.Time
	logger       arbor.ILogger
}

// NewStatusHandler creates the status API handler
func NewStatusHandler(orchestrator interfaces.Orchestrator, ledger interfaces.HistoryLedger, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		orchestrator: orchestrator,
		ledger:       ledger,
		startedAt:    time.Now(),
		logger:       logger,
	}
}

// GetStatusHandler returns queue counts and uptime.
// GET /api/status
func (h *StatusHandler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	snapshot := h.orchestrator.Snapshot(r.Context())

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"queue": map[string]int{
			"total":      len(snapshot.Items),
			"pending":    snapshot.Pending,
			"processing": snapshot.Processing,
			"completed":  snapshot.Completed,
			"failed":     snapshot.Failed,
		},
		"history_count":  len(h.ledger.GetAll(r.Context())),
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
	})
}
