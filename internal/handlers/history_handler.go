package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/cadenzahq/cadenza/internal/interfaces"
)

// HistoryHandler serves the completed-generation ledger
type HistoryHandler struct {
	ledger interfaces.HistoryLedger
	logger arbor.ILogger
}

// NewHistoryHandler creates the history API handler
func NewHistoryHandler(ledger interfaces.HistoryLedger, logger arbor.ILogger) *HistoryHandler {
	return &HistoryHandler{
		ledger: ledger,
		logger: logger,
	}
}

// ListHandler returns all history entries, most recent first.
// GET /api/history
func (h *HistoryHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	entries := h.ledger.GetAll(r.Context())
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}
