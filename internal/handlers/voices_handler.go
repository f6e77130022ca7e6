package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/cadenzahq/cadenza/internal/interfaces"
)

// VoicesHandler serves the voice preset catalog
type VoicesHandler struct {
	catalog interfaces.VoiceCatalog
	logger  arbor.ILogger
}

// NewVoicesHandler creates the voices API handler
func NewVoicesHandler(catalog interfaces.VoiceCatalog, logger arbor.ILogger) *VoicesHandler {
	return &VoicesHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// ListHandler returns all known voice presets.
// GET /api/voices
func (h *VoicesHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	presets, err := h.catalog.List(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"voices": presets,
		"count":  len(presets),
	})
}
