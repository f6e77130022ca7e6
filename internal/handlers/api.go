package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/cadenzahq/cadenza/internal/common"
	"github.com/cadenzahq/cadenza/internal/interfaces"
)

// APIHandler serves version, health and fallback routes
type APIHandler struct {
	config *common.Config
	client interfaces.GenerationClient
	logger arbor.ILogger
}

// NewAPIHandler creates the system API handler
func NewAPIHandler(config *common.Config, client interfaces.GenerationClient, logger arbor.ILogger) *APIHandler {
	return &APIHandler{
		config: config,
		client: client,
		logger: logger,
	}
}

// VersionHandler returns build version information
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version":    common.Version,
		"build":      common.Build,
		"git_commit": common.GitCommit,
	})
}

// HealthHandler reports service health including generation service
// reachability. The service stays healthy when the generation backend is
// down; queueing works offline, only processing needs the backend.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	generationStatus := "ok"
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	if err := h.client.Health(ctx); err != nil {
		generationStatus = "unreachable"
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":             "ok",
		"generation_service": generationStatus,
		"environment":        h.config.Environment,
	})
}

// NotFoundHandler is the fallback for unmatched API routes
func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusNotFound, "Not found")
}
