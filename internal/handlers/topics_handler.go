package handlers

import (
	"net/http"
	"strconv"

	"github.com/ternarybob/arbor"

	"github.com/cadenzahq/cadenza/internal/interfaces"
)

// defaultDiscoverLimit caps topic discovery when the caller does not ask
// for a specific count
const defaultDiscoverLimit = 10

// TopicsHandler proxies topic discovery for the UI
type TopicsHandler struct {
	source interfaces.TopicSource
	logger arbor.ILogger
}

// NewTopicsHandler creates the topics API handler
func NewTopicsHandler(source interfaces.TopicSource, logger arbor.ILogger) *TopicsHandler {
	return &TopicsHandler{
		source: source,
		logger: logger,
	}
}

// DiscoverHandler returns discovered topics.
// GET /api/topics?category=science&limit=10
func (h *TopicsHandler) DiscoverHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	limit := defaultDiscoverLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	topics, err := h.source.Discover(r.Context(), r.URL.Query().Get("category"), limit)
	if err != nil {
		WriteError(w, http.StatusBadGateway, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"topics": topics,
		"count":  len(topics),
	})
}
