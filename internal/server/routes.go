package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - Queue
	mux.HandleFunc("/api/queue", s.handleQueueRoute)   // GET (snapshot), POST (enqueue)
	mux.HandleFunc("/api/queue/", s.handleQueueRoutes) // item and action subroutes

	// API routes - History
	mux.HandleFunc("/api/history", s.app.HistoryHandler.ListHandler)

	// API routes - Topics and voices
	mux.HandleFunc("/api/topics", s.app.TopicsHandler.DiscoverHandler)
	mux.HandleFunc("/api/voices", s.app.VoicesHandler.ListHandler)

	// API routes - Logs
	mux.HandleFunc("/api/logs/recent", s.app.WSHandler.GetRecentLogsHandler)

	// API routes - System
	mux.HandleFunc("/api/status", s.app.StatusHandler.GetStatusHandler)
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleQueueRoute routes /api/queue requests (snapshot and enqueue)
func (s *Server) handleQueueRoute(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.app.QueueHandler.ListHandler(w, r)
	case http.MethodPost:
		s.app.QueueHandler.EnqueueHandler(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleQueueRoutes routes /api/queue/{...} actions and item requests
func (s *Server) handleQueueRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/queue/")

	switch path {
	case "process":
		s.app.QueueHandler.ProcessHandler(w, r)
		return
	case "cancel":
		s.app.QueueHandler.CancelHandler(w, r)
		return
	case "clear-completed":
		s.app.QueueHandler.ClearCompletedHandler(w, r)
		return
	case "export":
		s.app.QueueHandler.ExportHandler(w, r)
		return
	case "import":
		s.app.QueueHandler.ImportHandler(w, r)
		return
	case "estimate":
		s.app.QueueHandler.EstimateHandler(w, r)
		return
	}

	// POST /api/queue/{id}/generate
	if strings.HasSuffix(path, "/generate") {
		s.app.QueueHandler.GenerateNowHandler(w, r)
		return
	}

	// DELETE /api/queue/{id}
	if r.Method == http.MethodDelete && path != "" {
		s.app.QueueHandler.RemoveHandler(w, r)
		return
	}

	http.Error(w, "Not found", http.StatusNotFound)
}
