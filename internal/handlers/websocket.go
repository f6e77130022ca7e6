package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/cadenzahq/cadenza/internal/common"
	"github.com/cadenzahq/cadenza/internal/interfaces"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// recentLogCapacity bounds the in-memory log tail served to new clients
const recentLogCapacity = 200

// WSMessage is the envelope for all WebSocket messages
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// LogEntry is one log line forwarded to the UI
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// WebSocketHandler pushes queue snapshots, notifications and log lines to
// connected UI clients.
type WebSocketHandler struct {
	logger       arbor.ILogger
	orchestrator interfaces.Orchestrator
	eventService interfaces.EventService

	clients     map[*websocket.Conn]bool
	clientMutex map[*websocket.Conn]*sync.Mutex
	mu          sync.RWMutex

	// Rate limiter for queue_updated events; every item transition emits a
	// snapshot and clients only need the latest
	snapshotThrottler *rate.Limiter

	allowedEvents map[string]bool // empty = allow all

	logMu      sync.Mutex
	recentLogs []LogEntry

	// Unique per startup - clients use it to detect server restart
	serverInstanceID string
}

// NewWebSocketHandler creates the WebSocket handler
func NewWebSocketHandler(orchestrator interfaces.Orchestrator, eventService interfaces.EventService, logger arbor.ILogger, config *common.WebSocketConfig) *WebSocketHandler {
	h := &WebSocketHandler{
		logger:           logger,
		orchestrator:     orchestrator,
		eventService:     eventService,
		clients:          make(map[*websocket.Conn]bool),
		clientMutex:      make(map[*websocket.Conn]*sync.Mutex),
		allowedEvents:    make(map[string]bool),
		serverInstanceID: uuid.New().String(),
	}

	if config != nil {
		for _, eventType := range config.AllowedEvents {
			h.allowedEvents[eventType] = true
		}

		if intervalStr, ok := config.ThrottleIntervals[string(interfaces.EventQueueUpdated)]; ok {
			if duration, err := time.ParseDuration(intervalStr); err == nil {
				h.snapshotThrottler = rate.NewLimiter(rate.Every(duration), 1)
			} else {
				logger.Warn().
					Err(err).
					Str("interval", intervalStr).
					Msg("Failed to parse snapshot throttle interval, throttling disabled")
			}
		}
	}

	logger.Info().Str("server_instance_id", h.serverInstanceID).Msg("WebSocket handler initialized")

	if eventService != nil {
		h.subscribeEvents()
	}

	return h
}

// subscribeEvents forwards orchestrator events to connected clients
func (h *WebSocketHandler) subscribeEvents() {
	forwarded := []interfaces.EventType{
		interfaces.EventQueueUpdated,
		interfaces.EventItemCompleted,
		interfaces.EventItemFailed,
		interfaces.EventProcessingStarted,
		interfaces.EventProcessingFinished,
		interfaces.EventNotification,
	}

	for _, eventType := range forwarded {
		h.eventService.Subscribe(eventType, func(ctx context.Context, event interfaces.Event) error {
			h.broadcastEvent(event)
			return nil
		})
	}
}

// broadcastEvent relays one event to all clients, applying the whitelist
// and the snapshot throttle
func (h *WebSocketHandler) broadcastEvent(event interfaces.Event) {
	if len(h.allowedEvents) > 0 && !h.allowedEvents[string(event.Type)] {
		return
	}

	if event.Type == interfaces.EventQueueUpdated && h.snapshotThrottler != nil {
		if !h.snapshotThrottler.Allow() {
			return
		}
	}

	h.broadcast(WSMessage{
		Type:    string(event.Type),
		Payload: event.Payload,
	})
}

// HandleWebSocket upgrades the connection and serves it until close
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.clientMutex[conn] = &sync.Mutex{}
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().Msgf("WebSocket client connected (total: %d)", clientCount)

	h.sendHello(conn)
	h.sendSnapshot(r.Context(), conn)

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		delete(h.clientMutex, conn)
		remaining := len(h.clients)
		h.mu.Unlock()

		conn.Close()
		h.logger.Debug().Msgf("WebSocket client disconnected (remaining: %d)", remaining)
	}()

	// Read loop keeps the connection alive; client messages are ignored
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket error")
			}
			break
		}
	}
}

// sendHello identifies the server instance to the client
func (h *WebSocketHandler) sendHello(conn *websocket.Conn) {
	h.sendTo(conn, WSMessage{
		Type: "hello",
		Payload: map[string]string{
			"server_instance_id": h.serverInstanceID,
			"version":            common.Version,
		},
	})
}

// sendSnapshot pushes the current queue state to a newly connected client
func (h *WebSocketHandler) sendSnapshot(ctx context.Context, conn *websocket.Conn) {
	h.sendTo(conn, WSMessage{
		Type:    string(interfaces.EventQueueUpdated),
		Payload: h.orchestrator.Snapshot(ctx),
	})
}

// BroadcastLog forwards one log line to all clients and records it in the
// recent tail
func (h *WebSocketHandler) BroadcastLog(entry LogEntry) {
	h.logMu.Lock()
	h.recentLogs = append(h.recentLogs, entry)
	if len(h.recentLogs) > recentLogCapacity {
		h.recentLogs = h.recentLogs[len(h.recentLogs)-recentLogCapacity:]
	}
	h.logMu.Unlock()

	h.broadcast(WSMessage{
		Type:    string(interfaces.EventLogEntry),
		Payload: entry,
	})
}

// GetRecentLogsHandler returns the buffered log tail.
// GET /api/logs/recent
func (h *WebSocketHandler) GetRecentLogsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	h.logMu.Lock()
	logs := make([]LogEntry, len(h.recentLogs))
	copy(logs, h.recentLogs)
	h.logMu.Unlock()

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"logs":  logs,
		"count": len(logs),
	})
}

func (h *WebSocketHandler) broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Str("type", msg.Type).Msg("Failed to marshal WebSocket message")
		return
	}

	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	mutexes := make([]*sync.Mutex, 0, len(h.clients))
	for conn := range h.clients {
		clients = append(clients, conn)
		mutexes = append(mutexes, h.clientMutex[conn])
	}
	h.mu.RUnlock()

	for i, conn := range clients {
		mutex := mutexes[i]
		mutex.Lock()
		err := conn.WriteMessage(websocket.TextMessage, data)
		mutex.Unlock()

		if err != nil {
			h.logger.Warn().Err(err).Str("type", msg.Type).Msg("Failed to send WebSocket message")
		}
	}
}

func (h *WebSocketHandler) sendTo(conn *websocket.Conn, msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Str("type", msg.Type).Msg("Failed to marshal WebSocket message")
		return
	}

	h.mu.RLock()
	mutex := h.clientMutex[conn]
	h.mu.RUnlock()

	if mutex == nil {
		return
	}

	mutex.Lock()
	defer mutex.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.logger.Warn().Err(err).Str("type", msg.Type).Msg("Failed to send WebSocket message")
	}
}
