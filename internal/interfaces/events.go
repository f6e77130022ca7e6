package interfaces

import "context"

// EventType identifies the kind of event being published
type EventType string

const (
	// EventQueueUpdated carries a fresh queue snapshot after every transition
	EventQueueUpdated EventType = "queue_updated"

	// EventItemCompleted fires when an item reaches completed
	EventItemCompleted EventType = "item_completed"

	// EventItemFailed fires when an item reaches failed
	EventItemFailed EventType = "item_failed"

	// EventProcessingStarted fires when a queue run begins
	EventProcessingStarted EventType = "processing_started"

	// EventProcessingFinished fires when a queue run ends
	EventProcessingFinished EventType = "processing_finished"

	// EventNotification carries one-line human-readable user notifications
	EventNotification EventType = "notification"

	// EventLogEntry carries service log lines forwarded to the UI
	EventLogEntry EventType = "log_entry"
)

// Event is a published message with an arbitrary payload
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload"`
}

// EventHandler processes a published event
type EventHandler func(ctx context.Context, event Event) error

// EventService is the pub/sub channel between the orchestrator and the
// outward-facing surfaces (WebSocket, logs)
type EventService interface {
	Subscribe(eventType EventType, handler EventHandler) error
	Publish(ctx context.Context, event Event) error
}
