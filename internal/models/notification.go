package models

// Notification is a one-line, human-readable message surfaced to the UI
type Notification struct {
	Level   string `json:"level"` // "info" or "error"
	Message string `json:"message"`
}
