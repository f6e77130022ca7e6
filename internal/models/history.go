package models

import "time"

// HistoryCapacity is the maximum number of ledger entries retained.
// The ledger is a bounded cache, not a full audit log.
const HistoryCapacity = 50

// HistoryEntry records a completed generation independent of any queue
// item; an item may be discarded while its history entry persists.
// Entries are never mutated, only evicted by capacity.
type HistoryEntry struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Category      string    `json:"category,omitempty"`
	VoiceName     string    `json:"voice_name"`
	HostVoice     string    `json:"host_voice"`
	GuestVoice    string    `json:"guest_voice"`
	Duration      float64   `json:"duration"`
	AudioURL      string    `json:"audio_url"`
	TopicID       string    `json:"topic_id"`
	ScriptPreview string    `json:"script_preview,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
