package models

import (
	"fmt"
	"time"
)

// ItemStatus represents the lifecycle state of a queue item
type ItemStatus string

const (
	ItemStatusPending    ItemStatus = "pending"
	ItemStatusProcessing ItemStatus = "processing"
	ItemStatusCompleted  ItemStatus = "completed"
	ItemStatusFailed     ItemStatus = "failed"
)

// IsTerminal reports whether no further transitions are possible
func (s ItemStatus) IsTerminal() bool {
	return s == ItemStatusCompleted || s == ItemStatusFailed
}

// IsValid reports whether s is one of the four known states
func (s ItemStatus) IsValid() bool {
	switch s {
	case ItemStatusPending, ItemStatusProcessing, ItemStatusCompleted, ItemStatusFailed:
		return true
	}
	return false
}

// ParseItemStatus converts a raw string into an ItemStatus
func ParseItemStatus(raw string) (ItemStatus, error) {
	s := ItemStatus(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("unknown item status: %q", raw)
	}
	return s, nil
}

// QueueItem is one user-requested unit of generation work and its tracked
// lifecycle. Topic fields are snapshot at enqueue time; the topic may later
// change or disappear without affecting the item.
//
// Exactly one of Result/Error is present, matching completed/failed; both
// are absent in the non-terminal states.
type QueueItem struct {
	ID              string            `json:"id"`
	TopicID         string            `json:"topic_id"`
	TopicTitle      string            `json:"topic_title"`
	Category        string            `json:"category,omitempty"`
	DocumentContent string            `json:"document_content"`
	HostVoice       string            `json:"host_voice"`
	GuestVoice      string            `json:"guest_voice"`
	Status          ItemStatus        `json:"status"`
	Progress        int               `json:"progress"`
	JobID           string            `json:"job_id,omitempty"`
	Result          *GenerationResult `json:"result,omitempty"`
	Error           string            `json:"error,omitempty"`
	Timestamp       time.Time         `json:"timestamp"`
}

// QueueItemPatch carries merge-semantics updates for a queue item. Only
// non-nil fields are applied.
type QueueItemPatch struct {
	Status   *ItemStatus
	Progress *int
	JobID    *string
	Result   *GenerationResult
	Error    *string
}

// Apply merges the patch into the item
func (p QueueItemPatch) Apply(item *QueueItem) {
	if p.Status != nil {
		item.Status = *p.Status
	}
	if p.Progress != nil {
		item.Progress = *p.Progress
	}
	if p.JobID != nil {
		item.JobID = *p.JobID
	}
	if p.Result != nil {
		item.Result = p.Result
	}
	if p.Error != nil {
		item.Error = *p.Error
	}
}

// QueueSnapshot is the observable queue state consumed by the UI
type QueueSnapshot struct {
	Items      []QueueItem `json:"items"`
	Pending    int         `json:"pending"`
	Processing int         `json:"processing"`
	Completed  int         `json:"completed"`
	Failed     int         `json:"failed"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// NewQueueSnapshot builds a snapshot with per-status counts
func NewQueueSnapshot(items []QueueItem) QueueSnapshot {
	snap := QueueSnapshot{Items: items, UpdatedAt: time.Now()}
	for _, item := range items {
		switch item.Status {
		case ItemStatusPending:
			snap.Pending++
		case ItemStatusProcessing:
			snap.Processing++
		case ItemStatusCompleted:
			snap.Completed++
		case ItemStatusFailed:
			snap.Failed++
		}
	}
	return snap
}

// EnqueueResult reports the outcome of an enqueue call for user feedback
type EnqueueResult struct {
	Reused      int `json:"reused"`
	NewlyQueued int `json:"newly_queued"`
	Skipped     int `json:"skipped"`
}

// ProcessResult reports the outcome of a full queue run
type ProcessResult struct {
	Processed int `json:"processed"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}
