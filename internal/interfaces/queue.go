package interfaces

import (
	"context"
	"errors"

	"github.com/cadenzahq/cadenza/internal/models"
)

// ErrItemNotFound is returned when a queue item id does not exist
var ErrItemNotFound = errors.New("queue item not found")

// QueueStore owns the persisted work list. The orchestrator is its single
// writer; every mutation is a full read-modify-write through the key/value
// store, so a snapshot read immediately after a write reflects it even when
// durable persistence failed.
type QueueStore interface {
	// GetAll returns all queue items in insertion order
	GetAll(ctx context.Context) []models.QueueItem

	// Get returns a single item by id
	Get(ctx context.Context, id string) (*models.QueueItem, error)

	// Add assigns a timestamp, persists the item and returns the stored copy
	Add(ctx context.Context, item models.QueueItem) models.QueueItem

	// Update merges the provided patch into the item; a missing id is a no-op
	Update(ctx context.Context, id string, patch models.QueueItemPatch)

	// Remove deletes a single item by id
	Remove(ctx context.Context, id string)

	// ClearTerminal removes every completed or failed item and returns the
	// number removed
	ClearTerminal(ctx context.Context) int

	// Replace swaps the full item list (used by import)
	Replace(ctx context.Context, items []models.QueueItem)
}

// HistoryLedger is the bounded, append/evict-only record of completed
// generations used for dedup and recall.
type HistoryLedger interface {
	// GetAll returns all entries, most recent first
	GetAll(ctx context.Context) []models.HistoryEntry

	// Append prepends an entry and truncates the ledger to its capacity
	Append(ctx context.Context, entry models.HistoryEntry)

	// FindMatch returns the most recent entry matching the exact
	// (topic, host voice, guest voice) triple, or nil
	FindMatch(ctx context.Context, topicID, hostVoice, guestVoice string) *models.HistoryEntry
}

// Orchestrator drives queue items through the submit/poll/terminal state
// machine. Processing is strictly sequential; there is no worker pool.
type Orchestrator interface {
	// Enqueue creates queue items for the given topics, short-circuiting
	// topics with a matching history entry into completed items
	Enqueue(ctx context.Context, topics []models.Topic, hostVoice, guestVoice string) models.EnqueueResult

	// ProcessQueue drains every item pending at call time, one at a time
	ProcessQueue(ctx context.Context) (*models.ProcessResult, error)

	// GenerateNow runs the submit/poll cycle for a single item with
	// cooperative cancellation support
	GenerateNow(ctx context.Context, id string) error

	// CancelGeneration stops local tracking of the in-flight single-item
	// generation; the remote job keeps running
	CancelGeneration()

	// Snapshot returns the current queue state for the UI
	Snapshot(ctx context.Context) models.QueueSnapshot
}
