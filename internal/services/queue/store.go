// Package queue implements the generation queue: the persisted work list,
// the bounded history ledger and the orchestrator that drives items through
// the submit/poll/terminal state machine.
package queue

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/cadenzahq/cadenza/internal/common"
	"github.com/cadenzahq/cadenza/internal/interfaces"
	"github.com/cadenzahq/cadenza/internal/models"
)

// QueueKey is the stable key the queue list is persisted under
const QueueKey = "cadenza:queue"

// Store owns the persisted queue items. The in-memory list is authoritative
// within the process; every mutation is written through to the key/value
// store best-effort, so a snapshot read immediately after a write reflects
// it even when durable persistence failed. A crash between the in-memory
// update and the write can lose the latest transition; the remote job id is
// the durable source of truth in that case.
type Store struct {
	kv     interfaces.KeyValueStorage
	logger arbor.ILogger

	mu     sync.Mutex
	items  []models.QueueItem
	loaded bool
}

// NewStore creates a queue store backed by the given key/value storage
func NewStore(kv interfaces.KeyValueStorage, logger arbor.ILogger) *Store {
	return &Store{
		kv:     kv,
		logger: logger,
	}
}

// ensureLoaded reads the persisted list once. Absent or malformed data
// yields an empty list; corruption is logged, never surfaced to callers.
func (s *Store) ensureLoaded(ctx context.Context) {
	if s.loaded {
		return
	}
	s.loaded = true

	raw, err := s.kv.Get(ctx, QueueKey)
	if err != nil {
		if err != interfaces.ErrKeyNotFound {
			s.logger.Warn().Err(err).Str("key", QueueKey).Msg("Failed to load queue, starting empty")
		}
		return
	}

	var items []models.QueueItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.logger.Warn().Err(err).Str("key", QueueKey).Msg("Malformed queue data, starting empty")
		return
	}

	s.items = items
}

// persist writes the full list through to storage. Failures are logged and
// swallowed; the in-memory state already reflects the change.
func (s *Store) persist(ctx context.Context) {
	data, err := json.Marshal(s.items)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to serialize queue")
		return
	}
	if err := s.kv.Set(ctx, QueueKey, string(data)); err != nil {
		s.logger.Warn().Err(err).Str("key", QueueKey).Msg("Failed to persist queue")
	}
}

// GetAll returns all queue items in insertion order
func (s *Store) GetAll(ctx context.Context) []models.QueueItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	out := make([]models.QueueItem, len(s.items))
	copy(out, s.items)
	return out
}

// Get returns a single item by id
func (s *Store) Get(ctx context.Context, id string) (*models.QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	for i := range s.items {
		if s.items[i].ID == id {
			item := s.items[i]
			return &item, nil
		}
	}
	return nil, interfaces.ErrItemNotFound
}

// Add assigns id and timestamp when absent, persists the item and returns
// the stored copy
func (s *Store) Add(ctx context.Context, item models.QueueItem) models.QueueItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	if item.ID == "" {
		item.ID = common.NewQueueItemID()
	}
	if item.Timestamp.IsZero() {
		item.Timestamp = time.Now()
	}

	s.items = append(s.items, item)
	s.persist(ctx)

	s.logger.Debug().
		Str("item_id", item.ID).
		Str("topic_id", item.TopicID).
		Str("status", string(item.Status)).
		Msg("Queue item added")

	return item
}

// Update merges the patch into the item with the given id. A missing id is
// a no-op, not an error.
func (s *Store) Update(ctx context.Context, id string, patch models.QueueItemPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	for i := range s.items {
		if s.items[i].ID == id {
			patch.Apply(&s.items[i])
			s.persist(ctx)
			return
		}
	}
}

// Remove deletes a single item by id
func (s *Store) Remove(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.persist(ctx)
			return
		}
	}
}

// ClearTerminal removes every item in a terminal state and returns the
// number removed
func (s *Store) ClearTerminal(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	kept := s.items[:0]
	removed := 0
	for _, item := range s.items {
		if item.Status.IsTerminal() {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	s.items = kept

	if removed > 0 {
		s.persist(ctx)
	}
	return removed
}

// Replace swaps the full item list (used by import)
func (s *Store) Replace(ctx context.Context, items []models.QueueItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loaded = true
	s.items = make([]models.QueueItem, len(items))
	copy(s.items, items)
	s.persist(ctx)
}
