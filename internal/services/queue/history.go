package queue

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/cadenzahq/cadenza/internal/interfaces"
	"github.com/cadenzahq/cadenza/internal/models"
)

// HistoryKey is the stable key the ledger is persisted under
const HistoryKey = "cadenza:history"

// Ledger is the append/evict-only record of completed generations, most
// recent first, capped at a fixed number of entries. It is the source of
// truth for "have we already generated this topic with these voices".
type Ledger struct {
	kv     interfaces.KeyValueStorage
	logger arbor.ILogger
	limit  int

	mu      sync.Mutex
	entries []models.HistoryEntry
	loaded  bool
}

// NewLedger creates a history ledger. A limit <= 0 falls back to the
// default capacity.
func NewLedger(kv interfaces.KeyValueStorage, logger arbor.ILogger, limit int) *Ledger {
	if limit <= 0 {
		limit = models.HistoryCapacity
	}
	return &Ledger{
		kv:     kv,
		logger: logger,
		limit:  limit,
	}
}

func (l *Ledger) ensureLoaded(ctx context.Context) {
	if l.loaded {
		return
	}
	l.loaded = true

	raw, err := l.kv.Get(ctx, HistoryKey)
	if err != nil {
		if err != interfaces.ErrKeyNotFound {
			l.logger.Warn().Err(err).Str("key", HistoryKey).Msg("Failed to load history, starting empty")
		}
		return
	}

	var entries []models.HistoryEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		l.logger.Warn().Err(err).Str("key", HistoryKey).Msg("Malformed history data, starting empty")
		return
	}

	l.entries = entries
}

func (l *Ledger) persist(ctx context.Context) {
	data, err := json.Marshal(l.entries)
	if err != nil {
		l.logger.Error().Err(err).Msg("Failed to serialize history")
		return
	}
	if err := l.kv.Set(ctx, HistoryKey, string(data)); err != nil {
		l.logger.Warn().Err(err).Str("key", HistoryKey).Msg("Failed to persist history")
	}
}

// GetAll returns all entries, most recent first
func (l *Ledger) GetAll(ctx context.Context) []models.HistoryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLoaded(ctx)

	out := make([]models.HistoryEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Append prepends an entry and truncates the ledger to its capacity,
// evicting the oldest entries
func (l *Ledger) Append(ctx context.Context, entry models.HistoryEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLoaded(ctx)

	l.entries = append([]models.HistoryEntry{entry}, l.entries...)
	if len(l.entries) > l.limit {
		l.entries = l.entries[:l.limit]
	}
	l.persist(ctx)

	l.logger.Debug().
		Str("entry_id", entry.ID).
		Str("topic_id", entry.TopicID).
		Int("entries", len(l.entries)).
		Msg("History entry appended")
}

// FindMatch returns the most recent entry matching the exact
// (topic, host voice, guest voice) triple, or nil. Entries are ordered
// most recent first, so the first hit wins.
func (l *Ledger) FindMatch(ctx context.Context, topicID, hostVoice, guestVoice string) *models.HistoryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLoaded(ctx)

	for i := range l.entries {
		e := l.entries[i]
		if e.TopicID == topicID && e.HostVoice == hostVoice && e.GuestVoice == guestVoice {
			return &e
		}
	}
	return nil
}
