package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ternarybob/arbor"

	"github.com/cadenzahq/cadenza/internal/common"
	"github.com/cadenzahq/cadenza/internal/interfaces"
	"github.com/cadenzahq/cadenza/internal/models"
)

var (
	// ErrProcessingActive is returned when a queue run is already underway
	ErrProcessingActive = errors.New("queue processing already running")

	// ErrCancelled is returned when single-item generation is cancelled
	// locally; the remote job keeps running
	ErrCancelled = errors.New("generation cancelled")
)

// Orchestrator drives queue items through pending -> processing ->
// {completed | failed}. Transitions are forward-only and every transition
// is persisted through the store before the next step runs. Processing is
// strictly sequential: one item's full submit/poll/terminal cycle completes
// before the next item starts.
type Orchestrator struct {
	store   *Store
	history *Ledger
	client  interfaces.GenerationClient
	events  interfaces.EventService
	voices  interfaces.VoiceCatalog
	config  *common.Config
	logger  arbor.ILogger
	clock   Clock

	mu         sync.Mutex
	processing bool

	// Cooperative cancellation flag for the single-item path. Checked at
	// the top of each polling iteration; it never cancels a request
	// already in flight.
	cancelled atomic.Bool
}

// NewOrchestrator creates the queue orchestrator
func NewOrchestrator(store *Store, history *Ledger, client interfaces.GenerationClient, events interfaces.EventService, voices interfaces.VoiceCatalog, config *common.Config, logger arbor.ILogger) *Orchestrator {
	return &Orchestrator{
		store:   store,
		history: history,
		client:  client,
		events:  events,
		voices:  voices,
		config:  config,
		logger:  logger,
		clock:   NewClock(),
	}
}

// WithClock replaces the wall clock, used by tests to avoid real waits
func (o *Orchestrator) WithClock(clock Clock) *Orchestrator {
	o.clock = clock
	return o
}

// Enqueue creates queue items for the given topics. Topics with empty
// content are skipped. Topics with a matching history entry for the same
// voice pair are short-circuited into completed items without any remote
// call; regenerating identical work is wasted remote cost.
func (o *Orchestrator) Enqueue(ctx context.Context, topics []models.Topic, hostVoice, guestVoice string) models.EnqueueResult {
	var result models.EnqueueResult

	for _, topic := range topics {
		if strings.TrimSpace(topic.Content) == "" {
			result.Skipped++
			o.logger.Debug().Str("topic_id", topic.ID).Msg("Skipping topic with empty content")
			continue
		}

		item := models.QueueItem{
			TopicID:         topic.ID,
			TopicTitle:      topic.Title,
			Category:        topic.Category,
			DocumentContent: topic.Content,
			HostVoice:       hostVoice,
			GuestVoice:      guestVoice,
		}

		if match := o.history.FindMatch(ctx, topic.ID, hostVoice, guestVoice); match != nil {
			item.Status = models.ItemStatusCompleted
			item.Progress = 100
			item.Result = &models.GenerationResult{
				AudioFile:       match.AudioURL,
				DurationSeconds: match.Duration,
			}
			o.store.Add(ctx, item)
			result.Reused++

			o.logger.Info().
				Str("topic_id", topic.ID).
				Str("history_id", match.ID).
				Msg("Reusing prior generation from history")
			continue
		}

		item.Status = models.ItemStatusPending
		item.Progress = 0
		o.store.Add(ctx, item)
		result.NewlyQueued++
	}

	o.emitSnapshot(ctx)
	o.notify(ctx, "info", fmt.Sprintf("Added %d topics to the queue (%d reused from history)",
		result.NewlyQueued, result.Reused))

	return result
}

// ProcessQueue drains every item pending at call time, one at a time.
// Items enqueued mid-run are not picked up; re-invoke to catch them.
// One item's failure never aborts the run.
func (o *Orchestrator) ProcessQueue(ctx context.Context) (*models.ProcessResult, error) {
	o.mu.Lock()
	if o.processing {
		o.mu.Unlock()
		return nil, ErrProcessingActive
	}
	o.processing = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.processing = false
		o.mu.Unlock()
	}()

	var pendingIDs []string
	for _, item := range o.store.GetAll(ctx) {
		if item.Status == models.ItemStatusPending {
			pendingIDs = append(pendingIDs, item.ID)
		}
	}

	if len(pendingIDs) == 0 {
		o.notify(ctx, "info", "No pending items in the queue")
		return &models.ProcessResult{}, nil
	}

	o.publish(ctx, interfaces.EventProcessingStarted, len(pendingIDs))
	o.logger.Info().Int("pending", len(pendingIDs)).Msg("Processing queue")

	result := &models.ProcessResult{}
	for _, id := range pendingIDs {
		if ctx.Err() != nil {
			break
		}

		// Re-read: the item may have been removed or replaced mid-run
		item, err := o.store.Get(ctx, id)
		if err != nil || item.Status != models.ItemStatusPending {
			continue
		}

		result.Processed++
		if err := o.processItem(ctx, id, false); err != nil {
			result.Failed++
		} else {
			result.Completed++
		}
	}

	o.publish(ctx, interfaces.EventProcessingFinished, result)
	o.notify(ctx, "info", fmt.Sprintf("Queue run finished: %d completed, %d failed",
		result.Completed, result.Failed))

	return result, nil
}

// GenerateNow runs the submit/poll cycle for a single pending item with
// cooperative cancellation. On cancellation the item is reset to its
// uninitiated display state; the remote-side job is not cancelled and may
// still complete unobserved.
func (o *Orchestrator) GenerateNow(ctx context.Context, id string) error {
	o.mu.Lock()
	if o.processing {
		o.mu.Unlock()
		return ErrProcessingActive
	}
	o.processing = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.processing = false
		o.mu.Unlock()
	}()

	o.cancelled.Store(false)

	err := o.processItem(ctx, id, true)
	if errors.Is(err, ErrCancelled) {
		o.store.Update(ctx, id, models.QueueItemPatch{
			Status:   ptr(models.ItemStatusPending),
			Progress: ptr(0),
			JobID:    ptr(""),
		})
		o.emitSnapshot(ctx)
		o.notify(ctx, "info", "Generation cancelled")
	}
	return err
}

// CancelGeneration stops local tracking of the in-flight single-item
// generation. The queued/bulk path does not support cancellation.
func (o *Orchestrator) CancelGeneration() {
	o.cancelled.Store(true)
}

// Snapshot returns the current queue state for the UI
func (o *Orchestrator) Snapshot(ctx context.Context) models.QueueSnapshot {
	return models.NewQueueSnapshot(o.store.GetAll(ctx))
}

// processItem runs one item's full cycle: transition to processing, submit,
// poll to a terminal status, record the outcome.
func (o *Orchestrator) processItem(ctx context.Context, id string, allowCancel bool) error {
	item, err := o.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if item.Status != models.ItemStatusPending {
		return fmt.Errorf("item %s is %s, not pending", id, item.Status)
	}

	o.store.Update(ctx, id, models.QueueItemPatch{
		Status:   ptr(models.ItemStatusProcessing),
		Progress: ptr(progressSubmitting),
	})
	o.emitSnapshot(ctx)

	req := models.GenerationRequest{
		Content:      item.DocumentContent,
		HostVoice:    item.HostVoice,
		GuestVoice:   item.GuestVoice,
		Style:        o.config.Generation.Style,
		Tone:         o.config.Generation.Tone,
		Length:       o.config.Generation.Length,
		OutputFormat: o.config.Generation.OutputFormat,
		SaveScript:   o.config.Generation.SaveScript,
	}
	req.ApplyDefaults()

	jobID, err := o.client.Submit(ctx, req)
	if err != nil {
		o.failItem(ctx, item, fmt.Sprintf("submission failed: %v", err))
		return err
	}

	o.store.Update(ctx, id, models.QueueItemPatch{
		JobID:    ptr(jobID),
		Progress: ptr(progressSubmitted),
	})
	o.emitSnapshot(ctx)

	o.logger.Info().
		Str("item_id", id).
		Str("job_id", jobID).
		Msg("Generation job submitted")

	result, err := o.poll(ctx, id, jobID, allowCancel)
	if err != nil {
		if errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled) {
			return err
		}
		o.failItem(ctx, item, err.Error())
		return err
	}

	o.completeItem(ctx, item, result)
	return nil
}

// poll queries the remote job until it reaches a terminal status or the
// attempt ceiling is exhausted. The ceiling is bounded strictly by attempt
// count, not wall-clock; transient status errors consume an attempt.
func (o *Orchestrator) poll(ctx context.Context, id, jobID string, allowCancel bool) (*models.GenerationResult, error) {
	schedule := o.config.Queue.PollSchedule
	maxAttempts := o.config.Queue.MaxPollAttempts
	ceiling := o.config.Queue.ProgressCeiling

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if allowCancel && o.cancelled.Load() {
			return nil, ErrCancelled
		}

		if err := o.clock.Sleep(ctx, delayFor(schedule, attempt)); err != nil {
			return nil, err
		}

		if allowCancel && o.cancelled.Load() {
			return nil, ErrCancelled
		}

		status, err := o.client.Status(ctx, jobID)
		if err != nil {
			o.logger.Warn().
				Err(err).
				Str("job_id", jobID).
				Int("attempt", attempt+1).
				Msg("Status poll failed, retrying")
			continue
		}

		switch status.Status {
		case models.JobStatusCompleted:
			if status.Result == nil {
				return nil, errors.New("remote job completed without a result descriptor")
			}
			return status.Result, nil

		case models.JobStatusFailed:
			msg := status.Message
			if msg == "" {
				msg = "generation failed"
			}
			return nil, errors.New(msg)

		default:
			// queued/processing/unknown: advance the bounded progress bar
			o.store.Update(ctx, id, models.QueueItemPatch{
				Progress: ptr(progressFor(attempt, maxAttempts, ceiling)),
			})
			o.emitSnapshot(ctx)
		}
	}

	return nil, errors.New("generation timed out")
}

func (o *Orchestrator) completeItem(ctx context.Context, item *models.QueueItem, result *models.GenerationResult) {
	o.store.Update(ctx, item.ID, models.QueueItemPatch{
		Status:   ptr(models.ItemStatusCompleted),
		Progress: ptr(100),
		Result:   result,
	})

	entry := models.HistoryEntry{
		ID:            common.NewHistoryID(),
		Title:         item.TopicTitle,
		Category:      item.Category,
		VoiceName:     o.voices.DisplayName(item.HostVoice, item.GuestVoice),
		HostVoice:     item.HostVoice,
		GuestVoice:    item.GuestVoice,
		Duration:      result.DurationSeconds,
		AudioURL:      result.AudioFile,
		TopicID:       item.TopicID,
		ScriptPreview: scriptPreview(result),
		CreatedAt:     o.clock.Now(),
	}
	o.history.Append(ctx, entry)

	o.emitSnapshot(ctx)
	o.publish(ctx, interfaces.EventItemCompleted, item.ID)
	o.notify(ctx, "info", fmt.Sprintf("Podcast ready: %s", item.TopicTitle))

	o.logger.Info().
		Str("item_id", item.ID).
		Str("audio_file", result.AudioFile).
		Float64("duration_seconds", result.DurationSeconds).
		Msg("Generation completed")
}

func (o *Orchestrator) failItem(ctx context.Context, item *models.QueueItem, cause string) {
	o.store.Update(ctx, item.ID, models.QueueItemPatch{
		Status: ptr(models.ItemStatusFailed),
		Error:  ptr(cause),
	})

	o.emitSnapshot(ctx)
	o.publish(ctx, interfaces.EventItemFailed, item.ID)
	o.notify(ctx, "error", fmt.Sprintf("Generation failed for %q: %s", item.TopicTitle, cause))

	o.logger.Warn().
		Str("item_id", item.ID).
		Str("cause", cause).
		Msg("Generation failed")
}

func (o *Orchestrator) emitSnapshot(ctx context.Context) {
	o.publish(ctx, interfaces.EventQueueUpdated, o.Snapshot(ctx))
}

func (o *Orchestrator) notify(ctx context.Context, level, message string) {
	o.publish(ctx, interfaces.EventNotification, models.Notification{
		Level:   level,
		Message: message,
	})
}

func (o *Orchestrator) publish(ctx context.Context, eventType interfaces.EventType, payload interface{}) {
	if o.events == nil {
		return
	}
	if err := o.events.Publish(ctx, interfaces.Event{Type: eventType, Payload: payload}); err != nil {
		o.logger.Warn().Err(err).Str("event_type", string(eventType)).Msg("Failed to publish event")
	}
}

// scriptPreview extracts the script preview from result metadata when the
// remote service kept the script
func scriptPreview(result *models.GenerationResult) string {
	if result.Metadata == nil {
		return ""
	}
	if preview, ok := result.Metadata["script_preview"].(string); ok {
		return preview
	}
	return ""
}

func ptr[T any](v T) *T {
	return &v
}
