// Package transfer implements queue import and export: a versioned,
// self-describing JSON document that moves queue items between
// installations.
package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/cadenzahq/cadenza/internal/interfaces"
	"github.com/cadenzahq/cadenza/internal/models"
)

// Service serializes and rehydrates queue exchange documents
type Service struct {
	store    interfaces.QueueStore
	events   interfaces.EventService
	logger   arbor.ILogger
	validate *validator.Validate
}

// NewService creates the transfer service
func NewService(store interfaces.QueueStore, events interfaces.EventService, logger arbor.ILogger) *Service {
	return &Service{
		store:    store,
		events:   events,
		logger:   logger,
		validate: validator.New(),
	}
}

// Export serializes the selected subset of queue items into an exchange
// document and returns it with a suggested download filename.
func (s *Service) Export(ctx context.Context, filter models.ExportFilter) (*models.ExportDocument, string, error) {
	if !filter.IsValid() {
		return nil, "", fmt.Errorf("unknown export filter: %q", filter)
	}

	items := s.store.GetAll(ctx)
	selected := make([]models.QueueItem, 0, len(items))
	for _, item := range items {
		switch filter {
		case models.ExportFilterPending:
			if item.Status != models.ItemStatusPending {
				continue
			}
		case models.ExportFilterCompleted:
			if item.Status != models.ItemStatusCompleted {
				continue
			}
		}
		selected = append(selected, item)
	}

	now := time.Now().UTC()
	doc := &models.ExportDocument{
		Version:    models.ExportVersion,
		ExportDate: now,
		AppName:    models.ExportAppName,
		Queue:      selected,
	}

	s.logger.Info().
		Str("filter", string(filter)).
		Int("items", len(selected)).
		Msg("Queue exported")

	return doc, exportFilename(filter, now), nil
}

// exportFilename builds the suggested download name. The filter tag and
// timestamp keep repeated exports from colliding; this is a usability
// convention, not part of the document contract.
func exportFilename(filter models.ExportFilter, at time.Time) string {
	stamp := at.Format("20060102-150405")
	if filter == models.ExportFilterAll {
		return fmt.Sprintf("cadenza-queue-%s.json", stamp)
	}
	return fmt.Sprintf("cadenza-queue-%s-%s.json", filter, stamp)
}

// Import parses and validates an exchange document, then appends its valid
// items to the queue. A malformed top level rejects the whole document;
// invalid individual items become warnings while the valid remainder still
// imports. Every imported item gets a fresh id and timestamp, so importing
// the same file twice never collides with existing state.
func (s *Service) Import(ctx context.Context, data []byte) (*models.ImportResult, error) {
	var doc models.ExportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid import document: %w", err)
	}
	if err := s.validate.Struct(&doc); err != nil {
		return nil, fmt.Errorf("invalid import document: %w", err)
	}
	if doc.Queue == nil {
		return nil, fmt.Errorf("invalid import document: missing queue")
	}

	result := &models.ImportResult{}
	for i, item := range doc.Queue {
		if cause := validateItem(item); cause != "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("item %d: %s", i+1, cause))
			continue
		}

		item.ID = ""
		item.Timestamp = time.Time{}
		s.store.Add(ctx, item)
		result.Imported++
	}

	s.logger.Info().
		Int("imported", result.Imported).
		Int("warnings", len(result.Warnings)).
		Str("source_app", doc.AppName).
		Msg("Queue imported")

	s.publishSnapshot(ctx)
	s.publish(ctx, interfaces.EventNotification, models.Notification{
		Level:   "info",
		Message: fmt.Sprintf("Imported %d queue items (%d skipped)", result.Imported, len(result.Warnings)),
	})

	return result, nil
}

// validateItem returns a human-readable cause for rejecting an imported
// item, or "" when the item is acceptable
func validateItem(item models.QueueItem) string {
	if item.TopicID == "" {
		return "missing topic_id"
	}
	if item.TopicTitle == "" {
		return "missing topic_title"
	}
	if !item.Status.IsValid() {
		return fmt.Sprintf("unknown status %q", string(item.Status))
	}
	if item.Progress < 0 || item.Progress > 100 {
		return fmt.Sprintf("progress %d out of range", item.Progress)
	}
	return ""
}

func (s *Service) publishSnapshot(ctx context.Context) {
	s.publish(ctx, interfaces.EventQueueUpdated, models.NewQueueSnapshot(s.store.GetAll(ctx)))
}

func (s *Service) publish(ctx context.Context, eventType interfaces.EventType, payload interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, interfaces.Event{Type: eventType, Payload: payload}); err != nil {
		s.logger.Warn().Err(err).Str("event_type", string(eventType)).Msg("Failed to publish event")
	}
}
