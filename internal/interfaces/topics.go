package interfaces

import (
	"context"

	"github.com/cadenzahq/cadenza/internal/models"
)

// TopicSource supplies discovered topics for enqueueing. The discovery
// service itself is an external collaborator; only its output is consumed.
type TopicSource interface {
	// Discover returns up to limit topics for a category ("" = any)
	Discover(ctx context.Context, category string, limit int) ([]models.Topic, error)

	// Get returns a single topic by id
	Get(ctx context.Context, id string) (*models.Topic, error)
}
