package interfaces

import (
	"context"

	"github.com/cadenzahq/cadenza/internal/models"
)

// GenerationClient is the narrow contract to the remote generation service.
// Submission returns a job id; the job is then tracked by polling Status.
type GenerationClient interface {
	// Submit sends a generation request and returns the remote job id
	Submit(ctx context.Context, req models.GenerationRequest) (string, error)

	// Status queries a submitted job by id
	Status(ctx context.Context, jobID string) (*models.GenerationStatus, error)

	// EstimateCost returns the remote cost estimate for the given content
	EstimateCost(ctx context.Context, content string) (*models.CostEstimate, error)

	// Voices returns the voice presets known to the remote service
	Voices(ctx context.Context) ([]models.VoicePreset, error)

	// Health reports whether the remote service is reachable and ready
	Health(ctx context.Context) error
}
