package interfaces

import (
	"context"

	"github.com/cadenzahq/cadenza/internal/models"
)

// VoiceCatalog resolves voice preset ids to display information and
// validates voice selections before enqueueing.
type VoiceCatalog interface {
	// List returns all known voice presets
	List(ctx context.Context) ([]models.VoicePreset, error)

	// DisplayName composes the user-facing voice pair label ("Host + Guest")
	DisplayName(hostVoice, guestVoice string) string

	// Validate checks that both voice ids are known
	Validate(hostVoice, guestVoice string) error
}
