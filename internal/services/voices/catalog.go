// Package voices resolves voice preset ids against a local YAML catalog,
// refreshed from the generation service when it is reachable.
package voices

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/ternarybob/arbor"
	"gopkg.in/yaml.v3"

	"github.com/cadenzahq/cadenza/internal/interfaces"
	"github.com/cadenzahq/cadenza/internal/models"
)

// catalogFile is the on-disk YAML shape
type catalogFile struct {
	Voices []models.VoicePreset `yaml:"voices"`
}

// Catalog is the voice preset registry. The local file is the source of
// truth for validation; Refresh merges in presets the remote service
// reports that the file does not know yet.
type Catalog struct {
	client interfaces.GenerationClient
	logger arbor.ILogger

	mu      sync.RWMutex
	presets []models.VoicePreset
	byID    map[string]models.VoicePreset
}

// NewCatalog loads the voice catalog from the given YAML file. A missing
// file yields an empty catalog; validation then accepts any id, so a
// misplaced file degrades to permissive rather than blocking all enqueues.
func NewCatalog(path string, client interfaces.GenerationClient, logger arbor.ILogger) (*Catalog, error) {
	c := &Catalog{
		client: client,
		logger: logger,
		byID:   make(map[string]models.VoicePreset),
	}

	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn().Str("path", path).Msg("Voice catalog file not found, starting empty")
			return c, nil
		}
		return nil, fmt.Errorf("failed to read voice catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse voice catalog: %w", err)
	}

	c.replace(file.Voices)
	logger.Info().Str("path", path).Int("voices", len(file.Voices)).Msg("Voice catalog loaded")
	return c, nil
}

func (c *Catalog) replace(presets []models.VoicePreset) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.presets = presets
	c.byID = make(map[string]models.VoicePreset, len(presets))
	for _, preset := range presets {
		c.byID[preset.ID] = preset
	}
}

// Refresh merges presets reported by the generation service into the
// catalog. Failures are logged and swallowed; the local catalog keeps
// serving.
func (c *Catalog) Refresh(ctx context.Context) {
	if c.client == nil {
		return
	}

	remote, err := c.client.Voices(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Voice catalog refresh failed, keeping local catalog")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	added := 0
	for _, preset := range remote {
		if _, ok := c.byID[preset.ID]; ok {
			continue
		}
		c.byID[preset.ID] = preset
		c.presets = append(c.presets, preset)
		added++
	}

	if added > 0 {
		c.logger.Info().Int("added", added).Msg("Voice catalog refreshed from generation service")
	}
}

// List returns all known voice presets.
func (c *Catalog) List(ctx context.Context) ([]models.VoicePreset, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.VoicePreset, len(c.presets))
	copy(out, c.presets)
	return out, nil
}

// DisplayName composes the user-facing voice pair label. Unknown ids fall
// back to the raw id so history entries always render.
func (c *Catalog) DisplayName(hostVoice, guestVoice string) string {
	return c.nameFor(hostVoice) + " + " + c.nameFor(guestVoice)
}

func (c *Catalog) nameFor(id string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if preset, ok := c.byID[id]; ok && preset.Name != "" {
		return preset.Name
	}
	return id
}

// Validate checks that both voice ids are known. An empty catalog accepts
// everything.
func (c *Catalog) Validate(hostVoice, guestVoice string) error {
	if hostVoice == "" || guestVoice == "" {
		return fmt.Errorf("host and guest voices are required")
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.byID) == 0 {
		return nil
	}
	if _, ok := c.byID[hostVoice]; !ok {
		return fmt.Errorf("unknown host voice: %q", hostVoice)
	}
	if _, ok := c.byID[guestVoice]; !ok {
		return fmt.Errorf("unknown guest voice: %q", guestVoice)
	}
	return nil
}
