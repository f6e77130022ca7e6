// Package scheduler runs unattended queue processing on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/cadenzahq/cadenza/internal/interfaces"
	"github.com/cadenzahq/cadenza/internal/services/queue"
)

// Service triggers queue runs on a fixed schedule. A tick that lands while
// a run is still active is skipped, not queued up.
type Service struct {
	orchestrator interfaces.Orchestrator
	cron         *cron.Cron
	logger       arbor.ILogger

	mu      sync.Mutex
	running bool
}

// NewService creates the processing scheduler
func NewService(orchestrator interfaces.Orchestrator, logger arbor.ILogger) *Service {
	return &Service{
		orchestrator: orchestrator,
		cron:         cron.New(cron.WithSeconds()),
		logger:       logger,
	}
}

// Start begins scheduled processing with the given six-field cron
// expression
func (s *Service) Start(schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	if _, err := s.cron.AddFunc(schedule, s.runQueue); err != nil {
		return fmt.Errorf("failed to register processing schedule: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().Str("schedule", schedule).Msg("Scheduled queue processing enabled")
	return nil
}

// Stop halts the schedule and waits for an in-flight tick to return
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false

	s.logger.Info().Msg("Scheduled queue processing stopped")
}

func (s *Service) runQueue() {
	result, err := s.orchestrator.ProcessQueue(context.Background())
	if err != nil {
		if errors.Is(err, queue.ErrProcessingActive) {
			s.logger.Debug().Msg("Skipping scheduled run, queue processing already active")
			return
		}
		s.logger.Warn().Err(err).Msg("Scheduled queue run failed")
		return
	}

	if result.Processed > 0 {
		s.logger.Info().
			Int("processed", result.Processed).
			Int("completed", result.Completed).
			Int("failed", result.Failed).
			Msg("Scheduled queue run finished")
	}
}
