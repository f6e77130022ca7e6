package handlers

import (
	"context"
	"fmt"
	"strings"
	"sync"

	plog "github.com/phuslu/log"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/levels"
	arbormodels "github.com/ternarybob/arbor/models"

	"github.com/cadenzahq/cadenza/internal/common"
)

// defaultExcludePatterns drops log lines that would feed back into the
// WebSocket channel they describe
var defaultExcludePatterns = []string{
	"WebSocket client connected",
	"WebSocket client disconnected",
	"HTTP request",
	"HTTP response",
	"Publishing event",
}

// LogForwarder consumes log batches from arbor's channel and relays them
// to WebSocket clients through the handler's broadcast path.
type LogForwarder struct {
	handler *WebSocketHandler
	logger  arbor.ILogger
	channel chan []arbormodels.LogEvent
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	minLevel        levels.LogLevel
	excludePatterns []string
}

// NewLogForwarder creates the WebSocket log forwarder
func NewLogForwarder(handler *WebSocketHandler, logger arbor.ILogger, wsConfig *common.WebSocketConfig) *LogForwarder {
	minLevel := levels.InfoLevel
	excludePatterns := defaultExcludePatterns

	if wsConfig != nil {
		minLevel = parseLogLevel(wsConfig.MinLevel)
		if len(wsConfig.ExcludePatterns) > 0 {
			excludePatterns = wsConfig.ExcludePatterns
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &LogForwarder{
		handler:         handler,
		logger:          logger,
		channel:         make(chan []arbormodels.LogEvent, 10),
		ctx:             ctx,
		cancel:          cancel,
		minLevel:        minLevel,
		excludePatterns: excludePatterns,
	}
}

// GetChannel returns the channel for arbor to send log batches to
func (f *LogForwarder) GetChannel() chan []arbormodels.LogEvent {
	return f.channel
}

// Start launches the forwarder goroutine
func (f *LogForwarder) Start() {
	f.wg.Add(1)
	go f.consume()
}

// Stop gracefully shuts down the forwarder
func (f *LogForwarder) Stop() {
	if f.cancel != nil {
		f.cancel()
	}
	f.wg.Wait()
}

func (f *LogForwarder) consume() {
	defer f.wg.Done()

	defer func() {
		if r := recover(); r != nil {
			f.logger.Error().
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("Log forwarder panic recovered")
		}
	}()

	for {
		select {
		case batch, ok := <-f.channel:
			if !ok {
				return
			}
			for _, event := range batch {
				f.forward(event)
			}
		case <-f.ctx.Done():
			return
		}
	}
}

func (f *LogForwarder) forward(event arbormodels.LogEvent) {
	arborLevel := plogToArborLevel(event.Level)
	if arborLevel < f.minLevel {
		return
	}

	for _, pattern := range f.excludePatterns {
		if strings.Contains(event.Message, pattern) {
			return
		}
	}

	f.handler.BroadcastLog(LogEntry{
		Timestamp: event.Timestamp.Format("15:04:05"),
		Level:     levelString(arborLevel),
		Message:   event.Message,
	})
}

// plogToArborLevel converts phuslu/log.Level to arbor levels.LogLevel
func plogToArborLevel(level plog.Level) levels.LogLevel {
	switch level {
	case plog.ErrorLevel:
		return levels.ErrorLevel
	case plog.WarnLevel:
		return levels.WarnLevel
	case plog.InfoLevel:
		return levels.InfoLevel
	case plog.DebugLevel:
		return levels.DebugLevel
	default:
		return levels.InfoLevel
	}
}

// parseLogLevel converts a config string to an arbor level
func parseLogLevel(level string) levels.LogLevel {
	switch strings.ToLower(level) {
	case "error":
		return levels.ErrorLevel
	case "warn", "warning":
		return levels.WarnLevel
	case "info":
		return levels.InfoLevel
	case "debug":
		return levels.DebugLevel
	default:
		return levels.InfoLevel
	}
}

// levelString maps arbor log levels to UI strings
func levelString(level levels.LogLevel) string {
	switch level {
	case levels.ErrorLevel:
		return "error"
	case levels.WarnLevel:
		return "warn"
	case levels.DebugLevel:
		return "debug"
	default:
		return "info"
	}
}
