// Package app wires the application's services and handlers together.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/cadenzahq/cadenza/internal/common"
	"github.com/cadenzahq/cadenza/internal/generation"
	"github.com/cadenzahq/cadenza/internal/handlers"
	"github.com/cadenzahq/cadenza/internal/interfaces"
	badgerstorage "github.com/cadenzahq/cadenza/internal/storage/badger"

	"github.com/cadenzahq/cadenza/internal/services/events"
	"github.com/cadenzahq/cadenza/internal/services/queue"
	"github.com/cadenzahq/cadenza/internal/services/scheduler"
	"github.com/cadenzahq/cadenza/internal/services/topics"
	"github.com/cadenzahq/cadenza/internal/services/transfer"
	"github.com/cadenzahq/cadenza/internal/services/voices"
)

// App holds all application dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager interfaces.StorageManager
	EventService   *events.Service

	GenerationClient *generation.Client
	TopicSource      *topics.Service
	VoiceCatalog     *voices.Catalog

	QueueStore      *queue.Store
	HistoryLedger   *queue.Ledger
	Orchestrator    *queue.Orchestrator
	TransferService *transfer.Service
	Scheduler       *scheduler.Service

	LogForwarder *handlers.LogForwarder

	WSHandler      *handlers.WebSocketHandler
	QueueHandler   *handlers.QueueHandler
	HistoryHandler *handlers.HistoryHandler
	TopicsHandler  *handlers.TopicsHandler
	VoicesHandler  *handlers.VoicesHandler
	StatusHandler  *handlers.StatusHandler
	APIHandler     *handlers.APIHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	storageManager, err := badgerstorage.NewManager(logger, &cfg.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.StorageManager = storageManager

	app.EventService = events.NewService(logger)

	app.GenerationClient = generation.NewClient(
		generation.WithBaseURL(cfg.Generation.BaseURL),
		generation.WithHTTPClient(&http.Client{Timeout: cfg.Generation.RequestTimeout}),
		generation.WithRateInterval(cfg.Generation.RateLimit),
		generation.WithLogger(logger),
	)

	app.TopicSource = topics.NewService(cfg.Topics.BaseURL, logger,
		topics.WithHTTPClient(&http.Client{Timeout: cfg.Topics.RequestTimeout}))

	catalog, err := voices.NewCatalog(cfg.Voices.CatalogPath, app.GenerationClient, logger)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize voice catalog: %w", err)
	}
	app.VoiceCatalog = catalog

	kv := storageManager.KeyValueStorage()
	app.QueueStore = queue.NewStore(kv, logger)
	app.HistoryLedger = queue.NewLedger(kv, logger, cfg.History.Limit)
	app.Orchestrator = queue.NewOrchestrator(
		app.QueueStore,
		app.HistoryLedger,
		app.GenerationClient,
		app.EventService,
		app.VoiceCatalog,
		cfg,
		logger,
	)
	app.TransferService = transfer.NewService(app.QueueStore, app.EventService, logger)

	app.WSHandler = handlers.NewWebSocketHandler(app.Orchestrator, app.EventService, logger, &cfg.WebSocket)

	// Forward service logs to WebSocket clients via arbor's channel
	app.LogForwarder = handlers.NewLogForwarder(app.WSHandler, logger, &cfg.WebSocket)
	app.LogForwarder.Start()
	logger.SetChannel("websocket", app.LogForwarder.GetChannel())

	app.QueueHandler = handlers.NewQueueHandler(app.Orchestrator, app.QueueStore, app.TransferService, app.VoiceCatalog, app.GenerationClient, logger)
	app.HistoryHandler = handlers.NewHistoryHandler(app.HistoryLedger, logger)
	app.TopicsHandler = handlers.NewTopicsHandler(app.TopicSource, logger)
	app.VoicesHandler = handlers.NewVoicesHandler(app.VoiceCatalog, logger)
	app.StatusHandler = handlers.NewStatusHandler(app.Orchestrator, app.HistoryLedger, logger)
	app.APIHandler = handlers.NewAPIHandler(cfg, app.GenerationClient, logger)

	app.Scheduler = scheduler.NewService(app.Orchestrator, logger)
	if cfg.Processing.Enabled {
		if err := app.Scheduler.Start(cfg.Processing.Schedule); err != nil {
			storageManager.Close()
			return nil, fmt.Errorf("failed to start processing scheduler: %w", err)
		}
	}

	logger.Info().
		Bool("processing_enabled", cfg.Processing.Enabled).
		Str("generation_url", cfg.Generation.BaseURL).
		Msg("Application initialization complete")

	return app, nil
}

// RefreshVoices merges remote voice presets into the catalog. Called in the
// background at startup; failure keeps the local catalog.
func (a *App) RefreshVoices() {
	go a.VoiceCatalog.Refresh(context.Background())
}

// Close shuts down all services in reverse initialization order
func (a *App) Close() error {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}

	if a.LogForwarder != nil {
		a.LogForwarder.Stop()
	}

	if a.EventService != nil {
		a.EventService.Close()
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
			return err
		}
	}

	a.Logger.Info().Msg("Application shut down")
	return nil
}
