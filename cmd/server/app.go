package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/daystart-app/daystart-api/internal/config"
	"github.com/daystart-app/daystart-api/internal/events"
	"github.com/daystart-app/daystart-api/internal/platform/audiofs"
	"github.com/daystart-app/daystart-api/internal/platform/gemini"
	"github.com/daystart-app/daystart-api/internal/platform/logger"
	"github.com/daystart-app/daystart-api/internal/platform/postgres"
	"github.com/daystart-app/daystart-api/internal/service"
	"github.com/daystart-app/daystart-api/internal/store"
	"github.com/daystart-app/daystart-api/internal/task"
)

// application bundles the server's wired dependencies.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	jobStore          store.JobStore
	contentBlockStore store.ContentBlockStore
	jobLogStore       store.JobLogStore

	briefingService *service.BriefingService
	contentService  *service.ContentService

	emitter *events.InMemoryEventEmitter

	// workers are the background loops started alongside the HTTP server.
	workers []func(ctx context.Context)
}

// newApplication loads configuration and wires every component, applying
// pending schema migrations on the way.
func newApplication(ctx context.Context) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	db, err := setupDatabase(cfg, appLogger)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(db, appLogger); err != nil {
		return nil, err
	}

	jobStore := postgres.NewPostgresJobStore(db, appLogger)
	contentBlockStore := postgres.NewPostgresContentBlockStore(db, appLogger)
	jobLogStore := postgres.NewPostgresJobLogStore(db, appLogger)

	emitter := events.NewInMemoryEventEmitter(appLogger)

	briefingService := service.NewBriefingService(
		jobStore,
		jobLogStore,
		emitter,
		cfg.Jobs.MinLengthSeconds,
		cfg.Jobs.MaxLengthSeconds,
		appLogger,
	)

	// Content arrives by push from the re-sync scheduler, so no fetcher.
	contentService := service.NewContentService(
		contentBlockStore,
		nil,
		cfg.Jobs.ContentTTL,
		appLogger,
	)

	scriptGenerator, err := gemini.NewScriptGenerator(ctx, appLogger, cfg.Generation)
	if err != nil {
		return nil, fmt.Errorf("failed to create script generator: %w", err)
	}

	synthesizer, err := gemini.NewSynthesizer(ctx, appLogger, cfg.Generation)
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesizer: %w", err)
	}

	audioStore, err := audiofs.NewStore(cfg.Generation.AudioDir, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio store: %w", err)
	}

	app := &application{
		config:            cfg,
		logger:            appLogger,
		db:                db,
		jobStore:          jobStore,
		contentBlockStore: contentBlockStore,
		jobLogStore:       jobLogStore,
		briefingService:   briefingService,
		contentService:    contentService,
		emitter:           emitter,
	}

	workerCfg := task.StageWorkerConfig{
		PollInterval:  cfg.Jobs.PollInterval,
		LeaseDuration: cfg.Jobs.LeaseDuration,
		LeaseHorizon:  cfg.Jobs.LeaseHorizon,
		BatchSize:     cfg.Jobs.LeaseBatchSize,
	}

	scriptStage := task.NewScriptStage(scriptGenerator, contentService, appLogger)
	scriptWorker := task.NewStageWorker(jobStore, scriptStage, workerIdentity("script"), workerCfg, appLogger)
	emitter.RegisterHandler(scriptWorker)

	audioStage := task.NewAudioStage(synthesizer, audioStore)
	audioWorker := task.NewStageWorker(jobStore, audioStage, workerIdentity("audio"), workerCfg, appLogger)

	reaper := task.NewReaper(jobStore, cfg.Jobs.ReaperInterval, appLogger)
	purger := task.NewPurger(contentService, cfg.Jobs.ReaperInterval, appLogger)

	app.workers = []func(ctx context.Context){
		scriptWorker.Run,
		audioWorker.Run,
		reaper.Run,
		purger.Run,
	}

	return app, nil
}

// run starts the background workers and the HTTP server, blocking until
// shutdown completes.
func (app *application) run(ctx context.Context) error {
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	var wg sync.WaitGroup

	for _, worker := range app.workers {
		wg.Add(1)
		go func(run func(ctx context.Context)) {
			defer wg.Done()
			run(workerCtx)
		}(worker)
	}

	err := app.startHTTPServer(ctx, app.setupRouter())

	// Workers stop after the HTTP server so no request observes a half-down
	// pipeline; the database closes last.
	cancelWorkers()
	wg.Wait()
	app.cleanup()

	return err
}

// cleanup releases held resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Failed to close database connection", "error", err)
		}
	}
}

// workerIdentity builds a lease-holder ID unique to this process and role.
func workerIdentity(role string) string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return fmt.Sprintf("%s-%s-%s", hostname, role, uuid.New().String()[:8])
}
