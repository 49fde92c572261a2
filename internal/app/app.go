package app

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"snowwatch/internal/alert"
	"snowwatch/internal/archive"
	"snowwatch/internal/config"
	"snowwatch/internal/detect"
	"snowwatch/internal/ingest"
	"snowwatch/internal/logger"
	"snowwatch/internal/repository/sqlite"
	"snowwatch/internal/routes"
	"snowwatch/internal/scheduler"
	"snowwatch/internal/services"
	"snowwatch/internal/services/websocket"
	"snowwatch/internal/state"
)

type App struct {
	config    *config.Config
	logger    *logger.Logger
	db        *sqlite.DB
	ingestion *state.IngestionState
	hub       *websocket.HubService
	manager   *services.Manager
	watcher   *ingest.Watcher
	retention *scheduler.RetentionScheduler
	server    *http.Server
}

func NewApp() (*App, error) {
	cfg := config.Load()
	log := logger.NewLogger(cfg)

	if err := archive.EnsureDirectories(
		cfg.StorageRoot,
		cfg.IncomingRoot,
		cfg.LogDirectory,
		filepath.Dir(cfg.MaskPath),
		filepath.Dir(cfg.DBPath),
	); err != nil {
		return nil, err
	}
	if err := config.EnsureSettings(cfg.SettingsPath); err != nil {
		return nil, err
	}
	// Settings must parse at startup; a malformed document is fatal here.
	if _, err := config.LoadSettings(cfg.SettingsPath); err != nil {
		return nil, err
	}

	db, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	evaluations := sqlite.NewEvaluationRepository(db)

	ingestion := state.NewIngestionState()
	hub := websocket.NewHubService(log)
	detector := detect.NewDetector(cfg.MaskPath, log)
	coordinator := alert.NewCoordinator(alert.NewActuator(log), alert.NewSlackNotifier(log), ingestion, log)
	manager := services.NewManager(cfg, detector, coordinator, evaluations, hub, log)

	processor := ingest.NewProcessor(cfg.IncomingRoot, cfg.StorageRoot, ingestion.MarkIngested, log)
	watcher := ingest.NewWatcher(processor, time.Duration(cfg.SweepInterval)*time.Second, log)

	retention := scheduler.NewRetentionScheduler(cfg, evaluations, log)

	router := routes.SetupRoutes(cfg, manager, ingestion, log)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	return &App{
		config:    cfg,
		logger:    log,
		db:        db,
		ingestion: ingestion,
		hub:       hub,
		manager:   manager,
		watcher:   watcher,
		retention: retention,
		server:    server,
	}, nil
}

// Run starts the background services and serves HTTP until ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	go a.hub.Run()
	if err := a.watcher.Start(); err != nil {
		return err
	}
	if err := a.retention.Start(); err != nil {
		return err
	}

	a.logger.Info("🚀 snowwatch listening on :%d", a.config.Port)
	a.logger.Info("📁 Archive: %s  Incoming: %s", a.config.StorageRoot, a.config.IncomingRoot)

	errs := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errs <- err
		}
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		a.Shutdown()
		return nil
	}
}

// Shutdown stops components in dependency order: the ingestion triggers
// first (sweep finishes its cycle, the watch thread joins), then the
// retention scheduler without waiting for an in-flight run, then the HTTP
// surface and the evaluation worker.
func (a *App) Shutdown() {
	a.logger.Info("Shutting down...")

	a.watcher.Stop()
	a.retention.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Error("HTTP shutdown error: %v", err)
	}

	a.manager.Stop()
	a.hub.Stop()
	if err := a.db.Close(); err != nil {
		a.logger.Error("Database close error: %v", err)
	}
	a.logger.Info("Shutdown complete")
}
