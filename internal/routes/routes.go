package routes

import (
	"net/http"

	"snowwatch/internal/config"
	"snowwatch/internal/handlers"
	"snowwatch/internal/logger"
	"snowwatch/internal/middleware"
	"snowwatch/internal/services"
	"snowwatch/internal/state"
)

// SetupRoutes registers the control-plane endpoints and wraps the mux with
// the authentication middleware.
func SetupRoutes(cfg *config.Config, manager *services.Manager, ingestion *state.IngestionState, logger *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	// Pipeline endpoints
	mux.HandleFunc("/api/dashboard", handlers.DashboardHandler(manager, logger))
	mux.HandleFunc("/api/config", handlers.ConfigHandler(cfg, logger))
	mux.HandleFunc("/api/control", handlers.ControlHandler(cfg, manager, logger))
	mux.HandleFunc("/api/history", handlers.HistoryHandler(cfg, logger))
	mux.HandleFunc("/api/evaluations", handlers.EvaluationsHandler(manager, logger))
	mux.HandleFunc("/api/mask-image", handlers.MaskImageHandler(cfg, logger))
	mux.HandleFunc("/api/view", handlers.ViewWebsocketHandler(manager, logger))
	mux.HandleFunc("/health", handlers.HealthHandler(cfg, ingestion, logger))

	// Log endpoints
	mux.HandleFunc("/logs/info", handlers.ShowInfoLogsHandler(cfg))
	mux.HandleFunc("/logs/warning", handlers.ShowWarningLogsHandler(cfg))
	mux.HandleFunc("/logs/error", handlers.ShowErrorLogsHandler(cfg))

	mux.HandleFunc("/logs/info/clear", handlers.ClearInfoLogsHandler(logger))
	mux.HandleFunc("/logs/warning/clear", handlers.ClearWarningLogsHandler(logger))
	mux.HandleFunc("/logs/error/clear", handlers.ClearErrorLogsHandler(logger))

	// Auth endpoints
	mux.HandleFunc("/auth/login", handlers.LoginHandler(cfg, logger))
	mux.HandleFunc("/auth/logout", handlers.LogoutHandler)

	return middleware.AuthMiddleware(mux)
}
