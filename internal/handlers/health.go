package handlers

import (
	"net/http"
	"time"

	"golang.org/x/sys/unix"

	"snowwatch/internal/config"
	"snowwatch/internal/logger"
	"snowwatch/internal/state"
)

// HealthHandler reports storage capacity and ingestion recency.
func HealthHandler(cfg *config.Config, ingestion *state.IngestionState, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := config.LoadSettings(cfg.SettingsPath)
		if err != nil {
			logger.Error("Failed to load settings: %v", err)
			http.Error(w, "Failed to load settings", http.StatusInternalServerError)
			return
		}

		storage := map[string]interface{}{"path": cfg.StorageRoot}
		var stat unix.Statfs_t
		if err := unix.Statfs(cfg.StorageRoot, &stat); err == nil {
			total := stat.Blocks * uint64(stat.Bsize)
			free := stat.Bavail * uint64(stat.Bsize)
			storage["total"] = total
			storage["free"] = free
			storage["used"] = total - free
		}

		delayMonitor := map[string]interface{}{
			"enabled":           settings.DelayMonitorEnabled,
			"threshold_seconds": settings.DelayThresholdSeconds,
		}
		if seconds, ok := ingestion.SecondsSince(time.Now().UTC()); ok {
			delayMonitor["seconds_since_last_image"] = seconds
		} else {
			delayMonitor["seconds_since_last_image"] = nil
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":        "ok",
			"timestamp":     time.Now().UTC().Format(time.RFC3339),
			"storage":       storage,
			"delay_monitor": delayMonitor,
		})
	}
}
