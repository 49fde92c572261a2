package handlers

import (
	"encoding/json"
	"net/http"

	"snowwatch/internal/config"
	"snowwatch/internal/logger"
	"snowwatch/internal/services"
)

// ControlRequest toggles runtime behavior and optionally resets the latched
// actuator line.
type ControlRequest struct {
	AlarmEnabled        *bool `json:"alarm_enabled"`
	DelayMonitorEnabled *bool `json:"delay_monitor_enabled"`
	ResetAlarm          bool  `json:"reset_alarm"`
}

// ControlHandler applies a control request against the stored settings.
func ControlHandler(cfg *config.Config, manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var request ControlRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			http.Error(w, "Invalid JSON body", http.StatusBadRequest)
			return
		}

		settings, err := config.LoadSettings(cfg.SettingsPath)
		if err != nil {
			logger.Error("Failed to load settings: %v", err)
			http.Error(w, "Failed to load settings", http.StatusInternalServerError)
			return
		}

		if request.AlarmEnabled != nil {
			settings.AlarmEnabled = *request.AlarmEnabled
		}
		if request.DelayMonitorEnabled != nil {
			settings.DelayMonitorEnabled = *request.DelayMonitorEnabled
		}
		if err := config.SaveSettings(cfg.SettingsPath, settings); err != nil {
			logger.Error("Failed to save settings: %v", err)
			http.Error(w, "Failed to save settings", http.StatusInternalServerError)
			return
		}

		if request.ResetAlarm {
			manager.Coordinator().ResetActuation(settings)
			logger.Info("Alarm actuation reset via control endpoint")
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "settings": settings})
	}
}
