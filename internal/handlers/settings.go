package handlers

import (
	"encoding/json"
	"net/http"

	"snowwatch/internal/config"
	"snowwatch/internal/logger"
)

// SettingsUpdate is a partial settings document; only present fields are
// applied to the stored one.
type SettingsUpdate struct {
	Threshold             *float64 `json:"threshold"`
	ConsecutiveHits       *int     `json:"consecutive_hits"`
	BinaryThreshold       *int     `json:"binary_threshold"`
	BlurKernel            *int     `json:"blur_kernel"`
	OverlayColor          *string  `json:"overlay_color"`
	OverlayAlpha          *float64 `json:"overlay_alpha"`
	DelayMonitorEnabled   *bool    `json:"delay_monitor_enabled"`
	DelayThresholdSeconds *int     `json:"delay_threshold_seconds"`
	AlarmEnabled          *bool    `json:"alarm_enabled"`
	SlackWebhookURL       *string  `json:"slack_webhook_url"`
	SlackBotToken         *string  `json:"slack_bot_token"`
	SlackChannel          *string  `json:"slack_channel"`
	MaskInclusive         *bool    `json:"mask_inclusive"`
	GPIOPin               *int     `json:"gpio_pin"`
}

func (u *SettingsUpdate) apply(settings *config.Settings) {
	if u.Threshold != nil {
		settings.Threshold = *u.Threshold
	}
	if u.ConsecutiveHits != nil {
		settings.ConsecutiveHits = *u.ConsecutiveHits
	}
	if u.BinaryThreshold != nil {
		settings.BinaryThreshold = *u.BinaryThreshold
	}
	if u.BlurKernel != nil {
		settings.BlurKernel = *u.BlurKernel
	}
	if u.OverlayColor != nil {
		settings.OverlayColor = *u.OverlayColor
	}
	if u.OverlayAlpha != nil {
		settings.OverlayAlpha = *u.OverlayAlpha
	}
	if u.DelayMonitorEnabled != nil {
		settings.DelayMonitorEnabled = *u.DelayMonitorEnabled
	}
	if u.DelayThresholdSeconds != nil {
		settings.DelayThresholdSeconds = *u.DelayThresholdSeconds
	}
	if u.AlarmEnabled != nil {
		settings.AlarmEnabled = *u.AlarmEnabled
	}
	if u.SlackWebhookURL != nil {
		settings.SlackWebhookURL = *u.SlackWebhookURL
	}
	if u.SlackBotToken != nil {
		settings.SlackBotToken = *u.SlackBotToken
	}
	if u.SlackChannel != nil {
		settings.SlackChannel = *u.SlackChannel
	}
	if u.MaskInclusive != nil {
		settings.MaskInclusive = *u.MaskInclusive
	}
	if u.GPIOPin != nil {
		settings.GPIOPin = *u.GPIOPin
	}
}

// ConfigHandler reads (GET) or merge-updates (POST) the settings document.
func ConfigHandler(cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			settings, err := config.LoadSettings(cfg.SettingsPath)
			if err != nil {
				logger.Error("Failed to load settings: %v", err)
				http.Error(w, "Failed to load settings", http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{"settings": settings})

		case http.MethodPost:
			var update SettingsUpdate
			if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
				http.Error(w, "Invalid JSON body", http.StatusBadRequest)
				return
			}

			settings, err := config.LoadSettings(cfg.SettingsPath)
			if err != nil {
				logger.Error("Failed to load settings: %v", err)
				http.Error(w, "Failed to load settings", http.StatusInternalServerError)
				return
			}

			update.apply(&settings)
			if err := settings.Validate(); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if err := config.SaveSettings(cfg.SettingsPath, settings); err != nil {
				logger.Error("Failed to save settings: %v", err)
				http.Error(w, "Failed to save settings", http.StatusInternalServerError)
				return
			}

			writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "settings": settings})

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}
