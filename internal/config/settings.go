package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Settings is the detection configuration document. It is stored as a JSON
// file and reloaded from disk on every use; nothing caches it in-process.
type Settings struct {
	Threshold             float64 `json:"threshold"`
	ConsecutiveHits       int     `json:"consecutive_hits"`
	BinaryThreshold       int     `json:"binary_threshold"`
	BlurKernel            int     `json:"blur_kernel"`
	OverlayColor          string  `json:"overlay_color"`
	OverlayAlpha          float64 `json:"overlay_alpha"`
	DelayMonitorEnabled   bool    `json:"delay_monitor_enabled"`
	DelayThresholdSeconds int     `json:"delay_threshold_seconds"`
	AlarmEnabled          bool    `json:"alarm_enabled"`
	SlackWebhookURL       string  `json:"slack_webhook_url"`
	SlackBotToken         string  `json:"slack_bot_token"`
	SlackChannel          string  `json:"slack_channel"`
	MaskInclusive         bool    `json:"mask_inclusive"`
	GPIOPin               int     `json:"gpio_pin"`
}

// DefaultSettings returns the document written on first start.
func DefaultSettings() Settings {
	return Settings{
		Threshold:             0.15,
		ConsecutiveHits:       3,
		BinaryThreshold:       30,
		BlurKernel:            3,
		OverlayColor:          "#ff69b4",
		OverlayAlpha:          0.35,
		DelayMonitorEnabled:   true,
		DelayThresholdSeconds: 300,
		AlarmEnabled:          true,
		MaskInclusive:         true,
		GPIOPin:               17,
	}
}

// Validate checks field ranges. A settings document that fails validation is
// a fatal condition for whichever component requested it.
func (s *Settings) Validate() error {
	if s.Threshold < 0 {
		return fmt.Errorf("threshold must be >= 0, got %v", s.Threshold)
	}
	if s.ConsecutiveHits < 1 {
		return fmt.Errorf("consecutive_hits must be >= 1, got %d", s.ConsecutiveHits)
	}
	if s.BinaryThreshold < 0 || s.BinaryThreshold > 255 {
		return fmt.Errorf("binary_threshold must be in [0,255], got %d", s.BinaryThreshold)
	}
	if s.BlurKernel < 1 {
		return fmt.Errorf("blur_kernel must be >= 1, got %d", s.BlurKernel)
	}
	if s.OverlayAlpha < 0 || s.OverlayAlpha > 1 {
		return fmt.Errorf("overlay_alpha must be in [0,1], got %v", s.OverlayAlpha)
	}
	if s.DelayThresholdSeconds < 1 {
		return fmt.Errorf("delay_threshold_seconds must be >= 1, got %d", s.DelayThresholdSeconds)
	}
	if s.GPIOPin < 0 {
		return fmt.Errorf("gpio_pin must be >= 0, got %d", s.GPIOPin)
	}
	return nil
}

// LoadSettings reads and validates the settings document at path.
func LoadSettings(path string) (Settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("settings file not found: %s: %w", path, err)
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(raw, &settings); err != nil {
		return Settings{}, fmt.Errorf("invalid JSON in settings file %s: %w", path, err)
	}
	if err := settings.Validate(); err != nil {
		return Settings{}, fmt.Errorf("invalid settings data: %w", err)
	}
	return settings, nil
}

// SaveSettings writes the document back to disk.
func SaveSettings(path string, settings Settings) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file %s: %w", path, err)
	}
	return nil
}

// EnsureSettings writes the default document if none exists yet.
func EnsureSettings(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return SaveSettings(path, DefaultSettings())
}
