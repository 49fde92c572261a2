package models

import "time"

// Evaluation is one persisted change-detection outcome.
type Evaluation struct {
	ID            string    `json:"id"`
	DetectionRate float64   `json:"detection_rate"`
	ChangedPixels int       `json:"changed_pixels"`
	MaskPixels    int       `json:"mask_pixels"`
	OverlayPath   string    `json:"overlay_path"`
	AlarmState    string    `json:"alarm_state"`
	Stale         bool      `json:"stale"`
	CreatedAt     time.Time `json:"created_at"`
}
