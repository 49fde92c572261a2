package handlers

import (
	"net/http"
	"time"

	"snowwatch/internal/logger"
	"snowwatch/internal/services"
)

// DashboardResponse summarizes the latest evaluation for the UI.
type DashboardResponse struct {
	LatestImage       string  `json:"latest_image,omitempty"`
	PreviousImage     string  `json:"previous_image,omitempty"`
	MaskOverlay       string  `json:"mask_overlay,omitempty"`
	DetectionRate     float64 `json:"detection_rate"`
	Threshold         float64 `json:"threshold"`
	AlarmState        string  `json:"alarm_state"`
	DelayWarning      bool    `json:"delay_warning"`
	LatestTimestamp   string  `json:"latest_timestamp,omitempty"`
	PreviousTimestamp string  `json:"previous_timestamp,omitempty"`
}

// DashboardHandler runs one evaluation over the two most recent raw frames
// and reports the derived alarm and staleness state.
func DashboardHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		evaluation, err := manager.Evaluate()
		if err != nil {
			logger.Error("Dashboard evaluation failed: %v", err)
			http.Error(w, "Evaluation failed", http.StatusInternalServerError)
			return
		}

		response := DashboardResponse{
			LatestImage:   evaluation.Latest,
			PreviousImage: evaluation.Previous,
			Threshold:     evaluation.Settings.Threshold,
			AlarmState:    evaluation.AlarmState,
			DelayWarning:  evaluation.Stale,
		}
		if !evaluation.LatestTime.IsZero() {
			response.LatestTimestamp = evaluation.LatestTime.Format(time.RFC3339)
		}
		if !evaluation.PreviousTime.IsZero() {
			response.PreviousTimestamp = evaluation.PreviousTime.Format(time.RFC3339)
		}
		if evaluation.Result != nil {
			response.DetectionRate = evaluation.Result.DetectionRate
			response.MaskOverlay = evaluation.Result.OverlayPath
		}

		writeJSON(w, http.StatusOK, response)
	}
}
