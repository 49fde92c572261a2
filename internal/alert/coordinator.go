package alert

import (
	"fmt"
	"sync"
	"time"

	"snowwatch/internal/config"
	"snowwatch/internal/detect"
	"snowwatch/internal/logger"
	"snowwatch/internal/state"
)

// Alarm states. Neither is persisted: every evaluation derives its state
// from scratch.
const (
	StateNormal = "Normal"
	StateAlarm  = "Alarm"
)

// Coordinator turns evaluation results into alarm state and side effects,
// and independently derives staleness from ingestion recency. Collaborator
// failures are logged and swallowed; they never change the derived values.
type Coordinator struct {
	actuator  Actuator
	notifier  Notifier
	ingestion *state.IngestionState
	logger    *logger.Logger

	mu   sync.Mutex
	hits []bool // rolling window of recent alarm flags
}

func NewCoordinator(actuator Actuator, notifier Notifier, ingestion *state.IngestionState, logger *logger.Logger) *Coordinator {
	return &Coordinator{
		actuator:  actuator,
		notifier:  notifier,
		ingestion: ingestion,
		logger:    logger,
	}
}

// Evaluate derives the alarm state for one detection result and fires the
// actuator and notification when warranted. The returned state is purely a
// function of the inputs; the rolling hit window gates only the side
// effects, never the state itself.
func (c *Coordinator) Evaluate(settings config.Settings, result *detect.DetectionResult) string {
	if result == nil {
		return StateNormal
	}

	sustained := c.recordHit(result.Alarm, settings.ConsecutiveHits)

	if !settings.AlarmEnabled || !result.Alarm {
		return StateNormal
	}
	if sustained {
		c.actuate(settings)
		c.notify(settings, result)
	}
	return StateAlarm
}

// recordHit appends an alarm flag to the rolling window and reports whether
// the last `size` evaluations were all hits.
func (c *Coordinator) recordHit(hit bool, size int) bool {
	if size < 1 {
		size = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.hits = append(c.hits, hit)
	if len(c.hits) > size {
		c.hits = c.hits[len(c.hits)-size:]
	}
	if len(c.hits) < size {
		return false
	}
	for _, h := range c.hits {
		if !h {
			return false
		}
	}
	return true
}

func (c *Coordinator) actuate(settings config.Settings) {
	if settings.GPIOPin == 0 {
		return
	}
	// No automatic deactivation; /api/control's reset is the way back down.
	if err := c.actuator.Activate(settings.GPIOPin); err != nil {
		c.logger.Error("Failed to drive actuator pin %d: %v", settings.GPIOPin, err)
	}
}

func (c *Coordinator) notify(settings config.Settings, result *detect.DetectionResult) {
	message := fmt.Sprintf("[ALARM] detection_rate=%.3f threshold=%.3f", result.DetectionRate, settings.Threshold)
	if err := c.notifier.Alert(settings, message, result.OverlayPath); err != nil {
		c.logger.Error("Alarm notification failed: %v", err)
	}
}

// ResetActuation drives the configured pin inactive.
func (c *Coordinator) ResetActuation(settings config.Settings) {
	if settings.GPIOPin == 0 {
		return
	}
	if err := c.actuator.Deactivate(settings.GPIOPin); err != nil {
		c.logger.Error("Failed to reset actuator pin %d: %v", settings.GPIOPin, err)
	}
}

// Stale reports whether frames stopped arriving: true once the last
// successful ingestion is older than the configured delay threshold. Always
// false before the first ingestion or while delay monitoring is disabled.
func (c *Coordinator) Stale(settings config.Settings, now time.Time) bool {
	if !settings.DelayMonitorEnabled {
		return false
	}
	last, ok := c.ingestion.Last()
	if !ok {
		return false
	}
	return now.Sub(last).Seconds() > float64(settings.DelayThresholdSeconds)
}
