package alert

import (
	"errors"
	"testing"
	"time"

	"snowwatch/internal/config"
	"snowwatch/internal/detect"
	"snowwatch/internal/logger"
	"snowwatch/internal/state"
)

type fakeActuator struct {
	activated   []int
	deactivated []int
	err         error
}

func (f *fakeActuator) Activate(pin int) error {
	f.activated = append(f.activated, pin)
	return f.err
}

func (f *fakeActuator) Deactivate(pin int) error {
	f.deactivated = append(f.deactivated, pin)
	return f.err
}

type fakeNotifier struct {
	messages []string
	images   []string
	err      error
}

func (f *fakeNotifier) Alert(settings config.Settings, message, imagePath string) error {
	f.messages = append(f.messages, message)
	f.images = append(f.images, imagePath)
	return f.err
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return logger.NewLogger(&config.Config{LogDirectory: t.TempDir()})
}

func newTestCoordinator(t *testing.T) (*Coordinator, *fakeActuator, *fakeNotifier, *state.IngestionState) {
	t.Helper()
	actuator := &fakeActuator{}
	notifier := &fakeNotifier{}
	ingestion := state.NewIngestionState()
	return NewCoordinator(actuator, notifier, ingestion, testLogger(t)), actuator, notifier, ingestion
}

func alarmSettings(hits int) config.Settings {
	settings := config.DefaultSettings()
	settings.AlarmEnabled = true
	settings.ConsecutiveHits = hits
	settings.GPIOPin = 17
	settings.Threshold = 0.15
	return settings
}

func alarmingResult() *detect.DetectionResult {
	return &detect.DetectionResult{
		DetectionRate: 0.42,
		ChangedPixels: 420,
		MaskPixels:    1000,
		OverlayPath:   "/archive/2026/01/01/frame_mask.png",
		Alarm:         true,
	}
}

func TestEvaluateNilResult(t *testing.T) {
	coordinator, actuator, notifier, _ := newTestCoordinator(t)

	if got := coordinator.Evaluate(alarmSettings(1), nil); got != StateNormal {
		t.Errorf("state = %q, want %q", got, StateNormal)
	}
	if len(actuator.activated) != 0 || len(notifier.messages) != 0 {
		t.Error("nil result must not produce side effects")
	}
}

func TestEvaluateNormalBelowThreshold(t *testing.T) {
	coordinator, actuator, notifier, _ := newTestCoordinator(t)

	result := alarmingResult()
	result.Alarm = false

	if got := coordinator.Evaluate(alarmSettings(1), result); got != StateNormal {
		t.Errorf("state = %q, want %q", got, StateNormal)
	}
	if len(actuator.activated) != 0 || len(notifier.messages) != 0 {
		t.Error("non-alarming result must not produce side effects")
	}
}

func TestEvaluateAlarmDisabledSuppressesEverything(t *testing.T) {
	coordinator, actuator, notifier, _ := newTestCoordinator(t)

	settings := alarmSettings(1)
	settings.AlarmEnabled = false

	if got := coordinator.Evaluate(settings, alarmingResult()); got != StateNormal {
		t.Errorf("state = %q, want %q", got, StateNormal)
	}
	if len(actuator.activated) != 0 || len(notifier.messages) != 0 {
		t.Error("disabled alarming must not produce side effects")
	}
}

func TestEvaluateSingleHitFires(t *testing.T) {
	coordinator, actuator, notifier, _ := newTestCoordinator(t)

	if got := coordinator.Evaluate(alarmSettings(1), alarmingResult()); got != StateAlarm {
		t.Errorf("state = %q, want %q", got, StateAlarm)
	}
	if len(actuator.activated) != 1 || actuator.activated[0] != 17 {
		t.Errorf("actuator calls = %v, want one activation of pin 17", actuator.activated)
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notifier.messages))
	}
	if notifier.images[0] != "/archive/2026/01/01/frame_mask.png" {
		t.Errorf("notification attached %q, want the overlay", notifier.images[0])
	}
}

func TestEvaluateConsecutiveHitWindow(t *testing.T) {
	coordinator, actuator, notifier, _ := newTestCoordinator(t)
	settings := alarmSettings(3)

	// First two hits: alarm state reported, side effects held back.
	for i := 0; i < 2; i++ {
		if got := coordinator.Evaluate(settings, alarmingResult()); got != StateAlarm {
			t.Errorf("hit %d: state = %q, want %q", i+1, got, StateAlarm)
		}
	}
	if len(actuator.activated) != 0 || len(notifier.messages) != 0 {
		t.Fatal("side effects fired before the hit window filled")
	}

	// Third consecutive hit fills the window.
	coordinator.Evaluate(settings, alarmingResult())
	if len(actuator.activated) != 1 || len(notifier.messages) != 1 {
		t.Errorf("actuations=%d notifications=%d, want 1 and 1",
			len(actuator.activated), len(notifier.messages))
	}
}

func TestEvaluateMissResetsWindow(t *testing.T) {
	coordinator, actuator, _, _ := newTestCoordinator(t)
	settings := alarmSettings(2)

	coordinator.Evaluate(settings, alarmingResult())
	miss := alarmingResult()
	miss.Alarm = false
	coordinator.Evaluate(settings, miss)
	coordinator.Evaluate(settings, alarmingResult())

	if len(actuator.activated) != 0 {
		t.Error("a miss inside the window must hold actuation back")
	}

	coordinator.Evaluate(settings, alarmingResult())
	if len(actuator.activated) != 1 {
		t.Errorf("actuations = %d, want 1 after two fresh hits", len(actuator.activated))
	}
}

func TestEvaluateCollaboratorFailuresDoNotChangeState(t *testing.T) {
	actuator := &fakeActuator{err: errors.New("gpio busy")}
	notifier := &fakeNotifier{err: errors.New("slack down")}
	coordinator := NewCoordinator(actuator, notifier, state.NewIngestionState(), testLogger(t))

	if got := coordinator.Evaluate(alarmSettings(1), alarmingResult()); got != StateAlarm {
		t.Errorf("state = %q, want %q despite collaborator failures", got, StateAlarm)
	}
}

func TestEvaluateNoPinSkipsActuation(t *testing.T) {
	coordinator, actuator, notifier, _ := newTestCoordinator(t)
	settings := alarmSettings(1)
	settings.GPIOPin = 0

	coordinator.Evaluate(settings, alarmingResult())
	if len(actuator.activated) != 0 {
		t.Error("no configured pin, nothing to actuate")
	}
	if len(notifier.messages) != 1 {
		t.Error("notification is independent of the actuator line")
	}
}

func TestResetActuation(t *testing.T) {
	coordinator, actuator, _, _ := newTestCoordinator(t)

	coordinator.ResetActuation(alarmSettings(1))
	if len(actuator.deactivated) != 1 || actuator.deactivated[0] != 17 {
		t.Errorf("deactivations = %v, want pin 17", actuator.deactivated)
	}
}

func TestStaleBeforeFirstIngestion(t *testing.T) {
	coordinator, _, _, _ := newTestCoordinator(t)

	settings := config.DefaultSettings()
	settings.DelayMonitorEnabled = true
	if coordinator.Stale(settings, time.Now()) {
		t.Error("staleness is undefined (false) before the first ingestion")
	}
}

func TestStaleDerivation(t *testing.T) {
	coordinator, _, _, ingestion := newTestCoordinator(t)

	settings := config.DefaultSettings()
	settings.DelayMonitorEnabled = true
	settings.DelayThresholdSeconds = 300

	now := time.Now().UTC()
	ingestion.MarkIngested(now.Add(-301 * time.Second))
	if !coordinator.Stale(settings, now) {
		t.Error("ingestion older than the threshold must be stale")
	}

	ingestion.MarkIngested(now.Add(-299 * time.Second))
	if coordinator.Stale(settings, now) {
		t.Error("ingestion within the threshold must not be stale")
	}
}

func TestStaleMonitorDisabled(t *testing.T) {
	coordinator, _, _, ingestion := newTestCoordinator(t)

	settings := config.DefaultSettings()
	settings.DelayMonitorEnabled = false
	ingestion.MarkIngested(time.Now().Add(-time.Hour))

	if coordinator.Stale(settings, time.Now()) {
		t.Error("disabled delay monitoring never reports stale")
	}
}
