package services

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"snowwatch/internal/alert"
	"snowwatch/internal/archive"
	"snowwatch/internal/config"
	"snowwatch/internal/detect"
	"snowwatch/internal/logger"
	"snowwatch/internal/models"
	"snowwatch/internal/repository/sqlite"
	"snowwatch/internal/services/websocket"
)

// Evaluation is the outcome of one pipeline run over the two most recent
// raw frames.
type Evaluation struct {
	Latest       string
	Previous     string
	LatestTime   time.Time
	PreviousTime time.Time
	Result       *detect.DetectionResult
	AlarmState   string
	Stale        bool
	Settings     config.Settings
}

type evalReply struct {
	evaluation *Evaluation
	err        error
}

// Manager owns the evaluation pipeline. All gocv work runs on one worker
// goroutine so concurrent HTTP requests never execute CPU-bound image
// transforms on their own goroutines.
type Manager struct {
	cfg         *config.Config
	detector    *detect.Detector
	coordinator *alert.Coordinator
	evaluations *sqlite.EvaluationRepository
	hub         *websocket.HubService
	logger      *logger.Logger

	requests chan chan evalReply
	wg       sync.WaitGroup
}

func NewManager(cfg *config.Config, detector *detect.Detector, coordinator *alert.Coordinator, evaluations *sqlite.EvaluationRepository, hub *websocket.HubService, logger *logger.Logger) *Manager {
	m := &Manager{
		cfg:         cfg,
		detector:    detector,
		coordinator: coordinator,
		evaluations: evaluations,
		hub:         hub,
		logger:      logger,
		requests:    make(chan chan evalReply),
	}

	m.wg.Add(1)
	go m.worker()

	return m
}

// Evaluate runs one full pipeline cycle and blocks until the worker has
// finished it.
func (m *Manager) Evaluate() (*Evaluation, error) {
	reply := make(chan evalReply, 1)
	m.requests <- reply
	r := <-reply
	return r.evaluation, r.err
}

// Coordinator exposes the alarm/staleness coordinator to the handlers.
func (m *Manager) Coordinator() *alert.Coordinator {
	return m.coordinator
}

// Evaluations exposes the history repository to the handlers.
func (m *Manager) Evaluations() *sqlite.EvaluationRepository {
	return m.evaluations
}

// Hub exposes the viewer hub to the websocket handler.
func (m *Manager) Hub() *websocket.HubService {
	return m.hub
}

func (m *Manager) worker() {
	defer m.wg.Done()
	for reply := range m.requests {
		evaluation, err := m.runEvaluation()
		reply <- evalReply{evaluation: evaluation, err: err}
	}
}

func (m *Manager) runEvaluation() (*Evaluation, error) {
	// The settings document is read fresh on every evaluation, never cached.
	settings, err := config.LoadSettings(m.cfg.SettingsPath)
	if err != nil {
		return nil, fmt.Errorf("cannot evaluate: %w", err)
	}

	evaluation := &Evaluation{
		AlarmState: alert.StateNormal,
		Settings:   settings,
	}

	recent, err := archive.ListRecent(m.cfg.StorageRoot, 2, false)
	if err != nil {
		return nil, err
	}
	if len(recent) > 0 {
		evaluation.Latest = recent[0]
		evaluation.LatestTime = mtimeOf(recent[0])
	}
	if len(recent) > 1 {
		evaluation.Previous = recent[1]
		evaluation.PreviousTime = mtimeOf(recent[1])
	}

	if evaluation.Latest != "" && evaluation.Previous != "" {
		evaluation.Result = m.detector.Analyze(evaluation.Latest, evaluation.Previous, settings)
		evaluation.AlarmState = m.coordinator.Evaluate(settings, evaluation.Result)
	}
	evaluation.Stale = m.coordinator.Stale(settings, time.Now().UTC())

	m.record(evaluation)
	m.broadcast(evaluation)

	return evaluation, nil
}

// record persists the outcome; history failures never fail an evaluation.
func (m *Manager) record(evaluation *Evaluation) {
	if evaluation.Result == nil {
		return
	}
	_, err := m.evaluations.Insert(&models.Evaluation{
		DetectionRate: evaluation.Result.DetectionRate,
		ChangedPixels: evaluation.Result.ChangedPixels,
		MaskPixels:    evaluation.Result.MaskPixels,
		OverlayPath:   evaluation.Result.OverlayPath,
		AlarmState:    evaluation.AlarmState,
		Stale:         evaluation.Stale,
	})
	if err != nil {
		m.logger.Error("Failed to record evaluation: %v", err)
	}
}

func (m *Manager) broadcast(evaluation *Evaluation) {
	payload := map[string]interface{}{
		"type":        "evaluation",
		"alarm_state": evaluation.AlarmState,
		"stale":       evaluation.Stale,
		"threshold":   evaluation.Settings.Threshold,
	}
	if evaluation.Result != nil {
		payload["detection_rate"] = evaluation.Result.DetectionRate
		payload["changed_pixels"] = evaluation.Result.ChangedPixels
		payload["mask_pixels"] = evaluation.Result.MaskPixels
		payload["overlay_path"] = evaluation.Result.OverlayPath
	}

	msg, err := json.Marshal(payload)
	if err != nil {
		m.logger.Error("Failed to encode evaluation broadcast: %v", err)
		return
	}
	m.hub.Broadcast(msg)
}

// Stop shuts the worker down after its in-flight evaluation completes.
func (m *Manager) Stop() {
	close(m.requests)
	m.wg.Wait()
	m.logger.Info("🛑 Evaluation worker stopped")
}

func mtimeOf(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime().UTC()
}
