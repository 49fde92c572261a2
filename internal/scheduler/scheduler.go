// Package scheduler runs the daily retention sweep.
package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"

	"snowwatch/internal/archive"
	"snowwatch/internal/config"
	"snowwatch/internal/logger"
	"snowwatch/internal/repository/sqlite"
)

// RetentionScheduler prunes archived frames and evaluation history past the
// retention window, once a day at 03:00 UTC.
type RetentionScheduler struct {
	cron        *cron.Cron
	cfg         *config.Config
	evaluations *sqlite.EvaluationRepository
	logger      *logger.Logger
}

func NewRetentionScheduler(cfg *config.Config, evaluations *sqlite.EvaluationRepository, logger *logger.Logger) *RetentionScheduler {
	return &RetentionScheduler{
		cron:        cron.New(cron.WithLocation(time.UTC)),
		cfg:         cfg,
		evaluations: evaluations,
		logger:      logger,
	}
}

func (s *RetentionScheduler) Start() error {
	if _, err := s.cron.AddFunc("0 3 * * *", s.Sweep); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("🧹 Retention sweep scheduled daily at 03:00 UTC (%d days)", s.cfg.RetentionDays)
	return nil
}

// Sweep deletes frames older than the retention window and the matching
// evaluation rows. Per-file errors are skipped inside the archive sweep.
func (s *RetentionScheduler) Sweep() {
	deleted := archive.CleanupOlderThan(s.cfg.StorageRoot, s.cfg.RetentionDays)
	if len(deleted) > 0 {
		s.logger.Info("Retention sweep deleted %d frame(s)", len(deleted))
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -s.cfg.RetentionDays)
	rows, err := s.evaluations.DeleteOlderThan(cutoff)
	if err != nil {
		s.logger.Error("Retention sweep failed to prune evaluations: %v", err)
		return
	}
	if rows > 0 {
		s.logger.Info("Retention sweep pruned %d evaluation row(s)", rows)
	}
}

// Stop halts scheduling without waiting for an in-flight run.
func (s *RetentionScheduler) Stop() {
	s.cron.Stop()
}
