package sqlite

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"snowwatch/internal/models"
)

// EvaluationRepository persists change-detection outcomes.
type EvaluationRepository struct {
	db *DB
}

// NewEvaluationRepository creates a new SQLite evaluation repository.
func NewEvaluationRepository(db *DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

// Insert stores one evaluation and returns its generated id.
func (r *EvaluationRepository) Insert(eval *models.Evaluation) (string, error) {
	r.db.Lock()
	defer r.db.Unlock()

	if eval.ID == "" {
		eval.ID = uuid.New().String()
	}
	if eval.CreatedAt.IsZero() {
		eval.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Conn().Exec(`
		INSERT INTO evaluations (id, detection_rate, changed_pixels, mask_pixels, overlay_path, alarm_state, stale, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, eval.ID, eval.DetectionRate, eval.ChangedPixels, eval.MaskPixels, eval.OverlayPath, eval.AlarmState, eval.Stale, eval.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("failed to insert evaluation: %w", err)
	}

	return eval.ID, nil
}

// ListRecent returns up to limit evaluations, newest first.
func (r *EvaluationRepository) ListRecent(limit int) ([]models.Evaluation, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, detection_rate, changed_pixels, mask_pixels, overlay_path, alarm_state, stale, created_at
		FROM evaluations ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluations: %w", err)
	}
	defer rows.Close()

	var evaluations []models.Evaluation
	for rows.Next() {
		var eval models.Evaluation
		if err := rows.Scan(&eval.ID, &eval.DetectionRate, &eval.ChangedPixels, &eval.MaskPixels, &eval.OverlayPath, &eval.AlarmState, &eval.Stale, &eval.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan evaluation: %w", err)
		}
		evaluations = append(evaluations, eval)
	}

	return evaluations, rows.Err()
}

// DeleteOlderThan removes evaluations older than the cutoff and returns the
// number of deleted rows. Keeps the history bounded alongside the file
// retention sweep.
func (r *EvaluationRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`DELETE FROM evaluations WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old evaluations: %w", err)
	}
	return result.RowsAffected()
}
