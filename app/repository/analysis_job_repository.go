package repository

import (
	"time"

	"github.com/stellaboard/stellaboard/app/models"
	"gorm.io/gorm"
)

// analysisJobRepository implements the AnalysisJobRepository interface
type analysisJobRepository struct {
	db *gorm.DB
}

// NewAnalysisJobRepository creates a new analysis job repository instance
func NewAnalysisJobRepository(db *gorm.DB) AnalysisJobRepository {
	return &analysisJobRepository{db: db}
}

// Create creates a new analysis job record
func (r *analysisJobRepository) Create(job *models.AnalysisJob) error {
	return r.db.Create(job).Error
}

// GetByUUID retrieves a job by its public identifier
func (r *analysisJobRepository) GetByUUID(uuid string) (*models.AnalysisJob, error) {
	var job models.AnalysisJob
	err := r.db.Where("uuid = ?", uuid).First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// TransitionStatus moves a job from one status to another with a guarded
// update: the write only lands when the row still holds the expected
// source status, so terminal states never revert and pollers observe a
// monotonic progression. Returns false when the guard missed.
func (r *analysisJobRepository) TransitionStatus(uuid, from, to string, errorMsg string) (bool, error) {
	if !models.CanTransitionAnalysisStatus(from, to) {
		return false, nil
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": now,
	}
	switch to {
	case models.AnalysisJobStatusRunning:
		updates["started_at"] = &now
	case models.AnalysisJobStatusComplete, models.AnalysisJobStatusFailed:
		updates["finished_at"] = &now
	}
	if errorMsg != "" {
		updates["error_msg"] = errorMsg
	}

	res := r.db.Model(&models.AnalysisJob{}).
		Where("uuid = ? AND status = ?", uuid, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkRefunded flags the job so a failed run is never refunded twice
func (r *analysisJobRepository) MarkRefunded(uuid string) error {
	return r.db.Model(&models.AnalysisJob{}).
		Where("uuid = ? AND refunded = ?", uuid, false).
		Update("refunded", true).Error
}

// ListByUser returns the user's jobs, newest first
func (r *analysisJobRepository) ListByUser(userID uint, limit int) ([]models.AnalysisJob, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var jobs []models.AnalysisJob
	err := r.db.Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}
