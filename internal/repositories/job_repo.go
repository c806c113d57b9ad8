package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stemwave/stemwave-be/internal/models"
)

// JobRepo handles separation job persistence. Every status mutation guards
// on the job still being non-terminal, so completed and failed rows are
// immutable at the storage layer.
type JobRepo struct {
	db *gorm.DB
}

func NewJobRepo(db *gorm.DB) *JobRepo {
	return &JobRepo{db: db}
}

// CreateWithDeduction creates the job and reserves its credit cost in one
// database transaction: the conditional balance decrement, the deduction
// ledger entry, and the pending job row all commit together or not at all.
// A zero amount creates the job without touching the ledger.
func (r *JobRepo) CreateWithDeduction(ctx context.Context, job *models.SeparationJob, amount float64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(job).Error; err != nil {
			return fmt.Errorf("failed to create job: %w", err)
		}
		if amount <= 0 {
			return nil
		}

		res := tx.Model(&models.User{}).
			Where("id = ? AND credits_remaining >= ?", job.UserID, amount).
			Update("credits_remaining", gorm.Expr("credits_remaining - ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientBalance
		}

		txn := &models.CreditTransaction{
			UserID:      job.UserID,
			Amount:      -amount,
			Type:        models.TxDeduction,
			Description: fmt.Sprintf("separation of %s (%s)", job.AudioFileID, job.Model),
			JobID:       &job.ID,
		}
		return tx.Create(txn).Error
	})
}

func (r *JobRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.SeparationJob, error) {
	var job models.SeparationJob
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *JobRepo) ListRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.SeparationJob, error) {
	if limit <= 0 {
		limit = 5
	}
	var jobs []models.SeparationJob
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// SetProviderJob records the remote job handle once the service accepts the
// submission asynchronously.
func (r *JobRepo) SetProviderJob(ctx context.Context, jobID uuid.UUID, providerJobID string) error {
	return r.db.WithContext(ctx).Model(&models.SeparationJob{}).
		Where("id = ?", jobID).
		Update("provider_job_id", providerJobID).Error
}

// MarkProcessing advances a non-terminal job to processing with the given
// progress. Returns false when the job was already terminal.
func (r *JobRepo) MarkProcessing(ctx context.Context, jobID uuid.UUID, progress int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.SeparationJob{}).
		Where("id = ? AND status IN ?", jobID, []models.JobStatus{models.JobPending, models.JobProcessing}).
		Updates(map[string]interface{}{
			"status":   models.JobProcessing,
			"progress": progress,
		})
	return res.RowsAffected > 0, res.Error
}

// MarkCompleted finalizes a non-terminal job with its result files.
// Returns false when the job was already terminal.
func (r *JobRepo) MarkCompleted(ctx context.Context, jobID uuid.UUID, results []models.ResultFile) (bool, error) {
	resultJSON, err := json.Marshal(results)
	if err != nil {
		return false, fmt.Errorf("failed to serialize result files: %w", err)
	}

	now := time.Now()
	res := r.db.WithContext(ctx).Model(&models.SeparationJob{}).
		Where("id = ? AND status IN ?", jobID, []models.JobStatus{models.JobPending, models.JobProcessing}).
		Updates(map[string]interface{}{
			"status":       models.JobCompleted,
			"progress":     100,
			"result_files": resultJSON,
			"completed_at": now,
		})
	return res.RowsAffected > 0, res.Error
}

// MarkFailed finalizes a non-terminal job with an error message. Credits
// deducted at submission are not refunded.
// Returns false when the job was already terminal.
func (r *JobRepo) MarkFailed(ctx context.Context, jobID uuid.UUID, errMsg string) (bool, error) {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&models.SeparationJob{}).
		Where("id = ? AND status IN ?", jobID, []models.JobStatus{models.JobPending, models.JobProcessing}).
		Updates(map[string]interface{}{
			"status":       models.JobFailed,
			"error":        errMsg,
			"completed_at": now,
		})
	return res.RowsAffected > 0, res.Error
}

// ListStale returns non-terminal jobs created before the cutoff. They are
// candidates for drift repair or a timeout failure.
func (r *JobRepo) ListStale(ctx context.Context, cutoff time.Time) ([]models.SeparationJob, error) {
	var jobs []models.SeparationJob
	err := r.db.WithContext(ctx).
		Where("status IN ? AND created_at < ?", []models.JobStatus{models.JobPending, models.JobProcessing}, cutoff).
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// DeleteOldJobs deletes terminal jobs older than the retention window. The
// cascade removes their deduction ledger entries with them.
func (r *JobRepo) DeleteOldJobs(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	res := r.db.WithContext(ctx).
		Where("status IN ? AND completed_at < ?", []models.JobStatus{models.JobCompleted, models.JobFailed}, cutoff).
		Delete(&models.SeparationJob{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete old jobs: %w", res.Error)
	}
	return res.RowsAffected, nil
}
