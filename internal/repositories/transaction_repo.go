package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stemwave/stemwave-be/internal/models"
)

// TransactionRepo reads the append-only credit ledger. Writes happen only
// inside the atomic balance mutations; there is no update path.
type TransactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) *TransactionRepo {
	return &TransactionRepo{db: db}
}

func (r *TransactionRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.CreditTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var txns []models.CreditTransaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *TransactionRepo) ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.CreditTransaction, error) {
	var txns []models.CreditTransaction
	err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at ASC").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}
