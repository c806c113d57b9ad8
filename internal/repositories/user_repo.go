package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stemwave/stemwave-be/internal/models"
)

// ErrInsufficientBalance is returned when the conditional decrement finds
// less balance than requested at commit time.
var ErrInsufficientBalance = errors.New("insufficient credit balance")

// UserRepo handles user and balance persistence. Balance reads always hit
// the database: validation must never trust a cached value.
type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// DeductBalance atomically decrements the balance and appends the matching
// deduction entry to the transaction log. The decrement is a single
// conditional UPDATE: when two callers race, the database applies them one
// at a time and the second one fails the balance guard instead of driving
// the balance negative. On any error nothing is persisted.
func (r *UserRepo) DeductBalance(ctx context.Context, userID uuid.UUID, amount float64, jobID uuid.UUID, desc string) (float64, error) {
	var newBalance float64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ? AND credits_remaining >= ?", userID, amount).
			Update("credits_remaining", gorm.Expr("credits_remaining - ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientBalance
		}

		txn := &models.CreditTransaction{
			UserID:      userID,
			Amount:      -amount,
			Type:        models.TxDeduction,
			Description: desc,
			JobID:       &jobID,
		}
		if err := tx.Create(txn).Error; err != nil {
			return err
		}

		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			return err
		}
		newBalance = user.CreditsRemaining
		return nil
	})
	if err != nil {
		return 0, err
	}
	return newBalance, nil
}

// AddBalance atomically increments both the spendable balance and the
// lifetime total, appending one ledger entry.
func (r *UserRepo) AddBalance(ctx context.Context, userID uuid.UUID, amount float64, txType models.TransactionType, paymentID *string, desc string) (float64, error) {
	var newBalance float64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ?", userID).
			Updates(map[string]interface{}{
				"credits_remaining": gorm.Expr("credits_remaining + ?", amount),
				"total_credits":     gorm.Expr("total_credits + ?", amount),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		txn := &models.CreditTransaction{
			UserID:      userID,
			Amount:      amount,
			Type:        txType,
			Description: desc,
			PaymentID:   paymentID,
		}
		if err := tx.Create(txn).Error; err != nil {
			return err
		}

		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			return err
		}
		newBalance = user.CreditsRemaining
		return nil
	})
	if err != nil {
		return 0, err
	}
	return newBalance, nil
}
