package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/stemwave/stemwave-be/internal/metrics"
	"github.com/stemwave/stemwave-be/internal/models"
	"github.com/stemwave/stemwave-be/internal/repositories"
	"github.com/stemwave/stemwave-be/internal/shared/utils"
)

// CreditService is the credit ledger: every balance mutation is atomic at
// the storage layer and appends exactly one transaction-log entry.
type CreditService struct {
	users   *repositories.UserRepo
	txns    *repositories.TransactionRepo
	metrics *metrics.Metrics
}

func NewCreditService(users *repositories.UserRepo, txns *repositories.TransactionRepo, m *metrics.Metrics) *CreditService {
	return &CreditService{users: users, txns: txns, metrics: m}
}

// Deduct reserves amount from the user's balance for a job. The decrement
// is conditional on sufficiency at commit time, so a concurrent spender
// cannot push the balance negative; the loser gets
// InsufficientCreditsError with the balance untouched.
func (s *CreditService) Deduct(ctx context.Context, userID uuid.UUID, amount float64, jobID uuid.UUID, desc string) (float64, error) {
	if amount < 0 {
		return 0, &LedgerError{Op: "deduct", Err: fmt.Errorf("negative amount %.4f", amount)}
	}

	newBalance, err := s.users.DeductBalance(ctx, userID, amount, jobID, desc)
	if err != nil {
		if errors.Is(err, repositories.ErrInsufficientBalance) {
			s.countDeduct("insufficient")
			available := 0.0
			if user, uerr := s.users.GetByID(ctx, userID); uerr == nil {
				available = user.CreditsRemaining
			}
			return 0, &InsufficientCreditsError{Required: amount, Available: available}
		}
		s.countDeduct("error")
		return 0, &LedgerError{Op: "deduct", Err: err}
	}

	s.countDeduct("ok")
	if s.metrics != nil {
		s.metrics.DeductAmountTotal.Add(amount)
	}
	utils.LogInfo("credits deducted", map[string]interface{}{
		"user_id": userID, "amount": amount, "job_id": jobID, "balance": newBalance,
	})
	return newBalance, nil
}

// Add grants credits, incrementing both the spendable balance and the
// lifetime total. Grants with a payment reference are purchases; everything
// else (renewals, tier deltas) is a subscription grant.
func (s *CreditService) Add(ctx context.Context, userID uuid.UUID, amount float64, paymentID *string, desc string) (float64, error) {
	txType := models.TxSubscription
	if paymentID != nil {
		txType = models.TxPurchase
	}

	newBalance, err := s.users.AddBalance(ctx, userID, amount, txType, paymentID, desc)
	if err != nil {
		return 0, &LedgerError{Op: "add", Err: err}
	}

	if s.metrics != nil {
		s.metrics.CreditAddTotal.WithLabelValues(string(txType)).Inc()
	}
	utils.LogInfo("credits added", map[string]interface{}{
		"user_id": userID, "amount": amount, "type": txType, "balance": newBalance,
	})
	return newBalance, nil
}

// Balance reads the durable balance and tier for a user.
func (s *CreditService) Balance(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

// Transactions returns the newest ledger entries for a user.
func (s *CreditService) Transactions(ctx context.Context, userID uuid.UUID, limit int) ([]models.CreditTransaction, error) {
	return s.txns.ListByUser(ctx, userID, limit)
}

// JobTransactions returns the ledger entries attributed to one job, oldest
// first.
func (s *CreditService) JobTransactions(ctx context.Context, jobID uuid.UUID) ([]models.CreditTransaction, error) {
	return s.txns.ListByJob(ctx, jobID)
}

func (s *CreditService) countDeduct(result string) {
	if s.metrics != nil {
		s.metrics.DeductTotal.WithLabelValues(result).Inc()
	}
}
