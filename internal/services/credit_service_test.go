package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/stemwave/stemwave-be/internal/core/pricing"
	"github.com/stemwave/stemwave-be/internal/models"
	"github.com/stemwave/stemwave-be/internal/repositories"
)

func TestDeductHappyPath(t *testing.T) {
	db := newTestDB(t)
	svc := NewCreditService(repositories.NewUserRepo(db), repositories.NewTransactionRepo(db), nil)
	user := seedUser(t, db, pricing.TierCreator, 10)
	jobID := seedJob(t, db, user.ID).ID

	balance, err := svc.Deduct(context.Background(), user.ID, 3.5, jobID, "separation")
	if err != nil {
		t.Fatalf("Deduct() error = %v", err)
	}
	if balance != 6.5 {
		t.Fatalf("new balance = %f, want 6.5", balance)
	}

	txns := userTransactions(t, db, user.ID)
	if len(txns) != 1 {
		t.Fatalf("len(transactions) = %d, want 1", len(txns))
	}
	if txns[0].Type != models.TxDeduction || txns[0].Amount != -3.5 {
		t.Fatalf("transaction = %+v, want deduction of -3.5", txns[0])
	}
	if txns[0].JobID == nil || *txns[0].JobID != jobID {
		t.Fatalf("transaction job link = %v, want %s", txns[0].JobID, jobID)
	}
}

func TestDeductInsufficientLeavesNoTrace(t *testing.T) {
	db := newTestDB(t)
	svc := NewCreditService(repositories.NewUserRepo(db), repositories.NewTransactionRepo(db), nil)
	user := seedUser(t, db, pricing.TierFree, 2.0)
	jobID := seedJob(t, db, user.ID).ID

	_, err := svc.Deduct(context.Background(), user.ID, 3.0, jobID, "separation")
	var insufficient *InsufficientCreditsError
	if !errors.As(err, &insufficient) {
		t.Fatalf("Deduct() error = %v, want InsufficientCreditsError", err)
	}
	if insufficient.Required != 3.0 || insufficient.Available != 2.0 {
		t.Fatalf("error = %+v, want required 3.0 / available 2.0", insufficient)
	}

	if got := userBalance(t, db, user.ID); got != 2.0 {
		t.Fatalf("balance = %f, want unchanged 2.0", got)
	}
	if txns := userTransactions(t, db, user.ID); len(txns) != 0 {
		t.Fatalf("len(transactions) = %d, want 0", len(txns))
	}
}

func TestDeductExactBalance(t *testing.T) {
	db := newTestDB(t)
	svc := NewCreditService(repositories.NewUserRepo(db), repositories.NewTransactionRepo(db), nil)
	user := seedUser(t, db, pricing.TierFree, 3.0)
	jobID := seedJob(t, db, user.ID).ID

	balance, err := svc.Deduct(context.Background(), user.ID, 3.0, jobID, "separation")
	if err != nil {
		t.Fatalf("Deduct() error = %v", err)
	}
	if balance != 0 {
		t.Fatalf("balance = %f, want 0", balance)
	}
}

// Two concurrent deductions whose sum exceeds the balance: at most one may
// win, and the balance must never go negative.
func TestDeductConcurrent(t *testing.T) {
	db := newTestDB(t)
	svc := NewCreditService(repositories.NewUserRepo(db), repositories.NewTransactionRepo(db), nil)
	user := seedUser(t, db, pricing.TierCreator, 5.0)
	jobA := seedJob(t, db, user.ID).ID
	jobB := seedJob(t, db, user.ID).ID

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, jobID := range []uuid.UUID{jobA, jobB} {
		wg.Add(1)
		go func(i int, jobID uuid.UUID) {
			defer wg.Done()
			_, errs[i] = svc.Deduct(context.Background(), user.ID, 4.0, jobID, "separation")
		}(i, jobID)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	if succeeded != 1 {
		t.Fatalf("succeeded = %d, want exactly 1", succeeded)
	}
	if got := userBalance(t, db, user.ID); got != 1.0 {
		t.Fatalf("balance = %f, want 1.0", got)
	}
	if txns := userTransactions(t, db, user.ID); len(txns) != 1 {
		t.Fatalf("len(transactions) = %d, want 1", len(txns))
	}
}

func TestAddIncrementsBothCounters(t *testing.T) {
	db := newTestDB(t)
	svc := NewCreditService(repositories.NewUserRepo(db), repositories.NewTransactionRepo(db), nil)
	user := seedUser(t, db, pricing.TierFree, 1.0)

	paymentID := "pay_123"
	balance, err := svc.Add(context.Background(), user.ID, 20, &paymentID, "credit pack purchase")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if balance != 21.0 {
		t.Fatalf("balance = %f, want 21.0", balance)
	}

	fresh, err := svc.Balance(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Balance() error = %v", err)
	}
	wantTotal := pricing.TierFree.MonthlyCredits() + 20
	if fresh.TotalCredits != wantTotal {
		t.Fatalf("total credits = %f, want %f", fresh.TotalCredits, wantTotal)
	}

	txns := userTransactions(t, db, user.ID)
	if len(txns) != 1 || txns[0].Type != models.TxPurchase {
		t.Fatalf("transactions = %+v, want one purchase entry", txns)
	}
	if txns[0].PaymentID == nil || *txns[0].PaymentID != paymentID {
		t.Fatalf("payment link = %v, want %s", txns[0].PaymentID, paymentID)
	}
}

func TestAddWithoutPaymentIsSubscription(t *testing.T) {
	db := newTestDB(t)
	svc := NewCreditService(repositories.NewUserRepo(db), repositories.NewTransactionRepo(db), nil)
	user := seedUser(t, db, pricing.TierCreator, 0)

	if _, err := svc.Add(context.Background(), user.ID, 60, nil, "monthly renewal"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	txns := userTransactions(t, db, user.ID)
	if len(txns) != 1 || txns[0].Type != models.TxSubscription {
		t.Fatalf("transactions = %+v, want one subscription entry", txns)
	}
}
