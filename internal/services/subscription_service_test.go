package services

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/stemwave/stemwave-be/internal/core/pricing"
	"github.com/stemwave/stemwave-be/internal/models"
	"github.com/stemwave/stemwave-be/internal/repositories"
)

func newSubscriptionService(t *testing.T) (*SubscriptionService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc := NewSubscriptionService(db, repositories.NewWebhookEventRepo(db), nil)
	return svc, db
}

func TestChangeTierUpgrade(t *testing.T) {
	svc, db := newSubscriptionService(t)
	user := seedUser(t, db, pricing.TierFree, 2.0)

	err := svc.ChangeTier(context.Background(), user.ID, pricing.TierCreator, "evt_1", nil)
	if err != nil {
		t.Fatalf("ChangeTier() error = %v", err)
	}

	var fresh models.User
	if err := db.First(&fresh, "id = ?", user.ID).Error; err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if fresh.SubscriptionTier != pricing.TierCreator {
		t.Fatalf("tier = %s, want creator", fresh.SubscriptionTier)
	}
	// free(5) -> creator(60): delta 55 on top of the 2.0 balance.
	if fresh.CreditsRemaining != 57.0 {
		t.Fatalf("balance = %f, want 57.0", fresh.CreditsRemaining)
	}
	if fresh.TotalCredits != 60.0 {
		t.Fatalf("total credits = %f, want 60.0", fresh.TotalCredits)
	}

	txns := userTransactions(t, db, user.ID)
	if len(txns) != 1 || txns[0].Type != models.TxSubscription || txns[0].Amount != 55.0 {
		t.Fatalf("transactions = %+v, want one subscription entry of 55.0", txns)
	}
}

func TestChangeTierDowngradeClampsAtZero(t *testing.T) {
	svc, db := newSubscriptionService(t)
	user := seedUser(t, db, pricing.TierCreator, 10.0)

	if err := svc.ChangeTier(context.Background(), user.ID, pricing.TierFree, "evt_1", nil); err != nil {
		t.Fatalf("ChangeTier() error = %v", err)
	}

	// creator(60) -> free(5): delta -55 would leave -45, clamped to 0.
	if got := userBalance(t, db, user.ID); got != 0 {
		t.Fatalf("balance = %f, want 0", got)
	}
}

func TestChangeTierPreservesConcurrentDeduction(t *testing.T) {
	svc, db := newSubscriptionService(t)
	user := seedUser(t, db, pricing.TierFree, 10.0)

	// A spend that lands after ChangeTier reads the balance but before it
	// writes: injected just ahead of the tier-change UPDATE, on the same
	// transaction connection.
	fired := false
	err := db.Callback().Update().Before("gorm:update").Register("interleaved_spend", func(tx *gorm.DB) {
		if fired || tx.Statement.Table != "users" {
			return
		}
		fired = true
		if err := tx.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE users SET credits_remaining = credits_remaining - 4 WHERE id = ?", user.ID).Error; err != nil {
			t.Errorf("failed to inject spend: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("failed to register callback: %v", err)
	}

	if err := svc.ChangeTier(context.Background(), user.ID, pricing.TierCreator, "evt_1", nil); err != nil {
		t.Fatalf("ChangeTier() error = %v", err)
	}
	if !fired {
		t.Fatal("interleaved spend did not run")
	}

	// 10.0 minus the 4.0 spend plus the 55.0 delta: the spent credits must
	// not be resurrected by the tier change.
	if got := userBalance(t, db, user.ID); got != 61.0 {
		t.Fatalf("balance = %f, want 61.0", got)
	}
}

func TestChangeTierReplayIsNoOp(t *testing.T) {
	svc, db := newSubscriptionService(t)
	user := seedUser(t, db, pricing.TierFree, 2.0)

	if err := svc.ChangeTier(context.Background(), user.ID, pricing.TierCreator, "evt_1", nil); err != nil {
		t.Fatalf("first ChangeTier() error = %v", err)
	}
	// At-least-once delivery: the same event arrives again.
	if err := svc.ChangeTier(context.Background(), user.ID, pricing.TierCreator, "evt_1", nil); err != nil {
		t.Fatalf("replayed ChangeTier() error = %v, want silent no-op", err)
	}

	if got := userBalance(t, db, user.ID); got != 57.0 {
		t.Fatalf("balance = %f, want 57.0 (delta applied once)", got)
	}
	if txns := userTransactions(t, db, user.ID); len(txns) != 1 {
		t.Fatalf("len(transactions) = %d, want 1", len(txns))
	}
}

func TestChangeTierSameTierNoTransaction(t *testing.T) {
	svc, db := newSubscriptionService(t)
	user := seedUser(t, db, pricing.TierCreator, 30.0)

	if err := svc.ChangeTier(context.Background(), user.ID, pricing.TierCreator, "evt_1", nil); err != nil {
		t.Fatalf("ChangeTier() error = %v", err)
	}

	if got := userBalance(t, db, user.ID); got != 30.0 {
		t.Fatalf("balance = %f, want unchanged 30.0", got)
	}
	// Zero delta appends no ledger entry.
	if txns := userTransactions(t, db, user.ID); len(txns) != 0 {
		t.Fatalf("len(transactions) = %d, want 0", len(txns))
	}
}

func TestRefreshAppliesOnce(t *testing.T) {
	svc, db := newSubscriptionService(t)
	user := seedUser(t, db, pricing.TierCreator, 3.0)

	if err := svc.Refresh(context.Background(), user.ID, pricing.TierCreator, "inv_2026_08", nil); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if err := svc.Refresh(context.Background(), user.ID, pricing.TierCreator, "inv_2026_08", nil); err != nil {
		t.Fatalf("replayed Refresh() error = %v, want silent no-op", err)
	}

	if got := userBalance(t, db, user.ID); got != 63.0 {
		t.Fatalf("balance = %f, want 63.0", got)
	}

	txns := userTransactions(t, db, user.ID)
	if len(txns) != 1 || txns[0].Type != models.TxSubscription || txns[0].Amount != 60.0 {
		t.Fatalf("transactions = %+v, want one renewal entry of 60.0", txns)
	}
}

func TestPurchaseCreditsDeduplicated(t *testing.T) {
	svc, db := newSubscriptionService(t)
	user := seedUser(t, db, pricing.TierFree, 1.0)

	if err := svc.PurchaseCredits(context.Background(), user.ID, 25, "pay_9", "evt_9", nil); err != nil {
		t.Fatalf("PurchaseCredits() error = %v", err)
	}
	if err := svc.PurchaseCredits(context.Background(), user.ID, 25, "pay_9", "evt_9", nil); err != nil {
		t.Fatalf("replayed PurchaseCredits() error = %v, want silent no-op", err)
	}

	if got := userBalance(t, db, user.ID); got != 26.0 {
		t.Fatalf("balance = %f, want 26.0", got)
	}
	txns := userTransactions(t, db, user.ID)
	if len(txns) != 1 || txns[0].Type != models.TxPurchase {
		t.Fatalf("transactions = %+v, want one purchase entry", txns)
	}
	if txns[0].PaymentID == nil || *txns[0].PaymentID != "pay_9" {
		t.Fatalf("payment link = %v, want pay_9", txns[0].PaymentID)
	}
}

func TestChangeTierRejectsUnknownTier(t *testing.T) {
	svc, db := newSubscriptionService(t)
	user := seedUser(t, db, pricing.TierFree, 2.0)

	err := svc.ChangeTier(context.Background(), user.ID, pricing.Tier("enterprise"), "evt_1", nil)
	if err == nil {
		t.Fatal("expected error for unknown tier")
	}
	if got := userBalance(t, db, user.ID); got != 2.0 {
		t.Fatalf("balance = %f, want unchanged 2.0", got)
	}
}
