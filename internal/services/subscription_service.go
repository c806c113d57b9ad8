package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/stemwave/stemwave-be/internal/core/pricing"
	"github.com/stemwave/stemwave-be/internal/metrics"
	"github.com/stemwave/stemwave-be/internal/models"
	"github.com/stemwave/stemwave-be/internal/repositories"
	"github.com/stemwave/stemwave-be/internal/shared/utils"
)

// SubscriptionService applies billing-provider events to user tiers and
// balances. The provider delivers at-least-once, so every effect is keyed
// by the event id: the event row is inserted first, inside the same
// transaction as the balance change, and a replay collides and applies
// nothing. Duplicates are a silent no-op, not an error.
type SubscriptionService struct {
	db      *gorm.DB
	events  *repositories.WebhookEventRepo
	metrics *metrics.Metrics
}

func NewSubscriptionService(db *gorm.DB, events *repositories.WebhookEventRepo, m *metrics.Metrics) *SubscriptionService {
	return &SubscriptionService{db: db, events: events, metrics: m}
}

// ChangeTier moves a user to a new tier and reconciles the balance with the
// allocation delta, clamped at zero. total_credits is reset to the new
// tier's allocation. credits_used on existing jobs is untouched.
func (s *SubscriptionService) ChangeTier(ctx context.Context, userID uuid.UUID, newTier pricing.Tier, eventID string, payload []byte) error {
	if !newTier.Valid() {
		return &ValidationError{Reason: fmt.Sprintf("unknown subscription tier: %q", newTier)}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.events.Record(tx, &models.WebhookEvent{
			EventID: eventID,
			Type:    "subscription.change",
			Payload: datatypes.JSON(payload),
		}); err != nil {
			return err
		}

		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			return err
		}

		oldTier := user.SubscriptionTier
		delta := newTier.MonthlyCredits() - oldTier.MonthlyCredits()

		// The delta is applied as an expression on the current stored
		// balance, not the balance read above: a deduction committing
		// between the read and this write must not be overwritten.
		if err := tx.Model(&models.User{}).
			Where("id = ?", userID).
			Updates(map[string]interface{}{
				"subscription_tier": newTier,
				"total_credits":     newTier.MonthlyCredits(),
				"credits_remaining": gorm.Expr(
					"CASE WHEN credits_remaining + ? < 0 THEN 0 ELSE credits_remaining + ? END",
					delta, delta,
				),
			}).Error; err != nil {
			return err
		}

		if delta != 0 {
			txn := &models.CreditTransaction{
				UserID:      userID,
				Amount:      delta,
				Type:        models.TxSubscription,
				Description: fmt.Sprintf("tier change %s -> %s", oldTier, newTier),
			}
			if err := tx.Create(txn).Error; err != nil {
				return err
			}
		}

		utils.LogInfo("tier changed", map[string]interface{}{
			"user_id": userID, "from": oldTier, "to": newTier, "delta": delta,
		})
		return nil
	})

	return s.finishEvent("subscription.change", eventID, err)
}

// Refresh applies the monthly renewal top-up for the user's tier, once per
// billing-period event id.
func (s *SubscriptionService) Refresh(ctx context.Context, userID uuid.UUID, tier pricing.Tier, eventID string, payload []byte) error {
	if !tier.Valid() {
		return &ValidationError{Reason: fmt.Sprintf("unknown subscription tier: %q", tier)}
	}
	allocation := tier.MonthlyCredits()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.events.Record(tx, &models.WebhookEvent{
			EventID: eventID,
			Type:    "subscription.renewal",
			Payload: datatypes.JSON(payload),
		}); err != nil {
			return err
		}
		return s.grant(tx, userID, allocation, nil, "monthly renewal")
	})

	return s.finishEvent("subscription.renewal", eventID, err)
}

// PurchaseCredits applies a one-time credit pack purchase, keyed by both the
// webhook event id and the payment reference.
func (s *SubscriptionService) PurchaseCredits(ctx context.Context, userID uuid.UUID, credits float64, paymentID, eventID string, payload []byte) error {
	if credits <= 0 {
		return &ValidationError{Reason: fmt.Sprintf("invalid credit amount: %f", credits)}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.events.Record(tx, &models.WebhookEvent{
			EventID: eventID,
			Type:    "purchase.completed",
			Payload: datatypes.JSON(payload),
		}); err != nil {
			return err
		}
		return s.grant(tx, userID, credits, &paymentID, "credit pack purchase")
	})

	return s.finishEvent("purchase.completed", eventID, err)
}

// Seen reports whether an event id was already applied. It is a fast-path
// read only: the insert-first unique index inside each mutation remains the
// authoritative guard, so a miss here is always safe.
func (s *SubscriptionService) Seen(ctx context.Context, eventID string) (bool, error) {
	return s.events.Exists(ctx, eventID)
}

// grant increments credits_remaining and total_credits and appends the
// matching ledger entry inside the caller's transaction.
func (s *SubscriptionService) grant(tx *gorm.DB, userID uuid.UUID, amount float64, paymentID *string, desc string) error {
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

	txType := models.TxSubscription
	if paymentID != nil {
		txType = models.TxPurchase
	}
	return tx.Create(&models.CreditTransaction{
		UserID:      userID,
		Amount:      amount,
		Type:        txType,
		Description: desc,
		PaymentID:   paymentID,
	}).Error
}

// finishEvent folds the duplicate-event case into a silent no-op and counts
// the outcome.
func (s *SubscriptionService) finishEvent(eventType, eventID string, err error) error {
	result := "applied"
	switch {
	case err == nil:
	case errors.Is(err, repositories.ErrDuplicateEvent):
		result = "duplicate"
		utils.LogWarn("duplicate webhook event ignored", map[string]interface{}{
			"event_id": eventID, "type": eventType,
		})
		err = nil
	default:
		result = "error"
	}
	if s.metrics != nil {
		s.metrics.WebhookEventsTotal.WithLabelValues(eventType, result).Inc()
	}
	return err
}
