package repositories

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/stemwave/stemwave-be/internal/models"
)

// ErrDuplicateEvent is returned when an event id was already recorded.
var ErrDuplicateEvent = errors.New("webhook event already processed")

// WebhookEventRepo persists processed billing event ids. Recording the event
// first, inside the same transaction as its balance effect, makes replayed
// webhook deliveries collide on the unique index instead of re-applying.
type WebhookEventRepo struct {
	db *gorm.DB
}

func NewWebhookEventRepo(db *gorm.DB) *WebhookEventRepo {
	return &WebhookEventRepo{db: db}
}

// Record inserts the event inside tx, translating a unique-index collision
// into ErrDuplicateEvent.
func (r *WebhookEventRepo) Record(tx *gorm.DB, event *models.WebhookEvent) error {
	if err := tx.Create(event).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateEvent
		}
		return err
	}
	return nil
}

func (r *WebhookEventRepo) Exists(ctx context.Context, eventID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.WebhookEvent{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	return count > 0, err
}

// isDuplicateKey matches unique violations across the drivers in use
// (postgres in production, sqlite in tests).
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}
