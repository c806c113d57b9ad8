package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// WebhookEvent records one processed billing event. The unique index on
// EventID is the durable idempotency guard: the payment provider delivers
// at-least-once, so replays must insert-conflict instead of re-applying the
// balance effect.
type WebhookEvent struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	EventID     string         `gorm:"type:varchar(100);not null;uniqueIndex" json:"event_id"`
	Type        string         `gorm:"type:varchar(50);not null;index" json:"type"`
	Payload     datatypes.JSON `gorm:"type:jsonb" json:"payload,omitempty"`
	ProcessedAt time.Time      `gorm:"autoCreateTime" json:"processed_at"`
}

// TableName specifies the table name
func (WebhookEvent) TableName() string {
	return "webhook_events"
}

// BeforeCreate sets UUID before creating
func (e *WebhookEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
