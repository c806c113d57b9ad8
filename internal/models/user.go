package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stemwave/stemwave-be/internal/core/pricing"
)

// User is an account with a durable credit balance. CreditsRemaining is the
// spendable balance and must never go negative; TotalCredits marks the
// lifetime allocation and is not a cap.
type User struct {
	ID               uuid.UUID    `gorm:"type:uuid;primary_key" json:"id"`
	Email            string       `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	SubscriptionTier pricing.Tier `gorm:"type:varchar(20);not null;default:'free';index" json:"subscription_tier"`
	CreditsRemaining float64      `gorm:"type:decimal(12,4);not null;default:0" json:"credits_remaining"`
	TotalCredits     float64      `gorm:"type:decimal(12,4);not null;default:0" json:"total_credits"`
	CreatedAt        time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}

// BeforeCreate sets UUID and free-tier signup defaults before creating
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.SubscriptionTier == "" {
		u.SubscriptionTier = pricing.TierFree
	}
	return nil
}
