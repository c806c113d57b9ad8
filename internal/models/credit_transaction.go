package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	TxPurchase     TransactionType = "purchase"
	TxSubscription TransactionType = "subscription"
	TxDeduction    TransactionType = "deduction"
)

// CreditTransaction is one append-only ledger entry. Rows are never updated;
// they are removed only by the cascade when their parent job is deleted.
type CreditTransaction struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	UserID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_credit_tx_user" json:"user_id"`
	Amount      float64         `gorm:"type:decimal(12,4);not null" json:"amount"`
	Type        TransactionType `gorm:"type:varchar(20);not null;index" json:"type"`
	Description string          `gorm:"type:varchar(255)" json:"description"`
	JobID       *uuid.UUID      `gorm:"type:uuid;index" json:"job_id,omitempty"`
	PaymentID   *string         `gorm:"type:varchar(100);index" json:"payment_id,omitempty"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`

	// Relationships
	User User           `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	Job  *SeparationJob `gorm:"foreignKey:JobID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name
func (CreditTransaction) TableName() string {
	return "credit_transactions"
}

// BeforeCreate sets UUID before creating
func (t *CreditTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
