package services

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/stemwave/stemwave-be/internal/core/pricing"
	"github.com/stemwave/stemwave-be/internal/models"
	"github.com/stemwave/stemwave-be/internal/repositories"
)

// newTestDB opens an isolated in-memory database. A single connection keeps
// the in-memory store shared and serializes concurrent writers.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.User{},
		&models.CreditTransaction{},
		&models.SeparationJob{},
		&models.WebhookEvent{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, tier pricing.Tier, balance float64) *models.User {
	t.Helper()

	user := &models.User{
		ID:               uuid.New(),
		Email:            uuid.NewString() + "@test.local",
		SubscriptionTier: tier,
		CreditsRemaining: balance,
		TotalCredits:     tier.MonthlyCredits(),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func seedJob(t *testing.T, db *gorm.DB, userID uuid.UUID) *models.SeparationJob {
	t.Helper()

	job := &models.SeparationJob{
		ID:            uuid.New(),
		UserID:        userID,
		AudioFileID:   uuid.NewString(),
		Status:        models.JobPending,
		SelectedStems: []string{pricing.StemVocals},
		Model:         pricing.ModelStandard,
		Quality:       "standard",
	}
	if err := db.Create(job).Error; err != nil {
		t.Fatalf("failed to seed job: %v", err)
	}
	return job
}

func userBalance(t *testing.T, db *gorm.DB, userID uuid.UUID) float64 {
	t.Helper()

	repo := repositories.NewUserRepo(db)
	user, err := repo.GetByID(context.Background(), userID)
	if err != nil {
		t.Fatalf("failed to load user: %v", err)
	}
	return user.CreditsRemaining
}

func userTransactions(t *testing.T, db *gorm.DB, userID uuid.UUID) []models.CreditTransaction {
	t.Helper()

	var txns []models.CreditTransaction
	if err := db.Where("user_id = ?", userID).Order("created_at ASC").Find(&txns).Error; err != nil {
		t.Fatalf("failed to list transactions: %v", err)
	}
	return txns
}
