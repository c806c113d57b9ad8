package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stemwave/stemwave-be/internal/core/pricing"
	"github.com/stemwave/stemwave-be/internal/metrics"
	"github.com/stemwave/stemwave-be/internal/repositories"
)

// SeparationRequest is what a user asks the gateway to process.
// DurationMinutes comes from the upload pipeline's audio probe.
type SeparationRequest struct {
	AudioFileID     string   `json:"audioFileId"`
	SelectedStems   []string `json:"selectedStems"`
	Quality         string   `json:"quality"`
	Model           string   `json:"model"`
	DurationMinutes float64  `json:"durationMinutes"`
}

// EntitlementService decides whether a user may run a request and what it
// will cost. It only reads: the deduction is a separate, explicit step, and
// the balance it checks always comes from the durable store.
type EntitlementService struct {
	users   *repositories.UserRepo
	metrics *metrics.Metrics
}

func NewEntitlementService(users *repositories.UserRepo, m *metrics.Metrics) *EntitlementService {
	return &EntitlementService{users: users, metrics: m}
}

// Validate runs the gate checks in order and returns the quote the caller
// passes to the ledger. The first failing check wins and each failure
// carries its own user-facing reason.
func (s *EntitlementService) Validate(ctx context.Context, userID uuid.UUID, req SeparationRequest) (*pricing.Quote, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.countCheck("rejected")
			return nil, &ValidationError{Reason: "user not found"}
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	cfg := user.SubscriptionTier.Config()
	tier := user.SubscriptionTier

	if len(req.SelectedStems) == 0 {
		s.countCheck("rejected")
		return nil, &ValidationError{Reason: "select at least one stem"}
	}
	if len(req.SelectedStems) > cfg.MaxStems {
		s.countCheck("rejected")
		return nil, &ValidationError{
			Reason: fmt.Sprintf("the %s plan allows up to %d stems per job", tier, cfg.MaxStems),
		}
	}
	if !cfg.ModelAllowed(req.Model) {
		s.countCheck("rejected")
		return nil, &ValidationError{
			Reason: fmt.Sprintf("the %q model is not available on the %s plan", req.Model, tier),
		}
	}
	for _, stem := range req.SelectedStems {
		if !cfg.StemAvailable(stem) {
			s.countCheck("rejected")
			return nil, &ValidationError{
				Reason: fmt.Sprintf("the %q stem is not available on the %s plan", stem, tier),
			}
		}
	}

	quote, err := pricing.Cost(req.SelectedStems, req.DurationMinutes, req.Model)
	if err != nil {
		s.countCheck("rejected")
		return nil, &ValidationError{Reason: err.Error()}
	}

	if user.CreditsRemaining < quote.TotalCost {
		s.countCheck("insufficient")
		return nil, &InsufficientCreditsError{
			Required:  quote.TotalCost,
			Available: user.CreditsRemaining,
		}
	}

	s.countCheck("allowed")
	return &quote, nil
}

func (s *EntitlementService) countCheck(result string) {
	if s.metrics != nil {
		s.metrics.EntitlementCheckTotal.WithLabelValues(result).Inc()
	}
}
