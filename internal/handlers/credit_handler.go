package handlers

import (
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stemwave/stemwave-be/internal/services"
)

type CreditHandler struct {
	credits *services.CreditService
}

func NewCreditHandler(credits *services.CreditService) *CreditHandler {
	return &CreditHandler{credits: credits}
}

// GetBalance godoc
// @Summary Get credit balance
// @Description Current balance and subscription tier for the user
// @Tags Credits
// @Produce json
// @Param X-User-ID header string true "User ID"
// @Success 200 {object} map[string]interface{}
// @Router /credits [get]
func (h *CreditHandler) GetBalance(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	user, err := h.credits.Balance(c.Context(), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "user not found"})
		}
		log.Printf("❌ Failed to fetch balance for user %s: %v", userID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch balance"})
	}

	return c.JSON(fiber.Map{
		"tier":             user.SubscriptionTier,
		"creditsRemaining": user.CreditsRemaining,
		"totalCredits":     user.TotalCredits,
	})
}

// ListTransactions godoc
// @Summary List credit transactions
// @Description Recent ledger entries for the user, newest first
// @Tags Credits
// @Produce json
// @Param X-User-ID header string true "User ID"
// @Param limit query int false "Max entries" default(50)
// @Success 200 {array} models.CreditTransaction
// @Router /credits/transactions [get]
func (h *CreditHandler) ListTransactions(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	txns, err := h.credits.Transactions(c.Context(), userID, limit)
	if err != nil {
		log.Printf("❌ Failed to list transactions for user %s: %v", userID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to list transactions"})
	}

	return c.JSON(txns)
}

// ListJobTransactions godoc
// @Summary List ledger entries for a job
// @Description Credit transactions attributed to one separation job
// @Tags Credits
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {array} models.CreditTransaction
// @Router /jobs/{id}/transactions [get]
func (h *CreditHandler) ListJobTransactions(c *fiber.Ctx) error {
	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid job id"})
	}

	txns, err := h.credits.JobTransactions(c.Context(), jobID)
	if err != nil {
		log.Printf("❌ Failed to list transactions for job %s: %v", jobID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to list transactions"})
	}

	return c.JSON(txns)
}
