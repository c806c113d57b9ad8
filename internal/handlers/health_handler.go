package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/stemwave/stemwave-be/internal/core/separation"
	"github.com/stemwave/stemwave-be/internal/shared/database"
)

type HealthHandler struct {
	db       *database.DB
	provider separation.Provider
}

func NewHealthHandler(db *database.DB, provider separation.Provider) *HealthHandler {
	return &HealthHandler{db: db, provider: provider}
}

// GetHealth godoc
// @Summary Service health check
// @Description Check if API and database are alive
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) GetHealth(c *fiber.Ctx) error {
	if err := h.db.Ping(); err != nil {
		return c.Status(503).JSON(fiber.Map{
			"status": "degraded",
			"error":  "database unreachable",
		})
	}
	return c.JSON(fiber.Map{
		"status":   "ok",
		"service":  "stemwave-api",
		"provider": h.provider.Name(),
	})
}
