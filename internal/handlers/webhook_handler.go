package handlers

import (
	"crypto/subtle"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/stemwave/stemwave-be/internal/core/pricing"
	"github.com/stemwave/stemwave-be/internal/services"
)

// WebhookHandler receives billing-provider events. Delivery is at-least-once;
// deduplication by event id happens in the subscription service, so the
// handler can always acknowledge a processed event with 200.
type WebhookHandler struct {
	subscriptions *services.SubscriptionService
	secret        string
}

func NewWebhookHandler(subscriptions *services.SubscriptionService, secret string) *WebhookHandler {
	return &WebhookHandler{subscriptions: subscriptions, secret: secret}
}

type BillingEvent struct {
	ID   string           `json:"id"`
	Type string           `json:"type"`
	Data BillingEventData `json:"data"`
}

type BillingEventData struct {
	UserID    string  `json:"userId"`
	Tier      string  `json:"tier"`
	Credits   float64 `json:"credits"`
	PaymentID string  `json:"paymentId"`
}

// ReceiveBillingEvent godoc
// @Summary Billing provider webhook
// @Description Handle subscription lifecycle and credit purchase events
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param X-Webhook-Secret header string true "Shared webhook secret"
// @Param event body BillingEvent true "Billing event"
// @Success 200 {object} map[string]interface{}
// @Router /webhooks/billing [post]
func (h *WebhookHandler) ReceiveBillingEvent(c *fiber.Ctx) error {
	if h.secret != "" {
		got := c.Get("X-Webhook-Secret")
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			return c.Status(401).JSON(fiber.Map{"error": "invalid webhook secret"})
		}
	}

	var event BillingEvent
	if err := c.BodyParser(&event); err != nil {
		log.Printf("❌ Failed to parse billing webhook: %v", err)
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}
	if event.ID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "missing event id"})
	}
	userID, err := uuid.Parse(event.Data.UserID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "missing or invalid userId"})
	}

	log.Printf("📥 Billing event %s (%s) for user %s", event.ID, event.Type, userID)

	// Fast path for replays; the unique index inside each mutation stays
	// authoritative when this read races a first delivery.
	if seen, err := h.subscriptions.Seen(c.Context(), event.ID); err == nil && seen {
		log.Printf("🔁 Billing event %s already processed", event.ID)
		return c.JSON(fiber.Map{"status": "duplicate"})
	}

	payload := c.Body()
	switch event.Type {
	case "subscription.created", "subscription.updated":
		tier, err := pricing.ParseTier(event.Data.Tier)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "unknown tier"})
		}
		err = h.subscriptions.ChangeTier(c.Context(), userID, tier, event.ID, payload)
		return h.ack(c, event, err)

	case "subscription.deleted":
		// Cancellation drops the user back to the free tier.
		err := h.subscriptions.ChangeTier(c.Context(), userID, pricing.TierFree, event.ID, payload)
		return h.ack(c, event, err)

	case "subscription.renewed":
		tier, err := pricing.ParseTier(event.Data.Tier)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "unknown tier"})
		}
		err = h.subscriptions.Refresh(c.Context(), userID, tier, event.ID, payload)
		return h.ack(c, event, err)

	case "purchase.completed":
		if event.Data.Credits <= 0 {
			return c.Status(400).JSON(fiber.Map{"error": "credits must be greater than 0"})
		}
		err := h.subscriptions.PurchaseCredits(c.Context(), userID, event.Data.Credits, event.Data.PaymentID, event.ID, payload)
		return h.ack(c, event, err)

	default:
		// Unknown event types are acknowledged so the provider stops
		// retrying them.
		log.Printf("⚠️  Ignoring unhandled billing event type %q", event.Type)
		return c.JSON(fiber.Map{"status": "ignored"})
	}
}

func (h *WebhookHandler) ack(c *fiber.Ctx, event BillingEvent, err error) error {
	if err != nil {
		log.Printf("❌ Failed to apply billing event %s (%s): %v", event.ID, event.Type, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to apply event"})
	}
	return c.JSON(fiber.Map{"status": "processed"})
}
