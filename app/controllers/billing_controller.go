package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/stellaboard/stellaboard/internal/pkg/billing"
	"github.com/stellaboard/stellaboard/internal/pkg/database"
	"github.com/stellaboard/stellaboard/internal/pkg/env"
)

// HandleBillingWebhook receives payment-provider events. The provider only
// needs an acknowledgement, so handler failures are logged and returned as
// 200 to stop redelivery storms; bad signatures are rejected.
func HandleBillingWebhook(c *fiber.Ctx) error {
	service := billing.NewServiceFromDB(database.GetDB(), newLedger(), env.GetEnv("BILLING_WEBHOOK_SECRET", ""))

	err := service.ProcessWebhook(c.Context(), c.Body(), c.Get("X-Webhook-Signature"))
	if err != nil {
		if errors.Is(err, billing.ErrInvalidSignature) {
			return apiError(c, fiber.StatusUnauthorized, "unauthorized", "Invalid webhook signature")
		}
		log.Errorf("[Billing] Webhook processing failed: %v", err)
		return c.JSON(fiber.Map{"received": true, "applied": false})
	}

	return c.JSON(fiber.Map{"received": true, "applied": true})
}
