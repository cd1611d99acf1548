package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/stellaboard/stellaboard/app/repository"
)

// HandleGetPlans returns the seeded plan catalog ordered by tier, with the
// subscription product's pricing attached. The catalog is public.
func HandleGetPlans(c *fiber.Ctx) error {
	plans, err := repository.GetGlobalRepositories().Plan.ListByTier()
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load plans")
	}

	formatted := make([]fiber.Map, 0, len(plans))
	for i := range plans {
		plan := &plans[i]

		var price int64
		currency := "USD"
		var providerProductID interface{}
		if product := plan.SubscriptionProduct(); product != nil {
			price = product.Price
			currency = product.Currency
			providerProductID = product.ProviderProductID
		}

		formatted = append(formatted, fiber.Map{
			"id":                    plan.ID,
			"name":                  plan.Name,
			"tier":                  plan.Tier,
			"monthly_stellas_grant": plan.MonthlyStellasGrant,
			"features": fiber.Map{
				"competitor_analysis_access":  plan.CompetitorAnalysisAccess,
				"ai_consultant_access":        plan.AIConsultantAccess,
				"daily_auto_analysis_enabled": plan.DailyAutoAnalysisEnabled,
			},
			"price":               price,
			"currency":            currency,
			"provider_product_id": providerProductID,
		})
	}

	return c.JSON(fiber.Map{
		"plans": formatted,
	})
}
