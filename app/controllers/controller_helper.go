package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/stellaboard/stellaboard/app/models"
	"github.com/stellaboard/stellaboard/app/repository"
	"github.com/stellaboard/stellaboard/internal/pkg/analysis"
	"github.com/stellaboard/stellaboard/internal/pkg/entitlements"
	"github.com/stellaboard/stellaboard/internal/pkg/env"
	"github.com/stellaboard/stellaboard/internal/pkg/jobqueue"
	"github.com/stellaboard/stellaboard/internal/pkg/stella"
	"github.com/stellaboard/stellaboard/internal/pkg/usercontext"
)

// apiError writes the uniform JSON error envelope.
func apiError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":   code,
		"message": message,
	})
}

// requireUser resolves the request identity or writes a 401.
func requireUser(c *fiber.Ctx) (usercontext.UserContext, bool) {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		_ = apiError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
		return userCtx, false
	}
	return userCtx, true
}

// entitlementStore adapts the repository layer to the resolver's store.
type entitlementStore struct {
	repos *repository.Repositories
}

func (s entitlementStore) GetUserByID(id uint) (*models.User, error) {
	return s.repos.User.GetByID(id)
}

func (s entitlementStore) ListSubscriptionsWithPlanByUser(userID uint) ([]models.Subscription, error) {
	return s.repos.Subscription.ListWithPlanByUser(userID)
}

func newEntitlementResolver() *entitlements.Resolver {
	return entitlements.NewResolver(entitlementStore{repos: repository.GetGlobalRepositories()})
}

func newLedger() *stella.Ledger {
	return stella.NewLedger(repository.GetGlobalRepositories().Wallet)
}

func newAnalysisService() *analysis.Service {
	repos := repository.GetGlobalRepositories()
	return analysis.NewService(
		repos.SocialAccount,
		repos.AnalysisJob,
		newEntitlementResolver(),
		newLedger(),
		jobqueue.GetManager().GetQueue(),
		env.GetBool("ANALYSIS_REFUND_ON_FAILURE", true),
	)
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
