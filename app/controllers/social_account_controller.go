package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/stellaboard/stellaboard/app/models"
	"github.com/stellaboard/stellaboard/app/repository"
)

// HandleGetSocialAccount returns the caller's primary connected account.
// No connection yet is a 404, not an error.
func HandleGetSocialAccount(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	account, err := repository.GetGlobalRepositories().SocialAccount.GetPrimaryByUserID(userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apiError(c, fiber.StatusNotFound, "not_found", "No social account connected")
		}
		return apiError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load social account")
	}

	return c.JSON(account)
}

// HandleListSocialAccounts returns every account the caller has connected,
// newest first.
func HandleListSocialAccounts(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	accounts, err := repository.GetGlobalRepositories().SocialAccount.ListByUserID(userCtx.UserID)
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load social accounts")
	}

	return c.JSON(fiber.Map{
		"accounts": accounts,
	})
}

type connectSocialAccountRequest struct {
	Username string `json:"username"`
	Provider string `json:"provider"`
}

// HandleConnectSocialAccount connects a profile by username. Reconnecting
// the same username returns the existing row instead of a duplicate.
func HandleConnectSocialAccount(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	var req connectSocialAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return apiError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	username := strings.TrimSpace(strings.TrimPrefix(req.Username, "@"))
	if username == "" {
		return apiError(c, fiber.StatusBadRequest, "bad_request", "username is required")
	}

	repo := repository.GetGlobalRepositories().SocialAccount
	if existing, err := repo.GetByUserAndUsername(userCtx.UserID, username); err == nil {
		return c.JSON(existing)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return apiError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to connect account")
	}

	account := &models.SocialAccount{
		UserID:   userCtx.UserID,
		Username: username,
	}
	if p := strings.ToLower(strings.TrimSpace(req.Provider)); p != "" {
		account.Provider = p
	}
	if err := repo.Create(account); err != nil {
		return apiError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to connect account")
	}

	return c.Status(fiber.StatusCreated).JSON(account)
}
