package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/stellaboard/stellaboard/app/repository"
	"github.com/stellaboard/stellaboard/internal/pkg/entitlements"
)

// HandleGetUserAccount returns account information for the authenticated user.
func HandleGetUserAccount(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	user, err := repository.GetGlobalRepositories().User.GetByID(userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apiError(c, fiber.StatusNotFound, "not_found", "User not found")
		}
		return apiError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load user")
	}

	return c.JSON(fiber.Map{
		"id":            user.ID,
		"name":          user.Name,
		"email":         user.Email,
		"status":        user.Status,
		"is_guest":      userCtx.IsGuest,
		"created_at":    user.CreatedAt,
		"last_login_at": formatTimePtr(user.LastLoginAt),
	})
}

// HandleGetUserCapabilities returns the caller's effective entitlements.
// An unknown user still gets the free tier shape alongside the error.
func HandleGetUserCapabilities(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	ent, err := newEntitlementResolver().Resolve(userCtx.UserID)
	if err != nil {
		if errors.Is(err, entitlements.ErrUserNotFound) {
			return apiError(c, fiber.StatusNotFound, "not_found", "User not found")
		}
		return apiError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to resolve entitlements")
	}

	return c.JSON(ent)
}
