package controllers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"
	"gorm.io/gorm"

	"github.com/stellaboard/stellaboard/app/models"
	"github.com/stellaboard/stellaboard/app/repository"
)

// HandleOAuthBegin starts the provider flow for connecting a social profile.
func HandleOAuthBegin(c *fiber.Ctx) error {
	return gothfiber.BeginAuthHandler(c)
}

// HandleOAuthCallback completes the provider flow. The provider identity
// both logs the user in and connects the profile as a social account.
func HandleOAuthCallback(c *fiber.Ctx) error {
	u, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(fmt.Sprintf("OAuth failed: %v", err))
	}

	repos := repository.GetGlobalRepositories()

	// Match by email if the provider shares one, otherwise create a user
	// with a synthetic address to satisfy the unique index.
	var appUser *models.User
	if u.Email != "" {
		appUser, _ = repos.User.GetByEmail(u.Email)
	}
	if appUser == nil {
		placeholder := fmt.Sprintf("oauth_%d", time.Now().UnixNano())
		hash, _ := models.HashPassword(placeholder)
		email := u.Email
		if email == "" {
			email = fmt.Sprintf("%s_%s@%s.oauth.local", u.Provider, u.UserID, u.Provider)
		}
		appUser = &models.User{
			Name:      firstNonEmpty(u.NickName, u.Name, u.Email, "User"),
			Email:     email,
			Password:  hash,
			AvatarURL: u.AvatarURL,
			Status:    models.STATUS_ACTIVE,
		}
		if err := repos.User.Create(appUser); err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("create user failed: %v", err))
		}
	}

	username := firstNonEmpty(u.NickName, u.Name)
	if username != "" {
		if _, err := repos.SocialAccount.GetByUserAndUsername(appUser.ID, username); errors.Is(err, gorm.ErrRecordNotFound) {
			account := &models.SocialAccount{
				UserID:   appUser.ID,
				Username: username,
				Provider: u.Provider,
			}
			if err := repos.SocialAccount.Create(account); err != nil {
				return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("link account failed: %v", err))
			}
		}
	}

	if err := openSession(c, appUser); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("session init failed")
	}

	return c.Redirect("/", fiber.StatusSeeOther)
}

// HandleOAuthLogout clears the Goth provider session and the app session.
func HandleOAuthLogout(c *fiber.Ctx) error {
	_ = gothfiber.Logout(c)
	return HandleLogout(c)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
