package controllers

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/stellaboard/stellaboard/app/repository"
)

// rawOrNull passes stored JSON through untouched so clients get the engine's
// documents, not a re-encoded string.
func rawOrNull(s string) json.RawMessage {
	if s == "" {
		return json.RawMessage("null")
	}
	return json.RawMessage(s)
}

// HandleGetLatestResearch returns the current research snapshot for the
// caller's primary account, all six documents together. Having no research
// yet is a 404, distinct from a lookup failure.
func HandleGetLatestResearch(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	repos := repository.GetGlobalRepositories()
	account, err := repos.SocialAccount.GetPrimaryByUserID(userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apiError(c, fiber.StatusNotFound, "not_found", "No social account connected")
		}
		return apiError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load social account")
	}

	research, err := repos.Research.GetLatest(account.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apiError(c, fiber.StatusNotFound, "not_found", "No research available yet")
		}
		return apiError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load research")
	}

	response := fiber.Map{
		"id":                research.ID,
		"social_account_id": research.SocialAccountID,
		"created_at":        research.CreatedAt,
	}
	if research.ScriptSuggestion != nil {
		response["script_suggestions"] = fiber.Map{"scripts": rawOrNull(research.ScriptSuggestion.Scripts)}
	}
	if research.OverallStrategy != nil {
		response["overall_strategy"] = fiber.Map{"data": rawOrNull(research.OverallStrategy.Data)}
	}
	if research.UserResearch != nil {
		response["user_research"] = fiber.Map{"data": rawOrNull(research.UserResearch.Data)}
	}
	if research.CompetitorResearch != nil {
		response["competitor_research"] = fiber.Map{"data": rawOrNull(research.CompetitorResearch.Data)}
	}
	if research.NicheResearch != nil {
		response["niche_research"] = fiber.Map{"data": rawOrNull(research.NicheResearch.Data)}
	}
	if research.TwitterResearch != nil {
		response["twitter_research"] = fiber.Map{
			"latest_data": rawOrNull(research.TwitterResearch.LatestData),
			"top_data":    rawOrNull(research.TwitterResearch.TopData),
		}
	}

	return c.JSON(response)
}
