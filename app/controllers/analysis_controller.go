package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/stellaboard/stellaboard/app/models"
	"github.com/stellaboard/stellaboard/internal/pkg/analysis"
	"github.com/stellaboard/stellaboard/internal/pkg/stella"
)

type submitAnalysisRequest struct {
	SocialAccountID uint     `json:"social_account_id"`
	Competitors     []string `json:"competitors"`
}

// HandleEstimateAnalysis returns the Stella cost for a competitor count
// without charging anything.
func HandleEstimateAnalysis(c *fiber.Ctx) error {
	if _, ok := requireUser(c); !ok {
		return nil
	}

	count, _ := strconv.Atoi(c.Query("competitors", "0"))
	clamped := stella.ClampCompetitorCount(count)

	return c.JSON(fiber.Map{
		"competitor_count": clamped,
		"base":             stella.BaseCost,
		"per_competitor":   stella.PerCompetitorCost,
		"cost":             stella.CalculateCost(count),
	})
}

// HandleSubmitAnalysis charges the wallet and queues an analysis run.
func HandleSubmitAnalysis(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	var req submitAnalysisRequest
	if err := c.BodyParser(&req); err != nil {
		return apiError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	if req.SocialAccountID == 0 {
		return apiError(c, fiber.StatusBadRequest, "bad_request", "social_account_id is required")
	}

	job, err := newAnalysisService().Submit(userCtx.UserID, req.SocialAccountID, req.Competitors)
	if err != nil {
		switch {
		case errors.Is(err, analysis.ErrTooManyCompetitors):
			return apiError(c, fiber.StatusBadRequest, "bad_request", err.Error())
		case errors.Is(err, analysis.ErrAccountNotFound):
			return apiError(c, fiber.StatusNotFound, "not_found", "Social account not found")
		case errors.Is(err, analysis.ErrForbidden):
			return apiError(c, fiber.StatusForbidden, "forbidden", "You do not own this social account")
		case errors.Is(err, analysis.ErrFeatureLocked):
			return apiError(c, fiber.StatusForbidden, "feature_locked", "Competitor analysis is not included in your plan")
		case errors.Is(err, stella.ErrInsufficientFunds):
			return apiError(c, fiber.StatusPaymentRequired, "insufficient_funds", "Not enough Stellas to run this analysis")
		default:
			return apiError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to submit analysis")
		}
	}

	return c.Status(fiber.StatusAccepted).JSON(analysisJobResponse(job))
}

// HandleGetAnalysisStatus returns the lifecycle state of one job.
func HandleGetAnalysisStatus(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	jobUUID := c.Params("id")
	job, err := newAnalysisService().GetStatus(userCtx.UserID, jobUUID)
	if err != nil {
		switch {
		case errors.Is(err, analysis.ErrJobNotFound):
			return apiError(c, fiber.StatusNotFound, "not_found", "Analysis job not found")
		case errors.Is(err, analysis.ErrForbidden):
			return apiError(c, fiber.StatusForbidden, "forbidden", "You do not own this analysis job")
		default:
			return apiError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load analysis job")
		}
	}

	return c.JSON(analysisJobResponse(job))
}

// HandleListAnalyses returns the caller's recent jobs, newest first.
func HandleListAnalyses(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	jobs, err := newAnalysisService().ListRecent(userCtx.UserID, limit)
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load analysis jobs")
	}

	items := make([]fiber.Map, 0, len(jobs))
	for i := range jobs {
		items = append(items, analysisJobResponse(&jobs[i]))
	}
	return c.JSON(fiber.Map{
		"jobs": items,
	})
}

func analysisJobResponse(job *models.AnalysisJob) fiber.Map {
	return fiber.Map{
		"id":                job.UUID,
		"social_account_id": job.SocialAccountID,
		"status":            job.Status,
		"competitors":       job.Competitors(),
		"cost":              job.Cost,
		"refunded":          job.Refunded,
		"error":             job.ErrorMsg,
		"created_at":        job.CreatedAt,
		"started_at":        formatTimePtr(job.StartedAt),
		"finished_at":       formatTimePtr(job.FinishedAt),
	}
}
