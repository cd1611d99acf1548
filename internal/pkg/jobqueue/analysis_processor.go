package jobqueue

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/stellaboard/stellaboard/app/models"
	"github.com/stellaboard/stellaboard/app/repository"
	"github.com/stellaboard/stellaboard/internal/pkg/analyzer"
	"github.com/stellaboard/stellaboard/internal/pkg/stella"
)

// processAnalysisJob runs one analysis end to end: move the database row to
// running, call the engine, store the research unit and complete the row.
// A returned error leaves the row in running so the queue-level retry can
// pick it up again; settleFailedAnalysis finishes it once retries are spent.
func (q *Queue) processAnalysisJob(ctx context.Context, job *Job) error {
	payload, err := AnalysisJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid analysis payload: %w", err)
	}

	repos := repository.GetGlobalRepositories()

	row, err := repos.AnalysisJob.GetByUUID(payload.JobUUID)
	if err != nil {
		return fmt.Errorf("analysis job %s not found: %w", payload.JobUUID, err)
	}
	if models.IsTerminalAnalysisStatus(row.Status) {
		// Already settled, nothing to do. Happens when the sweeper requeues
		// a job whose first run finished after the timeout.
		log.Warnf("[JobQueue] Analysis %s already %s, skipping", row.UUID, row.Status)
		return nil
	}

	if row.Status == models.AnalysisJobStatusPending {
		ok, terr := repos.AnalysisJob.TransitionStatus(row.UUID, models.AnalysisJobStatusPending, models.AnalysisJobStatusRunning, "")
		if terr != nil {
			return fmt.Errorf("failed to start analysis %s: %w", row.UUID, terr)
		}
		if !ok {
			// Someone else moved it; re-read and bail if it settled.
			row, err = repos.AnalysisJob.GetByUUID(row.UUID)
			if err != nil {
				return err
			}
			if models.IsTerminalAnalysisStatus(row.Status) {
				return nil
			}
		}
	}

	provider := payload.Provider
	if provider == "" {
		if account, aerr := repos.SocialAccount.GetByID(payload.SocialAccountID); aerr == nil {
			provider = account.Provider
		}
	}

	doc, err := q.engine.Analyze(ctx, analyzer.Request{
		Username:    payload.Username,
		Provider:    provider,
		Competitors: payload.Competitors,
	})
	if err != nil {
		return fmt.Errorf("analysis engine: %w", err)
	}

	research := doc.ToResearch(payload.SocialAccountID)
	if err := repos.Research.ReplaceLatest(payload.SocialAccountID, research); err != nil {
		return fmt.Errorf("failed to store research for account %d: %w", payload.SocialAccountID, err)
	}

	ok, err := repos.AnalysisJob.TransitionStatus(row.UUID, models.AnalysisJobStatusRunning, models.AnalysisJobStatusComplete, "")
	if err != nil {
		return fmt.Errorf("failed to complete analysis %s: %w", row.UUID, err)
	}
	if !ok {
		log.Warnf("[JobQueue] Analysis %s was not running on completion, leaving as-is", row.UUID)
	}

	log.Infof("[JobQueue] Analysis %s completed for account %d (%d competitors)", row.UUID, payload.SocialAccountID, len(payload.Competitors))
	return nil
}

// settleFailedAnalysis finishes a job whose retries are exhausted: the
// database row moves to failed and, when the refund policy is on, the
// recorded bucket split goes back to the wallet exactly once.
func (q *Queue) settleFailedAnalysis(job *Job, cause error) {
	if job.Type != JobTypeAnalysis {
		return
	}
	payload, err := AnalysisJobPayloadFromMap(job.Payload)
	if err != nil {
		log.Errorf("[JobQueue] Cannot settle failed job %s: %v", job.ID, err)
		return
	}

	repos := repository.GetGlobalRepositories()

	errMsg := ""
	if cause != nil {
		errMsg = cause.Error()
	}

	// The row is running while retries are in flight; only the first
	// settle attempt wins this transition.
	ok, err := repos.AnalysisJob.TransitionStatus(payload.JobUUID, models.AnalysisJobStatusRunning, models.AnalysisJobStatusFailed, errMsg)
	if err != nil {
		log.Errorf("[JobQueue] Failed to mark analysis %s failed: %v", payload.JobUUID, err)
		return
	}
	if !ok {
		// Handles the enqueue-then-crash case where the row never started.
		ok, err = repos.AnalysisJob.TransitionStatus(payload.JobUUID, models.AnalysisJobStatusPending, models.AnalysisJobStatusRunning, "")
		if err != nil || !ok {
			log.Warnf("[JobQueue] Analysis %s already settled, skipping refund", payload.JobUUID)
			return
		}
		if _, err = repos.AnalysisJob.TransitionStatus(payload.JobUUID, models.AnalysisJobStatusRunning, models.AnalysisJobStatusFailed, errMsg); err != nil {
			log.Errorf("[JobQueue] Failed to mark analysis %s failed: %v", payload.JobUUID, err)
			return
		}
	}

	if !q.refundOnFailure {
		return
	}

	row, err := repos.AnalysisJob.GetByUUID(payload.JobUUID)
	if err != nil {
		log.Errorf("[JobQueue] Cannot load analysis %s for refund: %v", payload.JobUUID, err)
		return
	}
	if row.Refunded || (row.MonthlyCharged == 0 && row.TopupCharged == 0) {
		return
	}

	ledger := stella.NewLedger(repos.Wallet)
	if _, err := ledger.Refund(row.UserID, row.MonthlyCharged, row.TopupCharged, row.UUID, "analysis failed"); err != nil {
		log.Errorf("[JobQueue] Refund for analysis %s failed: %v", row.UUID, err)
		return
	}
	if err := repos.AnalysisJob.MarkRefunded(row.UUID); err != nil {
		log.Errorf("[JobQueue] Failed to flag analysis %s refunded: %v", row.UUID, err)
		return
	}
	log.Infof("[JobQueue] Refunded %d Stellas (monthly=%d, topup=%d) for failed analysis %s",
		row.MonthlyCharged+row.TopupCharged, row.MonthlyCharged, row.TopupCharged, row.UUID)
}
