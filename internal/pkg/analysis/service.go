// Package analysis gatekeeps and bookkeeps analysis runs: it checks
// ownership and entitlements, charges the wallet, and records the job. The
// research itself is produced by the external engine behind the job queue.
package analysis

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stellaboard/stellaboard/app/models"
	"github.com/stellaboard/stellaboard/app/repository"
	"github.com/stellaboard/stellaboard/internal/pkg/entitlements"
	"github.com/stellaboard/stellaboard/internal/pkg/stella"
)

var (
	// ErrAccountNotFound signals an unknown social account id.
	ErrAccountNotFound = errors.New("analysis: social account not found")
	// ErrForbidden signals the requesting user does not own the account or job.
	ErrForbidden = errors.New("analysis: not the owner")
	// ErrFeatureLocked signals a competitor request without the entitlement.
	ErrFeatureLocked = errors.New("analysis: competitor analysis not included in plan")
	// ErrTooManyCompetitors signals a request above the supported maximum.
	ErrTooManyCompetitors = fmt.Errorf("analysis: at most %d competitors supported", stella.MaxCompetitors)
	// ErrJobNotFound signals an unknown job id on a status poll.
	ErrJobNotFound = errors.New("analysis: job not found")
)

// Enqueuer hands a created job off to the background worker.
type Enqueuer interface {
	EnqueueAnalysis(jobUUID string, userID, socialAccountID uint, username string, competitors []string) error
}

// Service orchestrates submission and status of analysis jobs.
type Service struct {
	accounts        repository.SocialAccountRepository
	jobs            repository.AnalysisJobRepository
	resolver        *entitlements.Resolver
	ledger          *stella.Ledger
	enqueuer        Enqueuer
	refundOnFailure bool
}

// NewService wires the lifecycle over its collaborators. refundOnFailure
// controls whether a failed run restores the charge.
func NewService(
	accounts repository.SocialAccountRepository,
	jobs repository.AnalysisJobRepository,
	resolver *entitlements.Resolver,
	ledger *stella.Ledger,
	enqueuer Enqueuer,
	refundOnFailure bool,
) *Service {
	return &Service{
		accounts:        accounts,
		jobs:            jobs,
		resolver:        resolver,
		ledger:          ledger,
		enqueuer:        enqueuer,
		refundOnFailure: refundOnFailure,
	}
}

// Estimate returns the Stella cost for the given competitor count.
func (s *Service) Estimate(competitorCount int) int64 {
	return stella.CalculateCost(competitorCount)
}

// RefundOnFailure reports the configured failure-refund policy.
func (s *Service) RefundOnFailure() bool {
	return s.refundOnFailure
}

// Submit runs the gatekeeping sequence and creates the job. The checks run
// in a fixed order: ownership, then entitlement, then payment. The wallet is
// debited before the job row exists, so a failed debit never leaves an
// orphan pending job.
func (s *Service) Submit(requestingUserID, socialAccountID uint, competitors []string) (*models.AnalysisJob, error) {
	if len(competitors) > stella.MaxCompetitors {
		return nil, ErrTooManyCompetitors
	}

	account, err := s.accounts.GetByID(socialAccountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	if account.UserID != requestingUserID {
		return nil, ErrForbidden
	}

	if len(competitors) > 0 {
		ent, err := s.resolver.Resolve(requestingUserID)
		if err != nil {
			return nil, err
		}
		if !ent.CompetitorAnalysisAccess {
			return nil, ErrFeatureLocked
		}
	}

	jobUUID := uuid.New().String()
	cost := stella.CalculateCost(len(competitors))

	debit, err := s.ledger.Debit(requestingUserID, cost, jobUUID, "analysis")
	if err != nil {
		return nil, err
	}

	job := &models.AnalysisJob{
		UUID:            jobUUID,
		UserID:          requestingUserID,
		SocialAccountID: socialAccountID,
		Status:          models.AnalysisJobStatusPending,
		Cost:            cost,
		MonthlyCharged:  debit.MonthlySpent,
		TopupCharged:    debit.TopupSpent,
	}
	if err := job.SetCompetitors(competitors); err != nil {
		return nil, err
	}
	if err := s.jobs.Create(job); err != nil {
		// The charge already landed; restore it rather than strand it.
		if _, rerr := s.ledger.Refund(requestingUserID, debit.MonthlySpent, debit.TopupSpent, jobUUID, "job creation failed"); rerr != nil {
			log.Errorf("[Analysis] Refund after failed job creation for %s: %v", jobUUID, rerr)
		}
		return nil, err
	}

	if err := s.enqueuer.EnqueueAnalysis(jobUUID, requestingUserID, socialAccountID, account.Username, competitors); err != nil {
		log.Errorf("[Analysis] Enqueue failed for job %s: %v", jobUUID, err)
		s.failUnstarted(job)
		return nil, err
	}

	log.Infof("[Analysis] Job %s submitted (account=%d, competitors=%d, cost=%d)", jobUUID, socialAccountID, len(competitors), cost)
	return job, nil
}

// failUnstarted drives a job that never reached the worker through its
// states to failed and restores the charge per policy.
func (s *Service) failUnstarted(job *models.AnalysisJob) {
	if ok, err := s.jobs.TransitionStatus(job.UUID, models.AnalysisJobStatusPending, models.AnalysisJobStatusRunning, ""); err != nil || !ok {
		return
	}
	if _, err := s.jobs.TransitionStatus(job.UUID, models.AnalysisJobStatusRunning, models.AnalysisJobStatusFailed, "worker hand-off failed"); err != nil {
		return
	}
	if s.refundOnFailure {
		if _, err := s.ledger.Refund(job.UserID, job.MonthlyCharged, job.TopupCharged, job.UUID, "analysis failed"); err != nil {
			log.Errorf("[Analysis] Refund for job %s: %v", job.UUID, err)
			return
		}
		if err := s.jobs.MarkRefunded(job.UUID); err != nil {
			log.Errorf("[Analysis] Mark refunded for job %s: %v", job.UUID, err)
		}
	}
}

// GetStatus returns the job for a status poll. Only the owner may read it.
// Terminal statuses are immutable, so repeated polls are monotonic.
func (s *Service) GetStatus(requestingUserID uint, jobUUID string) (*models.AnalysisJob, error) {
	job, err := s.jobs.GetByUUID(jobUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	if job.UserID != requestingUserID {
		return nil, ErrForbidden
	}
	return job, nil
}

// ListRecent returns the user's recent jobs for dashboard history.
func (s *Service) ListRecent(userID uint, limit int) ([]models.AnalysisJob, error) {
	return s.jobs.ListByUser(userID, limit)
}
