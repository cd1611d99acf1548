package jobqueue

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stellaboard/stellaboard/app/models"
	"github.com/stellaboard/stellaboard/app/repository"
	"github.com/stellaboard/stellaboard/internal/pkg/env"
)

// Manager manages the global job queue and background tasks
type Manager struct {
	queue            *Queue
	dailySweepTicker *time.Ticker
	stopCh           chan struct{}
	wg               sync.WaitGroup
	mu               sync.Mutex
	running          bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global job queue manager (singleton)
func GetManager() *Manager {
	managerOnce.Do(func() {
		workerCount := 3
		if v, err := strconv.Atoi(env.GetEnv("JOB_QUEUE_WORKERS", "3")); err == nil && v > 0 {
			workerCount = v
		}

		globalManager = &Manager{
			queue:  NewQueue(workerCount),
			stopCh: make(chan struct{}),
		}
	})
	return globalManager
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start starts the job queue and background tasks
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[JobQueue Manager] Starting job queue and background tasks")

	// Start the job queue
	m.queue.Start()

	// Daily auto-analysis sweep, configurable interval
	sweepInterval := 60 * time.Minute
	if v, err := strconv.Atoi(env.GetEnv("DAILY_ANALYSIS_SWEEP_MINUTES", "60")); err == nil && v > 0 {
		sweepInterval = time.Duration(v) * time.Minute
	}
	m.dailySweepTicker = time.NewTicker(sweepInterval)
	m.wg.Add(1)
	go m.dailySweepWorker()

	log.Info("[JobQueue Manager] Started successfully")
}

// Stop stops the job queue and background tasks
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[JobQueue Manager] Stopping job queue and background tasks...")

	if m.dailySweepTicker != nil {
		m.dailySweepTicker.Stop()
	}

	// Signal workers to stop
	close(m.stopCh)
	m.running = false

	// Wait for background workers to finish
	m.wg.Wait()

	// Stop the job queue
	m.queue.Stop()

	log.Info("[JobQueue Manager] Stopped successfully")
}

// dailySweepWorker periodically refreshes research for users whose plan
// includes daily auto-analysis.
func (m *Manager) dailySweepWorker() {
	defer m.wg.Done()
	log.Info("[JobQueue Manager] Started daily auto-analysis sweep worker")

	for {
		select {
		case <-m.stopCh:
			log.Info("[JobQueue Manager] Daily sweep worker stopping")
			return
		case <-m.dailySweepTicker.C:
			if err := m.runDailySweepOnce(); err != nil {
				log.Errorf("[JobQueue Manager] Daily sweep error: %v", err)
			}
		}
	}
}

// RunDailySweepOnce exposes a manual trigger for a single sweep (admin use).
func (m *Manager) RunDailySweepOnce() error {
	return m.runDailySweepOnce()
}

// runDailySweepOnce enqueues one plan-included analysis per eligible user.
// Eligible means an entitling subscription with daily auto-analysis, a
// connected account, no analysis in flight and research older than a day.
// Plan-included runs are not charged, so the job row carries zero cost.
func (m *Manager) runDailySweepOnce() error {
	repos := repository.GetGlobalRepositories()

	userIDs, err := repos.Subscription.ListUserIDsWithDailyAutoAnalysis()
	if err != nil {
		return err
	}

	cutoff := time.Now().Add(-24 * time.Hour)
	enqueued := 0

	for _, userID := range userIDs {
		account, err := repos.SocialAccount.GetPrimaryByUserID(userID)
		if err != nil || account == nil {
			continue
		}

		// Skip while a run is already pending or running.
		recent, err := repos.AnalysisJob.ListByUser(userID, 1)
		if err != nil {
			log.Errorf("[JobQueue Manager] Daily sweep: jobs lookup for user %d failed: %v", userID, err)
			continue
		}
		if len(recent) > 0 && !models.IsTerminalAnalysisStatus(recent[0].Status) {
			continue
		}

		research, err := repos.Research.GetLatest(account.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Errorf("[JobQueue Manager] Daily sweep: research lookup for account %d failed: %v", account.ID, err)
			continue
		}
		if research != nil && research.CreatedAt.After(cutoff) {
			continue
		}

		job := &models.AnalysisJob{
			UUID:            uuid.New().String(),
			UserID:          userID,
			SocialAccountID: account.ID,
			Status:          models.AnalysisJobStatusPending,
		}
		if err := repos.AnalysisJob.Create(job); err != nil {
			log.Errorf("[JobQueue Manager] Daily sweep: job create for user %d failed: %v", userID, err)
			continue
		}
		if err := m.queue.EnqueueAnalysis(job.UUID, userID, account.ID, account.Username, nil); err != nil {
			log.Errorf("[JobQueue Manager] Daily sweep: enqueue for user %d failed: %v", userID, err)
			// A pending row that never reached Redis would trip the
			// in-flight check on every later sweep; settle it now.
			failUnqueuedAnalysis(repos.AnalysisJob, job.UUID)
			continue
		}
		enqueued++
	}

	if enqueued > 0 {
		log.Infof("[JobQueue Manager] Daily sweep enqueued %d analysis runs", enqueued)
	}
	return nil
}

// failUnqueuedAnalysis drives a job whose queue hand-off failed through its
// states to failed. A worker that did pick the job up wins the first
// transition instead, in which case the row is left alone.
func failUnqueuedAnalysis(jobs repository.AnalysisJobRepository, jobUUID string) {
	ok, err := jobs.TransitionStatus(jobUUID, models.AnalysisJobStatusPending, models.AnalysisJobStatusRunning, "")
	if err != nil || !ok {
		return
	}
	if _, err := jobs.TransitionStatus(jobUUID, models.AnalysisJobStatusRunning, models.AnalysisJobStatusFailed, "worker hand-off failed"); err != nil {
		log.Errorf("[JobQueue Manager] Failed to settle unqueued analysis %s: %v", jobUUID, err)
	}
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
