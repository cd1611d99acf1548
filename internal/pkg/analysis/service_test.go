package analysis

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/stellaboard/stellaboard/app/models"
	"github.com/stellaboard/stellaboard/internal/pkg/entitlements"
	"github.com/stellaboard/stellaboard/internal/pkg/stella"
)

type memWalletStore struct {
	wallets map[uint]*models.Wallet
	records []models.WalletTransaction
}

func newMemWalletStore() *memWalletStore {
	return &memWalletStore{wallets: map[uint]*models.Wallet{}}
}

func (s *memWalletStore) GetOrCreate(userID uint) (*models.Wallet, error) {
	if w, ok := s.wallets[userID]; ok {
		cp := *w
		return &cp, nil
	}
	w := &models.Wallet{ID: uint(len(s.wallets) + 1), UserID: userID}
	s.wallets[userID] = w
	cp := *w
	return &cp, nil
}

func (s *memWalletStore) CompareAndApply(userID uint, expectMonthly, expectTopup, newMonthly, newTopup int64, record *models.WalletTransaction) (bool, error) {
	w, ok := s.wallets[userID]
	if !ok || w.MonthlyBalance != expectMonthly || w.TopupBalance != expectTopup {
		return false, nil
	}
	w.MonthlyBalance = newMonthly
	w.TopupBalance = newTopup
	s.records = append(s.records, *record)
	return true, nil
}

func (s *memWalletStore) ListTransactions(userID uint, limit int) ([]models.WalletTransaction, error) {
	var out []models.WalletTransaction
	for _, r := range s.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memWalletStore) seed(userID uint, monthly, topup int64) {
	s.wallets[userID] = &models.Wallet{ID: uint(len(s.wallets) + 1), UserID: userID, MonthlyBalance: monthly, TopupBalance: topup}
}

func (s *memWalletStore) balance(userID uint) (int64, int64) {
	w := s.wallets[userID]
	if w == nil {
		return 0, 0
	}
	return w.MonthlyBalance, w.TopupBalance
}

type fakeAccounts struct {
	accounts map[uint]*models.SocialAccount
}

func (f *fakeAccounts) Create(account *models.SocialAccount) error { return nil }

func (f *fakeAccounts) GetByID(id uint) (*models.SocialAccount, error) {
	if a, ok := f.accounts[id]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAccounts) GetPrimaryByUserID(userID uint) (*models.SocialAccount, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAccounts) ListByUserID(userID uint) ([]models.SocialAccount, error) { return nil, nil }

func (f *fakeAccounts) GetByUserAndUsername(userID uint, username string) (*models.SocialAccount, error) {
	return nil, gorm.ErrRecordNotFound
}

type fakeJobs struct {
	jobs      map[string]*models.AnalysisJob
	createErr error
	refunded  []string
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{jobs: map[string]*models.AnalysisJob{}}
}

func (f *fakeJobs) Create(job *models.AnalysisJob) error {
	if f.createErr != nil {
		return f.createErr
	}
	cp := *job
	f.jobs[job.UUID] = &cp
	return nil
}

func (f *fakeJobs) GetByUUID(uuid string) (*models.AnalysisJob, error) {
	if j, ok := f.jobs[uuid]; ok {
		cp := *j
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeJobs) TransitionStatus(uuid, from, to string, errorMsg string) (bool, error) {
	j, ok := f.jobs[uuid]
	if !ok || j.Status != from || !models.CanTransitionAnalysisStatus(from, to) {
		return false, nil
	}
	j.Status = to
	if errorMsg != "" {
		j.ErrorMsg = errorMsg
	}
	return true, nil
}

func (f *fakeJobs) MarkRefunded(uuid string) error {
	if j, ok := f.jobs[uuid]; ok {
		j.Refunded = true
	}
	f.refunded = append(f.refunded, uuid)
	return nil
}

func (f *fakeJobs) ListByUser(userID uint, limit int) ([]models.AnalysisJob, error) {
	var out []models.AnalysisJob
	for _, j := range f.jobs {
		if j.UserID == userID {
			out = append(out, *j)
		}
	}
	return out, nil
}

type fakeEnqueuer struct {
	err      error
	enqueued []string
}

func (f *fakeEnqueuer) EnqueueAnalysis(jobUUID string, userID, socialAccountID uint, username string, competitors []string) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, jobUUID)
	return nil
}

type fakeEntStore struct {
	user *models.User
	subs []models.Subscription
}

func (f *fakeEntStore) GetUserByID(id uint) (*models.User, error) {
	if f.user != nil && f.user.ID == id {
		return f.user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeEntStore) ListSubscriptionsWithPlanByUser(userID uint) ([]models.Subscription, error) {
	return f.subs, nil
}

type serviceFixture struct {
	svc      *Service
	store    *memWalletStore
	jobs     *fakeJobs
	enqueuer *fakeEnqueuer
}

func newServiceFixture(t *testing.T, competitorAccess, refundOnFailure bool) *serviceFixture {
	t.Helper()

	store := newMemWalletStore()
	jobs := newFakeJobs()
	enqueuer := &fakeEnqueuer{}
	accounts := &fakeAccounts{accounts: map[uint]*models.SocialAccount{
		10: {ID: 10, UserID: 1, Username: "creator", Provider: "instagram"},
	}}

	var subs []models.Subscription
	if competitorAccess {
		subs = []models.Subscription{{
			Status: models.SubscriptionStatusActive,
			Plan:   models.Plan{Tier: 2, CompetitorAnalysisAccess: true},
		}}
	}
	resolver := entitlements.NewResolver(&fakeEntStore{user: &models.User{ID: 1}, subs: subs})

	svc := NewService(accounts, jobs, resolver, stella.NewLedger(store), enqueuer, refundOnFailure)
	return &serviceFixture{svc: svc, store: store, jobs: jobs, enqueuer: enqueuer}
}

func TestSubmitCreatesPendingJob(t *testing.T) {
	fx := newServiceFixture(t, true, true)
	fx.store.seed(1, 20, 20)

	job, err := fx.svc.Submit(1, 10, []string{"rival1", "rival2"})
	require.NoError(t, err)

	assert.Equal(t, models.AnalysisJobStatusPending, job.Status)
	assert.Equal(t, int64(20), job.Cost)
	assert.Equal(t, int64(20), job.MonthlyCharged)
	assert.Equal(t, int64(0), job.TopupCharged)
	assert.Equal(t, []string{"rival1", "rival2"}, job.Competitors())
	assert.Equal(t, []string{job.UUID}, fx.enqueuer.enqueued)

	monthly, topup := fx.store.balance(1)
	assert.Equal(t, int64(0), monthly)
	assert.Equal(t, int64(20), topup)
}

func TestSubmitSpillsIntoTopupBucket(t *testing.T) {
	fx := newServiceFixture(t, false, true)
	fx.store.seed(1, 4, 30)

	job, err := fx.svc.Submit(1, 10, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(10), job.Cost)
	assert.Equal(t, int64(4), job.MonthlyCharged)
	assert.Equal(t, int64(6), job.TopupCharged)
}

func TestSubmitTooManyCompetitors(t *testing.T) {
	fx := newServiceFixture(t, true, true)
	fx.store.seed(1, 100, 0)

	_, err := fx.svc.Submit(1, 10, []string{"a", "b", "c", "d", "e", "f"})
	assert.ErrorIs(t, err, ErrTooManyCompetitors)
	assert.Empty(t, fx.jobs.jobs)
}

func TestSubmitUnknownAccount(t *testing.T) {
	fx := newServiceFixture(t, true, true)

	_, err := fx.svc.Submit(1, 999, nil)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestSubmitForbiddenForNonOwner(t *testing.T) {
	fx := newServiceFixture(t, true, true)
	fx.store.seed(2, 100, 0)

	_, err := fx.svc.Submit(2, 10, nil)
	assert.ErrorIs(t, err, ErrForbidden)
	monthly, _ := fx.store.balance(2)
	assert.Equal(t, int64(100), monthly)
}

func TestSubmitFeatureLockedLeavesWalletUntouched(t *testing.T) {
	fx := newServiceFixture(t, false, true)
	fx.store.seed(1, 100, 0)

	_, err := fx.svc.Submit(1, 10, []string{"rival"})
	assert.ErrorIs(t, err, ErrFeatureLocked)

	monthly, topup := fx.store.balance(1)
	assert.Equal(t, int64(100), monthly)
	assert.Equal(t, int64(0), topup)
	assert.Empty(t, fx.jobs.jobs)
	assert.Empty(t, fx.enqueuer.enqueued)
}

func TestSubmitWithoutCompetitorsSkipsEntitlementCheck(t *testing.T) {
	fx := newServiceFixture(t, false, true)
	fx.store.seed(1, 10, 0)

	job, err := fx.svc.Submit(1, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(10), job.Cost)
}

func TestSubmitInsufficientFunds(t *testing.T) {
	fx := newServiceFixture(t, true, true)
	fx.store.seed(1, 3, 4)

	_, err := fx.svc.Submit(1, 10, nil)
	assert.ErrorIs(t, err, stella.ErrInsufficientFunds)

	monthly, topup := fx.store.balance(1)
	assert.Equal(t, int64(3), monthly)
	assert.Equal(t, int64(4), topup)
	assert.Empty(t, fx.jobs.jobs)
}

func TestSubmitRefundsWhenJobCreationFails(t *testing.T) {
	fx := newServiceFixture(t, true, true)
	fx.store.seed(1, 30, 0)
	fx.jobs.createErr = errors.New("insert failed")

	_, err := fx.svc.Submit(1, 10, nil)
	require.Error(t, err)

	monthly, topup := fx.store.balance(1)
	assert.Equal(t, int64(30), monthly)
	assert.Equal(t, int64(0), topup)
}

func TestSubmitEnqueueFailureFailsJobAndRefunds(t *testing.T) {
	fx := newServiceFixture(t, true, true)
	fx.store.seed(1, 30, 0)
	fx.enqueuer.err = errors.New("queue down")

	_, err := fx.svc.Submit(1, 10, nil)
	require.Error(t, err)

	var job *models.AnalysisJob
	for _, j := range fx.jobs.jobs {
		job = j
	}
	require.NotNil(t, job)
	assert.Equal(t, models.AnalysisJobStatusFailed, job.Status)
	assert.True(t, job.Refunded)

	monthly, _ := fx.store.balance(1)
	assert.Equal(t, int64(30), monthly)
}

func TestSubmitEnqueueFailureWithoutRefundPolicy(t *testing.T) {
	fx := newServiceFixture(t, true, false)
	fx.store.seed(1, 30, 0)
	fx.enqueuer.err = errors.New("queue down")

	_, err := fx.svc.Submit(1, 10, nil)
	require.Error(t, err)

	var job *models.AnalysisJob
	for _, j := range fx.jobs.jobs {
		job = j
	}
	require.NotNil(t, job)
	assert.Equal(t, models.AnalysisJobStatusFailed, job.Status)
	assert.False(t, job.Refunded)

	monthly, _ := fx.store.balance(1)
	assert.Equal(t, int64(20), monthly)
}

func TestGetStatus(t *testing.T) {
	fx := newServiceFixture(t, true, true)
	fx.jobs.jobs["abc"] = &models.AnalysisJob{UUID: "abc", UserID: 1, Status: models.AnalysisJobStatusRunning}

	job, err := fx.svc.GetStatus(1, "abc")
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisJobStatusRunning, job.Status)

	_, err = fx.svc.GetStatus(2, "abc")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = fx.svc.GetStatus(1, "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestEstimate(t *testing.T) {
	fx := newServiceFixture(t, true, true)
	assert.Equal(t, int64(10), fx.svc.Estimate(0))
	assert.Equal(t, int64(25), fx.svc.Estimate(3))
	assert.Equal(t, int64(35), fx.svc.Estimate(9))
}
