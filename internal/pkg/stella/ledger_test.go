package stella

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellaboard/stellaboard/app/models"
)

// fakeWalletStore is an in-memory WalletStore with real compare-and-swap
// semantics, so contention behaves like the database would.
type fakeWalletStore struct {
	mu      sync.Mutex
	wallets map[uint]*models.Wallet
	records []models.WalletTransaction
	failCAS int // number of CompareAndApply calls to reject before accepting
	nextID  uint
}

func newFakeWalletStore() *fakeWalletStore {
	return &fakeWalletStore{wallets: map[uint]*models.Wallet{}}
}

func (s *fakeWalletStore) GetOrCreate(userID uint) (*models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[userID]
	if !ok {
		s.nextID++
		w = &models.Wallet{ID: s.nextID, UserID: userID}
		s.wallets[userID] = w
	}
	copied := *w
	return &copied, nil
}

func (s *fakeWalletStore) CompareAndApply(userID uint, expectMonthly, expectTopup, newMonthly, newTopup int64, record *models.WalletTransaction) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCAS > 0 {
		s.failCAS--
		return false, nil
	}
	w, ok := s.wallets[userID]
	if !ok {
		return false, nil
	}
	if w.MonthlyBalance != expectMonthly || w.TopupBalance != expectTopup {
		return false, nil
	}
	w.MonthlyBalance = newMonthly
	w.TopupBalance = newTopup
	s.records = append(s.records, *record)
	return true, nil
}

func (s *fakeWalletStore) ListTransactions(userID uint, limit int) ([]models.WalletTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.WalletTransaction
	for i := len(s.records) - 1; i >= 0 && len(out) < limit; i-- {
		if s.records[i].UserID == userID {
			out = append(out, s.records[i])
		}
	}
	return out, nil
}

func (s *fakeWalletStore) balance(userID uint) (int64, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := s.wallets[userID]
	return w.MonthlyBalance, w.TopupBalance
}

func seedWallet(s *fakeWalletStore, userID uint, monthly, topup int64) {
	w, _ := s.GetOrCreate(userID)
	s.mu.Lock()
	s.wallets[userID].MonthlyBalance = monthly
	s.wallets[userID].TopupBalance = topup
	s.mu.Unlock()
	_ = w
}

func TestLedgerDebitSplitsMonthlyFirst(t *testing.T) {
	store := newFakeWalletStore()
	seedWallet(store, 1, 20, 50)
	ledger := NewLedger(store)

	result, err := ledger.Debit(1, 30, "job-1", "analysis")
	require.NoError(t, err)
	assert.Equal(t, int64(20), result.MonthlySpent)
	assert.Equal(t, int64(10), result.TopupSpent)
	assert.Equal(t, int64(0), result.Wallet.MonthlyBalance)
	assert.Equal(t, int64(40), result.Wallet.TopupBalance)

	// One debit record with the exact split.
	require.Len(t, store.records, 1)
	assert.Equal(t, models.WalletTxKindDebit, store.records[0].Kind)
	assert.Equal(t, int64(20), store.records[0].MonthlyAmount)
	assert.Equal(t, int64(10), store.records[0].TopupAmount)
	assert.Equal(t, "job-1", store.records[0].Reference)
}

func TestLedgerDebitInsufficientFundsLeavesWalletUntouched(t *testing.T) {
	store := newFakeWalletStore()
	seedWallet(store, 1, 10, 5)
	ledger := NewLedger(store)

	_, err := ledger.Debit(1, 16, "job-1", "analysis")
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	monthly, topup := store.balance(1)
	assert.Equal(t, int64(10), monthly)
	assert.Equal(t, int64(5), topup)
	assert.Empty(t, store.records)
}

func TestLedgerDebitRejectsNonPositiveAmount(t *testing.T) {
	ledger := NewLedger(newFakeWalletStore())
	_, err := ledger.Debit(1, 0, "job-1", "")
	assert.Error(t, err)
	_, err = ledger.Debit(1, -5, "job-1", "")
	assert.Error(t, err)
}

func TestLedgerDebitRetriesOnContention(t *testing.T) {
	store := newFakeWalletStore()
	seedWallet(store, 1, 100, 0)
	store.failCAS = 2
	ledger := NewLedger(store)

	result, err := ledger.Debit(1, 10, "job-1", "")
	require.NoError(t, err)
	assert.Equal(t, int64(10), result.MonthlySpent)
}

func TestLedgerDebitGivesUpAfterRetryBudget(t *testing.T) {
	store := newFakeWalletStore()
	seedWallet(store, 1, 100, 0)
	store.failCAS = casAttempts
	ledger := NewLedger(store)

	_, err := ledger.Debit(1, 10, "job-1", "")
	assert.ErrorIs(t, err, ErrDebitContention)
}

func TestLedgerConcurrentDebitsNeverOverdraw(t *testing.T) {
	store := newFakeWalletStore()
	seedWallet(store, 1, 30, 5)
	ledger := NewLedger(store)

	// Wallet holds 35; three racing debits of 15 can fund at most two.
	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = ledger.Debit(1, 15, "job", "")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 2, succeeded)

	monthly, topup := store.balance(1)
	assert.Equal(t, int64(5), monthly+topup)
	assert.GreaterOrEqual(t, monthly, int64(0))
	assert.GreaterOrEqual(t, topup, int64(0))
}

func TestLedgerCredit(t *testing.T) {
	store := newFakeWalletStore()
	ledger := NewLedger(store)

	w, err := ledger.Credit(1, 50, models.WalletBucketTopup, "evt-1", "top-up")
	require.NoError(t, err)
	assert.Equal(t, int64(50), w.TopupBalance)
	assert.Equal(t, int64(0), w.MonthlyBalance)

	w, err = ledger.Credit(1, 20, models.WalletBucketMonthly, "evt-2", "")
	require.NoError(t, err)
	assert.Equal(t, int64(20), w.MonthlyBalance)

	_, err = ledger.Credit(1, 10, "bonus", "evt-3", "")
	assert.Error(t, err)

	_, err = ledger.Credit(1, 0, models.WalletBucketTopup, "evt-4", "")
	assert.Error(t, err)
}

func TestLedgerRefundRestoresExactSplit(t *testing.T) {
	store := newFakeWalletStore()
	seedWallet(store, 1, 20, 50)
	ledger := NewLedger(store)

	result, err := ledger.Debit(1, 30, "job-1", "")
	require.NoError(t, err)

	w, err := ledger.Refund(1, result.MonthlySpent, result.TopupSpent, "job-1", "analysis failed")
	require.NoError(t, err)
	assert.Equal(t, int64(20), w.MonthlyBalance)
	assert.Equal(t, int64(50), w.TopupBalance)

	// Refund record mirrors the debit split.
	last := store.records[len(store.records)-1]
	assert.Equal(t, models.WalletTxKindRefund, last.Kind)
	assert.Equal(t, int64(20), last.MonthlyAmount)
	assert.Equal(t, int64(10), last.TopupAmount)
}

func TestLedgerRefundZeroIsNoOp(t *testing.T) {
	store := newFakeWalletStore()
	seedWallet(store, 1, 10, 10)
	ledger := NewLedger(store)

	w, err := ledger.Refund(1, 0, 0, "job-1", "")
	require.NoError(t, err)
	assert.Equal(t, int64(20), w.TotalBalance())
	assert.Empty(t, store.records)

	_, err = ledger.Refund(1, -1, 0, "job-1", "")
	assert.Error(t, err)
}

func TestLedgerGrantMonthlyResetsBucket(t *testing.T) {
	store := newFakeWalletStore()
	seedWallet(store, 1, 40, 25)
	ledger := NewLedger(store)

	// Unspent monthly Stellas do not accumulate across cycles.
	w, err := ledger.GrantMonthly(1, 100, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), w.MonthlyBalance)
	assert.Equal(t, int64(25), w.TopupBalance)

	// A smaller grant also resets, it never tops up.
	w, err = ledger.GrantMonthly(1, 10, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), w.MonthlyBalance)

	_, err = ledger.GrantMonthly(1, -1, "sub-1")
	assert.Error(t, err)

	// Both resets are recorded under the grant kind with the signed delta,
	// so a reset below the current balance never masquerades as a credit.
	require.Len(t, store.records, 2)
	assert.Equal(t, models.WalletTxKindGrant, store.records[0].Kind)
	assert.Equal(t, int64(60), store.records[0].MonthlyAmount)
	assert.Equal(t, models.WalletTxKindGrant, store.records[1].Kind)
	assert.Equal(t, int64(-90), store.records[1].MonthlyAmount)
}

func TestLedgerGetBalanceCreatesZeroWallet(t *testing.T) {
	store := newFakeWalletStore()
	ledger := NewLedger(store)

	w, err := ledger.GetBalance(7)
	require.NoError(t, err)
	assert.Equal(t, int64(0), w.TotalBalance())

	// Repeat access returns the same wallet, not a second one.
	again, err := ledger.GetBalance(7)
	require.NoError(t, err)
	assert.Equal(t, w.ID, again.ID)
}
