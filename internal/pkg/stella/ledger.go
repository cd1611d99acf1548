package stella

import (
	"errors"
	"fmt"

	"github.com/stellaboard/stellaboard/app/models"
)

// ErrDebitContention signals that concurrent wallet writes exhausted the
// compare-and-swap retry budget without a clean read-apply cycle.
var ErrDebitContention = errors.New("stella: wallet contention, retry")

const casAttempts = 5

// WalletStore is the persistence slice the ledger needs. CompareAndApply
// must update the wallet row only when both balances still match the
// expected values, writing the audit record in the same database
// transaction, and report whether the swap won.
type WalletStore interface {
	GetOrCreate(userID uint) (*models.Wallet, error)
	CompareAndApply(userID uint, expectMonthly, expectTopup, newMonthly, newTopup int64, record *models.WalletTransaction) (bool, error)
	ListTransactions(userID uint, limit int) ([]models.WalletTransaction, error)
}

// DebitResult reports how a successful debit was split across buckets.
type DebitResult struct {
	MonthlySpent int64
	TopupSpent   int64
	Wallet       *models.Wallet
}

// Ledger is the only mutation path for wallet balances. Debits serialize per
// wallet via conditional updates so two racing debits can never jointly
// overdraw.
type Ledger struct {
	store WalletStore
}

func NewLedger(store WalletStore) *Ledger {
	return &Ledger{store: store}
}

// GetBalance returns the wallet, creating a zero-balance one on first access.
func (l *Ledger) GetBalance(userID uint) (*models.Wallet, error) {
	return l.store.GetOrCreate(userID)
}

// Debit spends amount from the wallet, monthly bucket first. Fails with
// ErrInsufficientFunds without touching balances when both buckets together
// cannot cover it.
func (l *Ledger) Debit(userID uint, amount int64, reference, note string) (*DebitResult, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("stella: debit amount must be positive, got %d", amount)
	}

	for attempt := 0; attempt < casAttempts; attempt++ {
		w, err := l.store.GetOrCreate(userID)
		if err != nil {
			return nil, err
		}

		newMonthly, newTopup, err := Drawdown(w.MonthlyBalance, w.TopupBalance, amount)
		if err != nil {
			return nil, err
		}

		record := &models.WalletTransaction{
			WalletID:      w.ID,
			UserID:        userID,
			Kind:          models.WalletTxKindDebit,
			MonthlyAmount: w.MonthlyBalance - newMonthly,
			TopupAmount:   w.TopupBalance - newTopup,
			Reference:     reference,
			Note:          note,
		}

		ok, err := l.store.CompareAndApply(userID, w.MonthlyBalance, w.TopupBalance, newMonthly, newTopup, record)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Lost the race to a concurrent write; re-read and retry.
			continue
		}

		w.MonthlyBalance = newMonthly
		w.TopupBalance = newTopup
		return &DebitResult{
			MonthlySpent: record.MonthlyAmount,
			TopupSpent:   record.TopupAmount,
			Wallet:       w,
		}, nil
	}

	return nil, ErrDebitContention
}

// Credit adds amount to the named bucket. Used by the billing-cycle granter
// and the payment webhook.
func (l *Ledger) Credit(userID uint, amount int64, bucket, reference, note string) (*models.Wallet, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("stella: credit amount must be positive, got %d", amount)
	}
	if !models.IsValidBucket(bucket) {
		return nil, fmt.Errorf("stella: unknown wallet bucket %q", bucket)
	}

	for attempt := 0; attempt < casAttempts; attempt++ {
		w, err := l.store.GetOrCreate(userID)
		if err != nil {
			return nil, err
		}

		newMonthly, newTopup := w.MonthlyBalance, w.TopupBalance
		record := &models.WalletTransaction{
			WalletID:  w.ID,
			UserID:    userID,
			Kind:      models.WalletTxKindCredit,
			Reference: reference,
			Note:      note,
		}
		if bucket == models.WalletBucketMonthly {
			newMonthly += amount
			record.MonthlyAmount = amount
		} else {
			newTopup += amount
			record.TopupAmount = amount
		}

		ok, err := l.store.CompareAndApply(userID, w.MonthlyBalance, w.TopupBalance, newMonthly, newTopup, record)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		w.MonthlyBalance = newMonthly
		w.TopupBalance = newTopup
		return w, nil
	}

	return nil, ErrDebitContention
}

// Refund restores a previously debited split back to the buckets it was
// drawn from.
func (l *Ledger) Refund(userID uint, monthlyAmount, topupAmount int64, reference, note string) (*models.Wallet, error) {
	if monthlyAmount < 0 || topupAmount < 0 {
		return nil, fmt.Errorf("stella: refund amounts must be non-negative")
	}
	if monthlyAmount == 0 && topupAmount == 0 {
		return l.store.GetOrCreate(userID)
	}

	for attempt := 0; attempt < casAttempts; attempt++ {
		w, err := l.store.GetOrCreate(userID)
		if err != nil {
			return nil, err
		}

		record := &models.WalletTransaction{
			WalletID:      w.ID,
			UserID:        userID,
			Kind:          models.WalletTxKindRefund,
			MonthlyAmount: monthlyAmount,
			TopupAmount:   topupAmount,
			Reference:     reference,
			Note:          note,
		}

		ok, err := l.store.CompareAndApply(userID, w.MonthlyBalance, w.TopupBalance,
			w.MonthlyBalance+monthlyAmount, w.TopupBalance+topupAmount, record)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		w.MonthlyBalance += monthlyAmount
		w.TopupBalance += topupAmount
		return w, nil
	}

	return nil, ErrDebitContention
}

// GrantMonthly resets the monthly bucket to the plan's grant at the start of
// a billing cycle. Unspent monthly Stellas do not roll over.
func (l *Ledger) GrantMonthly(userID uint, grant int64, reference string) (*models.Wallet, error) {
	if grant < 0 {
		return nil, fmt.Errorf("stella: grant must be non-negative, got %d", grant)
	}

	for attempt := 0; attempt < casAttempts; attempt++ {
		w, err := l.store.GetOrCreate(userID)
		if err != nil {
			return nil, err
		}

		record := &models.WalletTransaction{
			WalletID:      w.ID,
			UserID:        userID,
			Kind:          models.WalletTxKindGrant,
			MonthlyAmount: grant - w.MonthlyBalance,
			Reference:     reference,
			Note:          "monthly grant",
		}

		ok, err := l.store.CompareAndApply(userID, w.MonthlyBalance, w.TopupBalance, grant, w.TopupBalance, record)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		w.MonthlyBalance = grant
		return w, nil
	}

	return nil, ErrDebitContention
}

// Transactions lists the most recent audit records for the user.
func (l *Ledger) Transactions(userID uint, limit int) ([]models.WalletTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return l.store.ListTransactions(userID, limit)
}
