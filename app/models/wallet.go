package models

import "time"

const (
	WalletBucketMonthly = "monthly"
	WalletBucketTopup   = "topup"
)

// Wallet holds a user's Stella balances. The monthly bucket is granted by the
// billing cycle and spent first; the topup bucket is purchased and never
// expires. Both balances stay non-negative; all mutation goes through the
// ledger, never direct field writes.
type Wallet struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	MonthlyBalance int64     `gorm:"not null;default:0" json:"monthly_balance"`
	TopupBalance   int64     `gorm:"not null;default:0" json:"topup_balance"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TotalBalance returns the spendable Stella total across both buckets.
func (w *Wallet) TotalBalance() int64 {
	return w.MonthlyBalance + w.TopupBalance
}

// IsValidBucket reports whether s names a wallet bucket.
func IsValidBucket(s string) bool {
	return s == WalletBucketMonthly || s == WalletBucketTopup
}
