package models

import "time"

const (
	WalletTxKindDebit  = "debit"
	WalletTxKindCredit = "credit"
	WalletTxKindRefund = "refund"
	// A grant is the billing-cycle reset of the monthly bucket; its monthly
	// amount is the signed delta of the reset and may be negative.
	WalletTxKindGrant = "grant"
)

// WalletTransaction is the audit record for every balance mutation. Amounts
// are recorded per bucket so a refund can restore exactly what was drawn.
type WalletTransaction struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	WalletID      uint      `gorm:"not null;index" json:"wallet_id"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	Kind          string    `gorm:"type:varchar(16);not null;index" json:"kind"`
	MonthlyAmount int64     `gorm:"not null;default:0" json:"monthly_amount"`
	TopupAmount   int64     `gorm:"not null;default:0" json:"topup_amount"`
	Reference     string    `gorm:"type:varchar(191);index" json:"reference"`
	Note          string    `gorm:"type:varchar(255)" json:"note"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Total returns the combined amount moved across both buckets.
func (t *WalletTransaction) Total() int64 {
	return t.MonthlyAmount + t.TopupAmount
}
