package repository

import (
	"github.com/stellaboard/stellaboard/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// walletRepository implements the WalletRepository interface
type walletRepository struct {
	db *gorm.DB
}

// NewWalletRepository creates a new wallet repository instance
func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{db: db}
}

// GetOrCreate returns the user's wallet, inserting a zero-balance row on
// first access. The insert is an OnConflict-DoNothing upsert keyed by the
// unique user_id, so concurrent first reads never create two wallets.
func (r *walletRepository) GetOrCreate(userID uint) (*models.Wallet, error) {
	wallet := models.Wallet{UserID: userID}
	if err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&wallet).Error; err != nil {
		return nil, err
	}

	var stored models.Wallet
	if err := r.db.Where("user_id = ?", userID).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// CompareAndApply swaps the balances only if both still match the expected
// values, writing the audit record in the same transaction. Returns false
// when a concurrent writer got there first.
func (r *walletRepository) CompareAndApply(userID uint, expectMonthly, expectTopup, newMonthly, newTopup int64, record *models.WalletTransaction) (bool, error) {
	if newMonthly < 0 || newTopup < 0 {
		return false, gorm.ErrInvalidData
	}

	won := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Wallet{}).
			Where("user_id = ? AND monthly_balance = ? AND topup_balance = ?", userID, expectMonthly, expectTopup).
			Updates(map[string]interface{}{
				"monthly_balance": newMonthly,
				"topup_balance":   newTopup,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		won = true
		if record != nil {
			if err := tx.Create(record).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return won, nil
}

// ListTransactions returns the newest audit records first
func (r *walletRepository) ListTransactions(userID uint, limit int) ([]models.WalletTransaction, error) {
	var records []models.WalletTransaction
	err := r.db.Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}
