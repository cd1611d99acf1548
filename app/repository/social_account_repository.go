package repository

import (
	"github.com/stellaboard/stellaboard/app/models"
	"gorm.io/gorm"
)

// socialAccountRepository implements the SocialAccountRepository interface
type socialAccountRepository struct {
	db *gorm.DB
}

// NewSocialAccountRepository creates a new social account repository instance
func NewSocialAccountRepository(db *gorm.DB) SocialAccountRepository {
	return &socialAccountRepository{db: db}
}

// Create creates a new social account
func (r *socialAccountRepository) Create(account *models.SocialAccount) error {
	return r.db.Create(account).Error
}

// GetByID retrieves a social account by ID
func (r *socialAccountRepository) GetByID(id uint) (*models.SocialAccount, error) {
	var account models.SocialAccount
	err := r.db.First(&account, id).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetPrimaryByUserID returns the most recently created account for the user
func (r *socialAccountRepository) GetPrimaryByUserID(userID uint) (*models.SocialAccount, error) {
	var account models.SocialAccount
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// ListByUserID returns all accounts for the user, newest first
func (r *socialAccountRepository) ListByUserID(userID uint) ([]models.SocialAccount, error) {
	var accounts []models.SocialAccount
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&accounts).Error
	return accounts, err
}

// GetByUserAndUsername finds an existing connection for dedupe on connect
func (r *socialAccountRepository) GetByUserAndUsername(userID uint, username string) (*models.SocialAccount, error) {
	var account models.SocialAccount
	err := r.db.Where("user_id = ? AND username = ?", userID, username).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}
