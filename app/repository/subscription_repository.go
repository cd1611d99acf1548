package repository

import (
	"github.com/stellaboard/stellaboard/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// subscriptionRepository implements the SubscriptionRepository interface
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository instance
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// Upsert creates or updates a subscription keyed by (provider, provider_subscription_id)
func (r *subscriptionRepository) Upsert(sub *models.Subscription) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_subscription_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id",
			"plan_id",
			"status",
			"current_period_start",
			"current_period_end",
			"cancel_at_period_end",
			"updated_at",
		}),
	}).Create(sub).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return r.db.Where("provider = ? AND provider_subscription_id = ?", sub.Provider, sub.ProviderSubscriptionID).
		First(sub).Error
}

// ListByUser returns all subscription rows for a user
func (r *subscriptionRepository) ListByUser(userID uint) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Where("user_id = ?", userID).Find(&subs).Error
	return subs, err
}

// ListWithPlanByUser returns all subscription rows with their plans preloaded
func (r *subscriptionRepository) ListWithPlanByUser(userID uint) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Preload("Plan").Where("user_id = ?", userID).Find(&subs).Error
	return subs, err
}

// ListUserIDsWithDailyAutoAnalysis returns the distinct users holding an
// entitling subscription on a plan with daily auto-analysis enabled
func (r *subscriptionRepository) ListUserIDsWithDailyAutoAnalysis() ([]uint, error) {
	var userIDs []uint
	err := r.db.Model(&models.Subscription{}).
		Distinct("subscriptions.user_id").
		Joins("JOIN plans ON plans.id = subscriptions.plan_id").
		Where("plans.daily_auto_analysis_enabled = ?", true).
		Where("subscriptions.status IN ?", []string{
			models.SubscriptionStatusActive,
			models.SubscriptionStatusTrialing,
			models.SubscriptionStatusPastDue,
		}).
		Pluck("subscriptions.user_id", &userIDs).Error
	return userIDs, err
}
