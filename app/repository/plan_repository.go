package repository

import (
	"github.com/stellaboard/stellaboard/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// planRepository implements the PlanRepository interface
type planRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new plan repository instance
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

// GetByID retrieves a plan with its payment products
func (r *planRepository) GetByID(id uint) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.Preload("PaymentProducts").First(&plan, id).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetByName retrieves a plan by its unique name
func (r *planRepository) GetByName(name string) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.Preload("PaymentProducts").Where("name = ?", name).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// ListByTier returns all plans ordered by tier ascending
func (r *planRepository) ListByTier() ([]models.Plan, error) {
	var plans []models.Plan
	err := r.db.Preload("PaymentProducts").Order("tier ASC").Find(&plans).Error
	return plans, err
}

// Upsert creates or updates a seeded plan keyed by name
func (r *planRepository) Upsert(plan *models.Plan) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"tier",
			"monthly_stellas_grant",
			"competitor_analysis_access",
			"ai_consultant_access",
			"daily_auto_analysis_enabled",
			"updated_at",
		}),
	}).Create(plan).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return r.db.Where("name = ?", plan.Name).First(plan).Error
}

// UpsertPaymentProduct creates or updates a product keyed by provider product id
func (r *planRepository) UpsertPaymentProduct(product *models.PaymentProduct) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "provider_product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"plan_id",
			"type",
			"price",
			"currency",
			"stella_amount",
			"updated_at",
		}),
	}).Create(product).Error; err != nil {
		return err
	}

	return r.db.Where("provider_product_id = ?", product.ProviderProductID).First(product).Error
}

// GetPaymentProductByProviderID resolves a provider product reference
func (r *planRepository) GetPaymentProductByProviderID(providerProductID string) (*models.PaymentProduct, error) {
	var product models.PaymentProduct
	err := r.db.Where("provider_product_id = ?", providerProductID).First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}
