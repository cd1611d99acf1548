package models

import "time"

const (
	PaymentProductTypeSubscription = "SUBSCRIPTION"
	PaymentProductTypeTopup        = "TOPUP"
)

// Plan is a catalog entry for a subscription tier. Plans are seeded, never
// created at runtime; tier orders them ascending for display and ranking.
type Plan struct {
	ID                       uint      `gorm:"primaryKey" json:"id"`
	Name                     string    `gorm:"type:varchar(100);uniqueIndex" json:"name" validate:"required,min=2,max=100"`
	Tier                     int       `gorm:"not null;index" json:"tier"`
	MonthlyStellasGrant      int64     `gorm:"not null;default:0" json:"monthly_stellas_grant"`
	CompetitorAnalysisAccess bool      `gorm:"default:false" json:"competitor_analysis_access"`
	AIConsultantAccess       bool      `gorm:"default:false" json:"ai_consultant_access"`
	DailyAutoAnalysisEnabled bool      `gorm:"default:false" json:"daily_auto_analysis_enabled"`
	CreatedAt                time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt                time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	PaymentProducts []PaymentProduct `gorm:"foreignKey:PlanID" json:"payment_products,omitempty"`
}

// PaymentProduct links a plan (or a one-off Stella pack) to a purchasable
// product at the payment provider.
type PaymentProduct struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	PlanID            *uint     `gorm:"index" json:"plan_id,omitempty"`
	Type              string    `gorm:"type:varchar(20);not null;index" json:"type"`
	Price             int64     `gorm:"not null;default:0" json:"price"`
	Currency          string    `gorm:"type:varchar(8);not null;default:'USD'" json:"currency"`
	ProviderProductID string    `gorm:"type:varchar(191);uniqueIndex" json:"provider_product_id"`
	StellaAmount      int64     `gorm:"not null;default:0" json:"stella_amount"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// SubscriptionProduct returns the plan's subscription product, if seeded.
func (p *Plan) SubscriptionProduct() *PaymentProduct {
	for i := range p.PaymentProducts {
		if p.PaymentProducts[i].Type == PaymentProductTypeSubscription {
			return &p.PaymentProducts[i]
		}
	}
	return nil
}
