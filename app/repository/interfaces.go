package repository

import (
	"github.com/stellaboard/stellaboard/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	Count() (int64, error)
}

// PlanRepository defines the interface for the seeded plan catalog
type PlanRepository interface {
	GetByID(id uint) (*models.Plan, error)
	GetByName(name string) (*models.Plan, error)
	ListByTier() ([]models.Plan, error)
	Upsert(plan *models.Plan) error
	UpsertPaymentProduct(product *models.PaymentProduct) error
	GetPaymentProductByProviderID(providerProductID string) (*models.PaymentProduct, error)
}

// SubscriptionRepository defines the interface for subscription state
type SubscriptionRepository interface {
	Upsert(sub *models.Subscription) error
	ListByUser(userID uint) ([]models.Subscription, error)
	ListWithPlanByUser(userID uint) ([]models.Subscription, error)
	ListUserIDsWithDailyAutoAnalysis() ([]uint, error)
}

// WalletRepository defines the interface for wallet persistence. It is the
// stella.Ledger's backing store; nothing else mutates balances.
type WalletRepository interface {
	GetOrCreate(userID uint) (*models.Wallet, error)
	CompareAndApply(userID uint, expectMonthly, expectTopup, newMonthly, newTopup int64, record *models.WalletTransaction) (bool, error)
	ListTransactions(userID uint, limit int) ([]models.WalletTransaction, error)
}

// SocialAccountRepository defines the interface for connected social profiles
type SocialAccountRepository interface {
	Create(account *models.SocialAccount) error
	GetByID(id uint) (*models.SocialAccount, error)
	GetPrimaryByUserID(userID uint) (*models.SocialAccount, error)
	ListByUserID(userID uint) ([]models.SocialAccount, error)
	GetByUserAndUsername(userID uint, username string) (*models.SocialAccount, error)
}

// AnalysisJobRepository defines the interface for analysis job bookkeeping.
// Status writes are guarded so terminal states never revert.
type AnalysisJobRepository interface {
	Create(job *models.AnalysisJob) error
	GetByUUID(uuid string) (*models.AnalysisJob, error)
	TransitionStatus(uuid, from, to string, errorMsg string) (bool, error)
	MarkRefunded(uuid string) error
	ListByUser(userID uint, limit int) ([]models.AnalysisJob, error)
}

// ResearchRepository defines the interface for the research snapshot store
type ResearchRepository interface {
	GetLatest(socialAccountID uint) (*models.Research, error)
	ReplaceLatest(socialAccountID uint, research *models.Research) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	User          UserRepository
	Plan          PlanRepository
	Subscription  SubscriptionRepository
	Wallet        WalletRepository
	SocialAccount SocialAccountRepository
	AnalysisJob   AnalysisJobRepository
	Research      ResearchRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:          NewUserRepository(db),
		Plan:          NewPlanRepository(db),
		Subscription:  NewSubscriptionRepository(db),
		Wallet:        NewWalletRepository(db),
		SocialAccount: NewSocialAccountRepository(db),
		AnalysisJob:   NewAnalysisJobRepository(db),
		Research:      NewResearchRepository(db),
	}
}
