package entitlements

import (
	"errors"

	"gorm.io/gorm"

	"github.com/stellaboard/stellaboard/app/models"
)

// ErrUserNotFound signals that the user id does not resolve to a known user.
// A valid user without a subscription is not an error; they get Free().
var ErrUserNotFound = errors.New("entitlements: user not found")

// Store is the slice of persistence the resolver needs.
type Store interface {
	GetUserByID(id uint) (*models.User, error)
	ListSubscriptionsWithPlanByUser(userID uint) ([]models.Subscription, error)
}

// Resolver computes a user's effective entitlements from subscription state.
// It performs no writes and is deterministic over current plan state.
type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the entitlements for the user's best entitling plan.
func (r *Resolver) Resolve(userID uint) (Entitlements, error) {
	if _, err := r.store.GetUserByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Free(), ErrUserNotFound
		}
		return Free(), err
	}

	subs, err := r.store.ListSubscriptionsWithPlanByUser(userID)
	if err != nil {
		return Free(), err
	}

	return FromPlan(BestPlan(subs)), nil
}
