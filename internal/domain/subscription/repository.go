package subscription

import (
	"context"
	"time"
)

// SubscriptionRepository persists subscriptions. Getters return (nil, nil) when no row matches.
// GetByIDForUpdate takes a row lock and must run inside a transaction. Callers that
// also lock the owning user lock the user row first.
type SubscriptionRepository interface {
	Create(ctx context.Context, subscription *Subscription) error
	GetByID(ctx context.Context, id string) (*Subscription, error)
	GetByIDForUpdate(ctx context.Context, id string) (*Subscription, error)
	GetByStripeSubscriptionID(ctx context.Context, stripeSubscriptionID string) (*Subscription, error)
	GetEntitledByUserID(ctx context.Context, userID string) (*Subscription, error)
	Update(ctx context.Context, subscription *Subscription) error

	ExistsByStripeSubscriptionID(ctx context.Context, stripeSubscriptionID, excludeID string) (bool, error)
	List(ctx context.Context, filter SubscriptionFilter) ([]*Subscription, int64, error)
	CountEntitledByPlanID(ctx context.Context, planID string) (int64, error)
	// CountByPlanID counts every subscription referencing the plan, whatever its status.
	CountByPlanID(ctx context.Context, planID string) (int64, error)

	// FindDueScheduledCancellations pages through due rows in id order, starting after afterID.
	FindDueScheduledCancellations(ctx context.Context, now time.Time, afterID string, limit int) ([]*Subscription, error)
	ListAfterID(ctx context.Context, afterID string, limit int) ([]*Subscription, error)
}

type SubscriptionFilter struct {
	UserID   *string
	PlanID   *string
	Status   *string
	Page     int
	PageSize int
	SortBy   string
	SortDesc bool
}

// PlanRepository persists the catalog. GetByIDForUpdate and GetByIDForShare lock the
// plan row and must run inside a transaction.
type PlanRepository interface {
	Create(ctx context.Context, plan *Plan) error
	GetByID(ctx context.Context, id string) (*Plan, error)
	GetByIDForUpdate(ctx context.Context, id string) (*Plan, error)
	GetByIDForShare(ctx context.Context, id string) (*Plan, error)
	GetByName(ctx context.Context, name string) (*Plan, error)
	Update(ctx context.Context, plan *Plan) error
	Delete(ctx context.Context, id string) error

	List(ctx context.Context, filter PlanFilter) ([]*Plan, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
}

type PlanFilter struct {
	IncludeInactive bool
	PublicOnly      bool
}

// PlanReader is the read side of the catalog, satisfied by both the repository and caches.
type PlanReader interface {
	GetByID(ctx context.Context, id string) (*Plan, error)
	List(ctx context.Context, filter PlanFilter) ([]*Plan, error)
}
