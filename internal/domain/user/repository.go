package user

import (
	"context"

	vo "github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription/valueobjects"
)

// Repository defines the user operations the subscription core needs.
// Getters return (nil, nil) when the user does not exist.
type Repository interface {
	Create(ctx context.Context, user *User) error

	GetByID(ctx context.Context, id string) (*User, error)

	// GetByIDForUpdate locks the user row; it must run inside a transaction.
	GetByIDForUpdate(ctx context.Context, id string) (*User, error)

	GetByIDs(ctx context.Context, ids []string) ([]*User, error)

	UpdateTier(ctx context.Context, id string, tier vo.PlanType) error
}
