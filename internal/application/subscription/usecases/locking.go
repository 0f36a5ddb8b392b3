package usecases

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/user"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/errors"
)

// lockSubscriptionWithOwner locks the owning user row and then the subscription
// row, the order every writer follows. The owner id is read unlocked first;
// subscriptions never change owner.
func lockSubscriptionWithOwner(
	ctx context.Context,
	subscriptionRepo subscription.SubscriptionRepository,
	userRepo user.Repository,
	subscriptionID string,
) (*subscription.Subscription, *user.User, error) {
	current, err := subscriptionRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	if current == nil {
		return nil, nil, errors.NewNotFoundError("Subscription not found")
	}

	owner, err := userRepo.GetByIDForUpdate(ctx, current.UserID())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lock user: %w", err)
	}
	if owner == nil {
		return nil, nil, errors.NewNotFoundError("User not found")
	}

	sub, err := subscriptionRepo.GetByIDForUpdate(ctx, subscriptionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lock subscription: %w", err)
	}
	if sub == nil {
		return nil, nil, errors.NewNotFoundError("Subscription not found")
	}
	return sub, owner, nil
}

// domainError converts an error returned by an aggregate method into an AppError.
func domainError(err error) error {
	if err == nil {
		return nil
	}
	if appErr := errors.GetAppError(err); appErr != nil {
		return appErr
	}
	switch {
	case stderrors.Is(err, subscription.ErrSubscriptionNotFound):
		return errors.NewNotFoundError("Subscription not found")
	case stderrors.Is(err, subscription.ErrPlanNotFound):
		return errors.NewNotFoundError("Plan not found")
	case stderrors.Is(err, user.ErrUserNotFound):
		return errors.NewNotFoundError("User not found")
	case stderrors.Is(err, subscription.ErrExternalIDTaken), stderrors.Is(err, subscription.ErrPlanNameExists):
		return errors.NewConflictError(capitalize(err.Error()))
	}
	return errors.NewValidationError(capitalize(err.Error()))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if c := s[0]; c >= 'a' && c <= 'z' {
		return string(c-'a'+'A') + s[1:]
	}
	return s
}
