package subscription

import (
	"errors"
	"fmt"
)

var (
	ErrSubscriptionNotFound     = errors.New("subscription not found")
	ErrSubscriptionExpired      = errors.New("subscription has expired, please create a new subscription")
	ErrAlreadyCanceled          = errors.New("subscription is already canceled")
	ErrActiveSubscriptionExists = errors.New("user already has an active subscription")
	ErrInvalidStatusTransition  = errors.New("invalid status transition")
	ErrPlanNotFound             = errors.New("plan not found")
	ErrPlanInactive             = errors.New("plan is not active")
	ErrPlanNameExists           = errors.New("plan name already exists")
	ErrNotAnUpgrade             = errors.New("new plan must have higher price for upgrade. Use downgrade instead")
	ErrNotADowngrade            = errors.New("new plan must have lower price for downgrade. Use upgrade instead")
	ErrInvalidPrice             = errors.New("invalid price")
	ErrExternalIDTaken          = errors.New("external subscription id already linked")
)

func ErrInvalidTransition(operation string, from fmt.Stringer) error {
	return fmt.Errorf("%w: cannot %s subscription with status %s", ErrInvalidStatusTransition, operation, from)
}
