package valueobjects

import "fmt"

type SubscriptionStatus string

const (
	StatusTrialing SubscriptionStatus = "trialing"
	StatusActive   SubscriptionStatus = "active"
	StatusPastDue  SubscriptionStatus = "past_due"
	StatusCanceled SubscriptionStatus = "canceled"
	StatusPaused   SubscriptionStatus = "paused"
	StatusExpired  SubscriptionStatus = "expired"
)

var ValidStatuses = map[SubscriptionStatus]bool{
	StatusTrialing: true,
	StatusActive:   true,
	StatusPastDue:  true,
	StatusCanceled: true,
	StatusPaused:   true,
	StatusExpired:  true,
}

// EntitledStatuses grant access to the plan's capabilities.
// At most one subscription per user may hold one of them.
var EntitledStatuses = []SubscriptionStatus{StatusActive, StatusTrialing}

func NewSubscriptionStatus(s string) (SubscriptionStatus, error) {
	status := SubscriptionStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid subscription status: %s", s)
	}
	return status, nil
}

func (s SubscriptionStatus) String() string {
	return string(s)
}

func (s SubscriptionStatus) IsValid() bool {
	return ValidStatuses[s]
}

// IsEntitled reports whether the status grants access to the plan.
func (s SubscriptionStatus) IsEntitled() bool {
	return s == StatusActive || s == StatusTrialing
}

func (s SubscriptionStatus) CanChangePlan() bool {
	return s.IsEntitled()
}

func (s SubscriptionStatus) CanCancel() bool {
	return s == StatusActive || s == StatusTrialing || s == StatusPastDue
}

func (s SubscriptionStatus) CanReactivate() bool {
	return s == StatusCanceled || s == StatusPaused
}
