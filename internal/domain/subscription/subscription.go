package subscription

import (
	"fmt"
	"time"

	vo "github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription/valueobjects"
)

// Subscription represents the subscription aggregate root.
// It is never deleted; cancellation is a status change.
type Subscription struct {
	id                   string
	userID               string
	planID               string
	status               vo.SubscriptionStatus
	billingInterval      vo.BillingInterval
	startDate            time.Time
	trialEndDate         *time.Time
	currentPeriodStart   *time.Time
	currentPeriodEnd     *time.Time
	canceledAt           *time.Time
	endDate              *time.Time
	cancelReason         string
	stripeSubscriptionID string
	stripeCustomerID     string
	credentialID         string
	version              int
	createdAt            time.Time
	updatedAt            time.Time
}

// NewSubscription starts a subscription on planID. A positive trialDays starts it in trial.
func NewSubscription(userID, planID string, interval vo.BillingInterval, trialDays int, now time.Time) (*Subscription, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	if planID == "" {
		return nil, fmt.Errorf("plan ID is required")
	}
	if !interval.IsValid() {
		return nil, fmt.Errorf("invalid billing interval: %s", interval)
	}
	if trialDays < 0 {
		return nil, fmt.Errorf("trial days cannot be negative")
	}

	status := vo.StatusActive
	var trialEnd *time.Time
	if trialDays > 0 {
		status = vo.StatusTrialing
		t := now.AddDate(0, 0, trialDays)
		trialEnd = &t
	}

	periodStart := now
	periodEnd := interval.PeriodEnd(now)

	return &Subscription{
		userID:             userID,
		planID:             planID,
		status:             status,
		billingInterval:    interval,
		startDate:          now,
		trialEndDate:       trialEnd,
		currentPeriodStart: &periodStart,
		currentPeriodEnd:   &periodEnd,
		version:            1,
		createdAt:          now,
		updatedAt:          now,
	}, nil
}

// ReconstructSubscription reconstructs a subscription from persistence
func ReconstructSubscription(
	id, userID, planID string,
	status vo.SubscriptionStatus,
	interval vo.BillingInterval,
	startDate time.Time,
	trialEndDate, currentPeriodStart, currentPeriodEnd, canceledAt, endDate *time.Time,
	cancelReason string,
	stripeSubscriptionID, stripeCustomerID, credentialID string,
	version int,
	createdAt, updatedAt time.Time,
) (*Subscription, error) {
	if id == "" {
		return nil, fmt.Errorf("subscription ID cannot be empty")
	}
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	if planID == "" {
		return nil, fmt.Errorf("plan ID is required")
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid subscription status: %s", status)
	}
	if !interval.IsValid() {
		return nil, fmt.Errorf("invalid billing interval: %s", interval)
	}

	return &Subscription{
		id:                   id,
		userID:               userID,
		planID:               planID,
		status:               status,
		billingInterval:      interval,
		startDate:            startDate,
		trialEndDate:         trialEndDate,
		currentPeriodStart:   currentPeriodStart,
		currentPeriodEnd:     currentPeriodEnd,
		canceledAt:           canceledAt,
		endDate:              endDate,
		cancelReason:         cancelReason,
		stripeSubscriptionID: stripeSubscriptionID,
		stripeCustomerID:     stripeCustomerID,
		credentialID:         credentialID,
		version:              version,
		createdAt:            createdAt,
		updatedAt:            updatedAt,
	}, nil
}

func (s *Subscription) ID() string {
	return s.id
}

func (s *Subscription) UserID() string {
	return s.userID
}

func (s *Subscription) PlanID() string {
	return s.planID
}

func (s *Subscription) Status() vo.SubscriptionStatus {
	return s.status
}

func (s *Subscription) BillingInterval() vo.BillingInterval {
	return s.billingInterval
}

func (s *Subscription) StartDate() time.Time {
	return s.startDate
}

func (s *Subscription) TrialEndDate() *time.Time {
	return s.trialEndDate
}

func (s *Subscription) CurrentPeriodStart() *time.Time {
	return s.currentPeriodStart
}

func (s *Subscription) CurrentPeriodEnd() *time.Time {
	return s.currentPeriodEnd
}

func (s *Subscription) CanceledAt() *time.Time {
	return s.canceledAt
}

func (s *Subscription) EndDate() *time.Time {
	return s.endDate
}

func (s *Subscription) CancelReason() string {
	return s.cancelReason
}

func (s *Subscription) StripeSubscriptionID() string {
	return s.stripeSubscriptionID
}

func (s *Subscription) StripeCustomerID() string {
	return s.stripeCustomerID
}

// CredentialID is the provisioning system's key id; empty when none was issued.
func (s *Subscription) CredentialID() string {
	return s.credentialID
}

// Version returns the aggregate version
func (s *Subscription) Version() int {
	return s.version
}

func (s *Subscription) CreatedAt() time.Time {
	return s.createdAt
}

func (s *Subscription) UpdatedAt() time.Time {
	return s.updatedAt
}

// SetID sets the subscription ID (only for persistence layer use)
func (s *Subscription) SetID(id string) error {
	if s.id != "" {
		return fmt.Errorf("subscription ID is already set")
	}
	if id == "" {
		return fmt.Errorf("subscription ID cannot be empty")
	}
	s.id = id
	return nil
}

// IsEntitled reports whether the subscription currently grants its plan.
func (s *Subscription) IsEntitled() bool {
	return s.status.IsEntitled()
}

// IsScheduledForCancellation reports a pending cancel at period end.
func (s *Subscription) IsScheduledForCancellation() bool {
	return s.status.CanCancel() && s.endDate != nil
}

// ChangePlan swaps the plan reference. A nil interval keeps the current one.
// Price direction is checked by the caller against fresh plan data.
func (s *Subscription) ChangePlan(newPlanID string, interval *vo.BillingInterval, now time.Time) error {
	if newPlanID == "" {
		return fmt.Errorf("new plan ID is required")
	}
	if !s.status.CanChangePlan() {
		return ErrInvalidTransition("change plan of", s.status)
	}
	if interval != nil {
		if !interval.IsValid() {
			return fmt.Errorf("invalid billing interval: %s", *interval)
		}
		s.billingInterval = *interval
	}

	s.planID = newPlanID
	s.touch(now)
	return nil
}

// Cancel ends the subscription. With atPeriodEnd and a known period end it only
// schedules the end date and returns false; otherwise it cancels now and returns true.
func (s *Subscription) Cancel(atPeriodEnd bool, reason string, now time.Time) (bool, error) {
	if s.status == vo.StatusCanceled {
		return false, ErrAlreadyCanceled
	}
	if !s.status.CanCancel() {
		return false, ErrInvalidTransition("cancel", s.status)
	}

	s.cancelReason = reason

	if atPeriodEnd && s.currentPeriodEnd != nil {
		end := *s.currentPeriodEnd
		s.endDate = &end
		s.touch(now)
		return false, nil
	}

	s.status = vo.StatusCanceled
	s.endDate = &now
	s.canceledAt = &now
	s.touch(now)
	return true, nil
}

// Reactivate returns a canceled or paused subscription to ACTIVE.
func (s *Subscription) Reactivate(now time.Time) error {
	if s.endDate != nil && s.endDate.Before(now) {
		return ErrSubscriptionExpired
	}
	if !s.status.CanReactivate() {
		return ErrInvalidTransition("reactivate", s.status)
	}

	s.status = vo.StatusActive
	s.canceledAt = nil
	s.endDate = nil
	s.cancelReason = ""
	if s.currentPeriodEnd == nil || s.currentPeriodEnd.Before(now) {
		s.startPeriod(now)
	}
	s.touch(now)
	return nil
}

// FinalizeScheduledCancellation cancels a subscription whose scheduled end date has passed.
// It reports whether the subscription moved into CANCELED.
func (s *Subscription) FinalizeScheduledCancellation(now time.Time) bool {
	if !s.IsScheduledForCancellation() || s.endDate.After(now) {
		return false
	}

	end := *s.endDate
	s.status = vo.StatusCanceled
	s.canceledAt = &end
	s.touch(now)
	return true
}

// ApplyBillingStatus moves the subscription to a status reported by the billing provider.
// It reports whether anything changed and whether the move entered CANCELED.
func (s *Subscription) ApplyBillingStatus(status vo.SubscriptionStatus, now time.Time) (changed, enteredCanceled bool, err error) {
	if !status.IsValid() {
		return false, false, fmt.Errorf("invalid subscription status: %s", status)
	}
	if s.status == status {
		return false, false, nil
	}

	previous := s.status
	s.status = status
	switch {
	case status == vo.StatusCanceled:
		if s.canceledAt == nil {
			s.canceledAt = &now
		}
	case previous == vo.StatusCanceled:
		s.canceledAt = nil
		s.endDate = nil
		s.cancelReason = ""
	}
	// A provider-confirmed entitlement overrides an end date that has already passed.
	if status.IsEntitled() && s.endDate != nil && !s.endDate.After(now) {
		s.endDate = nil
	}
	s.touch(now)
	return true, status == vo.StatusCanceled, nil
}

// ApplyBillingPeriod sets the period bounds reported by the billing provider.
// Nil bounds are left untouched. A period end past a scheduled end date clears the schedule.
func (s *Subscription) ApplyBillingPeriod(start, end *time.Time, now time.Time) (bool, error) {
	if start != nil && end != nil && end.Before(*start) {
		return false, fmt.Errorf("period end must be after period start")
	}

	changed := false
	if start != nil && !sameInstant(s.currentPeriodStart, start) {
		t := *start
		s.currentPeriodStart = &t
		changed = true
	}
	if end != nil && !sameInstant(s.currentPeriodEnd, end) {
		t := *end
		s.currentPeriodEnd = &t
		changed = true
	}
	// The provider renewed past the scheduled end, so the cancellation no longer holds.
	if end != nil && s.endDate != nil && s.status != vo.StatusCanceled && end.After(*s.endDate) {
		s.endDate = nil
		s.cancelReason = ""
		changed = true
	}
	if changed {
		s.touch(now)
	}
	return changed, nil
}

// LinkBilling matches the local subscription to the billing provider's records.
func (s *Subscription) LinkBilling(externalSubscriptionID, externalCustomerID string, now time.Time) error {
	if externalSubscriptionID == "" {
		return fmt.Errorf("external subscription ID is required")
	}
	s.stripeSubscriptionID = externalSubscriptionID
	s.stripeCustomerID = externalCustomerID
	s.touch(now)
	return nil
}

func (s *Subscription) SetCredentialID(credentialID string, now time.Time) {
	if s.credentialID == credentialID {
		return
	}
	s.credentialID = credentialID
	s.touch(now)
}

func (s *Subscription) startPeriod(now time.Time) {
	start := now
	end := s.billingInterval.PeriodEnd(now)
	s.currentPeriodStart = &start
	s.currentPeriodEnd = &end
}

func (s *Subscription) touch(now time.Time) {
	s.updatedAt = now
	s.version++
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
