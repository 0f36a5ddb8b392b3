package testutil

import (
	"time"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription"
	vo "github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription/valueobjects"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/user"
)

// Now is the fixed clock used by fixtures.
var Now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// NewPlan builds an active public plan with an rpm of priceMonthly/100 and one model.
func NewPlan(id, name string, planType vo.PlanType, priceMonthly int64) *subscription.Plan {
	quota, err := vo.NewPlanQuota(1_000_000, int(priceMonthly/100)+10, 10_000, 10, 5, 3, []string{"gpt-4o-mini", name + "-model"})
	if err != nil {
		panic(err)
	}
	plan, err := subscription.ReconstructPlan(id, name, name+" plan", "**"+name+"** tier", planType,
		priceMonthly, nil, "USD", quota, true, true, "", "", "", Now, Now)
	if err != nil {
		panic(err)
	}
	return plan
}

func NewUser(id string) *user.User {
	return user.ReconstructUser(id, id+"@example.com", id, vo.PlanTypeFree, Now, Now)
}

// SubscriptionOptions overrides fields of NewSubscription's default active monthly subscription.
type SubscriptionOptions struct {
	Status               vo.SubscriptionStatus
	PeriodEnd            *time.Time
	EndDate              *time.Time
	CanceledAt           *time.Time
	StripeSubscriptionID string
	CredentialID         string
}

// NewSubscription builds a subscription whose current period started ten days before Now.
func NewSubscription(id, userID, planID string, opts SubscriptionOptions) *subscription.Subscription {
	status := opts.Status
	if status == "" {
		status = vo.StatusActive
	}
	start := Now.AddDate(0, 0, -10)
	end := start.AddDate(0, 0, 30)
	if opts.PeriodEnd != nil {
		end = *opts.PeriodEnd
	}
	sub, err := subscription.ReconstructSubscription(
		id, userID, planID,
		status, vo.BillingIntervalMonthly,
		start,
		nil, &start, &end, opts.CanceledAt, opts.EndDate,
		"", opts.StripeSubscriptionID, "", opts.CredentialID,
		1, start, start,
	)
	if err != nil {
		panic(err)
	}
	return sub
}

func CloneSubscription(s *subscription.Subscription) *subscription.Subscription {
	clone, err := subscription.ReconstructSubscription(
		s.ID(), s.UserID(), s.PlanID(),
		s.Status(), s.BillingInterval(),
		s.StartDate(),
		copyTime(s.TrialEndDate()), copyTime(s.CurrentPeriodStart()), copyTime(s.CurrentPeriodEnd()),
		copyTime(s.CanceledAt()), copyTime(s.EndDate()),
		s.CancelReason(), s.StripeSubscriptionID(), s.StripeCustomerID(), s.CredentialID(),
		s.Version(), s.CreatedAt(), s.UpdatedAt(),
	)
	if err != nil {
		panic(err)
	}
	return clone
}

func ClonePlan(p *subscription.Plan) *subscription.Plan {
	var yearly *int64
	if p.PriceYearly() != nil {
		v := *p.PriceYearly()
		yearly = &v
	}
	clone, err := subscription.ReconstructPlan(p.ID(), p.Name(), p.DisplayName(), p.Description(), p.PlanType(),
		p.PriceMonthly(), yearly, p.Currency(), p.Quota(), p.IsActive(), p.IsPublic(),
		p.StripePriceIDMonthly(), p.StripePriceIDYearly(), p.StripeProductID(), p.CreatedAt(), p.UpdatedAt())
	if err != nil {
		panic(err)
	}
	return clone
}

func cloneUser(u *user.User) *user.User {
	return user.ReconstructUser(u.ID(), u.Email(), u.Username(), u.Tier(), u.CreatedAt(), u.UpdatedAt())
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
