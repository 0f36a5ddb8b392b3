package dto

import (
	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription"
	vo "github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription/valueobjects"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/user"
)

func ToSubscriptionDTO(sub *subscription.Subscription) *SubscriptionDTO {
	if sub == nil {
		return nil
	}

	return &SubscriptionDTO{
		ID:                   sub.ID(),
		UserID:               sub.UserID(),
		PlanID:               sub.PlanID(),
		Status:               sub.Status().String(),
		BillingInterval:      sub.BillingInterval().String(),
		StartDate:            sub.StartDate(),
		TrialEndDate:         sub.TrialEndDate(),
		CurrentPeriodStart:   sub.CurrentPeriodStart(),
		CurrentPeriodEnd:     sub.CurrentPeriodEnd(),
		CanceledAt:           sub.CanceledAt(),
		EndDate:              sub.EndDate(),
		CancelReason:         sub.CancelReason(),
		CancelAtPeriodEnd:    sub.IsScheduledForCancellation(),
		StripeSubscriptionID: sub.StripeSubscriptionID(),
		StripeCustomerID:     sub.StripeCustomerID(),
		HasCredential:        sub.CredentialID() != "",
		CreatedAt:            sub.CreatedAt(),
		UpdatedAt:            sub.UpdatedAt(),
	}
}

// ToSubscriptionDTOList returns an empty slice for empty input so lists render as [].
func ToSubscriptionDTOList(subs []*subscription.Subscription) []*SubscriptionDTO {
	dtos := make([]*SubscriptionDTO, 0, len(subs))
	for _, sub := range subs {
		if sub != nil {
			dtos = append(dtos, ToSubscriptionDTO(sub))
		}
	}
	return dtos
}

func ToUserSummaryDTO(u *user.User) *UserSummaryDTO {
	if u == nil {
		return nil
	}
	return &UserSummaryDTO{
		ID:       u.ID(),
		Email:    u.Email(),
		Username: u.Username(),
		Tier:     u.Tier().String(),
	}
}

func ToPlanSummaryDTO(plan *subscription.Plan) *PlanSummaryDTO {
	if plan == nil {
		return nil
	}
	return &PlanSummaryDTO{
		ID:           plan.ID(),
		Name:         plan.Name(),
		DisplayName:  plan.DisplayName(),
		PlanType:     plan.PlanType().String(),
		PriceMonthly: plan.PriceMonthly(),
		PriceYearly:  plan.PriceYearly(),
		Currency:     plan.Currency(),
	}
}

func ToQuotaDTO(q vo.PlanQuota) QuotaDTO {
	models := q.AllowedModels
	if models == nil {
		models = []string{}
	}
	return QuotaDTO{
		TokensPerMonth:    q.TokensPerMonth,
		RequestsPerMinute: q.RequestsPerMinute,
		RequestsPerDay:    q.RequestsPerDay,
		MaxDocuments:      q.MaxDocuments,
		MaxProjects:       q.MaxProjects,
		MaxAgents:         q.MaxAgents,
		AllowedModels:     models,
	}
}

func ToPlanDTO(plan *subscription.Plan) *PlanDTO {
	if plan == nil {
		return nil
	}

	return &PlanDTO{
		ID:                   plan.ID(),
		Name:                 plan.Name(),
		DisplayName:          plan.DisplayName(),
		Description:          plan.Description(),
		PlanType:             plan.PlanType().String(),
		PriceMonthly:         plan.PriceMonthly(),
		PriceYearly:          plan.PriceYearly(),
		Currency:             plan.Currency(),
		Quota:                ToQuotaDTO(plan.Quota()),
		IsActive:             plan.IsActive(),
		IsPublic:             plan.IsPublic(),
		StripePriceIDMonthly: plan.StripePriceIDMonthly(),
		StripePriceIDYearly:  plan.StripePriceIDYearly(),
		StripeProductID:      plan.StripeProductID(),
		CreatedAt:            plan.CreatedAt(),
		UpdatedAt:            plan.UpdatedAt(),
	}
}

func ToPlanDTOList(plans []*subscription.Plan) []*PlanDTO {
	dtos := make([]*PlanDTO, 0, len(plans))
	for _, plan := range plans {
		if plan != nil {
			dtos = append(dtos, ToPlanDTO(plan))
		}
	}
	return dtos
}

// ToPublicPlanDTO takes the description already rendered to sanitized HTML.
func ToPublicPlanDTO(plan *subscription.Plan, descriptionHTML string) *PublicPlanDTO {
	if plan == nil {
		return nil
	}
	return &PublicPlanDTO{
		ID:              plan.ID(),
		Name:            plan.Name(),
		DisplayName:     plan.DisplayName(),
		DescriptionHTML: descriptionHTML,
		PlanType:        plan.PlanType().String(),
		PriceMonthly:    plan.PriceMonthly(),
		PriceYearly:     plan.PriceYearly(),
		Currency:        plan.Currency(),
		Quota:           ToQuotaDTO(plan.Quota()),
	}
}
