package usecases

import (
	"context"
	"fmt"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/application/subscription/dto"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription"
	vo "github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription/valueobjects"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/errors"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
)

// UpdatePlanCommand is a partial update; nil fields are left unchanged.
// The plan name is immutable.
type UpdatePlanCommand struct {
	PlanID               string
	DisplayName          *string
	Description          *string
	PlanType             *string
	PriceMonthly         *int64
	PriceYearly          *int64
	Currency             *string
	Quota                *QuotaInput
	IsActive             *bool
	IsPublic             *bool
	StripePriceIDMonthly *string
	StripePriceIDYearly  *string
	StripeProductID      *string
}

type UpdatePlanUseCase struct {
	planRepo    subscription.PlanRepository
	invalidator PlanCacheInvalidator
	logger      logger.Interface
}

func NewUpdatePlanUseCase(
	planRepo subscription.PlanRepository,
	invalidator PlanCacheInvalidator,
	logger logger.Interface,
) *UpdatePlanUseCase {
	if invalidator == nil {
		invalidator = nopInvalidator{}
	}
	return &UpdatePlanUseCase{
		planRepo:    planRepo,
		invalidator: invalidator,
		logger:      logger,
	}
}

func (uc *UpdatePlanUseCase) Execute(ctx context.Context, cmd UpdatePlanCommand) (*dto.PlanDTO, error) {
	plan, err := uc.planRepo.GetByID(ctx, cmd.PlanID)
	if err != nil {
		uc.logger.Errorw("failed to get plan", "error", err, "plan_id", cmd.PlanID)
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return nil, errors.NewNotFoundError("Plan not found")
	}

	if err := applyPlanUpdate(plan, cmd); err != nil {
		return nil, err
	}

	if err := uc.planRepo.Update(ctx, plan); err != nil {
		uc.logger.Errorw("failed to update plan", "error", err, "plan_id", cmd.PlanID)
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}
	if err := uc.invalidator.Invalidate(ctx, plan.ID()); err != nil {
		uc.logger.Warnw("failed to invalidate plan cache", "error", err, "plan_id", plan.ID())
	}

	uc.logger.Infow("plan updated", "plan_id", plan.ID())
	return dto.ToPlanDTO(plan), nil
}

func applyPlanUpdate(plan *subscription.Plan, cmd UpdatePlanCommand) error {
	if cmd.DisplayName != nil || cmd.Description != nil {
		displayName := plan.DisplayName()
		if cmd.DisplayName != nil {
			displayName = *cmd.DisplayName
		}
		description := plan.Description()
		if cmd.Description != nil {
			description = *cmd.Description
		}
		if err := plan.UpdateDisplay(displayName, description); err != nil {
			return domainError(err)
		}
	}

	if cmd.PlanType != nil {
		planType, err := vo.NewPlanType(*cmd.PlanType)
		if err != nil {
			return errors.NewValidationError("Invalid plan type", err.Error())
		}
		if err := plan.ChangeType(planType); err != nil {
			return domainError(err)
		}
	}

	if cmd.PriceMonthly != nil || cmd.PriceYearly != nil || cmd.Currency != nil {
		priceMonthly := plan.PriceMonthly()
		if cmd.PriceMonthly != nil {
			priceMonthly = *cmd.PriceMonthly
		}
		priceYearly := plan.PriceYearly()
		if cmd.PriceYearly != nil {
			priceYearly = cmd.PriceYearly
		}
		currencyCode := plan.Currency()
		if cmd.Currency != nil {
			currencyCode = *cmd.Currency
		}
		if err := plan.UpdatePricing(priceMonthly, priceYearly, currencyCode); err != nil {
			return domainError(err)
		}
	}

	if cmd.Quota != nil {
		quota, err := cmd.Quota.toValueObject()
		if err != nil {
			return errors.NewValidationError("Invalid quota", err.Error())
		}
		plan.UpdateQuota(quota)
	}

	if cmd.IsActive != nil || cmd.IsPublic != nil {
		plan.SetVisibility(boolOr(cmd.IsActive, plan.IsActive()), boolOr(cmd.IsPublic, plan.IsPublic()))
	}

	if cmd.StripePriceIDMonthly != nil || cmd.StripePriceIDYearly != nil || cmd.StripeProductID != nil {
		plan.LinkStripe(
			stringOr(cmd.StripePriceIDMonthly, plan.StripePriceIDMonthly()),
			stringOr(cmd.StripePriceIDYearly, plan.StripePriceIDYearly()),
			stringOr(cmd.StripeProductID, plan.StripeProductID()),
		)
	}
	return nil
}

func stringOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}
