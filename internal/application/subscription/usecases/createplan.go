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

type QuotaInput struct {
	TokensPerMonth    int64
	RequestsPerMinute int
	RequestsPerDay    int
	MaxDocuments      int
	MaxProjects       int
	MaxAgents         int
	AllowedModels     []string
}

func (q QuotaInput) toValueObject() (vo.PlanQuota, error) {
	return vo.NewPlanQuota(q.TokensPerMonth, q.RequestsPerMinute, q.RequestsPerDay,
		q.MaxDocuments, q.MaxProjects, q.MaxAgents, q.AllowedModels)
}

type CreatePlanCommand struct {
	Name                 string
	DisplayName          string
	Description          string
	PlanType             string
	PriceMonthly         int64
	PriceYearly          *int64
	Currency             string
	Quota                QuotaInput
	IsActive             *bool
	IsPublic             *bool
	StripePriceIDMonthly string
	StripePriceIDYearly  string
	StripeProductID      string
}

type CreatePlanUseCase struct {
	planRepo subscription.PlanRepository
	logger   logger.Interface
}

func NewCreatePlanUseCase(planRepo subscription.PlanRepository, logger logger.Interface) *CreatePlanUseCase {
	return &CreatePlanUseCase{
		planRepo: planRepo,
		logger:   logger,
	}
}

func (uc *CreatePlanUseCase) Execute(ctx context.Context, cmd CreatePlanCommand) (*dto.PlanDTO, error) {
	exists, err := uc.planRepo.ExistsByName(ctx, cmd.Name)
	if err != nil {
		uc.logger.Errorw("failed to check plan name", "error", err, "name", cmd.Name)
		return nil, fmt.Errorf("failed to check plan name: %w", err)
	}
	if exists {
		return nil, errors.NewConflictError("Plan name already exists", cmd.Name)
	}

	planType, err := vo.NewPlanType(cmd.PlanType)
	if err != nil {
		return nil, errors.NewValidationError("Invalid plan type", err.Error())
	}
	quota, err := cmd.Quota.toValueObject()
	if err != nil {
		return nil, errors.NewValidationError("Invalid quota", err.Error())
	}

	plan, err := subscription.NewPlan(cmd.Name, cmd.DisplayName, planType, cmd.PriceMonthly, cmd.PriceYearly, cmd.Currency, quota)
	if err != nil {
		return nil, domainError(err)
	}
	if cmd.Description != "" {
		if err := plan.UpdateDisplay(cmd.DisplayName, cmd.Description); err != nil {
			return nil, domainError(err)
		}
	}
	if cmd.IsActive != nil || cmd.IsPublic != nil {
		plan.SetVisibility(boolOr(cmd.IsActive, plan.IsActive()), boolOr(cmd.IsPublic, plan.IsPublic()))
	}
	plan.LinkStripe(cmd.StripePriceIDMonthly, cmd.StripePriceIDYearly, cmd.StripeProductID)

	if err := uc.planRepo.Create(ctx, plan); err != nil {
		if errors.IsDuplicateError(err) {
			return nil, errors.NewConflictError("Plan name already exists", cmd.Name)
		}
		uc.logger.Errorw("failed to create plan", "error", err, "name", cmd.Name)
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}

	uc.logger.Infow("plan created",
		"plan_id", plan.ID(),
		"name", plan.Name(),
		"price_monthly", plan.PriceMonthly(),
	)
	return dto.ToPlanDTO(plan), nil
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
