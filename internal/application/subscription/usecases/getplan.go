package usecases

import (
	"context"
	"fmt"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/application/subscription/dto"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/errors"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
)

type GetPlanUseCase struct {
	planReader       subscription.PlanReader
	subscriptionRepo subscription.SubscriptionRepository
	logger           logger.Interface
}

func NewGetPlanUseCase(
	planReader subscription.PlanReader,
	subscriptionRepo subscription.SubscriptionRepository,
	logger logger.Interface,
) *GetPlanUseCase {
	return &GetPlanUseCase{
		planReader:       planReader,
		subscriptionRepo: subscriptionRepo,
		logger:           logger,
	}
}

func (uc *GetPlanUseCase) Execute(ctx context.Context, planID string) (*dto.PlanDTO, error) {
	plan, err := uc.planReader.GetByID(ctx, planID)
	if err != nil {
		uc.logger.Errorw("failed to get plan", "error", err, "plan_id", planID)
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return nil, errors.NewNotFoundError("Plan not found")
	}

	subscribers, err := uc.subscriptionRepo.CountEntitledByPlanID(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to count subscribers: %w", err)
	}

	result := dto.ToPlanDTO(plan)
	result.SubscriberCount = &subscribers
	return result, nil
}
