package usecases

import (
	"context"
	"fmt"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/application/subscription/dto"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/user"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/errors"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
)

type GetSubscriptionQuery struct {
	SubscriptionID string
}

type GetSubscriptionUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	planReader       subscription.PlanReader
	userRepo         user.Repository
	logger           logger.Interface
}

func NewGetSubscriptionUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	planReader subscription.PlanReader,
	userRepo user.Repository,
	logger logger.Interface,
) *GetSubscriptionUseCase {
	return &GetSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		planReader:       planReader,
		userRepo:         userRepo,
		logger:           logger,
	}
}

func (uc *GetSubscriptionUseCase) Execute(ctx context.Context, query GetSubscriptionQuery) (*dto.SubscriptionDetailDTO, error) {
	sub, err := uc.subscriptionRepo.GetByID(ctx, query.SubscriptionID)
	if err != nil {
		uc.logger.Errorw("failed to get subscription", "error", err, "subscription_id", query.SubscriptionID)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil {
		return nil, errors.NewNotFoundError("Subscription not found")
	}

	detail := &dto.SubscriptionDetailDTO{SubscriptionDTO: dto.ToSubscriptionDTO(sub)}

	owner, err := uc.userRepo.GetByID(ctx, sub.UserID())
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	detail.User = dto.ToUserSummaryDTO(owner)

	plan, err := uc.planReader.GetByID(ctx, sub.PlanID())
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	detail.Plan = dto.ToPlanSummaryDTO(plan)

	return detail, nil
}
