package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/application/subscription/dto"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription"
	vo "github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription/valueobjects"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/errors"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/utils"
)

type ListSubscriptionsQuery struct {
	UserID   string
	PlanID   string
	Status   string
	Page     int
	PageSize int
}

type ListSubscriptionsResult struct {
	Subscriptions []*dto.SubscriptionDTO
	Total         int64
	Page          int
	PageSize      int
}

type ListSubscriptionsUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	logger           logger.Interface
}

func NewListSubscriptionsUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	logger logger.Interface,
) *ListSubscriptionsUseCase {
	return &ListSubscriptionsUseCase{
		subscriptionRepo: subscriptionRepo,
		logger:           logger,
	}
}

func (uc *ListSubscriptionsUseCase) Execute(ctx context.Context, query ListSubscriptionsQuery) (*ListSubscriptionsResult, error) {
	pagination := utils.ValidatePagination(query.Page, query.PageSize)

	filter := subscription.SubscriptionFilter{
		Page:     pagination.Page,
		PageSize: pagination.PageSize,
		SortBy:   "created_at",
		SortDesc: true,
	}
	if query.Status != "" {
		status, err := vo.NewSubscriptionStatus(strings.ToLower(strings.TrimSpace(query.Status)))
		if err != nil {
			return nil, errors.NewValidationError("Invalid status filter", err.Error())
		}
		s := status.String()
		filter.Status = &s
	}
	if query.UserID != "" {
		filter.UserID = &query.UserID
	}
	if query.PlanID != "" {
		filter.PlanID = &query.PlanID
	}

	subs, total, err := uc.subscriptionRepo.List(ctx, filter)
	if err != nil {
		uc.logger.Errorw("failed to list subscriptions", "error", err)
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	return &ListSubscriptionsResult{
		Subscriptions: dto.ToSubscriptionDTOList(subs),
		Total:         total,
		Page:          pagination.Page,
		PageSize:      pagination.PageSize,
	}, nil
}
