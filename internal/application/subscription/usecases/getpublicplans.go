package usecases

import (
	"context"
	"fmt"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/application/subscription/dto"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
)

type GetPublicPlansUseCase struct {
	planReader subscription.PlanReader
	renderer   DescriptionRenderer
	logger     logger.Interface
}

func NewGetPublicPlansUseCase(
	planReader subscription.PlanReader,
	renderer DescriptionRenderer,
	logger logger.Interface,
) *GetPublicPlansUseCase {
	return &GetPublicPlansUseCase{
		planReader: planReader,
		renderer:   renderer,
		logger:     logger,
	}
}

func (uc *GetPublicPlansUseCase) Execute(ctx context.Context) ([]*dto.PublicPlanDTO, error) {
	plans, err := uc.planReader.List(ctx, subscription.PlanFilter{PublicOnly: true})
	if err != nil {
		uc.logger.Errorw("failed to list public plans", "error", err)
		return nil, fmt.Errorf("failed to list public plans: %w", err)
	}

	result := make([]*dto.PublicPlanDTO, 0, len(plans))
	for _, plan := range plans {
		html, err := uc.renderer.ToHTMLSanitized(plan.Description())
		if err != nil {
			uc.logger.Warnw("failed to render plan description", "error", err, "plan_id", plan.ID())
			html = ""
		}
		result = append(result, dto.ToPublicPlanDTO(plan, html))
	}
	return result, nil
}
