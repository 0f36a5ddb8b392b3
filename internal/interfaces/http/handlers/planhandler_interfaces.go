package handlers

import (
	"context"

	subdto "github.com/nat-prohmpiriya/llm-application-framework/internal/application/subscription/dto"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/application/subscription/usecases"
)

// Use case interfaces for PlanHandler

type createPlanUseCase interface {
	Execute(ctx context.Context, cmd usecases.CreatePlanCommand) (*subdto.PlanDTO, error)
}

type updatePlanUseCase interface {
	Execute(ctx context.Context, cmd usecases.UpdatePlanCommand) (*subdto.PlanDTO, error)
}

type getPlanUseCase interface {
	Execute(ctx context.Context, planID string) (*subdto.PlanDTO, error)
}

type listPlansUseCase interface {
	Execute(ctx context.Context, query usecases.ListPlansQuery) ([]*subdto.PlanDTO, error)
}

type getPublicPlansUseCase interface {
	Execute(ctx context.Context) ([]*subdto.PublicPlanDTO, error)
}

type deletePlanUseCase interface {
	Execute(ctx context.Context, planID string) error
}
