package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription"
	vo "github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription/valueobjects"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/infrastructure/persistence/models"
)

// PlanMapper handles the conversion between domain entities and persistence models
type PlanMapper interface {
	ToEntity(model *models.PlanModel) (*subscription.Plan, error)
	ToModel(entity *subscription.Plan) (*models.PlanModel, error)
	ToEntities(models []*models.PlanModel) ([]*subscription.Plan, error)
}

type planMapper struct{}

func NewPlanMapper() PlanMapper {
	return &planMapper{}
}

func (m *planMapper) ToEntity(model *models.PlanModel) (*subscription.Plan, error) {
	if model == nil {
		return nil, nil
	}

	var allowedModels []string
	if len(model.AllowedModels) > 0 {
		if err := json.Unmarshal(model.AllowedModels, &allowedModels); err != nil {
			return nil, fmt.Errorf("failed to unmarshal allowed models: %w", err)
		}
	}

	quota, err := vo.NewPlanQuota(
		model.TokensPerMonth,
		model.RequestsPerMinute,
		model.RequestsPerDay,
		model.MaxDocuments,
		model.MaxProjects,
		model.MaxAgents,
		allowedModels,
	)
	if err != nil {
		return nil, fmt.Errorf("invalid quota for plan %s: %w", model.ID, err)
	}

	entity, err := subscription.ReconstructPlan(
		model.ID,
		model.Name,
		model.DisplayName,
		model.Description,
		vo.PlanType(model.PlanType),
		model.PriceMonthly,
		model.PriceYearly,
		model.Currency,
		quota,
		model.IsActive,
		model.IsPublic,
		derefString(model.StripePriceIDMonthly),
		derefString(model.StripePriceIDYearly),
		derefString(model.StripeProductID),
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct plan entity: %w", err)
	}

	return entity, nil
}

func (m *planMapper) ToModel(entity *subscription.Plan) (*models.PlanModel, error) {
	if entity == nil {
		return nil, nil
	}

	quota := entity.Quota()
	allowedModels := quota.AllowedModels
	if allowedModels == nil {
		allowedModels = []string{}
	}
	modelsJSON, err := json.Marshal(allowedModels)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal allowed models: %w", err)
	}

	return &models.PlanModel{
		ID:                   entity.ID(),
		Name:                 entity.Name(),
		DisplayName:          entity.DisplayName(),
		Description:          entity.Description(),
		PlanType:             entity.PlanType().String(),
		PriceMonthly:         entity.PriceMonthly(),
		PriceYearly:          entity.PriceYearly(),
		Currency:             entity.Currency(),
		TokensPerMonth:       quota.TokensPerMonth,
		RequestsPerMinute:    quota.RequestsPerMinute,
		RequestsPerDay:       quota.RequestsPerDay,
		MaxDocuments:         quota.MaxDocuments,
		MaxProjects:          quota.MaxProjects,
		MaxAgents:            quota.MaxAgents,
		AllowedModels:        datatypes.JSON(modelsJSON),
		IsActive:             entity.IsActive(),
		IsPublic:             entity.IsPublic(),
		StripePriceIDMonthly: optionalString(entity.StripePriceIDMonthly()),
		StripePriceIDYearly:  optionalString(entity.StripePriceIDYearly()),
		StripeProductID:      optionalString(entity.StripeProductID()),
		CreatedAt:            entity.CreatedAt(),
		UpdatedAt:            entity.UpdatedAt(),
	}, nil
}

func (m *planMapper) ToEntities(models []*models.PlanModel) ([]*subscription.Plan, error) {
	entities := make([]*subscription.Plan, 0, len(models))

	for i, model := range models {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, fmt.Errorf("failed to map model at index %d (ID %s): %w", i, model.ID, err)
		}
		if entity != nil {
			entities = append(entities, entity)
		}
	}

	return entities, nil
}
