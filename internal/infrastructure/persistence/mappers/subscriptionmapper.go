package mappers

import (
	"fmt"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription"
	vo "github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription/valueobjects"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/infrastructure/persistence/models"
)

type SubscriptionMapper interface {
	ToEntity(model *models.SubscriptionModel) (*subscription.Subscription, error)
	ToModel(entity *subscription.Subscription) (*models.SubscriptionModel, error)
	ToEntities(models []*models.SubscriptionModel) ([]*subscription.Subscription, error)
}

type SubscriptionMapperImpl struct{}

func NewSubscriptionMapper() SubscriptionMapper {
	return &SubscriptionMapperImpl{}
}

func (m *SubscriptionMapperImpl) ToEntity(model *models.SubscriptionModel) (*subscription.Subscription, error) {
	if model == nil {
		return nil, nil
	}

	status, err := vo.NewSubscriptionStatus(model.Status)
	if err != nil {
		return nil, err
	}
	interval, err := vo.ParseBillingInterval(model.BillingInterval)
	if err != nil {
		return nil, err
	}

	entity, err := subscription.ReconstructSubscription(
		model.ID,
		model.UserID,
		model.PlanID,
		status,
		interval,
		model.StartDate,
		model.TrialEndDate,
		model.CurrentPeriodStart,
		model.CurrentPeriodEnd,
		model.CanceledAt,
		model.EndDate,
		derefString(model.CancelReason),
		derefString(model.StripeSubscriptionID),
		derefString(model.StripeCustomerID),
		derefString(model.CredentialID),
		model.Version,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct subscription entity: %w", err)
	}

	return entity, nil
}

func (m *SubscriptionMapperImpl) ToModel(entity *subscription.Subscription) (*models.SubscriptionModel, error) {
	if entity == nil {
		return nil, nil
	}

	return &models.SubscriptionModel{
		ID:                   entity.ID(),
		UserID:               entity.UserID(),
		PlanID:               entity.PlanID(),
		Status:               entity.Status().String(),
		BillingInterval:      entity.BillingInterval().String(),
		StartDate:            entity.StartDate(),
		TrialEndDate:         entity.TrialEndDate(),
		CurrentPeriodStart:   entity.CurrentPeriodStart(),
		CurrentPeriodEnd:     entity.CurrentPeriodEnd(),
		CanceledAt:           entity.CanceledAt(),
		EndDate:              entity.EndDate(),
		CancelReason:         optionalString(entity.CancelReason()),
		StripeSubscriptionID: optionalString(entity.StripeSubscriptionID()),
		StripeCustomerID:     optionalString(entity.StripeCustomerID()),
		CredentialID:         optionalString(entity.CredentialID()),
		Version:              entity.Version(),
		CreatedAt:            entity.CreatedAt(),
		UpdatedAt:            entity.UpdatedAt(),
	}, nil
}

func (m *SubscriptionMapperImpl) ToEntities(models []*models.SubscriptionModel) ([]*subscription.Subscription, error) {
	entities := make([]*subscription.Subscription, 0, len(models))

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
