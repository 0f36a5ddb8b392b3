package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/infrastructure/persistence/mappers"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/infrastructure/persistence/models"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/db"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
)

type PlanRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.PlanMapper
	logger logger.Interface
}

func NewPlanRepository(db *gorm.DB, logger logger.Interface) subscription.PlanRepository {
	return &PlanRepositoryImpl{
		db:     db,
		mapper: mappers.NewPlanMapper(),
		logger: logger,
	}
}

func (r *PlanRepositoryImpl) Create(ctx context.Context, plan *subscription.Plan) error {
	model, err := r.mapper.ToModel(plan)
	if err != nil {
		r.logger.Errorw("failed to convert plan to model", "error", err)
		return fmt.Errorf("failed to convert plan to model: %w", err)
	}
	if model.ID == "" {
		model.ID = uuid.NewString()
	}

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create plan", "error", err, "name", plan.Name())
		return fmt.Errorf("failed to create plan: %w", err)
	}

	if plan.ID() == "" {
		if err := plan.SetID(model.ID); err != nil {
			return err
		}
	}

	r.logger.Infow("plan created successfully", "plan_id", model.ID, "name", plan.Name())
	return nil
}

func (r *PlanRepositoryImpl) GetByID(ctx context.Context, id string) (*subscription.Plan, error) {
	return r.first(db.GetTxFromContext(ctx, r.db), id)
}

// GetByIDForUpdate locks the plan row exclusively, blocking concurrent subscribers.
func (r *PlanRepositoryImpl) GetByIDForUpdate(ctx context.Context, id string) (*subscription.Plan, error) {
	if !db.InTransaction(ctx) {
		return nil, fmt.Errorf("GetByIDForUpdate must be called inside a transaction")
	}
	return r.first(db.GetTxFromContext(ctx, r.db).Scopes(db.ForUpdate()), id)
}

// GetByIDForShare keeps the plan row from being deleted until the transaction ends.
func (r *PlanRepositoryImpl) GetByIDForShare(ctx context.Context, id string) (*subscription.Plan, error) {
	if !db.InTransaction(ctx) {
		return nil, fmt.Errorf("GetByIDForShare must be called inside a transaction")
	}
	return r.first(db.GetTxFromContext(ctx, r.db).Scopes(db.ForShare()), id)
}

func (r *PlanRepositoryImpl) first(query *gorm.DB, id string) (*subscription.Plan, error) {
	var model models.PlanModel
	if err := query.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get plan by ID", "error", err, "plan_id", id)
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *PlanRepositoryImpl) GetByName(ctx context.Context, name string) (*subscription.Plan, error) {
	var model models.PlanModel
	if err := db.GetTxFromContext(ctx, r.db).Where("name = ?", name).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get plan by name", "error", err, "name", name)
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *PlanRepositoryImpl) Update(ctx context.Context, plan *subscription.Plan) error {
	model, err := r.mapper.ToModel(plan)
	if err != nil {
		r.logger.Errorw("failed to convert plan to model", "error", err, "plan_id", plan.ID())
		return fmt.Errorf("failed to convert plan to model: %w", err)
	}

	// A map is used so that false and zero values are written too.
	result := db.GetTxFromContext(ctx, r.db).Model(&models.PlanModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"display_name":            model.DisplayName,
			"description":             model.Description,
			"plan_type":               model.PlanType,
			"price_monthly":           model.PriceMonthly,
			"price_yearly":            model.PriceYearly,
			"currency":                model.Currency,
			"tokens_per_month":        model.TokensPerMonth,
			"requests_per_minute":     model.RequestsPerMinute,
			"requests_per_day":        model.RequestsPerDay,
			"max_documents":           model.MaxDocuments,
			"max_projects":            model.MaxProjects,
			"max_agents":              model.MaxAgents,
			"allowed_models":          model.AllowedModels,
			"is_active":               model.IsActive,
			"is_public":               model.IsPublic,
			"stripe_price_id_monthly": model.StripePriceIDMonthly,
			"stripe_price_id_yearly":  model.StripePriceIDYearly,
			"stripe_product_id":       model.StripeProductID,
			"updated_at":              model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update plan", "error", result.Error, "plan_id", model.ID)
		return fmt.Errorf("failed to update plan: %w", result.Error)
	}

	r.logger.Infow("plan updated successfully", "plan_id", model.ID)
	return nil
}

func (r *PlanRepositoryImpl) Delete(ctx context.Context, id string) error {
	result := db.GetTxFromContext(ctx, r.db).Where("id = ?", id).Delete(&models.PlanModel{})
	if result.Error != nil {
		r.logger.Errorw("failed to delete plan", "error", result.Error, "plan_id", id)
		return fmt.Errorf("failed to delete plan: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return subscription.ErrPlanNotFound
	}

	r.logger.Infow("plan deleted successfully", "plan_id", id)
	return nil
}

// List orders plans by monthly price, then by name.
func (r *PlanRepositoryImpl) List(ctx context.Context, filter subscription.PlanFilter) ([]*subscription.Plan, error) {
	query := db.GetTxFromContext(ctx, r.db).Model(&models.PlanModel{})

	if !filter.IncludeInactive || filter.PublicOnly {
		query = query.Where("is_active = ?", true)
	}
	if filter.PublicOnly {
		query = query.Where("is_public = ?", true)
	}

	var planModels []*models.PlanModel
	if err := query.Order("price_monthly ASC").Order("name ASC").Find(&planModels).Error; err != nil {
		r.logger.Errorw("failed to list plans", "error", err)
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}

	return r.mapper.ToEntities(planModels)
}

func (r *PlanRepositoryImpl) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	if err := db.GetTxFromContext(ctx, r.db).Model(&models.PlanModel{}).Where("name = ?", name).Count(&count).Error; err != nil {
		r.logger.Errorw("failed to check plan name existence", "error", err, "name", name)
		return false, fmt.Errorf("failed to check plan name existence: %w", err)
	}

	return count > 0, nil
}
