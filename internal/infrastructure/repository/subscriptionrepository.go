package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription"
	vo "github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription/valueobjects"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/infrastructure/persistence/mappers"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/infrastructure/persistence/models"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/db"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
)

// allowedSubscriptionSortByFields defines the whitelist of allowed ORDER BY fields
// to prevent SQL injection attacks.
var allowedSubscriptionSortByFields = map[string]bool{
	"id":                 true,
	"user_id":            true,
	"plan_id":            true,
	"status":             true,
	"start_date":         true,
	"end_date":           true,
	"current_period_end": true,
	"created_at":         true,
	"updated_at":         true,
}

type SubscriptionRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.SubscriptionMapper
	logger logger.Interface
}

func NewSubscriptionRepository(db *gorm.DB, logger logger.Interface) subscription.SubscriptionRepository {
	return &SubscriptionRepositoryImpl{
		db:     db,
		mapper: mappers.NewSubscriptionMapper(),
		logger: logger,
	}
}

func entitledStatuses() []string {
	out := make([]string, 0, len(vo.EntitledStatuses))
	for _, s := range vo.EntitledStatuses {
		out = append(out, s.String())
	}
	return out
}

func (r *SubscriptionRepositoryImpl) Create(ctx context.Context, subscriptionEntity *subscription.Subscription) error {
	model, err := r.mapper.ToModel(subscriptionEntity)
	if err != nil {
		r.logger.Errorw("failed to map subscription entity to model", "error", err)
		return fmt.Errorf("failed to map subscription entity: %w", err)
	}
	if model.ID == "" {
		model.ID = uuid.NewString()
	}

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create subscription in database", "error", err)
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	if subscriptionEntity.ID() == "" {
		if err := subscriptionEntity.SetID(model.ID); err != nil {
			r.logger.Errorw("failed to set subscription ID", "error", err)
			return fmt.Errorf("failed to set subscription ID: %w", err)
		}
	}

	r.logger.Infow("subscription created successfully", "id", model.ID, "user_id", model.UserID, "plan_id", model.PlanID)
	return nil
}

func (r *SubscriptionRepositoryImpl) GetByID(ctx context.Context, id string) (*subscription.Subscription, error) {
	return r.first(ctx, db.GetTxFromContext(ctx, r.db).Where("id = ?", id), "id", id)
}

func (r *SubscriptionRepositoryImpl) GetByIDForUpdate(ctx context.Context, id string) (*subscription.Subscription, error) {
	if !db.InTransaction(ctx) {
		return nil, fmt.Errorf("GetByIDForUpdate must be called inside a transaction")
	}
	return r.first(ctx, db.GetTxFromContext(ctx, r.db).Scopes(db.ForUpdate()).Where("id = ?", id), "id", id)
}

func (r *SubscriptionRepositoryImpl) GetByStripeSubscriptionID(ctx context.Context, stripeSubscriptionID string) (*subscription.Subscription, error) {
	if stripeSubscriptionID == "" {
		return nil, nil
	}
	query := db.GetTxFromContext(ctx, r.db).Where("stripe_subscription_id = ?", stripeSubscriptionID)
	return r.first(ctx, query, "stripe_subscription_id", stripeSubscriptionID)
}

// GetEntitledByUserID returns the most recent entitled subscription of the user.
func (r *SubscriptionRepositoryImpl) GetEntitledByUserID(ctx context.Context, userID string) (*subscription.Subscription, error) {
	query := db.GetTxFromContext(ctx, r.db).
		Where("user_id = ? AND status IN ?", userID, entitledStatuses()).
		Order("created_at DESC").Order("id DESC")
	return r.first(ctx, query, "user_id", userID)
}

func (r *SubscriptionRepositoryImpl) first(ctx context.Context, query *gorm.DB, key string, value string) (*subscription.Subscription, error) {
	var model models.SubscriptionModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get subscription", key, value, "error", err)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	entity, err := r.mapper.ToEntity(&model)
	if err != nil {
		r.logger.Errorw("failed to map subscription model to entity", key, value, "error", err)
		return nil, fmt.Errorf("failed to map subscription: %w", err)
	}

	return entity, nil
}

func (r *SubscriptionRepositoryImpl) Update(ctx context.Context, subscriptionEntity *subscription.Subscription) error {
	model, err := r.mapper.ToModel(subscriptionEntity)
	if err != nil {
		r.logger.Errorw("failed to map subscription entity to model", "id", subscriptionEntity.ID(), "error", err)
		return fmt.Errorf("failed to map subscription entity: %w", err)
	}

	result := db.GetTxFromContext(ctx, r.db).Model(&models.SubscriptionModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"plan_id":                model.PlanID,
			"status":                 model.Status,
			"billing_interval":       model.BillingInterval,
			"start_date":             model.StartDate,
			"trial_end_date":         model.TrialEndDate,
			"current_period_start":   model.CurrentPeriodStart,
			"current_period_end":     model.CurrentPeriodEnd,
			"canceled_at":            model.CanceledAt,
			"end_date":               model.EndDate,
			"cancel_reason":          model.CancelReason,
			"stripe_subscription_id": model.StripeSubscriptionID,
			"stripe_customer_id":     model.StripeCustomerID,
			"credential_id":          model.CredentialID,
			"version":                model.Version,
			"updated_at":             model.UpdatedAt,
		})

	if result.Error != nil {
		r.logger.Errorw("failed to update subscription", "id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update subscription: %w", result.Error)
	}

	// Note: RowsAffected may be 0 when updated values are identical to existing values.

	r.logger.Debugw("subscription updated", "id", model.ID, "status", model.Status)
	return nil
}

func (r *SubscriptionRepositoryImpl) ExistsByStripeSubscriptionID(ctx context.Context, stripeSubscriptionID, excludeID string) (bool, error) {
	query := db.GetTxFromContext(ctx, r.db).Model(&models.SubscriptionModel{}).
		Where("stripe_subscription_id = ?", stripeSubscriptionID)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		r.logger.Errorw("failed to check external subscription id", "stripe_subscription_id", stripeSubscriptionID, "error", err)
		return false, fmt.Errorf("failed to check external subscription id: %w", err)
	}
	return count > 0, nil
}

func (r *SubscriptionRepositoryImpl) List(ctx context.Context, filter subscription.SubscriptionFilter) ([]*subscription.Subscription, int64, error) {
	var subscriptionModels []*models.SubscriptionModel
	var total int64

	query := db.GetTxFromContext(ctx, r.db).Model(&models.SubscriptionModel{})

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.PlanID != nil {
		query = query.Where("plan_id = ?", *filter.PlanID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		r.logger.Errorw("failed to count subscriptions", "error", err)
		return nil, 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	// Apply sorting with whitelist validation to prevent SQL injection
	sortBy := filter.SortBy
	if sortBy == "" || !allowedSubscriptionSortByFields[sortBy] {
		sortBy = "created_at"
	}
	order := "DESC"
	if !filter.SortDesc {
		order = "ASC"
	}
	query = query.Order(fmt.Sprintf("%s %s", sortBy, order)).Order("id ASC")

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if err := query.Find(&subscriptionModels).Error; err != nil {
		r.logger.Errorw("failed to list subscriptions", "error", err)
		return nil, 0, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	entities, err := r.mapper.ToEntities(subscriptionModels)
	if err != nil {
		r.logger.Errorw("failed to map subscription models to entities", "error", err)
		return nil, 0, fmt.Errorf("failed to map subscriptions: %w", err)
	}

	return entities, total, nil
}

func (r *SubscriptionRepositoryImpl) CountEntitledByPlanID(ctx context.Context, planID string) (int64, error) {
	var count int64
	if err := db.GetTxFromContext(ctx, r.db).Model(&models.SubscriptionModel{}).
		Where("plan_id = ? AND status IN ?", planID, entitledStatuses()).
		Count(&count).Error; err != nil {
		r.logger.Errorw("failed to count plan subscribers", "plan_id", planID, "error", err)
		return 0, fmt.Errorf("failed to count plan subscribers: %w", err)
	}
	return count, nil
}

func (r *SubscriptionRepositoryImpl) CountByPlanID(ctx context.Context, planID string) (int64, error) {
	var count int64
	if err := db.GetTxFromContext(ctx, r.db).Model(&models.SubscriptionModel{}).
		Where("plan_id = ?", planID).
		Count(&count).Error; err != nil {
		r.logger.Errorw("failed to count plan references", "plan_id", planID, "error", err)
		return 0, fmt.Errorf("failed to count plan references: %w", err)
	}
	return count, nil
}

// FindDueScheduledCancellations returns cancelable subscriptions whose end date has passed.
func (r *SubscriptionRepositoryImpl) FindDueScheduledCancellations(ctx context.Context, now time.Time, afterID string, limit int) ([]*subscription.Subscription, error) {
	cancelable := []string{vo.StatusActive.String(), vo.StatusTrialing.String(), vo.StatusPastDue.String()}

	query := db.GetTxFromContext(ctx, r.db).
		Where("status IN ? AND end_date IS NOT NULL AND end_date <= ?", cancelable, now).
		Where("id > ?", afterID).
		Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	return r.find(query, "failed to find due cancellations")
}

// ListAfterID pages through all subscriptions in id order.
func (r *SubscriptionRepositoryImpl) ListAfterID(ctx context.Context, afterID string, limit int) ([]*subscription.Subscription, error) {
	query := db.GetTxFromContext(ctx, r.db).Where("id > ?", afterID).Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	return r.find(query, "failed to list subscriptions after id")
}

func (r *SubscriptionRepositoryImpl) find(query *gorm.DB, msg string) ([]*subscription.Subscription, error) {
	var subscriptionModels []*models.SubscriptionModel
	if err := query.Find(&subscriptionModels).Error; err != nil {
		r.logger.Errorw(msg, "error", err)
		return nil, fmt.Errorf("%s: %w", msg, err)
	}

	entities, err := r.mapper.ToEntities(subscriptionModels)
	if err != nil {
		r.logger.Errorw("failed to map subscription models to entities", "error", err)
		return nil, fmt.Errorf("failed to map subscriptions: %w", err)
	}
	return entities, nil
}
