package usecases

import (
	"context"
	"fmt"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/db"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/errors"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
)

// DeletePlanUseCase removes a plan that no subscription references. Subscriptions
// in any status keep their plan: past-due and canceled ones can still return to
// ACTIVE. Retire a referenced plan by deactivating it instead.
type DeletePlanUseCase struct {
	txManager        db.Transactor
	planRepo         subscription.PlanRepository
	subscriptionRepo subscription.SubscriptionRepository
	invalidator      PlanCacheInvalidator
	logger           logger.Interface
}

func NewDeletePlanUseCase(
	txManager db.Transactor,
	planRepo subscription.PlanRepository,
	subscriptionRepo subscription.SubscriptionRepository,
	invalidator PlanCacheInvalidator,
	logger logger.Interface,
) *DeletePlanUseCase {
	if invalidator == nil {
		invalidator = nopInvalidator{}
	}
	return &DeletePlanUseCase{
		txManager:        txManager,
		planRepo:         planRepo,
		subscriptionRepo: subscriptionRepo,
		invalidator:      invalidator,
		logger:           logger,
	}
}

func (uc *DeletePlanUseCase) Execute(ctx context.Context, planID string) error {
	var plan *subscription.Plan

	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		// Exclusive lock: waits for subscribers holding a shared lock on this plan to commit.
		var err error
		plan, err = uc.planRepo.GetByIDForUpdate(txCtx, planID)
		if err != nil {
			uc.logger.Errorw("failed to get plan", "error", err, "plan_id", planID)
			return fmt.Errorf("failed to get plan: %w", err)
		}
		if plan == nil {
			return errors.NewNotFoundError("Plan not found")
		}

		references, err := uc.subscriptionRepo.CountByPlanID(txCtx, planID)
		if err != nil {
			return fmt.Errorf("failed to count subscriptions: %w", err)
		}
		if references > 0 {
			return errors.NewValidationError(
				fmt.Sprintf("Cannot delete plan referenced by %d subscriptions", references),
				"deactivate the plan instead",
			)
		}

		if err := uc.planRepo.Delete(txCtx, planID); err != nil {
			uc.logger.Errorw("failed to delete plan", "error", err, "plan_id", planID)
			return fmt.Errorf("failed to delete plan: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := uc.invalidator.Invalidate(ctx, planID); err != nil {
		uc.logger.Warnw("failed to invalidate plan cache", "error", err, "plan_id", planID)
	}

	uc.logger.Infow("plan deleted", "plan_id", planID, "name", plan.Name())
	return nil
}
