package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription"
	vo "github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription/valueobjects"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/user"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/db"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/errors"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
)

type changeDirection int

const (
	directionUpgrade changeDirection = iota
	directionDowngrade
)

func (d changeDirection) operation() string {
	if d == directionUpgrade {
		return "upgrade"
	}
	return "downgrade"
}

// planChanger holds the transition shared by upgrade and downgrade. They differ
// only in which price direction they accept.
type planChanger struct {
	txManager        db.Transactor
	subscriptionRepo subscription.SubscriptionRepository
	planRepo         subscription.PlanRepository
	userRepo         user.Repository
	syncer           *EntitlementSyncer
	logger           logger.Interface
	now              func() time.Time
}

func newPlanChanger(
	txManager db.Transactor,
	subscriptionRepo subscription.SubscriptionRepository,
	planRepo subscription.PlanRepository,
	userRepo user.Repository,
	syncer *EntitlementSyncer,
	logger logger.Interface,
) planChanger {
	return planChanger{
		txManager:        txManager,
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		userRepo:         userRepo,
		syncer:           syncer,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (pc *planChanger) change(ctx context.Context, direction changeDirection, subscriptionID, newPlanID, billingInterval string) (*TransitionResult, error) {
	var interval *vo.BillingInterval
	if billingInterval != "" {
		parsed, err := vo.ParseBillingInterval(billingInterval)
		if err != nil {
			return nil, errors.NewValidationError("Invalid billing interval", err.Error())
		}
		interval = &parsed
	}

	var (
		sub     *subscription.Subscription
		owner   *user.User
		newPlan *subscription.Plan
	)
	now := pc.now()

	err := pc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		var err error
		sub, owner, err = lockSubscriptionWithOwner(txCtx, pc.subscriptionRepo, pc.userRepo, subscriptionID)
		if err != nil {
			return err
		}
		if !sub.Status().CanChangePlan() {
			return errors.NewValidationError(fmt.Sprintf("Cannot %s inactive subscription", direction.operation()))
		}

		// Price direction is always decided on plan rows read inside this transaction.
		// The target plan is share-locked so it cannot be deleted underneath the move.
		newPlan, err = pc.planRepo.GetByIDForShare(txCtx, newPlanID)
		if err != nil {
			return fmt.Errorf("failed to get new plan: %w", err)
		}
		if newPlan == nil {
			return errors.NewNotFoundError("New plan not found")
		}
		if !newPlan.IsActive() {
			return errors.NewValidationError("New plan is not active")
		}

		currentPlan, err := pc.planRepo.GetByID(txCtx, sub.PlanID())
		if err != nil {
			return fmt.Errorf("failed to get current plan: %w", err)
		}
		if currentPlan == nil {
			return errors.NewNotFoundError("Current plan not found")
		}

		switch direction {
		case directionUpgrade:
			if !newPlan.IsUpgradeFrom(currentPlan) {
				return domainError(subscription.ErrNotAnUpgrade)
			}
		case directionDowngrade:
			if newPlan.IsUpgradeFrom(currentPlan) {
				return domainError(subscription.ErrNotADowngrade)
			}
		}

		if err := sub.ChangePlan(newPlan.ID(), interval, now); err != nil {
			return domainError(err)
		}
		if err := pc.subscriptionRepo.Update(txCtx, sub); err != nil {
			return fmt.Errorf("failed to update subscription: %w", err)
		}

		if owner.SetTier(newPlan.PlanType(), now) {
			if err := pc.userRepo.UpdateTier(txCtx, owner.ID(), owner.Tier()); err != nil {
				return fmt.Errorf("failed to update user tier: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		pc.logger.Warnw("failed to change subscription plan",
			"operation", direction.operation(),
			"subscription_id", subscriptionID,
			"new_plan_id", newPlanID,
			"error", err,
		)
		return nil, err
	}

	pc.logger.Infow("subscription plan changed",
		"operation", direction.operation(),
		"subscription_id", sub.ID(),
		"plan_id", newPlan.ID(),
		"billing_interval", sub.BillingInterval(),
	)

	drift := pc.syncer.Align(ctx, sub, owner, newPlan)
	return pc.syncer.Finish(direction.operation(), sub, drift), nil
}
