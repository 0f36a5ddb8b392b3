package usecases

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/user"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/db"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/errors"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
)

type ReactivateSubscriptionCommand struct {
	SubscriptionID string
}

type ReactivateSubscriptionUseCase struct {
	txManager        db.Transactor
	subscriptionRepo subscription.SubscriptionRepository
	planRepo         subscription.PlanRepository
	userRepo         user.Repository
	syncer           *EntitlementSyncer
	logger           logger.Interface
	now              func() time.Time
}

func NewReactivateSubscriptionUseCase(
	txManager db.Transactor,
	subscriptionRepo subscription.SubscriptionRepository,
	planRepo subscription.PlanRepository,
	userRepo user.Repository,
	syncer *EntitlementSyncer,
	logger logger.Interface,
) *ReactivateSubscriptionUseCase {
	return &ReactivateSubscriptionUseCase{
		txManager:        txManager,
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		userRepo:         userRepo,
		syncer:           syncer,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (uc *ReactivateSubscriptionUseCase) Execute(ctx context.Context, cmd ReactivateSubscriptionCommand) (result *TransitionResult, err error) {
	ctx, span := startSpan(ctx, "ledger.reactivate", attribute.String("subscription.id", cmd.SubscriptionID))
	defer endSpan(span, &err)

	var (
		sub   *subscription.Subscription
		owner *user.User
		plan  *subscription.Plan
	)
	now := uc.now()

	err = uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		var err error
		sub, owner, err = lockSubscriptionWithOwner(txCtx, uc.subscriptionRepo, uc.userRepo, cmd.SubscriptionID)
		if err != nil {
			return err
		}

		if err := sub.Reactivate(now); err != nil {
			return domainError(err)
		}

		other, err := uc.subscriptionRepo.GetEntitledByUserID(txCtx, owner.ID())
		if err != nil {
			return fmt.Errorf("failed to check existing subscription: %w", err)
		}
		if other != nil && other.ID() != sub.ID() {
			return errors.NewValidationError("User already has an active subscription")
		}

		plan, err = uc.planRepo.GetByID(txCtx, sub.PlanID())
		if err != nil {
			return fmt.Errorf("failed to get plan: %w", err)
		}
		if plan == nil {
			return errors.NewNotFoundError("Plan not found")
		}

		if err := uc.subscriptionRepo.Update(txCtx, sub); err != nil {
			return fmt.Errorf("failed to update subscription: %w", err)
		}
		if owner.SetTier(plan.PlanType(), now) {
			if err := uc.userRepo.UpdateTier(txCtx, owner.ID(), owner.Tier()); err != nil {
				return fmt.Errorf("failed to update user tier: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		uc.logger.Warnw("failed to reactivate subscription",
			"subscription_id", cmd.SubscriptionID,
			"error", err,
		)
		return nil, err
	}

	uc.logger.Infow("subscription reactivated",
		"subscription_id", sub.ID(),
		"plan_id", plan.ID(),
	)

	drift := uc.syncer.Align(ctx, sub, owner, plan)
	return uc.syncer.Finish("reactivate", sub, drift), nil
}
