package usecases

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription"
	vo "github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription/valueobjects"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/user"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/db"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/errors"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
)

const maxTrialDays = 90

type CreateSubscriptionCommand struct {
	UserID          string
	PlanID          string
	BillingInterval string
	TrialDays       int
}

type CreateSubscriptionUseCase struct {
	txManager        db.Transactor
	subscriptionRepo subscription.SubscriptionRepository
	planRepo         subscription.PlanRepository
	userRepo         user.Repository
	syncer           *EntitlementSyncer
	logger           logger.Interface
	now              func() time.Time
}

func NewCreateSubscriptionUseCase(
	txManager db.Transactor,
	subscriptionRepo subscription.SubscriptionRepository,
	planRepo subscription.PlanRepository,
	userRepo user.Repository,
	syncer *EntitlementSyncer,
	logger logger.Interface,
) *CreateSubscriptionUseCase {
	return &CreateSubscriptionUseCase{
		txManager:        txManager,
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		userRepo:         userRepo,
		syncer:           syncer,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (uc *CreateSubscriptionUseCase) Execute(ctx context.Context, cmd CreateSubscriptionCommand) (result *TransitionResult, err error) {
	ctx, span := startSpan(ctx, "ledger.create",
		attribute.String("user.id", cmd.UserID),
		attribute.String("plan.id", cmd.PlanID),
	)
	defer endSpan(span, &err)

	interval, err := vo.ParseBillingInterval(cmd.BillingInterval)
	if err != nil {
		return nil, errors.NewValidationError("Invalid billing interval", err.Error())
	}
	if cmd.TrialDays < 0 || cmd.TrialDays > maxTrialDays {
		return nil, errors.NewValidationError(fmt.Sprintf("Trial days must be between 0 and %d", maxTrialDays))
	}

	var (
		sub   *subscription.Subscription
		owner *user.User
		plan  *subscription.Plan
	)
	now := uc.now()

	err = uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		// Serializes concurrent creates for the same user.
		var err error
		owner, err = uc.userRepo.GetByIDForUpdate(txCtx, cmd.UserID)
		if err != nil {
			return fmt.Errorf("failed to lock user: %w", err)
		}
		if owner == nil {
			return errors.NewNotFoundError("User not found")
		}

		// Shared lock: the plan cannot be deleted until this subscription is committed.
		plan, err = uc.planRepo.GetByIDForShare(txCtx, cmd.PlanID)
		if err != nil {
			return fmt.Errorf("failed to get plan: %w", err)
		}
		if plan == nil {
			return errors.NewNotFoundError("Plan not found")
		}
		if !plan.IsActive() {
			return errors.NewValidationError("Plan is not active")
		}

		existing, err := uc.subscriptionRepo.GetEntitledByUserID(txCtx, owner.ID())
		if err != nil {
			return fmt.Errorf("failed to check existing subscription: %w", err)
		}
		if existing != nil {
			return errors.NewValidationError("User already has an active subscription")
		}

		sub, err = subscription.NewSubscription(owner.ID(), plan.ID(), interval, cmd.TrialDays, now)
		if err != nil {
			return domainError(err)
		}
		if err := uc.subscriptionRepo.Create(txCtx, sub); err != nil {
			return fmt.Errorf("failed to create subscription: %w", err)
		}

		if owner.SetTier(plan.PlanType(), now) {
			if err := uc.userRepo.UpdateTier(txCtx, owner.ID(), owner.Tier()); err != nil {
				return fmt.Errorf("failed to update user tier: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		uc.logger.Warnw("failed to create subscription",
			"user_id", cmd.UserID,
			"plan_id", cmd.PlanID,
			"error", err,
		)
		return nil, err
	}

	uc.logger.Infow("subscription created",
		"subscription_id", sub.ID(),
		"user_id", owner.ID(),
		"plan_id", plan.ID(),
		"status", sub.Status(),
	)

	drift := uc.syncer.Align(ctx, sub, owner, plan)
	return uc.syncer.Finish("create", sub, drift), nil
}
