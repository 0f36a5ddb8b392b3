package usecases

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/user"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/db"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
)

const maxCancelReasonLength = 500

type CancelSubscriptionCommand struct {
	SubscriptionID    string
	CancelAtPeriodEnd bool
	Reason            string
}

type CancelSubscriptionUseCase struct {
	txManager        db.Transactor
	subscriptionRepo subscription.SubscriptionRepository
	userRepo         user.Repository
	syncer           *EntitlementSyncer
	sanitizer        DescriptionRenderer
	logger           logger.Interface
	now              func() time.Time
}

func NewCancelSubscriptionUseCase(
	txManager db.Transactor,
	subscriptionRepo subscription.SubscriptionRepository,
	userRepo user.Repository,
	syncer *EntitlementSyncer,
	sanitizer DescriptionRenderer,
	logger logger.Interface,
) *CancelSubscriptionUseCase {
	return &CancelSubscriptionUseCase{
		txManager:        txManager,
		subscriptionRepo: subscriptionRepo,
		userRepo:         userRepo,
		syncer:           syncer,
		sanitizer:        sanitizer,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (uc *CancelSubscriptionUseCase) Execute(ctx context.Context, cmd CancelSubscriptionCommand) (result *TransitionResult, err error) {
	ctx, span := startSpan(ctx, "ledger.cancel",
		attribute.String("subscription.id", cmd.SubscriptionID),
		attribute.Bool("cancel_at_period_end", cmd.CancelAtPeriodEnd),
	)
	defer endSpan(span, &err)

	reason := uc.sanitizer.PlainText(cmd.Reason)
	if runes := []rune(reason); len(runes) > maxCancelReasonLength {
		reason = string(runes[:maxCancelReasonLength])
	}

	var (
		sub       *subscription.Subscription
		immediate bool
	)
	now := uc.now()

	err = uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		var (
			owner *user.User
			err   error
		)
		sub, owner, err = lockSubscriptionWithOwner(txCtx, uc.subscriptionRepo, uc.userRepo, cmd.SubscriptionID)
		if err != nil {
			return err
		}

		immediate, err = sub.Cancel(cmd.CancelAtPeriodEnd, reason, now)
		if err != nil {
			return domainError(err)
		}
		if err := uc.subscriptionRepo.Update(txCtx, sub); err != nil {
			return fmt.Errorf("failed to update subscription: %w", err)
		}

		if immediate && owner.ResetTier(now) {
			if err := uc.userRepo.UpdateTier(txCtx, owner.ID(), owner.Tier()); err != nil {
				return fmt.Errorf("failed to update user tier: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		uc.logger.Warnw("failed to cancel subscription",
			"subscription_id", cmd.SubscriptionID,
			"error", err,
		)
		return nil, err
	}

	uc.logger.Infow("subscription canceled",
		"subscription_id", sub.ID(),
		"immediate", immediate,
		"end_date", sub.EndDate(),
	)

	drift := ""
	if immediate {
		drift = uc.syncer.Revoke(ctx, sub)
	}
	return uc.syncer.Finish("cancel", sub, drift), nil
}
