package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/user"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/db"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
)

const defaultSweepBatchSize = 100

type ExpireScheduledCancellationsResult struct {
	Canceled  int
	DriftRisk int
	Failed    int
}

// ExpireScheduledCancellationsUseCase finalizes cancellations scheduled for the
// end of a period once that end date has passed.
type ExpireScheduledCancellationsUseCase struct {
	txManager        db.Transactor
	subscriptionRepo subscription.SubscriptionRepository
	userRepo         user.Repository
	syncer           *EntitlementSyncer
	batchSize        int
	logger           logger.Interface
	now              func() time.Time
}

func NewExpireScheduledCancellationsUseCase(
	txManager db.Transactor,
	subscriptionRepo subscription.SubscriptionRepository,
	userRepo user.Repository,
	syncer *EntitlementSyncer,
	batchSize int,
	logger logger.Interface,
) *ExpireScheduledCancellationsUseCase {
	if batchSize <= 0 {
		batchSize = defaultSweepBatchSize
	}
	return &ExpireScheduledCancellationsUseCase{
		txManager:        txManager,
		subscriptionRepo: subscriptionRepo,
		userRepo:         userRepo,
		syncer:           syncer,
		batchSize:        batchSize,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (uc *ExpireScheduledCancellationsUseCase) Execute(ctx context.Context) (result *ExpireScheduledCancellationsResult, err error) {
	ctx, span := startSpan(ctx, "sweep.expire_scheduled_cancellations")
	defer endSpan(span, &err)

	now := uc.now()
	result = &ExpireScheduledCancellationsResult{}

	// Keyset paging, so rows that keep failing cannot starve the ones behind them.
	afterID := ""
	for {
		due, err := uc.subscriptionRepo.FindDueScheduledCancellations(ctx, now, afterID, uc.batchSize)
		if err != nil {
			return result, fmt.Errorf("failed to find due cancellations: %w", err)
		}
		if len(due) == 0 {
			break
		}

		uc.logger.Infow("found scheduled cancellations to finalize", "count", len(due), "after_id", afterID)

		for _, candidate := range due {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			uc.expire(ctx, candidate.ID(), now, result)
		}

		afterID = due[len(due)-1].ID()
		if len(due) < uc.batchSize {
			break
		}
	}

	return result, nil
}

func (uc *ExpireScheduledCancellationsUseCase) expire(ctx context.Context, subscriptionID string, now time.Time, result *ExpireScheduledCancellationsResult) {
	sub, finalized, err := uc.finalize(ctx, subscriptionID, now)
	if err != nil {
		result.Failed++
		uc.logger.Errorw("failed to finalize scheduled cancellation",
			"subscription_id", subscriptionID,
			"error", err,
		)
		return
	}
	if !finalized {
		return
	}

	res := uc.syncer.Finish("expire", sub, uc.syncer.Revoke(ctx, sub))
	result.Canceled++
	if res.HasDrift() {
		result.DriftRisk++
	}
}

func (uc *ExpireScheduledCancellationsUseCase) finalize(ctx context.Context, subscriptionID string, now time.Time) (*subscription.Subscription, bool, error) {
	var (
		sub       *subscription.Subscription
		finalized bool
	)
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		var (
			owner *user.User
			err   error
		)
		sub, owner, err = lockSubscriptionWithOwner(txCtx, uc.subscriptionRepo, uc.userRepo, subscriptionID)
		if err != nil {
			return err
		}

		// Re-checked under lock: the subscription may have been reactivated since it was listed.
		finalized = sub.FinalizeScheduledCancellation(now)
		if !finalized {
			return nil
		}
		if err := uc.subscriptionRepo.Update(txCtx, sub); err != nil {
			return fmt.Errorf("failed to update subscription: %w", err)
		}
		if owner.ResetTier(now) {
			if err := uc.userRepo.UpdateTier(txCtx, owner.ID(), owner.Tier()); err != nil {
				return fmt.Errorf("failed to update user tier: %w", err)
			}
		}
		return nil
	})
	return sub, finalized, err
}
