package usecases

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription"
	vo "github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription/valueobjects"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/user"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
)

type ReconcileEntitlementsResult struct {
	Scanned int
	Issued  int
	Updated int
	Revoked int
	Cleared int
	Failed  int
}

// ReconcileEntitlementsUseCase repairs drift between the ledger and the
// provisioning system left behind by failed post-commit calls.
type ReconcileEntitlementsUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	planRepo         subscription.PlanRepository
	userRepo         user.Repository
	syncer           *EntitlementSyncer
	batchSize        int
	logger           logger.Interface
}

func NewReconcileEntitlementsUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	planRepo subscription.PlanRepository,
	userRepo user.Repository,
	syncer *EntitlementSyncer,
	batchSize int,
	logger logger.Interface,
) *ReconcileEntitlementsUseCase {
	if batchSize <= 0 {
		batchSize = defaultSweepBatchSize
	}
	return &ReconcileEntitlementsUseCase{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		userRepo:         userRepo,
		syncer:           syncer,
		batchSize:        batchSize,
		logger:           logger,
	}
}

func (uc *ReconcileEntitlementsUseCase) Execute(ctx context.Context) (result *ReconcileEntitlementsResult, err error) {
	ctx, span := startSpan(ctx, "sweep.reconcile_entitlements")
	defer endSpan(span, &err)

	result = &ReconcileEntitlementsResult{}
	afterID := ""
	for {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		batch, err := uc.subscriptionRepo.ListAfterID(ctx, afterID, uc.batchSize)
		if err != nil {
			return result, fmt.Errorf("failed to list subscriptions: %w", err)
		}
		for _, sub := range batch {
			result.Scanned++
			if err := uc.reconcile(ctx, sub, result); err != nil {
				result.Failed++
				uc.logger.Warnw("failed to reconcile entitlement",
					"subscription_id", sub.ID(),
					"error", err,
				)
			}
		}
		if len(batch) < uc.batchSize {
			break
		}
		afterID = batch[len(batch)-1].ID()
	}

	if result.Issued+result.Updated+result.Revoked+result.Cleared+result.Failed > 0 {
		uc.logger.Infow("entitlement reconciliation finished",
			"scanned", result.Scanned,
			"issued", result.Issued,
			"updated", result.Updated,
			"revoked", result.Revoked,
			"cleared", result.Cleared,
			"failed", result.Failed,
		)
	}
	return result, nil
}

func (uc *ReconcileEntitlementsUseCase) reconcile(ctx context.Context, listed *subscription.Subscription, result *ReconcileEntitlementsResult) error {
	// Batches can be stale by the time a row is reached; act on a fresh read.
	sub, err := uc.subscriptionRepo.GetByID(ctx, listed.ID())
	if err != nil {
		return fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil {
		return nil
	}

	switch {
	case sub.IsEntitled():
		return uc.reconcileEntitled(ctx, sub, result)
	case sub.Status() == vo.StatusCanceled || sub.Status() == vo.StatusExpired:
		return uc.reconcileEnded(ctx, sub, result)
	}
	return nil
}

func (uc *ReconcileEntitlementsUseCase) reconcileEntitled(ctx context.Context, sub *subscription.Subscription, result *ReconcileEntitlementsResult) error {
	plan, err := uc.planRepo.GetByID(ctx, sub.PlanID())
	if err != nil {
		return fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return subscription.ErrPlanNotFound
	}

	if sub.CredentialID() != "" {
		info, err := uc.syncer.Inspect(ctx, sub)
		switch {
		case stderrors.Is(err, subscription.ErrCredentialNotFound):
			if err := uc.syncer.ForgetCredential(ctx, sub); err != nil {
				return fmt.Errorf("failed to clear credential: %w", err)
			}
			result.Cleared++
		case err != nil:
			return fmt.Errorf("failed to inspect credential: %w", err)
		case info == nil:
			return nil
		case info.IsEnabled() && plan.Quota().MatchesLimits(info.AllowedModels, info.RequestsPerMinute):
			return nil
		}
	}

	owner, err := uc.userRepo.GetByID(ctx, sub.UserID())
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if owner == nil {
		return user.ErrUserNotFound
	}

	hadCredential := sub.CredentialID() != ""
	if reason := uc.syncer.Align(ctx, sub, owner, plan); reason != "" {
		return stderrors.New(reason)
	}
	switch {
	case hadCredential:
		result.Updated++
	case sub.CredentialID() != "":
		result.Issued++
	}
	return nil
}

func (uc *ReconcileEntitlementsUseCase) reconcileEnded(ctx context.Context, sub *subscription.Subscription, result *ReconcileEntitlementsResult) error {
	if sub.CredentialID() == "" {
		return nil
	}

	info, err := uc.syncer.Inspect(ctx, sub)
	switch {
	case stderrors.Is(err, subscription.ErrCredentialNotFound):
		if err := uc.syncer.ForgetCredential(ctx, sub); err != nil {
			return fmt.Errorf("failed to clear credential: %w", err)
		}
		result.Cleared++
		return nil
	case err != nil:
		return fmt.Errorf("failed to inspect credential: %w", err)
	case info == nil || !info.IsEnabled():
		return nil
	}

	if reason := uc.syncer.Revoke(ctx, sub); reason != "" {
		return stderrors.New(reason)
	}
	result.Revoked++
	return nil
}
