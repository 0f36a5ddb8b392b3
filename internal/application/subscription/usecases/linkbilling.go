package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/db"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/errors"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
)

type LinkBillingCommand struct {
	SubscriptionID         string
	ExternalSubscriptionID string
	ExternalCustomerID     string
}

// LinkBillingUseCase matches a local subscription to the billing provider's
// records so that provider events can find it.
type LinkBillingUseCase struct {
	txManager        db.Transactor
	subscriptionRepo subscription.SubscriptionRepository
	logger           logger.Interface
	now              func() time.Time
}

func NewLinkBillingUseCase(
	txManager db.Transactor,
	subscriptionRepo subscription.SubscriptionRepository,
	logger logger.Interface,
) *LinkBillingUseCase {
	return &LinkBillingUseCase{
		txManager:        txManager,
		subscriptionRepo: subscriptionRepo,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (uc *LinkBillingUseCase) Execute(ctx context.Context, cmd LinkBillingCommand) (*subscription.Subscription, error) {
	if cmd.ExternalSubscriptionID == "" {
		return nil, errors.NewValidationError("External subscription ID is required")
	}

	var sub *subscription.Subscription
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		var err error
		sub, err = uc.subscriptionRepo.GetByIDForUpdate(txCtx, cmd.SubscriptionID)
		if err != nil {
			return fmt.Errorf("failed to lock subscription: %w", err)
		}
		if sub == nil {
			return errors.NewNotFoundError("Subscription not found")
		}

		taken, err := uc.subscriptionRepo.ExistsByStripeSubscriptionID(txCtx, cmd.ExternalSubscriptionID, sub.ID())
		if err != nil {
			return fmt.Errorf("failed to check external subscription ID: %w", err)
		}
		if taken {
			return domainError(subscription.ErrExternalIDTaken)
		}

		if err := sub.LinkBilling(cmd.ExternalSubscriptionID, cmd.ExternalCustomerID, uc.now()); err != nil {
			return domainError(err)
		}
		if err := uc.subscriptionRepo.Update(txCtx, sub); err != nil {
			if errors.IsDuplicateError(err) {
				return domainError(subscription.ErrExternalIDTaken)
			}
			return fmt.Errorf("failed to update subscription: %w", err)
		}
		return nil
	})
	if err != nil {
		uc.logger.Warnw("failed to link billing",
			"subscription_id", cmd.SubscriptionID,
			"external_subscription_id", cmd.ExternalSubscriptionID,
			"error", err,
		)
		return nil, err
	}

	uc.logger.Infow("subscription linked to billing provider",
		"subscription_id", sub.ID(),
		"external_subscription_id", cmd.ExternalSubscriptionID,
	)
	return sub, nil
}
