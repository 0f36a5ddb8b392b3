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

const defaultProvisionerTimeout = 30 * time.Second

// EntitlementSyncer runs the provisioner step that follows a committed ledger
// transition. It never returns an error: every failure is logged and turned
// into a drift reason for the caller's TransitionResult.
type EntitlementSyncer struct {
	provisioner      subscription.EntitlementProvisioner
	subscriptionRepo subscription.SubscriptionRepository
	txManager        db.Transactor
	recorder         TransitionRecorder
	timeout          time.Duration
	logger           logger.Interface
	now              func() time.Time
}

func NewEntitlementSyncer(
	provisioner subscription.EntitlementProvisioner,
	subscriptionRepo subscription.SubscriptionRepository,
	txManager db.Transactor,
	recorder TransitionRecorder,
	timeout time.Duration,
	logger logger.Interface,
) *EntitlementSyncer {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if timeout <= 0 {
		timeout = defaultProvisionerTimeout
	}
	return &EntitlementSyncer{
		provisioner:      provisioner,
		subscriptionRepo: subscriptionRepo,
		txManager:        txManager,
		recorder:         recorder,
		timeout:          timeout,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// callContext detaches the provisioner call from request cancellation: once
// the transaction has committed the call must run to completion or time out.
func (s *EntitlementSyncer) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
}

// Align makes the credential enforce plan's limits, issuing one when sub has none.
func (s *EntitlementSyncer) Align(ctx context.Context, sub *subscription.Subscription, owner *user.User, plan *subscription.Plan) string {
	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	spec := subscription.NewCredentialSpec(owner.ID(), owner.Email(), plan)

	if sub.CredentialID() != "" {
		if err := s.provisioner.Update(callCtx, sub.CredentialID(), spec); err != nil {
			s.logger.Warnw("failed to update credential",
				"subscription_id", sub.ID(),
				"plan_id", plan.ID(),
				"error", err,
			)
			return fmt.Sprintf("credential update failed: %v", err)
		}
		return ""
	}

	credentialID, err := s.provisioner.Create(callCtx, spec)
	if err != nil {
		s.logger.Warnw("failed to issue credential",
			"subscription_id", sub.ID(),
			"user_id", owner.ID(),
			"error", err,
		)
		return fmt.Sprintf("credential issue failed: %v", err)
	}
	if credentialID == "" {
		// provisioning disabled
		return ""
	}

	recorded, entitled, err := s.recordIssuedCredential(callCtx, sub.ID(), credentialID)
	if err != nil {
		s.logger.Errorw("credential issued but not recorded",
			"subscription_id", sub.ID(),
			"error", err,
		)
		return fmt.Sprintf("credential issued but not recorded: %v", err)
	}
	if recorded {
		sub.SetCredentialID(credentialID, s.now())
	}
	if recorded && entitled {
		return ""
	}

	// The subscription changed while the credential was being issued.
	s.logger.Warnw("issued credential is not needed, disabling",
		"subscription_id", sub.ID(),
		"recorded", recorded,
		"entitled", entitled,
	)
	if err := s.provisioner.Disable(callCtx, credentialID); err != nil {
		s.logger.Warnw("failed to disable unneeded credential",
			"subscription_id", sub.ID(),
			"error", err,
		)
		return fmt.Sprintf("unneeded credential could not be disabled: %v", err)
	}
	return ""
}

// Revoke disables the subscription's credential. Subscriptions without one are left alone.
func (s *EntitlementSyncer) Revoke(ctx context.Context, sub *subscription.Subscription) string {
	if sub.CredentialID() == "" {
		return ""
	}

	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	if err := s.provisioner.Disable(callCtx, sub.CredentialID()); err != nil {
		s.logger.Warnw("failed to disable credential",
			"subscription_id", sub.ID(),
			"error", err,
		)
		return fmt.Sprintf("credential disable failed: %v", err)
	}
	return ""
}

// Inspect fetches the credential's current limits. A nil info with a nil error
// means provisioning is disabled.
func (s *EntitlementSyncer) Inspect(ctx context.Context, sub *subscription.Subscription) (*subscription.CredentialInfo, error) {
	callCtx, cancel := s.callContext(ctx)
	defer cancel()
	return s.provisioner.Info(callCtx, sub.CredentialID())
}

// ForgetCredential clears a credential id the provisioning system no longer knows.
func (s *EntitlementSyncer) ForgetCredential(ctx context.Context, sub *subscription.Subscription) error {
	if err := s.persistCredentialID(ctx, sub.ID(), ""); err != nil {
		return err
	}
	sub.SetCredentialID("", s.now())
	return nil
}

// Finish records the transition and builds its result.
func (s *EntitlementSyncer) Finish(operation string, sub *subscription.Subscription, driftReason string) *TransitionResult {
	result := &TransitionResult{
		Subscription: sub,
		Outcome:      OutcomeApplied,
	}
	if driftReason != "" {
		result.Outcome = OutcomeDriftRisk
		result.DriftReason = driftReason
		s.logger.Warnw("subscription committed with entitlement drift",
			"operation", operation,
			"subscription_id", sub.ID(),
			"reason", driftReason,
		)
	}
	s.recorder.RecordTransition(operation, result.Outcome.String())
	return result
}

// recordIssuedCredential stores a freshly issued credential id under the subscription lock.
// A row that already holds another credential is left alone (recorded is false). entitled
// reports the locked row's state, which may differ from the caller's unlocked copy.
func (s *EntitlementSyncer) recordIssuedCredential(ctx context.Context, subscriptionID, credentialID string) (recorded, entitled bool, err error) {
	err = s.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		sub, err := s.subscriptionRepo.GetByIDForUpdate(txCtx, subscriptionID)
		if err != nil {
			return fmt.Errorf("failed to lock subscription: %w", err)
		}
		if sub == nil {
			return subscription.ErrSubscriptionNotFound
		}
		entitled = sub.IsEntitled()
		if current := sub.CredentialID(); current != "" && current != credentialID {
			return nil
		}
		sub.SetCredentialID(credentialID, s.now())
		if err := s.subscriptionRepo.Update(txCtx, sub); err != nil {
			return fmt.Errorf("failed to update subscription: %w", err)
		}
		recorded = true
		return nil
	})
	return recorded, entitled, err
}

func (s *EntitlementSyncer) persistCredentialID(ctx context.Context, subscriptionID, credentialID string) error {
	return s.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		sub, err := s.subscriptionRepo.GetByIDForUpdate(txCtx, subscriptionID)
		if err != nil {
			return fmt.Errorf("failed to lock subscription: %w", err)
		}
		if sub == nil {
			return subscription.ErrSubscriptionNotFound
		}
		sub.SetCredentialID(credentialID, s.now())
		if err := s.subscriptionRepo.Update(txCtx, sub); err != nil {
			return fmt.Errorf("failed to update subscription: %w", err)
		}
		return nil
	})
}
