package usecases

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	subscriptionUsecases "github.com/nat-prohmpiriya/llm-application-framework/internal/application/subscription/usecases"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/billing"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription"
	vo "github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription/valueobjects"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/user"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/config"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/db"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
)

var tracer = otel.Tracer("llmapp/billing")

// ReconcileOutcome describes what an event did to the ledger.
type ReconcileOutcome string

const (
	ReconcileApplied   ReconcileOutcome = "applied"
	ReconcileUnchanged ReconcileOutcome = "unchanged"
	ReconcileIgnored   ReconcileOutcome = "ignored"
	ReconcileSkipped   ReconcileOutcome = "skipped"
)

type ReconcileResult struct {
	Outcome        ReconcileOutcome
	SubscriptionID string
	// Transition is set when the event changed the subscription.
	Transition *subscriptionUsecases.TransitionResult
}

// ReconcileBillingEventUseCase applies a verified provider event to the ledger.
// Events for unknown types or unknown external ids are no-ops, and replaying an
// event that was already applied changes nothing.
type ReconcileBillingEventUseCase struct {
	txManager           db.Transactor
	subscriptionRepo    subscription.SubscriptionRepository
	planRepo            subscription.PlanRepository
	userRepo            user.Repository
	syncer              *subscriptionUsecases.EntitlementSyncer
	unknownStatusPolicy string
	recorder            EventRecorder
	logger              logger.Interface
	now                 func() time.Time
}

func NewReconcileBillingEventUseCase(
	txManager db.Transactor,
	subscriptionRepo subscription.SubscriptionRepository,
	planRepo subscription.PlanRepository,
	userRepo user.Repository,
	syncer *subscriptionUsecases.EntitlementSyncer,
	unknownStatusPolicy string,
	recorder EventRecorder,
	logger logger.Interface,
) *ReconcileBillingEventUseCase {
	if unknownStatusPolicy == "" {
		unknownStatusPolicy = config.UnknownStatusPolicyActive
	}
	if recorder == nil {
		recorder = nopEventRecorder{}
	}
	return &ReconcileBillingEventUseCase{
		txManager:           txManager,
		subscriptionRepo:    subscriptionRepo,
		planRepo:            planRepo,
		userRepo:            userRepo,
		syncer:              syncer,
		unknownStatusPolicy: unknownStatusPolicy,
		recorder:            recorder,
		logger:              logger,
		now:                 func() time.Time { return time.Now().UTC() },
	}
}

// change is the ledger mutation an event asks for. A zero status leaves the status alone.
type change struct {
	status      vo.SubscriptionStatus
	periodStart *time.Time
	periodEnd   *time.Time
}

func (uc *ReconcileBillingEventUseCase) Execute(ctx context.Context, event billing.Event) (result *ReconcileResult, err error) {
	ctx, span := tracer.Start(ctx, "billing.reconcile",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("billing.event.id", event.ID),
			attribute.String("billing.event.type", event.Type.String()),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			uc.recorder.RecordBillingEvent(event.Type.String(), "error")
		} else {
			uc.recorder.RecordBillingEvent(event.Type.String(), string(result.Outcome))
		}
		span.End()
	}()

	want, handled := uc.changeFor(event)
	if !handled {
		return &ReconcileResult{Outcome: ReconcileIgnored}, nil
	}
	if event.ExternalSubscriptionID == "" {
		uc.logger.Infow("billing event without subscription reference ignored",
			"event_id", event.ID,
			"event_type", event.Type,
		)
		return &ReconcileResult{Outcome: ReconcileIgnored}, nil
	}

	existing, err := uc.subscriptionRepo.GetByStripeSubscriptionID(ctx, event.ExternalSubscriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription by external id: %w", err)
	}
	if existing == nil {
		uc.logger.Infow("billing event for unknown subscription ignored",
			"event_id", event.ID,
			"event_type", event.Type,
			"external_subscription_id", event.ExternalSubscriptionID,
		)
		return &ReconcileResult{Outcome: ReconcileIgnored}, nil
	}

	return uc.apply(ctx, event, existing.ID(), want)
}

func (uc *ReconcileBillingEventUseCase) changeFor(event billing.Event) (change, bool) {
	switch event.Type {
	case billing.EventSubscriptionCreated:
		uc.logger.Infow("billing subscription created",
			"event_id", event.ID,
			"external_subscription_id", event.ExternalSubscriptionID,
		)
		return change{}, false
	case billing.EventSubscriptionUpdated:
		return change{
			status:      uc.mapStatus(event),
			periodStart: event.PeriodStart,
			periodEnd:   event.PeriodEnd,
		}, true
	case billing.EventSubscriptionDeleted:
		return change{status: vo.StatusCanceled}, true
	case billing.EventInvoicePaid:
		return change{status: vo.StatusActive}, true
	case billing.EventInvoicePaymentFailed:
		return change{status: vo.StatusPastDue}, true
	default:
		uc.logger.Debugw("unhandled billing event type", "event_id", event.ID, "event_type", event.Type)
		return change{}, false
	}
}

func (uc *ReconcileBillingEventUseCase) mapStatus(event billing.Event) vo.SubscriptionStatus {
	if event.ExternalStatus == "" {
		return ""
	}
	if status, ok := billing.MapExternalStatus(event.ExternalStatus); ok {
		return status
	}

	if uc.unknownStatusPolicy == config.UnknownStatusPolicyIgnore {
		uc.logger.Warnw("unknown billing status ignored",
			"event_id", event.ID,
			"external_status", event.ExternalStatus,
		)
		return ""
	}
	uc.logger.Warnw("unknown billing status mapped to active",
		"event_id", event.ID,
		"external_status", event.ExternalStatus,
	)
	return vo.StatusActive
}

func (uc *ReconcileBillingEventUseCase) apply(ctx context.Context, event billing.Event, subscriptionID string, want change) (*ReconcileResult, error) {
	var (
		sub             *subscription.Subscription
		owner           *user.User
		plan            *subscription.Plan
		outcome         = ReconcileUnchanged
		enteredCanceled bool
		restored        bool
	)
	now := uc.now()

	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		var err error
		sub, owner, err = uc.lock(txCtx, subscriptionID)
		if err != nil {
			return err
		}

		previous := sub.Status()
		if want.status != "" && want.status.IsEntitled() && !previous.IsEntitled() {
			other, err := uc.subscriptionRepo.GetEntitledByUserID(txCtx, owner.ID())
			if err != nil {
				return fmt.Errorf("failed to check entitled subscription: %w", err)
			}
			if other != nil && other.ID() != sub.ID() {
				uc.logger.Warnw("billing event would give user a second active subscription, skipped",
					"event_id", event.ID,
					"subscription_id", sub.ID(),
					"active_subscription_id", other.ID(),
					"target_status", want.status,
				)
				outcome = ReconcileSkipped
				return nil
			}
		}

		statusChanged := false
		if want.status != "" {
			statusChanged, enteredCanceled, err = sub.ApplyBillingStatus(want.status, now)
			if err != nil {
				return err
			}
		}
		periodChanged, err := sub.ApplyBillingPeriod(want.periodStart, want.periodEnd, now)
		if err != nil {
			return err
		}
		if !statusChanged && !periodChanged {
			return nil
		}

		if err := uc.subscriptionRepo.Update(txCtx, sub); err != nil {
			return fmt.Errorf("failed to update subscription: %w", err)
		}
		outcome = ReconcileApplied

		if statusChanged {
			if err := uc.recomputeTier(txCtx, owner, now); err != nil {
				return err
			}
			restored = sub.IsEntitled() && (previous == vo.StatusCanceled || previous == vo.StatusExpired)
			if restored {
				plan, err = uc.planRepo.GetByID(txCtx, sub.PlanID())
				if err != nil {
					return fmt.Errorf("failed to get plan: %w", err)
				}
				restored = plan != nil
			}
		}
		return nil
	})
	if err != nil {
		uc.logger.Errorw("failed to apply billing event",
			"event_id", event.ID,
			"event_type", event.Type,
			"subscription_id", subscriptionID,
			"error", err,
		)
		return nil, err
	}

	result := &ReconcileResult{Outcome: outcome, SubscriptionID: subscriptionID}
	if outcome != ReconcileApplied {
		return result, nil
	}

	uc.logger.Infow("billing event applied",
		"event_id", event.ID,
		"event_type", event.Type,
		"subscription_id", sub.ID(),
		"status", sub.Status(),
	)

	drift := ""
	switch {
	case enteredCanceled:
		drift = uc.syncer.Revoke(ctx, sub)
	case restored:
		drift = uc.syncer.Align(ctx, sub, owner, plan)
	}
	result.Transition = uc.syncer.Finish("billing_event", sub, drift)
	return result, nil
}

// lock follows the ledger's lock order: owning user row, then subscription row.
func (uc *ReconcileBillingEventUseCase) lock(ctx context.Context, subscriptionID string) (*subscription.Subscription, *user.User, error) {
	current, err := uc.subscriptionRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	if current == nil {
		return nil, nil, subscription.ErrSubscriptionNotFound
	}
	owner, err := uc.userRepo.GetByIDForUpdate(ctx, current.UserID())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lock user: %w", err)
	}
	if owner == nil {
		return nil, nil, user.ErrUserNotFound
	}
	sub, err := uc.subscriptionRepo.GetByIDForUpdate(ctx, subscriptionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lock subscription: %w", err)
	}
	if sub == nil {
		return nil, nil, subscription.ErrSubscriptionNotFound
	}
	return sub, owner, nil
}

// recomputeTier derives the owner's tier from whichever subscription is entitled after the write.
func (uc *ReconcileBillingEventUseCase) recomputeTier(ctx context.Context, owner *user.User, now time.Time) error {
	entitled, err := uc.subscriptionRepo.GetEntitledByUserID(ctx, owner.ID())
	if err != nil {
		return fmt.Errorf("failed to get entitled subscription: %w", err)
	}

	tier := vo.PlanTypeFree
	if entitled != nil {
		plan, err := uc.planRepo.GetByID(ctx, entitled.PlanID())
		if err != nil {
			return fmt.Errorf("failed to get plan: %w", err)
		}
		if plan != nil {
			tier = plan.PlanType()
		}
	}

	if owner.SetTier(tier, now) {
		if err := uc.userRepo.UpdateTier(ctx, owner.ID(), owner.Tier()); err != nil {
			return fmt.Errorf("failed to update user tier: %w", err)
		}
	}
	return nil
}
