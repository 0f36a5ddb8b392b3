package usecases

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/user"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/db"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
)

type DowngradeSubscriptionCommand struct {
	SubscriptionID  string
	NewPlanID       string
	BillingInterval string
	// EffectiveAtPeriodEnd is accepted for compatibility; downgrades always apply immediately.
	EffectiveAtPeriodEnd bool
}

type DowngradeSubscriptionUseCase struct {
	planChanger
}

func NewDowngradeSubscriptionUseCase(
	txManager db.Transactor,
	subscriptionRepo subscription.SubscriptionRepository,
	planRepo subscription.PlanRepository,
	userRepo user.Repository,
	syncer *EntitlementSyncer,
	logger logger.Interface,
) *DowngradeSubscriptionUseCase {
	return &DowngradeSubscriptionUseCase{
		planChanger: newPlanChanger(txManager, subscriptionRepo, planRepo, userRepo, syncer, logger),
	}
}

func (uc *DowngradeSubscriptionUseCase) Execute(ctx context.Context, cmd DowngradeSubscriptionCommand) (result *TransitionResult, err error) {
	ctx, span := startSpan(ctx, "ledger.downgrade",
		attribute.String("subscription.id", cmd.SubscriptionID),
		attribute.String("plan.id", cmd.NewPlanID),
	)
	defer endSpan(span, &err)

	if cmd.EffectiveAtPeriodEnd {
		uc.logger.Infow("downgrade requested at period end, applying immediately",
			"subscription_id", cmd.SubscriptionID,
		)
	}
	return uc.change(ctx, directionDowngrade, cmd.SubscriptionID, cmd.NewPlanID, cmd.BillingInterval)
}
