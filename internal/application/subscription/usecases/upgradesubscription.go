package usecases

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/user"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/db"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
)

type UpgradeSubscriptionCommand struct {
	SubscriptionID  string
	NewPlanID       string
	BillingInterval string
	// Prorate is logged only; proration is computed by the billing provider.
	Prorate bool
}

type UpgradeSubscriptionUseCase struct {
	planChanger
}

func NewUpgradeSubscriptionUseCase(
	txManager db.Transactor,
	subscriptionRepo subscription.SubscriptionRepository,
	planRepo subscription.PlanRepository,
	userRepo user.Repository,
	syncer *EntitlementSyncer,
	logger logger.Interface,
) *UpgradeSubscriptionUseCase {
	return &UpgradeSubscriptionUseCase{
		planChanger: newPlanChanger(txManager, subscriptionRepo, planRepo, userRepo, syncer, logger),
	}
}

func (uc *UpgradeSubscriptionUseCase) Execute(ctx context.Context, cmd UpgradeSubscriptionCommand) (result *TransitionResult, err error) {
	ctx, span := startSpan(ctx, "ledger.upgrade",
		attribute.String("subscription.id", cmd.SubscriptionID),
		attribute.String("plan.id", cmd.NewPlanID),
	)
	defer endSpan(span, &err)

	if cmd.Prorate {
		uc.logger.Debugw("prorate requested for upgrade", "subscription_id", cmd.SubscriptionID)
	}
	return uc.change(ctx, directionUpgrade, cmd.SubscriptionID, cmd.NewPlanID, cmd.BillingInterval)
}
