package http

import (
	billingUsecases "github.com/nat-prohmpiriya/llm-application-framework/internal/application/billing/usecases"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/application/subscription/usecases"
)

// allUseCases holds every use case wired by the container.
type allUseCases struct {
	syncer *usecases.EntitlementSyncer

	createPlan     *usecases.CreatePlanUseCase
	updatePlan     *usecases.UpdatePlanUseCase
	deletePlan     *usecases.DeletePlanUseCase
	getPlan        *usecases.GetPlanUseCase
	listPlans      *usecases.ListPlansUseCase
	getPublicPlans *usecases.GetPublicPlansUseCase

	createSubscription     *usecases.CreateSubscriptionUseCase
	upgradeSubscription    *usecases.UpgradeSubscriptionUseCase
	downgradeSubscription  *usecases.DowngradeSubscriptionUseCase
	cancelSubscription     *usecases.CancelSubscriptionUseCase
	reactivateSubscription *usecases.ReactivateSubscriptionUseCase
	linkBilling            *usecases.LinkBillingUseCase
	getSubscription        *usecases.GetSubscriptionUseCase
	listSubscriptions      *usecases.ListSubscriptionsUseCase

	expireScheduledCancellations *usecases.ExpireScheduledCancellationsUseCase
	reconcileEntitlements        *usecases.ReconcileEntitlementsUseCase

	reconcileBillingEvent *billingUsecases.ReconcileBillingEventUseCase
	handleBillingWebhook  *billingUsecases.HandleBillingWebhookUseCase
}

func (c *Container) initUseCases() {
	r := c.repos
	log := c.log
	batchSize := c.cfg.Scheduler.BatchSize

	syncer := usecases.NewEntitlementSyncer(
		c.provisioner, r.subscriptionRepo, c.txManager, c.metrics, c.cfg.Provisioner.Timeout, log.Named("entitlements"),
	)

	reconcileBillingEvent := billingUsecases.NewReconcileBillingEventUseCase(
		c.txManager, r.subscriptionRepo, r.planRepo, r.userRepo, syncer,
		c.cfg.Billing.UnknownStatusPolicy, c.metrics, log.Named("billing"),
	)

	c.ucs = &allUseCases{
		syncer: syncer,

		createPlan:     usecases.NewCreatePlanUseCase(r.planRepo, log),
		updatePlan:     usecases.NewUpdatePlanUseCase(r.planRepo, c.planReader, log),
		deletePlan:     usecases.NewDeletePlanUseCase(c.txManager, r.planRepo, r.subscriptionRepo, c.planReader, log),
		getPlan:        usecases.NewGetPlanUseCase(c.planReader, r.subscriptionRepo, log),
		listPlans:      usecases.NewListPlansUseCase(r.planRepo, log),
		getPublicPlans: usecases.NewGetPublicPlansUseCase(c.planReader, c.markdown, log),

		createSubscription:     usecases.NewCreateSubscriptionUseCase(c.txManager, r.subscriptionRepo, r.planRepo, r.userRepo, syncer, log),
		upgradeSubscription:    usecases.NewUpgradeSubscriptionUseCase(c.txManager, r.subscriptionRepo, r.planRepo, r.userRepo, syncer, log),
		downgradeSubscription:  usecases.NewDowngradeSubscriptionUseCase(c.txManager, r.subscriptionRepo, r.planRepo, r.userRepo, syncer, log),
		cancelSubscription:     usecases.NewCancelSubscriptionUseCase(c.txManager, r.subscriptionRepo, r.userRepo, syncer, c.markdown, log),
		reactivateSubscription: usecases.NewReactivateSubscriptionUseCase(c.txManager, r.subscriptionRepo, r.planRepo, r.userRepo, syncer, log),
		linkBilling:            usecases.NewLinkBillingUseCase(c.txManager, r.subscriptionRepo, log),
		getSubscription:        usecases.NewGetSubscriptionUseCase(r.subscriptionRepo, c.planReader, r.userRepo, log),
		listSubscriptions:      usecases.NewListSubscriptionsUseCase(r.subscriptionRepo, log),

		expireScheduledCancellations: usecases.NewExpireScheduledCancellationsUseCase(c.txManager, r.subscriptionRepo, r.userRepo, syncer, batchSize, log.Named("sweep")),
		reconcileEntitlements:        usecases.NewReconcileEntitlementsUseCase(r.subscriptionRepo, r.planRepo, r.userRepo, syncer, batchSize, log.Named("sweep")),

		reconcileBillingEvent: reconcileBillingEvent,
		handleBillingWebhook:  billingUsecases.NewHandleBillingWebhookUseCase(c.stripeVerifier, reconcileBillingEvent, log.Named("billing")),
	}
}
