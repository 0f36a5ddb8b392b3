package http

import (
	"github.com/nat-prohmpiriya/llm-application-framework/internal/interfaces/http/handlers"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/interfaces/http/middleware"
)

// allHandlers holds all HTTP handler instances.
type allHandlers struct {
	planHandler         *handlers.PlanHandler
	subscriptionHandler *handlers.SubscriptionHandler
	webhookHandler      *handlers.WebhookHandler
}

func (c *Container) initHandlers() {
	u := c.ucs
	log := c.log

	c.hdlrs = &allHandlers{
		planHandler: handlers.NewPlanHandler(
			u.createPlan, u.updatePlan, u.getPlan, u.listPlans, u.getPublicPlans, u.deletePlan, log,
		),
		subscriptionHandler: handlers.NewSubscriptionHandler(handlers.SubscriptionUseCases{
			List:        u.listSubscriptions,
			Get:         u.getSubscription,
			Create:      u.createSubscription,
			Upgrade:     u.upgradeSubscription,
			Downgrade:   u.downgradeSubscription,
			Cancel:      u.cancelSubscription,
			Reactivate:  u.reactivateSubscription,
			LinkBilling: u.linkBilling,
		}, log),
		webhookHandler: handlers.NewWebhookHandler(u.handleBillingWebhook, log),
	}

	c.authMiddleware = middleware.NewAuthMiddleware(c.jwtSvc, log)
	c.permissionMiddleware = middleware.NewPermissionMiddleware(c.enforcer, log)
	if c.rateLimiter != nil {
		c.webhookRateLimiter = middleware.NewRateLimiter(c.rateLimiter, "webhook", c.cfg.RateLimit.WebhookPerMinute, log)
	}
}
