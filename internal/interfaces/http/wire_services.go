package http

import (
	"fmt"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/infrastructure/auth"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/infrastructure/cache"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/infrastructure/litellm"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/infrastructure/metrics"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/infrastructure/payment"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/infrastructure/permission"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/infrastructure/ratelimit"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/db"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/services/markdown"
)

func (c *Container) initServices() error {
	c.metrics = metrics.NewMetrics()
	c.txManager = db.NewTransactionManager(c.db)
	c.markdown = markdown.NewMarkdownService()

	c.planReader = cache.NewCachedPlanReader(
		c.repos.planRepo,
		c.redis,
		c.cfg.Cache.PlanTTL,
		c.cfg.Cache.PlanLRUSize,
		c.metrics,
		c.log.Named("plancache"),
	)

	c.provisioner = litellm.NewKeyProvisioner(c.cfg.Provisioner, c.metrics, c.log.Named("provisioner"))
	if !c.provisioner.Enabled() {
		c.log.Warnw("entitlement provisioner not configured, credentials will not be issued")
	}

	c.stripeVerifier = payment.NewStripeVerifier(c.cfg.Billing.StripeWebhookSecret, c.log.Named("stripe"))
	if c.cfg.Billing.StripeWebhookSecret == "" {
		c.log.Warnw("stripe webhook secret not configured, accepting unsigned events")
	}

	c.jwtSvc = auth.NewJWTService(c.cfg.Auth.JWTSecret, c.cfg.Auth.Issuer, c.cfg.Auth.TokenTTL)

	enforcer, err := permission.NewEnforcer(c.db, c.log.Named("casbin"))
	if err != nil {
		return fmt.Errorf("failed to create permission enforcer: %w", err)
	}
	if err := permission.SeedDefaultPolicies(enforcer, c.log); err != nil {
		return fmt.Errorf("failed to seed default policies: %w", err)
	}
	c.enforcer = enforcer

	if c.redis != nil {
		c.rateLimiter = ratelimit.NewRedisRateLimiter(c.redis)
	}

	return nil
}
