package http

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/infrastructure/auth"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/infrastructure/cache"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/infrastructure/config"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/infrastructure/litellm"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/infrastructure/metrics"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/infrastructure/payment"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/infrastructure/permission"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/infrastructure/ratelimit"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/infrastructure/scheduler"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/interfaces/http/middleware"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/db"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/services/markdown"
)

// Container holds infrastructure components, repositories, use cases, handlers
// and the reconciliation scheduler, and wires them together.
type Container struct {
	db     *gorm.DB
	cfg    *config.Config
	log    logger.Interface
	// redis is nil when no redis host is configured.
	redis *redis.Client

	repos *repositories
	ucs   *allUseCases
	hdlrs *allHandlers

	authMiddleware       *middleware.AuthMiddleware
	permissionMiddleware *middleware.PermissionMiddleware
	webhookRateLimiter   *middleware.RateLimiter

	metrics        *metrics.Metrics
	txManager      *db.TransactionManager
	markdown       markdown.MarkdownService
	planReader     *cache.CachedPlanReader
	provisioner    *litellm.KeyProvisioner
	stripeVerifier *payment.StripeVerifier
	jwtSvc         *auth.JWTService
	enforcer       *permission.Enforcer
	rateLimiter    *ratelimit.RedisRateLimiter

	scheduler *scheduler.ReconciliationScheduler

	engine *gin.Engine
}

// NewContainer wires every component. redisClient may be nil.
func NewContainer(cfg *config.Config, database *gorm.DB, redisClient *redis.Client, log logger.Interface) (*Container, error) {
	c := &Container{
		db:    database,
		cfg:   cfg,
		log:   log,
		redis: redisClient,
	}

	c.initRepositories()
	if err := c.initServices(); err != nil {
		return nil, err
	}
	c.initUseCases()
	c.initHandlers()

	sched, err := scheduler.NewReconciliationScheduler(
		c.ucs.expireScheduledCancellations,
		c.ucs.reconcileEntitlements,
		cfg.Scheduler.SweepSpec,
		c.metrics,
		log.Named("scheduler"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create reconciliation scheduler: %w", err)
	}
	c.scheduler = sched

	return c, nil
}

// Scheduler returns the reconciliation scheduler. It is not started by the container.
func (c *Container) Scheduler() *scheduler.ReconciliationScheduler {
	return c.scheduler
}

// Provisioner returns the entitlement provisioner client.
func (c *Container) Provisioner() *litellm.KeyProvisioner {
	return c.provisioner
}

// Shutdown stops background work. The database and redis connections belong to the caller.
func (c *Container) Shutdown(ctx context.Context) {
	if c.scheduler != nil {
		c.scheduler.Stop()
	}
	c.log.Infow("container shut down")
}
