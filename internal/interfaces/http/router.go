package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/interfaces/http/middleware"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/interfaces/http/routes"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/utils"

	_ "github.com/nat-prohmpiriya/llm-application-framework/docs"
)

// Router owns the gin engine and the container behind it.
type Router struct {
	engine    *gin.Engine
	container *Container
}

func NewRouter(container *Container) *Router {
	utils.RegisterJSONFieldNames()

	engine := gin.New()
	container.engine = engine

	return &Router{
		engine:    engine,
		container: container,
	}
}

// SetupRoutes configures all HTTP routes.
func (r *Router) SetupRoutes() {
	c := r.container

	r.engine.Use(middleware.CustomLogger(c.log))
	r.engine.Use(middleware.Recovery(c.log))

	if c.cfg.Server.Mode == gin.DebugMode {
		r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.engine.GET("/health", r.health)
	r.engine.GET("/metrics", gin.WrapH(c.metrics.Handler()))

	routes.SetupPlanRoutes(r.engine, &routes.PlanRouteConfig{
		PlanHandler:          c.hdlrs.planHandler,
		AuthMiddleware:       c.authMiddleware,
		PermissionMiddleware: c.permissionMiddleware,
	})

	routes.SetupSubscriptionRoutes(r.engine, &routes.SubscriptionRouteConfig{
		SubscriptionHandler:  c.hdlrs.subscriptionHandler,
		AuthMiddleware:       c.authMiddleware,
		PermissionMiddleware: c.permissionMiddleware,
	})

	routes.SetupWebhookRoutes(r.engine, &routes.WebhookRouteConfig{
		WebhookHandler: c.hdlrs.webhookHandler,
		RateLimiter:    c.webhookRateLimiter,
	})
}

func (r *Router) health(ctx *gin.Context) {
	status := gin.H{"status": "ok", "database": "ok"}
	code := http.StatusOK

	if sqlDB, err := r.container.db.DB(); err != nil || sqlDB.PingContext(ctx.Request.Context()) != nil {
		status["status"] = "degraded"
		status["database"] = "unreachable"
		code = http.StatusServiceUnavailable
	}

	if r.container.redis != nil {
		status["redis"] = "ok"
		if err := r.container.redis.Ping(ctx.Request.Context()).Err(); err != nil {
			// plan cache falls through to the database
			status["redis"] = "unreachable"
		}
	}

	ctx.JSON(code, status)
}

// GetEngine returns the Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

// StartScheduler starts the reconciliation sweeps in the background.
func (r *Router) StartScheduler(ctx context.Context) error {
	return r.container.scheduler.Start(ctx)
}

// Shutdown stops background work owned by the router.
func (r *Router) Shutdown(ctx context.Context) {
	r.container.Shutdown(ctx)
}
