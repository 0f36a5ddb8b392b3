package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/interfaces/http/handlers"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/interfaces/http/middleware"
)

// SubscriptionRouteConfig holds dependencies for subscription routes.
type SubscriptionRouteConfig struct {
	SubscriptionHandler  *handlers.SubscriptionHandler
	AuthMiddleware       *middleware.AuthMiddleware
	PermissionMiddleware *middleware.PermissionMiddleware
}

// SetupSubscriptionRoutes configures the admin subscription ledger endpoints.
func SetupSubscriptionRoutes(engine *gin.Engine, cfg *SubscriptionRouteConfig) {
	subscriptions := engine.Group("/admin/subscriptions")
	subscriptions.Use(adminChain(cfg.AuthMiddleware, cfg.PermissionMiddleware)...)
	{
		subscriptions.GET("", cfg.SubscriptionHandler.ListSubscriptions)
		subscriptions.POST("", cfg.SubscriptionHandler.CreateSubscription)
		subscriptions.GET("/:id", cfg.SubscriptionHandler.GetSubscription)
		subscriptions.POST("/:id/upgrade", cfg.SubscriptionHandler.UpgradeSubscription)
		subscriptions.POST("/:id/downgrade", cfg.SubscriptionHandler.DowngradeSubscription)
		subscriptions.POST("/:id/cancel", cfg.SubscriptionHandler.CancelSubscription)
		subscriptions.POST("/:id/reactivate", cfg.SubscriptionHandler.ReactivateSubscription)
		subscriptions.PUT("/:id/billing-link", cfg.SubscriptionHandler.LinkBilling)
	}
}
