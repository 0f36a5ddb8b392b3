package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/interfaces/http/handlers"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/interfaces/http/middleware"
)

// WebhookRouteConfig holds dependencies for webhook routes.
type WebhookRouteConfig struct {
	WebhookHandler *handlers.WebhookHandler
	RateLimiter    *middleware.RateLimiter
}

// SetupWebhookRoutes configures billing webhooks. They authenticate by signature, not by token.
func SetupWebhookRoutes(engine *gin.Engine, cfg *WebhookRouteConfig) {
	webhooks := engine.Group("/webhooks")
	if cfg.RateLimiter != nil {
		webhooks.Use(cfg.RateLimiter.Limit())
	}
	{
		webhooks.POST("/stripe", cfg.WebhookHandler.HandleStripeWebhook)
	}
}
