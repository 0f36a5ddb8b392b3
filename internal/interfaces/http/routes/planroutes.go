package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/interfaces/http/handlers"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/interfaces/http/middleware"
)

// PlanRouteConfig holds dependencies for plan routes.
type PlanRouteConfig struct {
	PlanHandler          *handlers.PlanHandler
	AuthMiddleware       *middleware.AuthMiddleware
	PermissionMiddleware *middleware.PermissionMiddleware
}

// SetupPlanRoutes configures the public catalog and the admin plan endpoints.
func SetupPlanRoutes(engine *gin.Engine, cfg *PlanRouteConfig) {
	engine.GET("/plans", cfg.PlanHandler.GetPublicPlans)

	plansAdmin := engine.Group("/admin/plans")
	plansAdmin.Use(adminChain(cfg.AuthMiddleware, cfg.PermissionMiddleware)...)
	{
		plansAdmin.POST("", cfg.PlanHandler.CreatePlan)
		plansAdmin.GET("", cfg.PlanHandler.ListPlans)
		plansAdmin.GET("/:id", cfg.PlanHandler.GetPlan)
		plansAdmin.PATCH("/:id", cfg.PlanHandler.UpdatePlan)
		plansAdmin.DELETE("/:id", cfg.PlanHandler.DeletePlan)
	}
}

func adminChain(authMW *middleware.AuthMiddleware, permMW *middleware.PermissionMiddleware) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		authMW.RequireAuth(),
		authMW.RequireAdmin(),
		permMW.RequirePermission(),
	}
}
