package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/application/subscription/dto"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/application/subscription/usecases"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/errors"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/utils"
)

// SubscriptionHandler serves the administrator ledger API.
type SubscriptionHandler struct {
	ucs    SubscriptionUseCases
	logger logger.Interface
}

func NewSubscriptionHandler(ucs SubscriptionUseCases, logger logger.Interface) *SubscriptionHandler {
	return &SubscriptionHandler{
		ucs:    ucs,
		logger: logger,
	}
}

type CreateSubscriptionRequest struct {
	UserID          string `json:"user_id" binding:"required"`
	PlanID          string `json:"plan_id" binding:"required"`
	BillingInterval string `json:"billing_interval" binding:"omitempty,oneof=monthly yearly"`
	TrialDays       int    `json:"trial_days" binding:"min=0,max=90"`
}

type ChangePlanRequest struct {
	NewPlanID       string `json:"new_plan_id" binding:"required"`
	BillingInterval string `json:"billing_interval" binding:"omitempty,oneof=monthly yearly"`
	Prorate         bool   `json:"prorate"`
}

type DowngradeRequest struct {
	NewPlanID            string `json:"new_plan_id" binding:"required"`
	BillingInterval      string `json:"billing_interval" binding:"omitempty,oneof=monthly yearly"`
	EffectiveAtPeriodEnd bool   `json:"effective_at_period_end"`
}

type CancelSubscriptionRequest struct {
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
	Reason            string `json:"reason" binding:"max=500"`
}

type LinkBillingRequest struct {
	ExternalSubscriptionID string `json:"stripe_subscription_id" binding:"required"`
	ExternalCustomerID     string `json:"stripe_customer_id"`
}

// ListSubscriptions lists subscriptions with optional filters
// @Summary List subscriptions
// @Tags Admin Subscriptions
// @Produce json
// @Param status query string false "Status filter"
// @Param plan_id query string false "Plan ID"
// @Param user_id query string false "User ID"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} utils.APIResponse{data=utils.ListResponse}
// @Failure 400 {object} utils.APIResponse
// @Router /admin/subscriptions [get]
func (h *SubscriptionHandler) ListSubscriptions(c *gin.Context) {
	pagination := utils.ParsePagination(c)
	query := usecases.ListSubscriptionsQuery{
		UserID:   c.Query("user_id"),
		PlanID:   c.Query("plan_id"),
		Status:   c.Query("status"),
		Page:     pagination.Page,
		PageSize: pagination.PageSize,
	}

	result, err := h.ucs.List.Execute(c.Request.Context(), query)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.ListSuccessResponse(c, result.Subscriptions, result.Total, result.Page, result.PageSize)
}

func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	subscriptionID, err := parseSubscriptionID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.ucs.Get.Execute(c.Request.Context(), usecases.GetSubscriptionQuery{SubscriptionID: subscriptionID})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

func (h *SubscriptionHandler) CreateSubscription(c *gin.Context) {
	var req CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for create subscription", "error", err)
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	result, err := h.ucs.Create.Execute(c.Request.Context(), usecases.CreateSubscriptionCommand{
		UserID:          req.UserID,
		PlanID:          req.PlanID,
		BillingInterval: req.BillingInterval,
		TrialDays:       req.TrialDays,
	})
	if err != nil {
		h.logger.Warnw("failed to create subscription", "error", err, "user_id", req.UserID)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, toTransitionResultDTO(result), transitionMessage("Subscription created", result))
}

func (h *SubscriptionHandler) UpgradeSubscription(c *gin.Context) {
	subscriptionID, err := parseSubscriptionID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req ChangePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	result, err := h.ucs.Upgrade.Execute(c.Request.Context(), usecases.UpgradeSubscriptionCommand{
		SubscriptionID:  subscriptionID,
		NewPlanID:       req.NewPlanID,
		BillingInterval: req.BillingInterval,
		Prorate:         req.Prorate,
	})
	h.respondTransition(c, "Subscription upgraded", result, err)
}

func (h *SubscriptionHandler) DowngradeSubscription(c *gin.Context) {
	subscriptionID, err := parseSubscriptionID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req DowngradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	result, err := h.ucs.Downgrade.Execute(c.Request.Context(), usecases.DowngradeSubscriptionCommand{
		SubscriptionID:       subscriptionID,
		NewPlanID:            req.NewPlanID,
		BillingInterval:      req.BillingInterval,
		EffectiveAtPeriodEnd: req.EffectiveAtPeriodEnd,
	})
	h.respondTransition(c, "Subscription downgraded", result, err)
}

func (h *SubscriptionHandler) CancelSubscription(c *gin.Context) {
	subscriptionID, err := parseSubscriptionID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req CancelSubscriptionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.ErrorResponseWithError(c, utils.BindingError(err))
			return
		}
	}

	result, err := h.ucs.Cancel.Execute(c.Request.Context(), usecases.CancelSubscriptionCommand{
		SubscriptionID:    subscriptionID,
		CancelAtPeriodEnd: req.CancelAtPeriodEnd,
		Reason:            req.Reason,
	})
	message := "Subscription canceled"
	if req.CancelAtPeriodEnd {
		message = "Subscription scheduled for cancellation"
	}
	h.respondTransition(c, message, result, err)
}

func (h *SubscriptionHandler) ReactivateSubscription(c *gin.Context) {
	subscriptionID, err := parseSubscriptionID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.ucs.Reactivate.Execute(c.Request.Context(), usecases.ReactivateSubscriptionCommand{
		SubscriptionID: subscriptionID,
	})
	h.respondTransition(c, "Subscription reactivated", result, err)
}

func (h *SubscriptionHandler) LinkBilling(c *gin.Context) {
	subscriptionID, err := parseSubscriptionID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req LinkBillingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	sub, err := h.ucs.LinkBilling.Execute(c.Request.Context(), usecases.LinkBillingCommand{
		SubscriptionID:         subscriptionID,
		ExternalSubscriptionID: req.ExternalSubscriptionID,
		ExternalCustomerID:     req.ExternalCustomerID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Billing linked", dto.ToSubscriptionDTO(sub))
}

func (h *SubscriptionHandler) respondTransition(c *gin.Context, message string, result *usecases.TransitionResult, err error) {
	if err != nil {
		h.logger.Warnw("subscription transition failed",
			"path", c.FullPath(),
			"subscription_id", c.Param("id"),
			"error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, transitionMessage(message, result), toTransitionResultDTO(result))
}

func parseSubscriptionID(c *gin.Context) (string, error) {
	subscriptionID := strings.TrimSpace(c.Param("id"))
	if subscriptionID == "" {
		return "", errors.NewValidationError("Subscription ID is required")
	}
	return subscriptionID, nil
}
