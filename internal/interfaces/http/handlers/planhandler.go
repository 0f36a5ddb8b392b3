package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/application/subscription/usecases"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/errors"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/utils"
)

type PlanHandler struct {
	createPlanUC     createPlanUseCase
	updatePlanUC     updatePlanUseCase
	getPlanUC        getPlanUseCase
	listPlansUC      listPlansUseCase
	getPublicPlansUC getPublicPlansUseCase
	deletePlanUC     deletePlanUseCase
	logger           logger.Interface
}

func NewPlanHandler(
	createPlanUC createPlanUseCase,
	updatePlanUC updatePlanUseCase,
	getPlanUC getPlanUseCase,
	listPlansUC listPlansUseCase,
	getPublicPlansUC getPublicPlansUseCase,
	deletePlanUC deletePlanUseCase,
	logger logger.Interface,
) *PlanHandler {
	return &PlanHandler{
		createPlanUC:     createPlanUC,
		updatePlanUC:     updatePlanUC,
		getPlanUC:        getPlanUC,
		listPlansUC:      listPlansUC,
		getPublicPlansUC: getPublicPlansUC,
		deletePlanUC:     deletePlanUC,
		logger:           logger,
	}
}

type QuotaRequest struct {
	TokensPerMonth    int64    `json:"tokens_per_month" binding:"min=0"`
	RequestsPerMinute int      `json:"requests_per_minute" binding:"min=0"`
	RequestsPerDay    int      `json:"requests_per_day" binding:"min=0"`
	MaxDocuments      int      `json:"max_documents" binding:"min=0"`
	MaxProjects       int      `json:"max_projects" binding:"min=0"`
	MaxAgents         int      `json:"max_agents" binding:"min=0"`
	AllowedModels     []string `json:"allowed_models"`
}

func (q QuotaRequest) toInput() usecases.QuotaInput {
	return usecases.QuotaInput{
		TokensPerMonth:    q.TokensPerMonth,
		RequestsPerMinute: q.RequestsPerMinute,
		RequestsPerDay:    q.RequestsPerDay,
		MaxDocuments:      q.MaxDocuments,
		MaxProjects:       q.MaxProjects,
		MaxAgents:         q.MaxAgents,
		AllowedModels:     q.AllowedModels,
	}
}

type CreatePlanRequest struct {
	Name                 string       `json:"name" binding:"required,max=50"`
	DisplayName          string       `json:"display_name" binding:"required,max=100"`
	Description          string       `json:"description"`
	PlanType             string       `json:"plan_type" binding:"required,oneof=free pro enterprise"`
	PriceMonthly         int64        `json:"price_monthly" binding:"min=0"`
	PriceYearly          *int64       `json:"price_yearly" binding:"omitempty,min=0"`
	Currency             string       `json:"currency" binding:"omitempty,len=3"`
	Quota                QuotaRequest `json:"quota"`
	IsActive             *bool        `json:"is_active"`
	IsPublic             *bool        `json:"is_public"`
	StripePriceIDMonthly string       `json:"stripe_price_id_monthly"`
	StripePriceIDYearly  string       `json:"stripe_price_id_yearly"`
	StripeProductID      string       `json:"stripe_product_id"`
}

type UpdatePlanRequest struct {
	DisplayName          *string       `json:"display_name" binding:"omitempty,max=100"`
	Description          *string       `json:"description"`
	PlanType             *string       `json:"plan_type" binding:"omitempty,oneof=free pro enterprise"`
	PriceMonthly         *int64        `json:"price_monthly" binding:"omitempty,min=0"`
	PriceYearly          *int64        `json:"price_yearly" binding:"omitempty,min=0"`
	Currency             *string       `json:"currency" binding:"omitempty,len=3"`
	Quota                *QuotaRequest `json:"quota"`
	IsActive             *bool         `json:"is_active"`
	IsPublic             *bool         `json:"is_public"`
	StripePriceIDMonthly *string       `json:"stripe_price_id_monthly"`
	StripePriceIDYearly  *string       `json:"stripe_price_id_yearly"`
	StripeProductID      *string       `json:"stripe_product_id"`
}

// CreatePlan adds a plan to the catalog
// @Summary Create plan
// @Tags Admin Plans
// @Accept json
// @Produce json
// @Param request body CreatePlanRequest true "Plan"
// @Success 201 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Router /admin/plans [post]
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for create plan", "error", err)
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	cmd := usecases.CreatePlanCommand{
		Name:                 req.Name,
		DisplayName:          req.DisplayName,
		Description:          req.Description,
		PlanType:             req.PlanType,
		PriceMonthly:         req.PriceMonthly,
		PriceYearly:          req.PriceYearly,
		Currency:             req.Currency,
		Quota:                req.Quota.toInput(),
		IsActive:             req.IsActive,
		IsPublic:             req.IsPublic,
		StripePriceIDMonthly: req.StripePriceIDMonthly,
		StripePriceIDYearly:  req.StripePriceIDYearly,
		StripeProductID:      req.StripeProductID,
	}

	result, err := h.createPlanUC.Execute(c.Request.Context(), cmd)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, result, "Plan created successfully")
}

func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	planID, err := parsePlanID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for update plan",
			"plan_id", planID,
			"error", err)
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	cmd := usecases.UpdatePlanCommand{
		PlanID:               planID,
		DisplayName:          req.DisplayName,
		Description:          req.Description,
		PlanType:             req.PlanType,
		PriceMonthly:         req.PriceMonthly,
		PriceYearly:          req.PriceYearly,
		Currency:             req.Currency,
		IsActive:             req.IsActive,
		IsPublic:             req.IsPublic,
		StripePriceIDMonthly: req.StripePriceIDMonthly,
		StripePriceIDYearly:  req.StripePriceIDYearly,
		StripeProductID:      req.StripeProductID,
	}
	if req.Quota != nil {
		quota := req.Quota.toInput()
		cmd.Quota = &quota
	}

	result, err := h.updatePlanUC.Execute(c.Request.Context(), cmd)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Plan updated successfully", result)
}

func (h *PlanHandler) GetPlan(c *gin.Context) {
	planID, err := parsePlanID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.getPlanUC.Execute(c.Request.Context(), planID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

func (h *PlanHandler) ListPlans(c *gin.Context) {
	query := usecases.ListPlansQuery{}
	if raw := c.Query("include_inactive"); raw != "" {
		includeInactive, err := strconv.ParseBool(raw)
		if err != nil {
			utils.ErrorResponseWithError(c, errors.NewValidationError("Invalid include_inactive parameter"))
			return
		}
		query.IncludeInactive = includeInactive
	}

	result, err := h.listPlansUC.Execute(c.Request.Context(), query)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// GetPublicPlans lists the plans shown on the pricing page
// @Summary List public plans
// @Tags Plans
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /plans [get]
func (h *PlanHandler) GetPublicPlans(c *gin.Context) {
	result, err := h.getPublicPlansUC.Execute(c.Request.Context())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

func (h *PlanHandler) DeletePlan(c *gin.Context) {
	planID, err := parsePlanID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	if err := h.deletePlanUC.Execute(c.Request.Context(), planID); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Plan deleted successfully", nil)
}

func parsePlanID(c *gin.Context) (string, error) {
	planID := strings.TrimSpace(c.Param("id"))
	if planID == "" {
		return "", errors.NewValidationError("Plan ID is required")
	}
	return planID, nil
}
