package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/billing"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/errors"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/utils"
)

const (
	stripeSignatureHeader = "Stripe-Signature"
	// MaxWebhookBodyBytes caps how much of a delivery is read.
	MaxWebhookBodyBytes = 64 << 10
)

type handleBillingWebhookUseCase interface {
	Execute(ctx context.Context, payload []byte, signature string) (*billing.Event, error)
}

type WebhookHandler struct {
	handleWebhookUC handleBillingWebhookUseCase
	logger          logger.Interface
}

func NewWebhookHandler(handleWebhookUC handleBillingWebhookUseCase, logger logger.Interface) *WebhookHandler {
	return &WebhookHandler{
		handleWebhookUC: handleWebhookUC,
		logger:          logger,
	}
}

// HandleStripeWebhook applies a billing provider event to the ledger
// @Summary Stripe webhook
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param Stripe-Signature header string false "Signature"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 500 {object} utils.APIResponse
// @Router /webhooks/stripe [post]
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	// one byte past the limit lets the verifier reject oversized deliveries
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, MaxWebhookBodyBytes+1))
	if err != nil {
		h.logger.Warnw("failed to read webhook body", "error", err)
		utils.ErrorResponseWithError(c, errors.NewBadRequestError("Invalid payload"))
		return
	}

	event, err := h.handleWebhookUC.Execute(c.Request.Context(), payload, c.GetHeader(stripeSignatureHeader))
	if err != nil {
		if event == nil {
			utils.ErrorResponseWithError(c, err)
			return
		}
		h.logger.Errorw("failed to process billing event",
			"event_id", event.ID,
			"event_type", event.Type,
			"error", err)
		utils.ErrorResponse(c, http.StatusInternalServerError, fmt.Sprintf("Failed to process %s", event.Type))
		return
	}

	utils.SuccessResponse(c, http.StatusOK, fmt.Sprintf("Processed %s", event.Type), nil)
}
