package usecases

import (
	"context"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/billing"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/errors"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
)

// HandleBillingWebhookUseCase verifies a raw provider delivery and reconciles it.
// Verification failures come back as bad-request AppErrors; anything else is a
// processing failure the provider should retry.
type HandleBillingWebhookUseCase struct {
	verifier   EventVerifier
	reconciler *ReconcileBillingEventUseCase
	logger     logger.Interface
}

func NewHandleBillingWebhookUseCase(
	verifier EventVerifier,
	reconciler *ReconcileBillingEventUseCase,
	logger logger.Interface,
) *HandleBillingWebhookUseCase {
	return &HandleBillingWebhookUseCase{
		verifier:   verifier,
		reconciler: reconciler,
		logger:     logger,
	}
}

func (uc *HandleBillingWebhookUseCase) Execute(ctx context.Context, payload []byte, signature string) (*billing.Event, error) {
	event, err := uc.verifier.VerifyEvent(payload, signature)
	if err != nil {
		uc.logger.Warnw("rejected billing webhook", "error", err)
		if appErr := errors.GetAppError(err); appErr != nil {
			return nil, appErr
		}
		return nil, errors.NewBadRequestError("Invalid payload", err.Error())
	}

	if _, err := uc.reconciler.Execute(ctx, *event); err != nil {
		return event, err
	}
	return event, nil
}
