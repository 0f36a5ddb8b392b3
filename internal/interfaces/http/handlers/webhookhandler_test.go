package handlers

import (
	"bytes"
	"context"
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/billing"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/interfaces/http/handlers/testutil"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/errors"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
)

type mockWebhookUC struct {
	payload   []byte
	signature string
	event     *billing.Event
	err       error
}

func (m *mockWebhookUC) Execute(ctx context.Context, payload []byte, signature string) (*billing.Event, error) {
	m.payload = payload
	m.signature = signature
	return m.event, m.err
}

func TestWebhookHandler_Processed(t *testing.T) {
	uc := &mockWebhookUC{event: &billing.Event{ID: "evt_1", Type: billing.EventSubscriptionUpdated}}
	handler := NewWebhookHandler(uc, logger.NewNopLogger())

	c, w := testutil.NewRawTestContext(http.MethodPost, "/webhooks/stripe", []byte(`{"id":"evt_1"}`))
	c.Request.Header.Set("Stripe-Signature", "t=1,v1=abc")

	handler.HandleStripeWebhook(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "t=1,v1=abc", uc.signature)
	assert.Equal(t, `{"id":"evt_1"}`, string(uc.payload))

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Processed customer.subscription.updated", resp.Message)
}

func TestWebhookHandler_InvalidSignature(t *testing.T) {
	uc := &mockWebhookUC{err: errors.NewBadRequestError("Invalid signature")}
	handler := NewWebhookHandler(uc, logger.NewNopLogger())

	c, w := testutil.NewRawTestContext(http.MethodPost, "/webhooks/stripe", []byte(`{}`))

	handler.HandleStripeWebhook(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	assert.Equal(t, "Invalid signature", resp.Error.Message)
}

func TestWebhookHandler_ProcessingFailure(t *testing.T) {
	uc := &mockWebhookUC{
		event: &billing.Event{ID: "evt_2", Type: billing.EventInvoicePaid},
		err:   stderrors.New("deadlock"),
	}
	handler := NewWebhookHandler(uc, logger.NewNopLogger())

	c, w := testutil.NewRawTestContext(http.MethodPost, "/webhooks/stripe", []byte(`{}`))

	handler.HandleStripeWebhook(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "deadlock")
}

func TestWebhookHandler_BodyIsCapped(t *testing.T) {
	uc := &mockWebhookUC{err: errors.NewBadRequestError("Invalid payload")}
	handler := NewWebhookHandler(uc, logger.NewNopLogger())

	big := bytes.Repeat([]byte("a"), MaxWebhookBodyBytes*2)
	c, w := testutil.NewRawTestContext(http.MethodPost, "/webhooks/stripe", big)

	handler.HandleStripeWebhook(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, uc.payload, MaxWebhookBodyBytes+1)
}
