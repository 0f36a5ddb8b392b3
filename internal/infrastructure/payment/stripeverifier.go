// Package payment adapts the billing provider's webhook deliveries to domain events.
package payment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	billingUsecases "github.com/nat-prohmpiriya/llm-application-framework/internal/application/billing/usecases"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/billing"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/errors"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
)

// MaxPayloadBytes is the largest webhook body accepted.
const MaxPayloadBytes = 64 << 10

// StripeVerifier authenticates Stripe webhook payloads. With an empty secret it
// accepts unsigned JSON, which is only meant for local development.
type StripeVerifier struct {
	secret string
	logger logger.Interface
}

var _ billingUsecases.EventVerifier = (*StripeVerifier)(nil)

func NewStripeVerifier(secret string, logger logger.Interface) *StripeVerifier {
	if secret == "" {
		logger.Warnw("stripe webhook secret not set, accepting unsigned events")
	}
	return &StripeVerifier{secret: secret, logger: logger}
}

func (v *StripeVerifier) VerifyEvent(payload []byte, signature string) (*billing.Event, error) {
	if len(payload) > MaxPayloadBytes {
		return nil, errors.NewBadRequestError("Invalid payload", "payload too large")
	}

	var event stripe.Event
	if v.secret != "" {
		var err error
		event, err = webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		})
		if err != nil {
			return nil, errors.NewBadRequestError("Invalid signature", err.Error())
		}
	} else {
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, errors.NewBadRequestError("Invalid payload", err.Error())
		}
	}

	if event.Type == "" {
		return nil, errors.NewBadRequestError("Invalid payload", "event type is missing")
	}

	return normalizeEvent(event)
}

// eventObject covers the subscription and invoice fields the reconciler reads.
// Newer API versions moved period bounds to the items and the invoice's
// subscription under parent.subscription_details.
type eventObject struct {
	Object             string          `json:"object"`
	ID                 string          `json:"id"`
	Status             string          `json:"status"`
	CurrentPeriodStart int64           `json:"current_period_start"`
	CurrentPeriodEnd   int64           `json:"current_period_end"`
	Subscription       json.RawMessage `json:"subscription"`
	Items              struct {
		Data []struct {
			CurrentPeriodStart int64 `json:"current_period_start"`
			CurrentPeriodEnd   int64 `json:"current_period_end"`
		} `json:"data"`
	} `json:"items"`
	Parent struct {
		SubscriptionDetails struct {
			Subscription json.RawMessage `json:"subscription"`
		} `json:"subscription_details"`
	} `json:"parent"`
}

func normalizeEvent(event stripe.Event) (*billing.Event, error) {
	out := &billing.Event{
		ID:   event.ID,
		Type: billing.EventType(event.Type),
	}
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return out, nil
	}

	var obj eventObject
	if err := json.Unmarshal(event.Data.Raw, &obj); err != nil {
		return nil, errors.NewBadRequestError("Invalid payload", fmt.Sprintf("failed to decode event object: %v", err))
	}

	switch {
	case obj.Object == "subscription" || strings.HasPrefix(string(event.Type), "customer.subscription."):
		out.ExternalSubscriptionID = obj.ID
		out.ExternalStatus = obj.Status

		start, end := obj.CurrentPeriodStart, obj.CurrentPeriodEnd
		if start == 0 && end == 0 && len(obj.Items.Data) > 0 {
			start, end = obj.Items.Data[0].CurrentPeriodStart, obj.Items.Data[0].CurrentPeriodEnd
		}
		out.PeriodStart = unixTime(start)
		out.PeriodEnd = unixTime(end)

	case obj.Object == "invoice" || strings.HasPrefix(string(event.Type), "invoice."):
		out.ExternalSubscriptionID = referenceID(obj.Subscription)
		if out.ExternalSubscriptionID == "" {
			out.ExternalSubscriptionID = referenceID(obj.Parent.SubscriptionDetails.Subscription)
		}
	}

	return out, nil
}

// referenceID reads a reference that is either an id string or an expanded object.
func referenceID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}

	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id
	}

	var expanded struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &expanded); err == nil {
		return expanded.ID
	}
	return ""
}

func unixTime(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
