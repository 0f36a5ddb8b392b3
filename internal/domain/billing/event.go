// Package billing describes events reported by the external billing provider.
package billing

import "time"

type EventType string

const (
	EventSubscriptionCreated  EventType = "customer.subscription.created"
	EventSubscriptionUpdated  EventType = "customer.subscription.updated"
	EventSubscriptionDeleted  EventType = "customer.subscription.deleted"
	EventInvoicePaid          EventType = "invoice.paid"
	EventInvoicePaymentFailed EventType = "invoice.payment_failed"
)

func (t EventType) String() string {
	return string(t)
}

// IsHandled reports whether the reconciler acts on this event type.
func (t EventType) IsHandled() bool {
	switch t {
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted,
		EventInvoicePaid, EventInvoicePaymentFailed:
		return true
	}
	return false
}

// Event is a verified provider event normalized to the fields the reconciler reads.
// ExternalStatus and the period bounds are only set for subscription objects.
type Event struct {
	ID                     string
	Type                   EventType
	ExternalSubscriptionID string
	ExternalStatus         string
	PeriodStart            *time.Time
	PeriodEnd              *time.Time
}
