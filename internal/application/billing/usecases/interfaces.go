package usecases

import "github.com/nat-prohmpiriya/llm-application-framework/internal/domain/billing"

// EventVerifier authenticates a raw provider payload and normalizes it.
type EventVerifier interface {
	VerifyEvent(payload []byte, signature string) (*billing.Event, error)
}

// EventRecorder counts processed provider events by type and result.
type EventRecorder interface {
	RecordBillingEvent(eventType, result string)
}

type nopEventRecorder struct{}

func (nopEventRecorder) RecordBillingEvent(string, string) {}
