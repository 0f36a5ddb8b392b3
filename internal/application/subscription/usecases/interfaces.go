package usecases

import "context"

// TransitionRecorder counts ledger transitions by operation and provisioner outcome.
type TransitionRecorder interface {
	RecordTransition(operation, outcome string)
}

// PlanCacheInvalidator drops cached catalog entries after a plan is written.
type PlanCacheInvalidator interface {
	Invalidate(ctx context.Context, planID string) error
}

// DescriptionRenderer turns admin-authored markdown into safe text.
type DescriptionRenderer interface {
	ToHTMLSanitized(markdown string) (string, error)
	PlainText(input string) string
}

type nopRecorder struct{}

func (nopRecorder) RecordTransition(string, string) {}

type nopInvalidator struct{}

func (nopInvalidator) Invalidate(context.Context, string) error { return nil }
