package billing

import (
	vo "github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription/valueobjects"
)

// statusMapping translates provider subscription statuses to local ones.
// unpaid keeps access revocable through PAST_DUE; incomplete subscriptions
// never started and are held PAUSED until the first payment settles.
var statusMapping = map[string]vo.SubscriptionStatus{
	"active":             vo.StatusActive,
	"past_due":           vo.StatusPastDue,
	"canceled":           vo.StatusCanceled,
	"unpaid":             vo.StatusPastDue,
	"trialing":           vo.StatusTrialing,
	"paused":             vo.StatusPaused,
	"incomplete":         vo.StatusPaused,
	"incomplete_expired": vo.StatusExpired,
}

// MapExternalStatus returns the local status for a provider status and whether it was recognized.
func MapExternalStatus(external string) (vo.SubscriptionStatus, bool) {
	status, ok := statusMapping[external]
	return status, ok
}

// KnownExternalStatuses lists every provider status with an explicit mapping.
func KnownExternalStatuses() []string {
	out := make([]string, 0, len(statusMapping))
	for k := range statusMapping {
		out = append(out, k)
	}
	return out
}
