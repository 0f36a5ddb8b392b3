package usecases

import "github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription"

// SyncOutcome tells the caller whether the provisioning system is known to match
// the committed ledger state.
type SyncOutcome string

const (
	OutcomeApplied   SyncOutcome = "applied"
	OutcomeDriftRisk SyncOutcome = "drift_risk"
)

func (o SyncOutcome) String() string {
	return string(o)
}

// TransitionResult is returned by every ledger transition. The subscription is
// always the committed state; a drift_risk outcome only means the provisioner
// step failed afterwards and the reconciliation sweep will repair it.
type TransitionResult struct {
	Subscription *subscription.Subscription
	Outcome      SyncOutcome
	DriftReason  string
}

func (r *TransitionResult) HasDrift() bool {
	return r.Outcome == OutcomeDriftRisk
}
