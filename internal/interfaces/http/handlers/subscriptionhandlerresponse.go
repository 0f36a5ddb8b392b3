package handlers

import (
	subdto "github.com/nat-prohmpiriya/llm-application-framework/internal/application/subscription/dto"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/application/subscription/usecases"
)

func toTransitionResultDTO(result *usecases.TransitionResult) *subdto.TransitionResultDTO {
	if result == nil {
		return nil
	}
	return &subdto.TransitionResultDTO{
		Subscription: subdto.ToSubscriptionDTO(result.Subscription),
		Outcome:      result.Outcome.String(),
		DriftReason:  result.DriftReason,
	}
}

// transitionMessage tells the operator when the provisioner step still needs the sweep.
func transitionMessage(applied string, result *usecases.TransitionResult) string {
	if result != nil && result.HasDrift() {
		return applied + "; entitlement sync pending"
	}
	return applied
}
