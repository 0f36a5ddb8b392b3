package usecases

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/application/subscription/testutil"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription"
	vo "github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription/valueobjects"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/errors"
)

func newUpgradeUseCase(fx *ledgerFixture) *UpgradeSubscriptionUseCase {
	uc := NewUpgradeSubscriptionUseCase(fx.tx, fx.subs, fx.plans, fx.users, fx.syncer, fx.log)
	uc.now = fixedNow
	return uc
}

func newDowngradeUseCase(fx *ledgerFixture) *DowngradeSubscriptionUseCase {
	uc := NewDowngradeSubscriptionUseCase(fx.tx, fx.subs, fx.plans, fx.users, fx.syncer, fx.log)
	uc.now = fixedNow
	return uc
}

func TestUpgradeSubscription_Success(t *testing.T) {
	fx := newLedgerFixture(t)
	fx.seedActive("sub-1", "user-1", "plan-free", vo.PlanTypeFree, testutil.SubscriptionOptions{CredentialID: "key-1"})
	uc := newUpgradeUseCase(fx)

	result, err := uc.Execute(context.Background(), UpgradeSubscriptionCommand{
		SubscriptionID: "sub-1",
		NewPlanID:      "plan-pro",
	})

	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, result.Outcome)
	assert.Equal(t, "plan-pro", fx.subs.Stored("sub-1").PlanID())
	assert.Equal(t, vo.StatusActive, fx.subs.Stored("sub-1").Status())
	assert.Equal(t, vo.PlanTypePro, fx.users.Tier("user-1"))

	calls := fx.prov.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "update", calls[0].Op)
	assert.Equal(t, "key-1", calls[0].CredentialID)
	assert.Equal(t, "plan-pro", calls[0].Spec.PlanID)
	assert.ElementsMatch(t, []string{"gpt-4o-mini", "pro-model"}, calls[0].Spec.AllowedModels)
}

func TestUpgradeSubscription_ChangesIntervalWhenGiven(t *testing.T) {
	fx := newLedgerFixture(t)
	fx.seedActive("sub-1", "user-1", "plan-free", vo.PlanTypeFree, testutil.SubscriptionOptions{})
	uc := newUpgradeUseCase(fx)

	result, err := uc.Execute(context.Background(), UpgradeSubscriptionCommand{
		SubscriptionID:  "sub-1",
		NewPlanID:       "plan-ent",
		BillingInterval: "yearly",
		Prorate:         true,
	})

	require.NoError(t, err)
	assert.Equal(t, vo.BillingIntervalYearly, result.Subscription.BillingInterval())
	assert.Equal(t, vo.PlanTypeEnterprise, fx.users.Tier("user-1"))
}

func TestUpgradeSubscription_WrongDirection(t *testing.T) {
	tests := []struct {
		name        string
		currentPlan string
		newPlan     string
	}{
		{"cheaper plan", "plan-pro", "plan-free"},
		{"same price", "plan-pro", "plan-pro"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newLedgerFixture(t)
			fx.seedActive("sub-1", "user-1", tt.currentPlan, vo.PlanTypePro, testutil.SubscriptionOptions{})
			uc := newUpgradeUseCase(fx)

			_, err := uc.Execute(context.Background(), UpgradeSubscriptionCommand{SubscriptionID: "sub-1", NewPlanID: tt.newPlan})

			requireAppError(t, err, errors.ErrorTypeValidation, "New plan must have higher price for upgrade. Use downgrade instead")
			assert.Equal(t, tt.currentPlan, fx.subs.Stored("sub-1").PlanID())
			assert.Equal(t, 0, fx.subs.UpdateCalls)
			assert.Empty(t, fx.prov.Calls())
		})
	}
}

func TestUpgradeSubscription_InactiveSubscription(t *testing.T) {
	fx := newLedgerFixture(t)
	fx.seedActive("sub-1", "user-1", "plan-free", vo.PlanTypeFree, testutil.SubscriptionOptions{Status: vo.StatusPastDue})
	uc := newUpgradeUseCase(fx)

	_, err := uc.Execute(context.Background(), UpgradeSubscriptionCommand{SubscriptionID: "sub-1", NewPlanID: "plan-pro"})

	requireAppError(t, err, errors.ErrorTypeValidation, "Cannot upgrade inactive subscription")
}

func TestUpgradeSubscription_NotFound(t *testing.T) {
	fx := newLedgerFixture(t)
	fx.seedActive("sub-1", "user-1", "plan-free", vo.PlanTypeFree, testutil.SubscriptionOptions{})
	uc := newUpgradeUseCase(fx)

	_, err := uc.Execute(context.Background(), UpgradeSubscriptionCommand{SubscriptionID: "sub-missing", NewPlanID: "plan-pro"})
	requireAppError(t, err, errors.ErrorTypeNotFound, "Subscription not found")

	_, err = uc.Execute(context.Background(), UpgradeSubscriptionCommand{SubscriptionID: "sub-1", NewPlanID: "plan-missing"})
	requireAppError(t, err, errors.ErrorTypeNotFound, "New plan not found")
}

func TestUpgradeSubscription_LocksUserBeforeSubscription(t *testing.T) {
	fx := newLedgerFixture(t)
	fx.seedActive("sub-1", "user-1", "plan-free", vo.PlanTypeFree, testutil.SubscriptionOptions{CredentialID: "key-1"})
	uc := newUpgradeUseCase(fx)

	_, err := uc.Execute(context.Background(), UpgradeSubscriptionCommand{SubscriptionID: "sub-1", NewPlanID: "plan-pro"})

	require.NoError(t, err)
	assert.Equal(t, []string{"user:user-1", "subscription:sub-1", "plan-share:plan-pro"}, fx.locks.Entries())
}

func TestUpgradeSubscription_ProvisionerFailureIsDriftRisk(t *testing.T) {
	fx := newLedgerFixture(t)
	fx.seedActive("sub-1", "user-1", "plan-free", vo.PlanTypeFree, testutil.SubscriptionOptions{CredentialID: "key-1"})
	fx.prov.UpdateFunc = func(ctx context.Context, id string, spec subscription.CredentialSpec) error {
		return stderrors.New("status 500")
	}
	uc := newUpgradeUseCase(fx)

	result, err := uc.Execute(context.Background(), UpgradeSubscriptionCommand{SubscriptionID: "sub-1", NewPlanID: "plan-pro"})

	require.NoError(t, err)
	assert.True(t, result.HasDrift())
	assert.Equal(t, "plan-pro", fx.subs.Stored("sub-1").PlanID())
	assert.Equal(t, vo.PlanTypePro, fx.users.Tier("user-1"))
	assert.Equal(t, 1, fx.recorder.Count("upgrade/drift_risk"))
}

func TestDowngradeSubscription_Success(t *testing.T) {
	fx := newLedgerFixture(t)
	fx.seedActive("sub-1", "user-1", "plan-ent", vo.PlanTypeEnterprise, testutil.SubscriptionOptions{CredentialID: "key-1"})
	uc := newDowngradeUseCase(fx)

	result, err := uc.Execute(context.Background(), DowngradeSubscriptionCommand{
		SubscriptionID:       "sub-1",
		NewPlanID:            "plan-pro",
		EffectiveAtPeriodEnd: true,
	})

	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, result.Outcome)
	// applied immediately even when requested at period end
	assert.Equal(t, "plan-pro", fx.subs.Stored("sub-1").PlanID())
	assert.Equal(t, vo.PlanTypePro, fx.users.Tier("user-1"))
	assert.Equal(t, []string{"update"}, fx.prov.Ops())
	assert.Equal(t, 1, fx.recorder.Count("downgrade/applied"))
}

func TestDowngradeSubscription_SamePriceAllowed(t *testing.T) {
	fx := newLedgerFixture(t)
	fx.plans.Add(testutil.NewPlan("plan-pro-2", "pro2", vo.PlanTypePro, 2000))
	fx.seedActive("sub-1", "user-1", "plan-pro", vo.PlanTypePro, testutil.SubscriptionOptions{})
	uc := newDowngradeUseCase(fx)

	_, err := uc.Execute(context.Background(), DowngradeSubscriptionCommand{SubscriptionID: "sub-1", NewPlanID: "plan-pro-2"})

	require.NoError(t, err)
	assert.Equal(t, "plan-pro-2", fx.subs.Stored("sub-1").PlanID())
}

func TestDowngradeSubscription_WrongDirection(t *testing.T) {
	fx := newLedgerFixture(t)
	fx.seedActive("sub-1", "user-1", "plan-free", vo.PlanTypeFree, testutil.SubscriptionOptions{})
	uc := newDowngradeUseCase(fx)

	_, err := uc.Execute(context.Background(), DowngradeSubscriptionCommand{SubscriptionID: "sub-1", NewPlanID: "plan-pro"})

	requireAppError(t, err, errors.ErrorTypeValidation, "New plan must have lower price for downgrade. Use upgrade instead")
	assert.Equal(t, "plan-free", fx.subs.Stored("sub-1").PlanID())
	assert.Equal(t, vo.PlanTypeFree, fx.users.Tier("user-1"))
}

func TestDowngradeSubscription_InactiveTargetPlan(t *testing.T) {
	fx := newLedgerFixture(t)
	retired := testutil.NewPlan("plan-old", "old", vo.PlanTypePro, 500)
	retired.SetVisibility(false, true)
	fx.plans.Add(retired)
	fx.seedActive("sub-1", "user-1", "plan-pro", vo.PlanTypePro, testutil.SubscriptionOptions{})
	uc := newDowngradeUseCase(fx)

	_, err := uc.Execute(context.Background(), DowngradeSubscriptionCommand{SubscriptionID: "sub-1", NewPlanID: "plan-old"})

	requireAppError(t, err, errors.ErrorTypeValidation, "New plan is not active")
}
