package usecases

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/application/subscription/testutil"
	vo "github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription/valueobjects"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/errors"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/services/markdown"
)

func newCancelUseCase(fx *ledgerFixture) *CancelSubscriptionUseCase {
	uc := NewCancelSubscriptionUseCase(fx.tx, fx.subs, fx.users, fx.syncer, markdown.NewMarkdownService(), fx.log)
	uc.now = fixedNow
	return uc
}

func TestCancelSubscription_AtPeriodEndSchedulesOnly(t *testing.T) {
	fx := newLedgerFixture(t)
	fx.seedActive("sub-1", "user-1", "plan-pro", vo.PlanTypePro, testutil.SubscriptionOptions{CredentialID: "key-1"})
	uc := newCancelUseCase(fx)

	result, err := uc.Execute(context.Background(), CancelSubscriptionCommand{
		SubscriptionID:    "sub-1",
		CancelAtPeriodEnd: true,
		Reason:            "<b>too expensive</b>",
	})

	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, result.Outcome)

	stored := fx.subs.Stored("sub-1")
	assert.Equal(t, vo.StatusActive, stored.Status())
	require.NotNil(t, stored.EndDate())
	assert.Equal(t, *stored.CurrentPeriodEnd(), *stored.EndDate())
	assert.Nil(t, stored.CanceledAt())
	assert.Equal(t, "too expensive", stored.CancelReason())
	assert.Equal(t, vo.PlanTypePro, fx.users.Tier("user-1"))
	assert.Empty(t, fx.prov.Calls())
}

func TestCancelSubscription_Immediate(t *testing.T) {
	fx := newLedgerFixture(t)
	fx.seedActive("sub-1", "user-1", "plan-pro", vo.PlanTypePro, testutil.SubscriptionOptions{CredentialID: "key-1"})
	uc := newCancelUseCase(fx)

	result, err := uc.Execute(context.Background(), CancelSubscriptionCommand{SubscriptionID: "sub-1"})

	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, result.Outcome)

	stored := fx.subs.Stored("sub-1")
	assert.Equal(t, vo.StatusCanceled, stored.Status())
	assert.Equal(t, testutil.Now, *stored.CanceledAt())
	assert.Equal(t, testutil.Now, *stored.EndDate())
	assert.Equal(t, vo.PlanTypeFree, fx.users.Tier("user-1"))

	calls := fx.prov.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "disable", calls[0].Op)
	assert.Equal(t, "key-1", calls[0].CredentialID)
}

func TestCancelSubscription_AlreadyCanceled(t *testing.T) {
	fx := newLedgerFixture(t)
	now := testutil.Now
	fx.seedActive("sub-1", "user-1", "plan-pro", vo.PlanTypePro, testutil.SubscriptionOptions{
		Status:     vo.StatusCanceled,
		CanceledAt: &now,
		EndDate:    &now,
	})
	uc := newCancelUseCase(fx)

	_, err := uc.Execute(context.Background(), CancelSubscriptionCommand{SubscriptionID: "sub-1"})

	requireAppError(t, err, errors.ErrorTypeValidation, "Subscription is already canceled")
	assert.Equal(t, 0, fx.subs.UpdateCalls)
}

func TestCancelSubscription_DisableFailureIsDriftRisk(t *testing.T) {
	fx := newLedgerFixture(t)
	fx.seedActive("sub-1", "user-1", "plan-pro", vo.PlanTypePro, testutil.SubscriptionOptions{CredentialID: "key-1"})
	fx.prov.DisableFunc = func(ctx context.Context, id string) error {
		return stderrors.New("timeout")
	}
	uc := newCancelUseCase(fx)

	result, err := uc.Execute(context.Background(), CancelSubscriptionCommand{SubscriptionID: "sub-1"})

	require.NoError(t, err)
	assert.Equal(t, OutcomeDriftRisk, result.Outcome)
	assert.Equal(t, vo.StatusCanceled, fx.subs.Stored("sub-1").Status())
	assert.Equal(t, vo.PlanTypeFree, fx.users.Tier("user-1"))
	assert.Equal(t, 1, fx.recorder.Count("cancel/drift_risk"))
}

func TestCancelSubscription_WithoutCredentialSkipsProvisioner(t *testing.T) {
	fx := newLedgerFixture(t)
	fx.seedActive("sub-1", "user-1", "plan-pro", vo.PlanTypePro, testutil.SubscriptionOptions{})
	uc := newCancelUseCase(fx)

	result, err := uc.Execute(context.Background(), CancelSubscriptionCommand{SubscriptionID: "sub-1"})

	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, result.Outcome)
	assert.Empty(t, fx.prov.Calls())
}
