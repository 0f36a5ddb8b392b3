package usecases

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	subscriptionUsecases "github.com/nat-prohmpiriya/llm-application-framework/internal/application/subscription/usecases"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/application/subscription/testutil"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/billing"
	vo "github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription/valueobjects"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/config"
)

func event(eventType billing.EventType, externalID, status string) billing.Event {
	return billing.Event{
		ID:                     "evt_1",
		Type:                   eventType,
		ExternalSubscriptionID: externalID,
		ExternalStatus:         status,
	}
}

func TestReconcile_SubscriptionDeletedCancelsAndRevokes(t *testing.T) {
	fx := newBillingFixture(t)
	fx.seed("sub-1", "sub_ext_1", testutil.SubscriptionOptions{CredentialID: "key-1"})
	uc := fx.reconciler("")

	result, err := uc.Execute(context.Background(), event(billing.EventSubscriptionDeleted, "sub_ext_1", "canceled"))

	require.NoError(t, err)
	assert.Equal(t, ReconcileApplied, result.Outcome)
	assert.Equal(t, "sub-1", result.SubscriptionID)
	require.NotNil(t, result.Transition)
	assert.Equal(t, subscriptionUsecases.OutcomeApplied, result.Transition.Outcome)

	stored := fx.subs.Stored("sub-1")
	assert.Equal(t, vo.StatusCanceled, stored.Status())
	assert.Equal(t, testutil.Now, *stored.CanceledAt())
	assert.Equal(t, vo.PlanTypeFree, fx.users.Tier("user-1"))
	assert.Equal(t, []string{"disable"}, fx.prov.Ops())
	assert.Equal(t, []string{"user:user-1", "subscription:sub-1"}, fx.locks.Entries())
	assert.Equal(t, 1, fx.recorder.Count("customer.subscription.deleted/applied"))
}

func TestReconcile_ReplayIsIdempotent(t *testing.T) {
	fx := newBillingFixture(t)
	fx.seed("sub-1", "sub_ext_1", testutil.SubscriptionOptions{CredentialID: "key-1"})
	uc := fx.reconciler("")
	evt := event(billing.EventSubscriptionDeleted, "sub_ext_1", "")

	_, err := uc.Execute(context.Background(), evt)
	require.NoError(t, err)
	updatesAfterFirst := fx.subs.UpdateCalls

	result, err := uc.Execute(context.Background(), evt)

	require.NoError(t, err)
	assert.Equal(t, ReconcileUnchanged, result.Outcome)
	assert.Nil(t, result.Transition)
	assert.Equal(t, updatesAfterFirst, fx.subs.UpdateCalls)
	assert.Equal(t, []string{"disable"}, fx.prov.Ops())
	assert.Equal(t, 1, fx.recorder.Count("customer.subscription.deleted/unchanged"))
}

func TestReconcile_PaymentFailedThenPaid(t *testing.T) {
	fx := newBillingFixture(t)
	fx.seed("sub-1", "sub_ext_1", testutil.SubscriptionOptions{CredentialID: "key-1"})
	uc := fx.reconciler("")

	result, err := uc.Execute(context.Background(), event(billing.EventInvoicePaymentFailed, "sub_ext_1", ""))
	require.NoError(t, err)
	assert.Equal(t, ReconcileApplied, result.Outcome)
	assert.Equal(t, vo.StatusPastDue, fx.subs.Stored("sub-1").Status())
	assert.Equal(t, vo.PlanTypeFree, fx.users.Tier("user-1"))

	result, err = uc.Execute(context.Background(), event(billing.EventInvoicePaid, "sub_ext_1", ""))
	require.NoError(t, err)
	assert.Equal(t, ReconcileApplied, result.Outcome)
	assert.Equal(t, vo.StatusActive, fx.subs.Stored("sub-1").Status())
	assert.Equal(t, vo.PlanTypePro, fx.users.Tier("user-1"))

	assert.Empty(t, fx.prov.Calls())
}

func TestReconcile_PaidRestoresCanceledSubscription(t *testing.T) {
	fx := newBillingFixture(t)
	ended := testutil.Now.Add(-time.Hour)
	fx.seed("sub-1", "sub_ext_1", testutil.SubscriptionOptions{
		Status:       vo.StatusCanceled,
		CanceledAt:   &ended,
		CredentialID: "key-1",
	})
	uc := fx.reconciler("")

	result, err := uc.Execute(context.Background(), event(billing.EventInvoicePaid, "sub_ext_1", ""))

	require.NoError(t, err)
	assert.Equal(t, ReconcileApplied, result.Outcome)
	stored := fx.subs.Stored("sub-1")
	assert.Equal(t, vo.StatusActive, stored.Status())
	assert.Nil(t, stored.CanceledAt())
	assert.Equal(t, vo.PlanTypePro, fx.users.Tier("user-1"))

	calls := fx.prov.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "update", calls[0].Op)
	assert.Equal(t, "key-1", calls[0].CredentialID)
}

func TestReconcile_PaidAfterLedgerCancelSurvivesExpirySweep(t *testing.T) {
	fx := newBillingFixture(t)
	ended := testutil.Now.Add(-time.Hour)
	fx.seed("sub-1", "sub_ext_1", testutil.SubscriptionOptions{
		Status:       vo.StatusCanceled,
		CanceledAt:   &ended,
		EndDate:      &ended,
		CredentialID: "key-1",
	})
	uc := fx.reconciler("")

	result, err := uc.Execute(context.Background(), event(billing.EventInvoicePaid, "sub_ext_1", ""))
	require.NoError(t, err)
	require.Equal(t, ReconcileApplied, result.Outcome)
	assert.Nil(t, fx.subs.Stored("sub-1").EndDate())

	sweep := subscriptionUsecases.NewExpireScheduledCancellationsUseCase(fx.tx, fx.subs, fx.users, fx.syncer, 10, fx.log)
	swept, err := sweep.Execute(context.Background())

	require.NoError(t, err)
	assert.Zero(t, swept.Canceled)
	assert.Equal(t, vo.StatusActive, fx.subs.Stored("sub-1").Status())
	assert.Equal(t, vo.PlanTypePro, fx.users.Tier("user-1"))
	assert.Equal(t, []string{"update"}, fx.prov.Ops())
}

func TestReconcile_RenewalClearsScheduledCancellation(t *testing.T) {
	fx := newBillingFixture(t)
	periodEnd := testutil.Now.AddDate(0, 0, 20)
	fx.seed("sub-1", "sub_ext_1", testutil.SubscriptionOptions{
		PeriodEnd:    &periodEnd,
		EndDate:      &periodEnd,
		CredentialID: "key-1",
	})
	uc := fx.reconciler("")
	renewedEnd := periodEnd.AddDate(0, 1, 0)
	evt := event(billing.EventSubscriptionUpdated, "sub_ext_1", "active")
	evt.PeriodStart = &periodEnd
	evt.PeriodEnd = &renewedEnd

	result, err := uc.Execute(context.Background(), evt)
	require.NoError(t, err)
	require.Equal(t, ReconcileApplied, result.Outcome)
	stored := fx.subs.Stored("sub-1")
	assert.Nil(t, stored.EndDate())
	assert.Equal(t, renewedEnd, *stored.CurrentPeriodEnd())

	sweep := subscriptionUsecases.NewExpireScheduledCancellationsUseCase(fx.tx, fx.subs, fx.users, fx.syncer, 10, fx.log)
	swept, err := sweep.Execute(context.Background())

	require.NoError(t, err)
	assert.Zero(t, swept.Canceled)
	assert.Equal(t, vo.StatusActive, fx.subs.Stored("sub-1").Status())
	assert.Empty(t, fx.prov.Calls())
}

func TestReconcile_SecondEntitledSubscriptionIsSkipped(t *testing.T) {
	fx := newBillingFixture(t)
	ended := testutil.Now.Add(-time.Hour)
	fx.seed("sub-2", "sub_ext_2", testutil.SubscriptionOptions{Status: vo.StatusCanceled, CanceledAt: &ended})
	fx.seed("sub-1", "sub_ext_1", testutil.SubscriptionOptions{})
	uc := fx.reconciler("")

	result, err := uc.Execute(context.Background(), event(billing.EventSubscriptionUpdated, "sub_ext_2", "active"))

	require.NoError(t, err)
	assert.Equal(t, ReconcileSkipped, result.Outcome)
	assert.Equal(t, vo.StatusCanceled, fx.subs.Stored("sub-2").Status())
	assert.Equal(t, vo.StatusActive, fx.subs.Stored("sub-1").Status())
	assert.Zero(t, fx.subs.UpdateCalls)
	assert.Empty(t, fx.prov.Calls())
}

func TestReconcile_Ignored(t *testing.T) {
	tests := []struct {
		name  string
		event billing.Event
	}{
		{"unknown external id", event(billing.EventInvoicePaid, "sub_ext_unknown", "")},
		{"missing external id", event(billing.EventInvoicePaid, "", "")},
		{"unhandled type", event(billing.EventType("charge.refunded"), "sub_ext_1", "")},
		{"subscription created", event(billing.EventSubscriptionCreated, "sub_ext_1", "active")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newBillingFixture(t)
			fx.seed("sub-1", "sub_ext_1", testutil.SubscriptionOptions{Status: vo.StatusPastDue})
			uc := fx.reconciler("")

			result, err := uc.Execute(context.Background(), tt.event)

			require.NoError(t, err)
			assert.Equal(t, ReconcileIgnored, result.Outcome)
			assert.Zero(t, fx.subs.UpdateCalls)
			assert.Equal(t, vo.StatusPastDue, fx.subs.Stored("sub-1").Status())
		})
	}
}

func TestReconcile_StatusMapping(t *testing.T) {
	tests := []struct {
		external string
		want     vo.SubscriptionStatus
	}{
		{"trialing", vo.StatusTrialing},
		{"unpaid", vo.StatusPastDue},
		{"paused", vo.StatusPaused},
		{"incomplete_expired", vo.StatusExpired},
	}

	for _, tt := range tests {
		t.Run(tt.external, func(t *testing.T) {
			fx := newBillingFixture(t)
			fx.seed("sub-1", "sub_ext_1", testutil.SubscriptionOptions{})
			uc := fx.reconciler("")

			_, err := uc.Execute(context.Background(), event(billing.EventSubscriptionUpdated, "sub_ext_1", tt.external))

			require.NoError(t, err)
			assert.Equal(t, tt.want, fx.subs.Stored("sub-1").Status())
		})
	}
}

func TestReconcile_UnknownStatusPolicy(t *testing.T) {
	start := testutil.Now
	end := start.AddDate(0, 1, 0)

	t.Run("active", func(t *testing.T) {
		fx := newBillingFixture(t)
		fx.seed("sub-1", "sub_ext_1", testutil.SubscriptionOptions{Status: vo.StatusPastDue})
		uc := fx.reconciler(config.UnknownStatusPolicyActive)

		result, err := uc.Execute(context.Background(), event(billing.EventSubscriptionUpdated, "sub_ext_1", "on_hold"))

		require.NoError(t, err)
		assert.Equal(t, ReconcileApplied, result.Outcome)
		assert.Equal(t, vo.StatusActive, fx.subs.Stored("sub-1").Status())
	})

	t.Run("ignore keeps status but applies period", func(t *testing.T) {
		fx := newBillingFixture(t)
		fx.seed("sub-1", "sub_ext_1", testutil.SubscriptionOptions{Status: vo.StatusPastDue})
		uc := fx.reconciler(config.UnknownStatusPolicyIgnore)
		evt := event(billing.EventSubscriptionUpdated, "sub_ext_1", "on_hold")
		evt.PeriodStart = &start
		evt.PeriodEnd = &end

		result, err := uc.Execute(context.Background(), evt)

		require.NoError(t, err)
		assert.Equal(t, ReconcileApplied, result.Outcome)
		stored := fx.subs.Stored("sub-1")
		assert.Equal(t, vo.StatusPastDue, stored.Status())
		assert.Equal(t, end, *stored.CurrentPeriodEnd())
	})
}

func TestReconcile_PeriodOnlyUpdate(t *testing.T) {
	fx := newBillingFixture(t)
	fx.seed("sub-1", "sub_ext_1", testutil.SubscriptionOptions{CredentialID: "key-1"})
	uc := fx.reconciler("")
	start := testutil.Now
	end := start.AddDate(0, 1, 0)
	evt := event(billing.EventSubscriptionUpdated, "sub_ext_1", "active")
	evt.PeriodStart = &start
	evt.PeriodEnd = &end

	result, err := uc.Execute(context.Background(), evt)

	require.NoError(t, err)
	assert.Equal(t, ReconcileApplied, result.Outcome)
	stored := fx.subs.Stored("sub-1")
	assert.Equal(t, start, *stored.CurrentPeriodStart())
	assert.Equal(t, end, *stored.CurrentPeriodEnd())
	assert.Equal(t, vo.PlanTypePro, fx.users.Tier("user-1"))
	assert.Empty(t, fx.prov.Calls())
	assert.Zero(t, fx.users.UpdateTierCalls)

	result, err = uc.Execute(context.Background(), evt)
	require.NoError(t, err)
	assert.Equal(t, ReconcileUnchanged, result.Outcome)
}

func TestReconcile_InvalidPeriodIsAnError(t *testing.T) {
	fx := newBillingFixture(t)
	fx.seed("sub-1", "sub_ext_1", testutil.SubscriptionOptions{})
	uc := fx.reconciler("")
	start := testutil.Now
	end := start.Add(-time.Hour)
	evt := event(billing.EventSubscriptionUpdated, "sub_ext_1", "")
	evt.PeriodStart = &start
	evt.PeriodEnd = &end

	_, err := uc.Execute(context.Background(), evt)

	require.Error(t, err)
	assert.Zero(t, fx.subs.UpdateCalls)
	assert.Equal(t, 1, fx.recorder.Count("customer.subscription.updated/error"))
}

func TestReconcile_StoreFailureIsReturned(t *testing.T) {
	fx := newBillingFixture(t)
	fx.seed("sub-1", "sub_ext_1", testutil.SubscriptionOptions{})
	fx.subs.SetUpdateError(stderrors.New("connection reset"), 0)
	uc := fx.reconciler("")

	_, err := uc.Execute(context.Background(), event(billing.EventInvoicePaymentFailed, "sub_ext_1", ""))

	require.Error(t, err)
	assert.Equal(t, 1, fx.recorder.Count("invoice.payment_failed/error"))
	assert.Empty(t, fx.prov.Calls())
}
