package usecases

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/application/subscription/testutil"
	vo "github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription/valueobjects"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/errors"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
)

func fixedNow() time.Time {
	return testutil.Now
}

type ledgerFixture struct {
	tx       *testutil.MockTransactor
	subs     *testutil.MockSubscriptionRepository
	plans    *testutil.MockPlanRepository
	users    *testutil.MockUserRepository
	prov     *testutil.MockProvisioner
	recorder *testutil.MockRecorder
	locks    *testutil.LockLog
	syncer   *EntitlementSyncer
	log      logger.Interface
}

// newLedgerFixture seeds plans free (0), pro (2000) and enterprise (10000),
// plus users user-1 and user-2 on the free tier.
func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()

	fx := &ledgerFixture{
		tx:       &testutil.MockTransactor{},
		subs:     testutil.NewMockSubscriptionRepository(),
		plans:    testutil.NewMockPlanRepository(),
		users:    testutil.NewMockUserRepository(),
		prov:     &testutil.MockProvisioner{},
		recorder: testutil.NewMockRecorder(),
		locks:    &testutil.LockLog{},
		log:      logger.NewNopLogger(),
	}
	fx.subs.LockLog = fx.locks
	fx.users.LockLog = fx.locks
	fx.plans.LockLog = fx.locks

	fx.plans.Add(testutil.NewPlan("plan-free", "free", vo.PlanTypeFree, 0))
	fx.plans.Add(testutil.NewPlan("plan-pro", "pro", vo.PlanTypePro, 2000))
	fx.plans.Add(testutil.NewPlan("plan-ent", "enterprise", vo.PlanTypeEnterprise, 10000))
	fx.users.Add(testutil.NewUser("user-1"))
	fx.users.Add(testutil.NewUser("user-2"))

	fx.syncer = NewEntitlementSyncer(fx.prov, fx.subs, fx.tx, fx.recorder, time.Second, fx.log)
	fx.syncer.now = fixedNow
	return fx
}

// seedActive stores an active subscription and sets the owner's tier to match.
func (fx *ledgerFixture) seedActive(id, userID, planID string, planType vo.PlanType, opts testutil.SubscriptionOptions) {
	fx.subs.Add(testutil.NewSubscription(id, userID, planID, opts))
	if opts.Status == "" || opts.Status.IsEntitled() {
		u := testutil.NewUser(userID)
		u.SetTier(planType, testutil.Now)
		fx.users.Add(u)
	}
}

func requireAppError(t *testing.T, err error, errType errors.ErrorType, message string) {
	t.Helper()
	require.Error(t, err)
	appErr := errors.GetAppError(err)
	require.NotNil(t, appErr, "expected AppError, got %v", err)
	require.Equal(t, errType, appErr.Type)
	if message != "" {
		require.Equal(t, message, appErr.Message)
	}
}
