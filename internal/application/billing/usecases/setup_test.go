package usecases

import (
	"testing"
	"time"

	subscriptionUsecases "github.com/nat-prohmpiriya/llm-application-framework/internal/application/subscription/usecases"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/application/subscription/testutil"
	vo "github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription/valueobjects"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
)

type billingFixture struct {
	tx       *testutil.MockTransactor
	subs     *testutil.MockSubscriptionRepository
	plans    *testutil.MockPlanRepository
	users    *testutil.MockUserRepository
	prov     *testutil.MockProvisioner
	recorder *testutil.MockRecorder
	locks    *testutil.LockLog
	syncer   *subscriptionUsecases.EntitlementSyncer
	log      logger.Interface
}

func newBillingFixture(t *testing.T) *billingFixture {
	t.Helper()

	fx := &billingFixture{
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

	fx.plans.Add(testutil.NewPlan("plan-free", "free", vo.PlanTypeFree, 0))
	fx.plans.Add(testutil.NewPlan("plan-pro", "pro", vo.PlanTypePro, 2000))
	fx.users.Add(testutil.NewUser("user-1"))

	fx.syncer = subscriptionUsecases.NewEntitlementSyncer(fx.prov, fx.subs, fx.tx, fx.recorder, time.Second, fx.log)
	return fx
}

func (fx *billingFixture) reconciler(policy string) *ReconcileBillingEventUseCase {
	uc := NewReconcileBillingEventUseCase(fx.tx, fx.subs, fx.plans, fx.users, fx.syncer, policy, fx.recorder, fx.log)
	uc.now = func() time.Time { return testutil.Now }
	return uc
}

// seed stores a pro subscription linked to externalID and sets the owner's tier from its status.
func (fx *billingFixture) seed(id, externalID string, opts testutil.SubscriptionOptions) {
	opts.StripeSubscriptionID = externalID
	fx.subs.Add(testutil.NewSubscription(id, "user-1", "plan-pro", opts))
	if opts.Status == "" || opts.Status.IsEntitled() {
		u := testutil.NewUser("user-1")
		u.SetTier(vo.PlanTypePro, testutil.Now)
		fx.users.Add(u)
	}
}
