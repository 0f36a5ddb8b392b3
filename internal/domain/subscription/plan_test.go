package subscription

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription/valueobjects"
)

func newTestPlan(t *testing.T, name string, priceMonthly int64) *Plan {
	t.Helper()
	quota, err := vo.NewPlanQuota(100000, 60, 1000, 10, 3, 2, []string{"gpt-4o-mini"})
	require.NoError(t, err)
	plan, err := NewPlan(name, name, vo.PlanTypePro, priceMonthly, nil, "usd", quota)
	require.NoError(t, err)
	require.NoError(t, plan.SetID("plan-"+name))
	return plan
}

func TestNewPlan_Defaults(t *testing.T) {
	plan := newTestPlan(t, "pro", 2000)

	assert.Equal(t, "USD", plan.Currency())
	assert.True(t, plan.IsActive())
	assert.True(t, plan.IsPublic())
	assert.Nil(t, plan.PriceYearly())
}

func TestNewPlan_Validation(t *testing.T) {
	quota := vo.PlanQuota{}
	negative := int64(-1)

	tests := []struct {
		name     string
		planName string
		display  string
		planType vo.PlanType
		monthly  int64
		yearly   *int64
		currency string
	}{
		{"empty name", "", "Pro", vo.PlanTypePro, 0, nil, "USD"},
		{"empty display name", "pro", " ", vo.PlanTypePro, 0, nil, "USD"},
		{"bad type", "pro", "Pro", vo.PlanType("gold"), 0, nil, "USD"},
		{"negative monthly", "pro", "Pro", vo.PlanTypePro, -1, nil, "USD"},
		{"negative yearly", "pro", "Pro", vo.PlanTypePro, 0, &negative, "USD"},
		{"bad currency", "pro", "Pro", vo.PlanTypePro, 0, nil, "XYZW"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := NewPlan(tt.planName, tt.display, tt.planType, tt.monthly, tt.yearly, tt.currency, quota)
			assert.Error(t, err)
			assert.Nil(t, plan)
		})
	}
}

func TestPlan_IsUpgradeFrom_StrictlyByMonthlyPrice(t *testing.T) {
	free := newTestPlan(t, "free", 0)
	pro := newTestPlan(t, "pro", 2000)
	samePrice := newTestPlan(t, "pro-alt", 2000)

	yearly := int64(1)
	require.NoError(t, samePrice.UpdatePricing(2000, &yearly, "USD"))

	assert.True(t, pro.IsUpgradeFrom(free))
	assert.False(t, free.IsUpgradeFrom(pro))
	assert.False(t, samePrice.IsUpgradeFrom(pro))
	assert.False(t, pro.IsUpgradeFrom(pro))
}

func TestPlanQuota_MaxParallelRequests(t *testing.T) {
	tests := []struct {
		rpm  int
		want int
	}{
		{0, 1},
		{1, 1},
		{3, 1},
		{4, 2},
		{60, 30},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, vo.PlanQuota{RequestsPerMinute: tt.rpm}.MaxParallelRequests())
	}
}

func TestPlanQuota_MatchesLimits(t *testing.T) {
	quota, err := vo.NewPlanQuota(0, 60, 0, 0, 0, 0, []string{"a", "b", "a", " "})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, quota.AllowedModels)
	assert.True(t, quota.MatchesLimits([]string{"b", "a"}, 60))
	assert.False(t, quota.MatchesLimits([]string{"a"}, 60))
	assert.False(t, quota.MatchesLimits([]string{"a", "b"}, 30))
	assert.False(t, quota.MatchesLimits(nil, 0))
}
