package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/application/subscription/testutil"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription"
	vo "github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription/valueobjects"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
)

func seedPlans(t *testing.T, repo subscription.PlanRepository, plans ...*subscription.Plan) {
	t.Helper()
	for _, p := range plans {
		require.NoError(t, repo.Create(context.Background(), p))
	}
}

func TestPlanRepository_Create(t *testing.T) {
	repo := NewPlanRepository(setupTestDB(t), logger.NewNopLogger())
	ctx := context.Background()

	t.Run("assigns an id when empty", func(t *testing.T) {
		quota, err := vo.NewPlanQuota(500_000, 20, 1000, 5, 2, 1, []string{"gpt-4o-mini"})
		require.NoError(t, err)
		plan, err := subscription.NewPlan("starter", "Starter", vo.PlanTypeFree, 0, nil, "", quota)
		require.NoError(t, err)

		require.NoError(t, repo.Create(ctx, plan))
		assert.Len(t, plan.ID(), 36)

		found, err := repo.GetByID(ctx, plan.ID())
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "starter", found.Name())
		assert.Equal(t, "USD", found.Currency())
		assert.Equal(t, []string{"gpt-4o-mini"}, found.Quota().AllowedModels)
		assert.True(t, found.IsActive())
	})

	t.Run("keeps a preset id", func(t *testing.T) {
		plan := testutil.NewPlan("plan-pro", "pro", vo.PlanTypePro, 2000)

		require.NoError(t, repo.Create(ctx, plan))

		found, err := repo.GetByName(ctx, "pro")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "plan-pro", found.ID())
		assert.Equal(t, int64(2000), found.PriceMonthly())
	})

	t.Run("duplicate name fails", func(t *testing.T) {
		err := repo.Create(ctx, testutil.NewPlan("plan-pro-2", "pro", vo.PlanTypePro, 2500))
		assert.Error(t, err)
	})
}

func TestPlanRepository_GetMissing(t *testing.T) {
	repo := NewPlanRepository(setupTestDB(t), logger.NewNopLogger())

	byID, err := repo.GetByID(context.Background(), "nope")
	assert.NoError(t, err)
	assert.Nil(t, byID)

	byName, err := repo.GetByName(context.Background(), "nope")
	assert.NoError(t, err)
	assert.Nil(t, byName)

	exists, err := repo.ExistsByName(context.Background(), "nope")
	assert.NoError(t, err)
	assert.False(t, exists)
}

func TestPlanRepository_List(t *testing.T) {
	repo := NewPlanRepository(setupTestDB(t), logger.NewNopLogger())
	ctx := context.Background()

	hidden := testutil.NewPlan("plan-hidden", "hidden", vo.PlanTypePro, 1500)
	hidden.SetVisibility(true, false)
	retired := testutil.NewPlan("plan-old", "old", vo.PlanTypePro, 1000)
	retired.SetVisibility(false, true)

	seedPlans(t, repo,
		testutil.NewPlan("plan-ent", "enterprise", vo.PlanTypeEnterprise, 10000),
		testutil.NewPlan("plan-free", "free", vo.PlanTypeFree, 0),
		testutil.NewPlan("plan-pro", "pro", vo.PlanTypePro, 2000),
		testutil.NewPlan("plan-basic", "basic", vo.PlanTypePro, 2000),
		hidden,
		retired,
	)

	tests := []struct {
		name   string
		filter subscription.PlanFilter
		want   []string
	}{
		{
			name: "active only",
			want: []string{"plan-free", "plan-hidden", "plan-basic", "plan-pro", "plan-ent"},
		},
		{
			name:   "including inactive",
			filter: subscription.PlanFilter{IncludeInactive: true},
			want:   []string{"plan-free", "plan-old", "plan-hidden", "plan-basic", "plan-pro", "plan-ent"},
		},
		{
			name:   "public only ignores include inactive",
			filter: subscription.PlanFilter{IncludeInactive: true, PublicOnly: true},
			want:   []string{"plan-free", "plan-basic", "plan-pro", "plan-ent"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plans, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)

			ids := make([]string, 0, len(plans))
			for _, p := range plans {
				ids = append(ids, p.ID())
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestPlanRepository_Update(t *testing.T) {
	repo := NewPlanRepository(setupTestDB(t), logger.NewNopLogger())
	ctx := context.Background()

	plan := testutil.NewPlan("plan-pro", "pro", vo.PlanTypePro, 2000)
	seedPlans(t, repo, plan)

	yearly := int64(20000)
	require.NoError(t, plan.UpdatePricing(2500, &yearly, "eur"))
	plan.SetVisibility(false, false)
	plan.LinkStripe("price_m", "price_y", "prod_1")

	require.NoError(t, repo.Update(ctx, plan))

	found, err := repo.GetByID(ctx, "plan-pro")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, int64(2500), found.PriceMonthly())
	require.NotNil(t, found.PriceYearly())
	assert.Equal(t, int64(20000), *found.PriceYearly())
	assert.Equal(t, "EUR", found.Currency())
	assert.False(t, found.IsActive())
	assert.False(t, found.IsPublic())
	assert.Equal(t, "price_m", found.StripePriceIDMonthly())
	assert.Equal(t, "prod_1", found.StripeProductID())
}

func TestPlanRepository_Delete(t *testing.T) {
	repo := NewPlanRepository(setupTestDB(t), logger.NewNopLogger())
	ctx := context.Background()

	seedPlans(t, repo, testutil.NewPlan("plan-pro", "pro", vo.PlanTypePro, 2000))

	require.NoError(t, repo.Delete(ctx, "plan-pro"))

	found, err := repo.GetByID(ctx, "plan-pro")
	assert.NoError(t, err)
	assert.Nil(t, found)

	assert.ErrorIs(t, repo.Delete(ctx, "plan-pro"), subscription.ErrPlanNotFound)
}
