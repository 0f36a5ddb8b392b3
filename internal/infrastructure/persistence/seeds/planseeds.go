// Package seeds loads the initial plan catalog.
package seeds

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription"
	vo "github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription/valueobjects"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
)

//go:embed default_plans.yaml
var DefaultPlans []byte

type planCatalog struct {
	Plans []planSeed `yaml:"plans"`
}

type planSeed struct {
	Name              string   `yaml:"name"`
	DisplayName       string   `yaml:"display_name"`
	Description       string   `yaml:"description"`
	PlanType          string   `yaml:"plan_type"`
	PriceMonthly      int64    `yaml:"price_monthly"`
	PriceYearly       *int64   `yaml:"price_yearly"`
	Currency          string   `yaml:"currency"`
	TokensPerMonth    int64    `yaml:"tokens_per_month"`
	RequestsPerMinute int      `yaml:"requests_per_minute"`
	RequestsPerDay    int      `yaml:"requests_per_day"`
	MaxDocuments      int      `yaml:"max_documents"`
	MaxProjects       int      `yaml:"max_projects"`
	MaxAgents         int      `yaml:"max_agents"`
	AllowedModels     []string `yaml:"allowed_models"`
	Active            *bool    `yaml:"active"`
	Public            *bool    `yaml:"public"`
	StripePriceIDs    struct {
		Monthly string `yaml:"monthly"`
		Yearly  string `yaml:"yearly"`
	} `yaml:"stripe_price_ids"`
	StripeProductID string `yaml:"stripe_product_id"`
}

// SeedPlans creates every plan in the YAML catalog whose name is not taken yet.
// It returns the number of plans created.
func SeedPlans(ctx context.Context, repo subscription.PlanRepository, catalog []byte, log logger.Interface) (int, error) {
	var parsed planCatalog
	if err := yaml.Unmarshal(catalog, &parsed); err != nil {
		return 0, fmt.Errorf("failed to parse plan catalog: %w", err)
	}

	created := 0
	for _, seed := range parsed.Plans {
		exists, err := repo.ExistsByName(ctx, seed.Name)
		if err != nil {
			return created, err
		}
		if exists {
			log.Debugw("plan already seeded", "name", seed.Name)
			continue
		}

		plan, err := seed.toPlan()
		if err != nil {
			return created, fmt.Errorf("invalid seed plan %q: %w", seed.Name, err)
		}
		if err := repo.Create(ctx, plan); err != nil {
			return created, err
		}
		log.Infow("plan seeded", "name", plan.Name(), "plan_id", plan.ID())
		created++
	}

	return created, nil
}

func (s planSeed) toPlan() (*subscription.Plan, error) {
	planType, err := vo.NewPlanType(s.PlanType)
	if err != nil {
		return nil, err
	}
	quota, err := vo.NewPlanQuota(s.TokensPerMonth, s.RequestsPerMinute, s.RequestsPerDay,
		s.MaxDocuments, s.MaxProjects, s.MaxAgents, s.AllowedModels)
	if err != nil {
		return nil, err
	}

	plan, err := subscription.NewPlan(s.Name, s.DisplayName, planType, s.PriceMonthly, s.PriceYearly, s.Currency, quota)
	if err != nil {
		return nil, err
	}
	if err := plan.UpdateDisplay(s.DisplayName, s.Description); err != nil {
		return nil, err
	}

	active, public := true, true
	if s.Active != nil {
		active = *s.Active
	}
	if s.Public != nil {
		public = *s.Public
	}
	plan.SetVisibility(active, public)
	plan.LinkStripe(s.StripePriceIDs.Monthly, s.StripePriceIDs.Yearly, s.StripeProductID)

	return plan, nil
}
