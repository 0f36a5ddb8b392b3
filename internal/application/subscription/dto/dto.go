package dto

import "time"

type SubscriptionDTO struct {
	ID                   string     `json:"id"`
	UserID               string     `json:"user_id"`
	PlanID               string     `json:"plan_id"`
	Status               string     `json:"status"`
	BillingInterval      string     `json:"billing_interval"`
	StartDate            time.Time  `json:"start_date"`
	TrialEndDate         *time.Time `json:"trial_end_date,omitempty"`
	CurrentPeriodStart   *time.Time `json:"current_period_start,omitempty"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end,omitempty"`
	CanceledAt           *time.Time `json:"canceled_at,omitempty"`
	EndDate              *time.Time `json:"end_date,omitempty"`
	CancelReason         string     `json:"cancel_reason,omitempty"`
	CancelAtPeriodEnd    bool       `json:"cancel_at_period_end"`
	StripeSubscriptionID string     `json:"stripe_subscription_id,omitempty"`
	StripeCustomerID     string     `json:"stripe_customer_id,omitempty"`
	HasCredential        bool       `json:"has_credential"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

type UserSummaryDTO struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Tier     string `json:"tier"`
}

type PlanSummaryDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DisplayName  string `json:"display_name"`
	PlanType     string `json:"plan_type"`
	PriceMonthly int64  `json:"price_monthly"`
	PriceYearly  *int64 `json:"price_yearly,omitempty"`
	Currency     string `json:"currency"`
}

// SubscriptionDetailDTO is a subscription with its owner and plan resolved.
// Either summary is nil when the referenced row no longer exists.
type SubscriptionDetailDTO struct {
	*SubscriptionDTO
	User *UserSummaryDTO `json:"user,omitempty"`
	Plan *PlanSummaryDTO `json:"plan,omitempty"`
}

// TransitionResultDTO reports a committed transition and whether the
// provisioning system is known to match it.
type TransitionResultDTO struct {
	Subscription *SubscriptionDTO `json:"subscription"`
	Outcome      string           `json:"outcome"`
	DriftReason  string           `json:"drift_reason,omitempty"`
}

type QuotaDTO struct {
	TokensPerMonth    int64    `json:"tokens_per_month"`
	RequestsPerMinute int      `json:"requests_per_minute"`
	RequestsPerDay    int      `json:"requests_per_day"`
	MaxDocuments      int      `json:"max_documents"`
	MaxProjects       int      `json:"max_projects"`
	MaxAgents         int      `json:"max_agents"`
	AllowedModels     []string `json:"allowed_models"`
}

type PlanDTO struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	DisplayName          string    `json:"display_name"`
	Description          string    `json:"description"`
	PlanType             string    `json:"plan_type"`
	PriceMonthly         int64     `json:"price_monthly"`
	PriceYearly          *int64    `json:"price_yearly,omitempty"`
	Currency             string    `json:"currency"`
	Quota                QuotaDTO  `json:"quota"`
	IsActive             bool      `json:"is_active"`
	IsPublic             bool      `json:"is_public"`
	StripePriceIDMonthly string    `json:"stripe_price_id_monthly,omitempty"`
	StripePriceIDYearly  string    `json:"stripe_price_id_yearly,omitempty"`
	StripeProductID      string    `json:"stripe_product_id,omitempty"`
	SubscriberCount      *int64    `json:"subscriber_count,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// PublicPlanDTO is the catalog entry shown to anonymous visitors.
type PublicPlanDTO struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	DisplayName     string   `json:"display_name"`
	DescriptionHTML string   `json:"description_html"`
	PlanType        string   `json:"plan_type"`
	PriceMonthly    int64    `json:"price_monthly"`
	PriceYearly     *int64   `json:"price_yearly,omitempty"`
	Currency        string   `json:"currency"`
	Quota           QuotaDTO `json:"quota"`
}
