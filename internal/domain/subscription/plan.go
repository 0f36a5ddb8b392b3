package subscription

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/currency"

	vo "github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription/valueobjects"
)

const defaultCurrency = "USD"

// Plan is a purchasable tier. Prices are stored in minor currency units.
type Plan struct {
	id                   string
	name                 string
	displayName          string
	description          string
	planType             vo.PlanType
	priceMonthly         int64
	priceYearly          *int64
	currency             string
	quota                vo.PlanQuota
	isActive             bool
	isPublic             bool
	stripePriceIDMonthly string
	stripePriceIDYearly  string
	stripeProductID      string
	createdAt            time.Time
	updatedAt            time.Time
}

func NewPlan(name, displayName string, planType vo.PlanType, priceMonthly int64, priceYearly *int64,
	currencyCode string, quota vo.PlanQuota) (*Plan, error) {

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("plan name is required")
	}
	if len(name) > 50 {
		return nil, fmt.Errorf("plan name too long (max 50 characters)")
	}
	if strings.TrimSpace(displayName) == "" {
		return nil, fmt.Errorf("plan display name is required")
	}
	if !planType.IsValid() {
		return nil, fmt.Errorf("invalid plan type: %s", planType)
	}
	if err := validatePrices(priceMonthly, priceYearly); err != nil {
		return nil, err
	}
	code, err := normalizeCurrency(currencyCode)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Plan{
		name:         name,
		displayName:  displayName,
		planType:     planType,
		priceMonthly: priceMonthly,
		priceYearly:  priceYearly,
		currency:     code,
		quota:        quota,
		isActive:     true,
		isPublic:     true,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// ReconstructPlan rebuilds a plan from persistence
func ReconstructPlan(id, name, displayName, description string, planType vo.PlanType,
	priceMonthly int64, priceYearly *int64, currencyCode string, quota vo.PlanQuota,
	isActive, isPublic bool, stripePriceIDMonthly, stripePriceIDYearly, stripeProductID string,
	createdAt, updatedAt time.Time) (*Plan, error) {

	if id == "" {
		return nil, fmt.Errorf("plan ID cannot be empty")
	}
	if !planType.IsValid() {
		return nil, fmt.Errorf("invalid plan type: %s", planType)
	}

	return &Plan{
		id:                   id,
		name:                 name,
		displayName:          displayName,
		description:          description,
		planType:             planType,
		priceMonthly:         priceMonthly,
		priceYearly:          priceYearly,
		currency:             currencyCode,
		quota:                quota,
		isActive:             isActive,
		isPublic:             isPublic,
		stripePriceIDMonthly: stripePriceIDMonthly,
		stripePriceIDYearly:  stripePriceIDYearly,
		stripeProductID:      stripeProductID,
		createdAt:            createdAt,
		updatedAt:            updatedAt,
	}, nil
}

func (p *Plan) ID() string {
	return p.id
}

func (p *Plan) Name() string {
	return p.name
}

func (p *Plan) DisplayName() string {
	return p.displayName
}

func (p *Plan) Description() string {
	return p.description
}

func (p *Plan) PlanType() vo.PlanType {
	return p.planType
}

func (p *Plan) PriceMonthly() int64 {
	return p.priceMonthly
}

func (p *Plan) PriceYearly() *int64 {
	return p.priceYearly
}

func (p *Plan) Currency() string {
	return p.currency
}

func (p *Plan) Quota() vo.PlanQuota {
	return p.quota
}

func (p *Plan) IsActive() bool {
	return p.isActive
}

func (p *Plan) IsPublic() bool {
	return p.isPublic
}

func (p *Plan) StripePriceIDMonthly() string {
	return p.stripePriceIDMonthly
}

func (p *Plan) StripePriceIDYearly() string {
	return p.stripePriceIDYearly
}

func (p *Plan) StripeProductID() string {
	return p.stripeProductID
}

func (p *Plan) CreatedAt() time.Time {
	return p.createdAt
}

func (p *Plan) UpdatedAt() time.Time {
	return p.updatedAt
}

// SetID sets the plan ID (only for persistence layer use)
func (p *Plan) SetID(id string) error {
	if p.id != "" {
		return fmt.Errorf("plan ID is already set")
	}
	if id == "" {
		return fmt.Errorf("plan ID cannot be empty")
	}
	p.id = id
	return nil
}

// IsUpgradeFrom reports whether moving from current to p raises the monthly price.
// Direction is decided by monthly price only, whatever interval the subscription bills on.
func (p *Plan) IsUpgradeFrom(current *Plan) bool {
	return p.priceMonthly > current.priceMonthly
}

func (p *Plan) UpdateDisplay(displayName, description string) error {
	if strings.TrimSpace(displayName) == "" {
		return fmt.Errorf("plan display name is required")
	}
	p.displayName = displayName
	p.description = description
	p.touch()
	return nil
}

func (p *Plan) UpdatePricing(priceMonthly int64, priceYearly *int64, currencyCode string) error {
	if err := validatePrices(priceMonthly, priceYearly); err != nil {
		return err
	}
	code, err := normalizeCurrency(currencyCode)
	if err != nil {
		return err
	}
	p.priceMonthly = priceMonthly
	p.priceYearly = priceYearly
	p.currency = code
	p.touch()
	return nil
}

func (p *Plan) ChangeType(planType vo.PlanType) error {
	if !planType.IsValid() {
		return fmt.Errorf("invalid plan type: %s", planType)
	}
	p.planType = planType
	p.touch()
	return nil
}

func (p *Plan) UpdateQuota(quota vo.PlanQuota) {
	p.quota = quota
	p.touch()
}

func (p *Plan) SetVisibility(isActive, isPublic bool) {
	p.isActive = isActive
	p.isPublic = isPublic
	p.touch()
}

func (p *Plan) LinkStripe(priceIDMonthly, priceIDYearly, productID string) {
	p.stripePriceIDMonthly = priceIDMonthly
	p.stripePriceIDYearly = priceIDYearly
	p.stripeProductID = productID
	p.touch()
}

func (p *Plan) touch() {
	p.updatedAt = time.Now().UTC()
}

func validatePrices(priceMonthly int64, priceYearly *int64) error {
	if priceMonthly < 0 {
		return fmt.Errorf("%w: monthly price cannot be negative", ErrInvalidPrice)
	}
	if priceYearly != nil && *priceYearly < 0 {
		return fmt.Errorf("%w: yearly price cannot be negative", ErrInvalidPrice)
	}
	return nil
}

func normalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return defaultCurrency, nil
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", fmt.Errorf("invalid currency code: %s", code)
	}
	return unit.String(), nil
}
