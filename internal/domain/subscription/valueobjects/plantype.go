package valueobjects

import "fmt"

// PlanType is the tier a plan grants. The same value is cached on the user as tier.
type PlanType string

const (
	PlanTypeFree       PlanType = "free"
	PlanTypePro        PlanType = "pro"
	PlanTypeEnterprise PlanType = "enterprise"
)

// IsValid checks if the plan type is valid
func (pt PlanType) IsValid() bool {
	return pt == PlanTypeFree || pt == PlanTypePro || pt == PlanTypeEnterprise
}

func (pt PlanType) String() string {
	return string(pt)
}

// NewPlanType creates a new PlanType from a string
func NewPlanType(s string) (PlanType, error) {
	pt := PlanType(s)
	if !pt.IsValid() {
		return "", fmt.Errorf("invalid plan type: %s, must be 'free', 'pro', or 'enterprise'", s)
	}
	return pt, nil
}
