package subscription

import (
	"context"
	"errors"
)

var ErrCredentialNotFound = errors.New("credential not found")

// CredentialSpec describes the limits an external credential must enforce.
type CredentialSpec struct {
	UserID              string
	UserEmail           string
	PlanID              string
	PlanName            string
	AllowedModels       []string
	RequestsPerMinute   int
	MaxParallelRequests int
}

func NewCredentialSpec(userID, userEmail string, plan *Plan) CredentialSpec {
	quota := plan.Quota()
	return CredentialSpec{
		UserID:              userID,
		UserEmail:           userEmail,
		PlanID:              plan.ID(),
		PlanName:            plan.Name(),
		AllowedModels:       quota.AllowedModels,
		RequestsPerMinute:   quota.RequestsPerMinute,
		MaxParallelRequests: quota.MaxParallelRequests(),
	}
}

// CredentialInfo is the provisioning system's view of an issued credential.
type CredentialInfo struct {
	ID                  string
	AllowedModels       []string
	RequestsPerMinute   int
	MaxParallelRequests int
	Disabled            bool
}

// IsEnabled reports whether the credential still grants any capability.
func (c *CredentialInfo) IsEnabled() bool {
	return !c.Disabled && (len(c.AllowedModels) > 0 || c.RequestsPerMinute > 0)
}

// EntitlementProvisioner issues and revokes credentials on the access-provisioning system.
// When the backend is not configured every call is a no-op: Create returns an empty id
// and Info returns (nil, nil). Transport failures and remote rejections both surface as
// a non-nil error; callers treat them as recoverable.
type EntitlementProvisioner interface {
	Create(ctx context.Context, spec CredentialSpec) (string, error)
	Update(ctx context.Context, credentialID string, spec CredentialSpec) error
	// Disable zeroes the credential's limits rather than deleting it.
	Disable(ctx context.Context, credentialID string) error
	// Info returns ErrCredentialNotFound when the backend has no such credential.
	Info(ctx context.Context, credentialID string) (*CredentialInfo, error)
}
