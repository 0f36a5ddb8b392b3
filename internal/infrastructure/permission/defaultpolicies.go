package permission

import (
	"fmt"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/permission"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/infrastructure/auth"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
)

// DefaultPolicies grants administrators full access to the admin API.
func DefaultPolicies() [][]string {
	return [][]string{
		{auth.RoleAdmin, "/admin/plans*", permission.ActionRead},
		{auth.RoleAdmin, "/admin/plans*", permission.ActionWrite},
		{auth.RoleAdmin, "/admin/subscriptions*", permission.ActionRead},
		{auth.RoleAdmin, "/admin/subscriptions*", permission.ActionWrite},
	}
}

// SeedDefaultPolicies adds any missing default policy. Existing ones are left alone.
func SeedDefaultPolicies(e permission.PermissionEnforcer, log logger.Interface) error {
	for _, policy := range DefaultPolicies() {
		if err := e.AddPolicy(policy[0], policy[1], policy[2]); err != nil {
			return fmt.Errorf("failed to add policy [%s, %s, %s]: %w",
				policy[0], policy[1], policy[2], err)
		}
	}

	log.Infow("default permissions initialized", "count", len(DefaultPolicies()))
	return nil
}
