package permission

const (
	ActionRead  = "read"
	ActionWrite = "write"
)

// PermissionEnforcer answers whether a subject (a role or user id) may perform
// an action on a resource path.
type PermissionEnforcer interface {
	Enforce(subject, resource, action string) (bool, error)
	AddPolicy(role, resource, action string) error
	RemovePolicy(role, resource, action string) error
	LoadPolicy() error
}
