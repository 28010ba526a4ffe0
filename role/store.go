package role

import (
	"context"

	"github.com/xraph/rampart/id"
)

// Store defines persistence operations for roles.
//
// Implementations enforce slug uniqueness per organization and refuse to
// delete a role that any assignment still references.
type Store interface {
	// CreateRole persists a new role. Returns store.ErrConflict when the
	// organization already has a role with the same slug.
	CreateRole(ctx context.Context, r *Role) error

	// GetRole retrieves a role by ID.
	GetRole(ctx context.Context, roleID id.RoleID) (*Role, error)

	// GetRoleBySlug retrieves a role by organization and slug.
	GetRoleBySlug(ctx context.Context, organizationID, slug string) (*Role, error)

	// UpdateRole persists changes to name, slug, description and permissions.
	UpdateRole(ctx context.Context, r *Role) error

	// DeleteRole removes a role. Returns store.ErrInUse while assignments
	// reference it.
	DeleteRole(ctx context.Context, roleID id.RoleID) error

	// ListRoles returns roles matching the filter, oldest first.
	ListRoles(ctx context.Context, filter *ListFilter) ([]*Role, error)

	// CountRoles returns the number of roles matching the filter.
	CountRoles(ctx context.Context, filter *ListFilter) (int64, error)
}
