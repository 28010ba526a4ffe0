package rampart

import (
	"context"

	"github.com/xraph/rampart/resource"
)

// UserDirectory answers questions about users owned by another system.
type UserDirectory interface {
	// GetLegacyRole returns the coarse role on the user record.
	// Returns ErrUserNotFound for an unknown user.
	GetLegacyRole(ctx context.Context, userID string) (LegacyRole, error)

	// GetOrganizationID returns the organization the user belongs to.
	// Returns ErrUserNotFound for an unknown user.
	GetOrganizationID(ctx context.Context, userID string) (string, error)
}

// ResourceDirectory answers ownership questions about organizations,
// projects and teams.
type ResourceDirectory interface {
	// OrganizationExists reports whether the organization is known.
	OrganizationExists(ctx context.Context, organizationID string) (bool, error)

	// ResourceBelongsToOrganization reports whether the project or team
	// exists inside the organization. Unknown resources report false.
	ResourceBelongsToOrganization(ctx context.Context, ref resource.Ref, organizationID string) (bool, error)
}

// Directory is implemented by systems that can answer both.
type Directory interface {
	UserDirectory
	ResourceDirectory
}
