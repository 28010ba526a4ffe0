package assignment

import (
	"context"

	"github.com/xraph/rampart/id"
)

// Store defines persistence operations for role assignments.
type Store interface {
	// CreateAssignment persists a unless an assignment with the same Key
	// exists, in which case the existing record is returned with
	// created=false. Returns store.ErrNotFound when the role does not exist.
	CreateAssignment(ctx context.Context, a *Assignment) (stored *Assignment, created bool, err error)

	// GetAssignment retrieves an assignment by ID.
	GetAssignment(ctx context.Context, assID id.AssignmentID) (*Assignment, error)

	// DeleteAssignmentByKey removes the assignment identified by k and
	// returns it. Returns (nil, nil) when no such assignment exists.
	DeleteAssignmentByKey(ctx context.Context, k Key) (*Assignment, error)

	// ListAssignments returns assignments matching the filter, oldest first.
	ListAssignments(ctx context.Context, filter *ListFilter) ([]*Assignment, error)

	// CountAssignments returns the number of assignments matching the filter.
	CountAssignments(ctx context.Context, filter *ListFilter) (int64, error)

	// ListRoleIDsForUser returns the roles a user holds in an organization at
	// exactly (scope, scopeID).
	ListRoleIDsForUser(ctx context.Context, organizationID, userID string, scope Scope, scopeID string) ([]id.RoleID, error)
}
