package grant

import (
	"context"

	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/resource"
)

// Store defines persistence operations for direct resource grants.
type Store interface {
	// AddGrantEntries inserts entries, skipping any (resource, user,
	// permission) triple that already exists.
	AddGrantEntries(ctx context.Context, entries []*Entry) error

	// RemoveGrantEntries deletes the listed permissions of a user on a
	// resource. An empty list removes every entry of the pair.
	RemoveGrantEntries(ctx context.Context, ref resource.Ref, userID string, perms []permission.Permission) error

	// ListGrantEntries returns entries matching the filter, oldest first.
	ListGrantEntries(ctx context.Context, filter *ListFilter) ([]*Entry, error)

	// ListGrantedPermissions returns the permissions directly granted to a
	// user on a resource.
	ListGrantedPermissions(ctx context.Context, ref resource.Ref, userID string) ([]permission.Permission, error)
}
