package rampart

import (
	"context"
	"sync"

	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/permission"
)

// Cache holds role permission sets between checks. It is an optional
// performance layer; the store stays the source of truth and the engine
// invalidates a role whenever it changes or is deleted.
type Cache interface {
	// GetRolePermissions returns the cached permission set of a role.
	GetRolePermissions(ctx context.Context, organizationID string, roleID id.RoleID) ([]permission.Permission, bool)

	// SetRolePermissions caches the permission set of a role.
	SetRolePermissions(ctx context.Context, organizationID string, roleID id.RoleID, perms []permission.Permission)

	// InvalidateRole drops a cached role.
	InvalidateRole(ctx context.Context, roleID id.RoleID)
}

// roleVersions counts invalidations per role. A check that loaded a role
// before an invalidation must not leave that permission set cached.
type roleVersions struct {
	mu sync.Mutex
	m  map[id.RoleID]uint64
}

func (v *roleVersions) current(roleID id.RoleID) uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.m[roleID]
}

func (v *roleVersions) bump(roleID id.RoleID) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.m == nil {
		v.m = make(map[id.RoleID]uint64)
	}
	v.m[roleID]++
}

// cacheRole stores a permission set loaded at version. The set is skipped,
// or dropped again, when the role was invalidated meanwhile.
func (e *Engine) cacheRole(ctx context.Context, organizationID string, roleID id.RoleID, perms []permission.Permission, version uint64) {
	if e.versions.current(roleID) != version {
		return
	}
	e.cache.SetRolePermissions(ctx, organizationID, roleID, perms)
	if e.versions.current(roleID) != version {
		e.cache.InvalidateRole(ctx, roleID)
	}
}

// invalidateRole bumps the role version before dropping the cached set.
func (e *Engine) invalidateRole(ctx context.Context, roleID id.RoleID) {
	if e.cache == nil {
		return
	}
	e.versions.bump(roleID)
	e.cache.InvalidateRole(ctx, roleID)
}
