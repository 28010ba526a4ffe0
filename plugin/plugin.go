// Package plugin defines the lifecycle hooks rampart fires. Each hook is its
// own interface so a plugin implements only the events it cares about,
// typically for metrics, tracing or cache fan-out.
package plugin

import (
	"context"

	"github.com/xraph/rampart/assignment"
	"github.com/xraph/rampart/grant"
	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/role"
)

// Plugin is the base interface all plugins must implement.
type Plugin interface {
	// Name returns a unique human-readable name for the plugin.
	Name() string
}

// ──────────────────────────────────────────────────
// Check hooks
// ──────────────────────────────────────────────────

// BeforeCheck is called before a permission check is resolved.
// req is a *rampart.CheckRequest, passed as any to avoid an import cycle.
type BeforeCheck interface {
	OnBeforeCheck(ctx context.Context, req any) error
}

// AfterCheck is called with the outcome of every resolved check.
// req is a *rampart.CheckRequest and result a *rampart.CheckResult.
type AfterCheck interface {
	OnAfterCheck(ctx context.Context, req, result any) error
}

// ──────────────────────────────────────────────────
// Role hooks
// ──────────────────────────────────────────────────

// RoleCreated is called after a role is created, including provisioned ones.
type RoleCreated interface {
	OnRoleCreated(ctx context.Context, r *role.Role) error
}

// RoleUpdated is called after a role is updated.
type RoleUpdated interface {
	OnRoleUpdated(ctx context.Context, r *role.Role) error
}

// RoleDeleted is called after a role is deleted.
type RoleDeleted interface {
	OnRoleDeleted(ctx context.Context, roleID id.RoleID) error
}

// DefaultsProvisioned is called after ProvisionDefaults, whether or not it
// had to create anything.
type DefaultsProvisioned interface {
	OnDefaultsProvisioned(ctx context.Context, organizationID string, roles []*role.Role) error
}

// ──────────────────────────────────────────────────
// Assignment and grant hooks
// ──────────────────────────────────────────────────

// RoleAssigned is called after a new assignment is stored. Idempotent
// re-assignments do not fire it.
type RoleAssigned interface {
	OnRoleAssigned(ctx context.Context, a *assignment.Assignment) error
}

// RoleUnassigned is called after an existing assignment is removed.
type RoleUnassigned interface {
	OnRoleUnassigned(ctx context.Context, a *assignment.Assignment) error
}

// GrantChanged is called with the resulting grant after a grant or revoke.
type GrantChanged interface {
	OnGrantChanged(ctx context.Context, g *grant.Grant) error
}

// ──────────────────────────────────────────────────
// Shutdown hook
// ──────────────────────────────────────────────────

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
