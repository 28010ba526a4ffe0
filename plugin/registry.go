package plugin

import (
	"context"
	"log/slog"

	"github.com/xraph/rampart/assignment"
	"github.com/xraph/rampart/grant"
	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/role"
)

// entry pairs a hook with its plugin name for logging.
type entry[H any] struct {
	name string
	hook H
}

// Registry holds registered plugins and dispatches lifecycle events. Hooks
// are sorted into per-event lists at registration so an emit only visits
// plugins that implement it.
type Registry struct {
	plugins []Plugin
	logger  *slog.Logger

	beforeCheck         []entry[BeforeCheck]
	afterCheck          []entry[AfterCheck]
	roleCreated         []entry[RoleCreated]
	roleUpdated         []entry[RoleUpdated]
	roleDeleted         []entry[RoleDeleted]
	defaultsProvisioned []entry[DefaultsProvisioned]
	roleAssigned        []entry[RoleAssigned]
	roleUnassigned      []entry[RoleUnassigned]
	grantChanged        []entry[GrantChanged]
	shutdown            []entry[Shutdown]
}

// NewRegistry creates a plugin registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// collect appends p to list when it implements H.
func collect[H any](list []entry[H], p Plugin) []entry[H] {
	if h, ok := p.(H); ok {
		return append(list, entry[H]{name: p.Name(), hook: h})
	}
	return list
}

// Register adds a plugin. Plugins are notified in registration order.
func (r *Registry) Register(p Plugin) {
	r.plugins = append(r.plugins, p)
	r.beforeCheck = collect(r.beforeCheck, p)
	r.afterCheck = collect(r.afterCheck, p)
	r.roleCreated = collect(r.roleCreated, p)
	r.roleUpdated = collect(r.roleUpdated, p)
	r.roleDeleted = collect(r.roleDeleted, p)
	r.defaultsProvisioned = collect(r.defaultsProvisioned, p)
	r.roleAssigned = collect(r.roleAssigned, p)
	r.roleUnassigned = collect(r.roleUnassigned, p)
	r.grantChanged = collect(r.grantChanged, p)
	r.shutdown = collect(r.shutdown, p)
}

// Plugins returns all registered plugins.
func (r *Registry) Plugins() []Plugin { return r.plugins }

// dispatch calls fn for every entry and logs hook errors. Hook errors never
// reach the caller of the operation that fired them.
func dispatch[H any](r *Registry, hookName string, list []entry[H], fn func(H) error) {
	for _, e := range list {
		if err := fn(e.hook); err != nil {
			r.logger.Warn("plugin hook error",
				slog.String("hook", hookName),
				slog.String("plugin", e.name),
				slog.String("error", err.Error()),
			)
		}
	}
}

// EmitBeforeCheck notifies BeforeCheck plugins.
func (r *Registry) EmitBeforeCheck(ctx context.Context, req any) {
	dispatch(r, "OnBeforeCheck", r.beforeCheck, func(h BeforeCheck) error { return h.OnBeforeCheck(ctx, req) })
}

// EmitAfterCheck notifies AfterCheck plugins.
func (r *Registry) EmitAfterCheck(ctx context.Context, req, result any) {
	dispatch(r, "OnAfterCheck", r.afterCheck, func(h AfterCheck) error { return h.OnAfterCheck(ctx, req, result) })
}

// EmitRoleCreated notifies RoleCreated plugins.
func (r *Registry) EmitRoleCreated(ctx context.Context, rl *role.Role) {
	dispatch(r, "OnRoleCreated", r.roleCreated, func(h RoleCreated) error { return h.OnRoleCreated(ctx, rl) })
}

// EmitRoleUpdated notifies RoleUpdated plugins.
func (r *Registry) EmitRoleUpdated(ctx context.Context, rl *role.Role) {
	dispatch(r, "OnRoleUpdated", r.roleUpdated, func(h RoleUpdated) error { return h.OnRoleUpdated(ctx, rl) })
}

// EmitRoleDeleted notifies RoleDeleted plugins.
func (r *Registry) EmitRoleDeleted(ctx context.Context, roleID id.RoleID) {
	dispatch(r, "OnRoleDeleted", r.roleDeleted, func(h RoleDeleted) error { return h.OnRoleDeleted(ctx, roleID) })
}

// EmitDefaultsProvisioned notifies DefaultsProvisioned plugins.
func (r *Registry) EmitDefaultsProvisioned(ctx context.Context, organizationID string, roles []*role.Role) {
	dispatch(r, "OnDefaultsProvisioned", r.defaultsProvisioned, func(h DefaultsProvisioned) error {
		return h.OnDefaultsProvisioned(ctx, organizationID, roles)
	})
}

// EmitRoleAssigned notifies RoleAssigned plugins.
func (r *Registry) EmitRoleAssigned(ctx context.Context, a *assignment.Assignment) {
	dispatch(r, "OnRoleAssigned", r.roleAssigned, func(h RoleAssigned) error { return h.OnRoleAssigned(ctx, a) })
}

// EmitRoleUnassigned notifies RoleUnassigned plugins.
func (r *Registry) EmitRoleUnassigned(ctx context.Context, a *assignment.Assignment) {
	dispatch(r, "OnRoleUnassigned", r.roleUnassigned, func(h RoleUnassigned) error { return h.OnRoleUnassigned(ctx, a) })
}

// EmitGrantChanged notifies GrantChanged plugins.
func (r *Registry) EmitGrantChanged(ctx context.Context, g *grant.Grant) {
	dispatch(r, "OnGrantChanged", r.grantChanged, func(h GrantChanged) error { return h.OnGrantChanged(ctx, g) })
}

// EmitShutdown notifies Shutdown plugins.
func (r *Registry) EmitShutdown(ctx context.Context) {
	dispatch(r, "OnShutdown", r.shutdown, func(h Shutdown) error { return h.OnShutdown(ctx) })
}
