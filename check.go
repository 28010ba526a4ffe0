package rampart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/rampart/assignment"
	"github.com/xraph/rampart/bootstrap"
	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/resource"
	"github.com/xraph/rampart/store"
)

// HasPermission reports whether userID may use perm inside organizationID,
// optionally on a project or team. A missing grant is false, never an
// error; errors are reserved for malformed queries and failing
// collaborators.
func (e *Engine) HasPermission(ctx context.Context, userID, organizationID string, perm permission.Permission, res *resource.Ref) (bool, error) {
	result, err := e.Check(ctx, &CheckRequest{
		UserID:         userID,
		OrganizationID: organizationID,
		Permission:     perm,
		Resource:       res,
	})
	if err != nil {
		return false, err
	}
	return result.Allowed, nil
}

// Check is HasPermission with the reason attached. This is the hot path.
func (e *Engine) Check(ctx context.Context, req *CheckRequest) (*CheckResult, error) {
	start := time.Now()
	if req == nil {
		return nil, errors.New("rampart: nil check request")
	}

	if !permission.Exists(req.Permission) {
		e.logger.Error("permission check with unknown permission",
			slog.String("permission", string(req.Permission)),
			slog.String("user_id", req.UserID),
			slog.String("organization_id", req.OrganizationID),
		)
		return nil, fmt.Errorf("%w: %q", ErrUnknownPermission, string(req.Permission))
	}
	if req.Resource != nil {
		if err := req.Resource.Validate(); err != nil {
			return nil, err
		}
	}
	if err := e.requireOrganization(ctx, req.OrganizationID); err != nil {
		return nil, err
	}

	if e.plugins != nil {
		e.plugins.EmitBeforeCheck(ctx, req)
	}

	result, err := e.resolve(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("rampart check: %w", err)
	}
	result.EvalTimeNs = time.Since(start).Nanoseconds()

	if e.config.LogDecisions {
		e.logger.Debug("permission check",
			slog.String("user_id", req.UserID),
			slog.String("organization_id", req.OrganizationID),
			slog.String("permission", string(req.Permission)),
			slog.String("decision", string(result.Decision)),
		)
	}
	if e.plugins != nil {
		e.plugins.EmitAfterCheck(ctx, req, result)
	}
	return result, nil
}

// resolve walks the grant sources in order; the first match wins.
func (e *Engine) resolve(ctx context.Context, req *CheckRequest) (*CheckResult, error) {
	userOrg, err := e.users.GetOrganizationID(ctx, req.UserID)
	switch {
	case errors.Is(err, ErrUserNotFound):
		return denyCrossOrganization("user is not a member of the organization"), nil
	case err != nil:
		return nil, fmt.Errorf("lookup user organization: %w", err)
	case userOrg != req.OrganizationID:
		return denyCrossOrganization("user is not a member of the organization"), nil
	}

	// 1. Legacy fast path.
	if bootstrap.IsAdministrative(req.Permission) {
		legacy, err := e.users.GetLegacyRole(ctx, req.UserID)
		if err != nil && !errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("lookup legacy role: %w", err)
		}
		if legacy.Administers() {
			return allow(SourceLegacyRole, "", "legacy role "+string(legacy)), nil
		}
	}

	// 2. Organization-scope roles.
	matched, err := e.scopeGrants(ctx, req, assignment.ScopeOrganization, "")
	if err != nil {
		return nil, err
	}
	if matched != nil {
		return allow(SourceOrganizationRole, matched.String(), "organization role grants "+string(req.Permission)), nil
	}

	if req.Resource == nil {
		return denyNoGrant(), nil
	}

	// 3. Resource scope.
	belongs, err := e.resources.ResourceBelongsToOrganization(ctx, *req.Resource, req.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("lookup resource organization: %w", err)
	}
	if !belongs {
		return denyCrossOrganization(req.Resource.String() + " is not part of the organization"), nil
	}

	// 3a. Roles scoped to exactly this resource.
	matched, err = e.scopeGrants(ctx, req, assignment.ScopeOf(req.Resource.Type), req.Resource.ID)
	if err != nil {
		return nil, err
	}
	if matched != nil {
		return allow(SourceScopedRole, matched.String(), req.Resource.String()+" role grants "+string(req.Permission)), nil
	}

	// 3b. Direct grants.
	direct, err := e.store.ListGrantedPermissions(ctx, *req.Resource, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("list direct grants: %w", err)
	}
	for _, p := range direct {
		if p == req.Permission {
			return allow(SourceDirectGrant, req.Resource.String(), "direct grant on "+req.Resource.String()), nil
		}
	}

	return denyNoGrant(), nil
}

// scopeGrants returns the first role the user holds at (scope, scopeID)
// that carries the requested permission, or nil.
func (e *Engine) scopeGrants(ctx context.Context, req *CheckRequest, scope assignment.Scope, scopeID string) (*id.RoleID, error) {
	roleIDs, err := e.store.ListRoleIDsForUser(ctx, req.OrganizationID, req.UserID, scope, scopeID)
	if err != nil {
		return nil, fmt.Errorf("list %s roles: %w", scope, err)
	}
	for _, rid := range roleIDs {
		perms, err := e.rolePermissions(ctx, req.OrganizationID, rid)
		if err != nil {
			return nil, err
		}
		for _, p := range perms {
			if p == req.Permission {
				return &rid, nil
			}
		}
	}
	return nil, nil
}

// rolePermissions returns a role's permissions through the cache. Roles of
// another organization and roles deleted since the assignment was read
// contribute nothing.
func (e *Engine) rolePermissions(ctx context.Context, organizationID string, roleID id.RoleID) ([]permission.Permission, error) {
	var version uint64
	if e.cache != nil {
		if perms, ok := e.cache.GetRolePermissions(ctx, organizationID, roleID); ok {
			return perms, nil
		}
		version = e.versions.current(roleID)
	}
	r, err := e.store.GetRole(ctx, roleID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get role %s: %w", roleID, err)
	}
	if r.OrganizationID != organizationID {
		e.logger.Warn("assignment references a role of another organization",
			slog.String("role_id", roleID.String()),
			slog.String("organization_id", organizationID),
		)
		return nil, nil
	}
	if e.cache != nil {
		e.cacheRole(ctx, organizationID, roleID, r.Permissions, version)
	}
	return r.Permissions, nil
}

func allow(src Source, ruleID, detail string) *CheckResult {
	return &CheckResult{
		Allowed:   true,
		Decision:  DecisionAllow,
		MatchedBy: []MatchInfo{{Source: src, RuleID: ruleID, Detail: detail}},
	}
}

func denyNoGrant() *CheckResult {
	return &CheckResult{Decision: DecisionDenyNoGrant, Reason: "no role or grant carries the permission"}
}

func denyCrossOrganization(reason string) *CheckResult {
	return &CheckResult{Decision: DecisionDenyCrossOrganization, Reason: reason}
}
