package rampart

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/rampart/assignment"
	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/resource"
)

// AssignRequest describes a role assignment.
type AssignRequest struct {
	UserID    string           `json:"user_id"`
	RoleID    id.RoleID        `json:"role_id"`
	Scope     assignment.Scope `json:"scope"`
	ScopeID   string           `json:"scope_id,omitempty"`
	GrantedBy string           `json:"granted_by,omitempty"`
}

// AssignRole assigns a role to a user at a scope. Assigning the same
// (user, role, scope, scope id) again returns the existing assignment.
func (e *Engine) AssignRole(ctx context.Context, req *AssignRequest) (*assignment.Assignment, error) {
	if err := assignment.ValidateScope(req.Scope, req.ScopeID); err != nil {
		return nil, err
	}
	r, err := e.GetRole(ctx, req.RoleID)
	if err != nil {
		return nil, err
	}

	userOrg, err := e.users.GetOrganizationID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("rampart: lookup user organization: %w", err)
	}
	if userOrg != r.OrganizationID {
		return nil, fmt.Errorf("%w: role %s and user %s", ErrCrossOrganizationResource, r.ID, req.UserID)
	}

	if rt, scoped := req.Scope.ResourceType(); scoped {
		ref := resource.Ref{Type: rt, ID: req.ScopeID}
		ok, err := e.resources.ResourceBelongsToOrganization(ctx, ref, r.OrganizationID)
		if err != nil {
			return nil, fmt.Errorf("rampart: lookup resource organization: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrCrossOrganizationResource, ref)
		}
	}

	stored, created, err := e.store.CreateAssignment(ctx, &assignment.Assignment{
		ID:             id.NewAssignmentID(),
		OrganizationID: r.OrganizationID,
		UserID:         req.UserID,
		RoleID:         r.ID,
		Scope:          req.Scope,
		ScopeID:        req.ScopeID,
		GrantedBy:      req.GrantedBy,
	})
	if err != nil {
		return nil, translate(err, ErrRoleNotFound, nil)
	}
	if created && e.plugins != nil {
		e.plugins.EmitRoleAssigned(ctx, stored)
	}
	return stored, nil
}

// RemoveRole deletes the assignment identified by k. Removing an
// assignment that does not exist succeeds.
func (e *Engine) RemoveRole(ctx context.Context, k assignment.Key) error {
	if err := k.Validate(); err != nil {
		return err
	}
	removed, err := e.store.DeleteAssignmentByKey(ctx, k)
	if err != nil {
		return fmt.Errorf("rampart: remove assignment: %w", err)
	}
	if removed != nil && e.plugins != nil {
		e.plugins.EmitRoleUnassigned(ctx, removed)
	}
	return nil
}

// ListUserAssignments returns every assignment of a user in an organization.
func (e *Engine) ListUserAssignments(ctx context.Context, userID, organizationID string) ([]*assignment.Assignment, error) {
	list, err := e.store.ListAssignments(ctx, &assignment.ListFilter{
		OrganizationID: organizationID,
		UserID:         userID,
	})
	if err != nil {
		return nil, fmt.Errorf("rampart: list user assignments: %w", err)
	}
	return list, nil
}

// ListScopeAssignments returns the membership of a scope: every assignment
// on a project or team, or every organization-wide assignment when scope is
// organization, in which case scopeID names the organization.
func (e *Engine) ListScopeAssignments(ctx context.Context, scope assignment.Scope, scopeID string) ([]*assignment.Assignment, error) {
	if !scope.Valid() || scopeID == "" {
		return nil, fmt.Errorf("%w: %s scope listing requires an id", ErrScopeMismatch, scope)
	}
	f := &assignment.ListFilter{Scope: scope, ScopeID: scopeID}
	if scope == assignment.ScopeOrganization {
		f = &assignment.ListFilter{Scope: scope, OrganizationID: scopeID}
	}
	list, err := e.store.ListAssignments(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("rampart: list scope assignments: %w", err)
	}
	return list, nil
}
