package rampart

import (
	"context"
	"fmt"
	"strings"

	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/role"
)

// CreateRole creates a custom role in an organization. Role names are
// unique per organization, compared case-insensitively, and the reserved
// names admin, member and viewer are only created by ProvisionDefaults.
func (e *Engine) CreateRole(ctx context.Context, organizationID, name, description string, perms []permission.Permission) (*role.Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if role.IsProtectedName(name) {
		return nil, fmt.Errorf("%w: %q is reserved", ErrProtectedRole, name)
	}
	if err := permission.Validate(perms); err != nil {
		return nil, err
	}
	if err := e.requireOrganization(ctx, organizationID); err != nil {
		return nil, err
	}
	return e.insertRole(ctx, &role.Role{
		ID:             id.NewRoleID(),
		OrganizationID: organizationID,
		Name:           name,
		Slug:           role.Slugify(name),
		Description:    description,
		Permissions:    permission.Normalize(perms),
	})
}

func (e *Engine) insertRole(ctx context.Context, r *role.Role) (*role.Role, error) {
	if err := e.store.CreateRole(ctx, r); err != nil {
		return nil, translate(err, nil, fmt.Errorf("%w: %q", ErrDuplicateName, r.Name))
	}
	if e.plugins != nil {
		e.plugins.EmitRoleCreated(ctx, r)
	}
	return r, nil
}

// GetRole returns a role by id.
func (e *Engine) GetRole(ctx context.Context, roleID id.RoleID) (*role.Role, error) {
	r, err := e.store.GetRole(ctx, roleID)
	if err != nil {
		return nil, translate(err, ErrRoleNotFound, nil)
	}
	return r, nil
}

// UpdateRole applies a partial update. The reserved roles keep their names
// but their permission sets may be edited.
func (e *Engine) UpdateRole(ctx context.Context, roleID id.RoleID, patch role.Patch) (*role.Role, error) {
	r, err := e.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, ErrInvalidName
		}
		slug := role.Slugify(name)
		if slug != r.Slug {
			if r.IsProtected() {
				return nil, fmt.Errorf("%w: %q cannot be renamed", ErrProtectedRole, r.Name)
			}
			if role.IsProtectedName(name) {
				return nil, fmt.Errorf("%w: %q is reserved", ErrProtectedRole, name)
			}
		}
		r.Name = name
		r.Slug = slug
	}
	if patch.Description != nil {
		r.Description = *patch.Description
	}
	if patch.Permissions != nil {
		if err := permission.Validate(patch.Permissions); err != nil {
			return nil, err
		}
		r.Permissions = permission.Normalize(patch.Permissions)
	}

	if err := e.store.UpdateRole(ctx, r); err != nil {
		return nil, translate(err, ErrRoleNotFound, fmt.Errorf("%w: %q", ErrDuplicateName, r.Name))
	}
	e.invalidateRole(ctx, r.ID)
	if e.plugins != nil {
		e.plugins.EmitRoleUpdated(ctx, r)
	}
	return r, nil
}

// DeleteRole removes a role. Reserved roles cannot be deleted and a role
// that is still assigned must be unassigned first.
func (e *Engine) DeleteRole(ctx context.Context, roleID id.RoleID) error {
	r, err := e.GetRole(ctx, roleID)
	if err != nil {
		return err
	}
	if r.IsProtected() {
		return fmt.Errorf("%w: %q cannot be deleted", ErrProtectedRole, r.Name)
	}
	if err := e.store.DeleteRole(ctx, roleID); err != nil {
		return translate(err, ErrRoleNotFound, nil)
	}
	e.invalidateRole(ctx, roleID)
	if e.plugins != nil {
		e.plugins.EmitRoleDeleted(ctx, roleID)
	}
	return nil
}

// ListRoles returns every role of an organization, oldest first.
func (e *Engine) ListRoles(ctx context.Context, organizationID string) ([]*role.Role, error) {
	if err := e.requireOrganization(ctx, organizationID); err != nil {
		return nil, err
	}
	roles, err := e.store.ListRoles(ctx, &role.ListFilter{OrganizationID: organizationID})
	if err != nil {
		return nil, fmt.Errorf("rampart: list roles: %w", err)
	}
	return roles, nil
}
