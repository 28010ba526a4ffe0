package api

import (
	"context"
	"errors"

	"github.com/xraph/forge"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/role"
)

// mapError maps domain errors to Forge HTTP errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return forge.NotFound(err.Error())
	}
	if isInvalid(err) {
		return forge.BadRequest(err.Error())
	}
	if errors.Is(err, rampart.ErrDuplicateName) || errors.Is(err, rampart.ErrRoleInUse) || errors.Is(err, rampart.ErrProtectedRole) {
		return forge.BadRequest(err.Error())
	}
	if errors.Is(err, rampart.ErrCrossOrganizationResource) {
		return forge.Forbidden(err.Error())
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, rampart.ErrRoleNotFound) ||
		errors.Is(err, rampart.ErrOrganizationNotFound) ||
		errors.Is(err, rampart.ErrUserNotFound)
}

func isInvalid(err error) bool {
	return errors.Is(err, rampart.ErrUnknownPermission) ||
		errors.Is(err, rampart.ErrInvalidResource) ||
		errors.Is(err, rampart.ErrScopeMismatch) ||
		errors.Is(err, rampart.ErrInvalidName)
}

// organization returns the caller's organization or a 400 when the request
// carries no scope.
func organization(ctx context.Context) (string, error) {
	org := rampart.OrganizationFromContext(ctx)
	if org == "" {
		return "", forge.BadRequest("organization scope is required")
	}
	return org, nil
}

// ownedRole loads a role and hides roles of other organizations behind a
// not-found.
func (a *API) ownedRole(ctx context.Context, org string, roleID id.RoleID) (*role.Role, error) {
	r, err := a.eng.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if r.OrganizationID != org {
		return nil, rampart.ErrRoleNotFound
	}
	return r, nil
}

func defaultLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

// page slices items by offset and limit.
func page[T any](items []T, limit, offset int) []T {
	if offset < 0 || offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit < len(items) {
		items = items[:limit]
	}
	return items
}
