package rampart

import (
	"errors"

	"github.com/xraph/rampart/assignment"
	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/resource"
)

var (
	// ErrUnknownPermission is returned for a permission outside the catalog.
	ErrUnknownPermission = permission.ErrUnknownPermission

	// ErrScopeMismatch is returned when a scope id is given for organization
	// scope or missing for project and team scope.
	ErrScopeMismatch = assignment.ErrScopeMismatch

	// ErrInvalidResource is returned for a malformed resource reference.
	ErrInvalidResource = resource.ErrInvalid

	// ErrOrganizationNotFound is returned when the organization is unknown.
	ErrOrganizationNotFound = errors.New("rampart: organization not found")

	// ErrUserNotFound is returned by directories for an unknown user.
	ErrUserNotFound = errors.New("rampart: user not found")

	// ErrRoleNotFound is returned when a role cannot be found.
	ErrRoleNotFound = errors.New("rampart: role not found")

	// ErrDuplicateName is returned when an organization already has a role
	// with the same name, compared case-insensitively.
	ErrDuplicateName = errors.New("rampart: duplicate role name")

	// ErrInvalidName is returned for an empty role name.
	ErrInvalidName = errors.New("rampart: invalid role name")

	// ErrRoleInUse is returned when deleting a role that is still assigned.
	ErrRoleInUse = errors.New("rampart: role in use")

	// ErrProtectedRole is returned when deleting or renaming one of the
	// reserved roles, or claiming a reserved name for a custom role.
	ErrProtectedRole = errors.New("rampart: protected role")

	// ErrCrossOrganizationResource is returned when a role, user or resource
	// does not belong to the organization the operation targets.
	ErrCrossOrganizationResource = errors.New("rampart: resource belongs to another organization")

	// ErrStoreRequired is returned by NewEngine without a store.
	ErrStoreRequired = errors.New("rampart: store is required")

	// ErrDirectoryRequired is returned by NewEngine without user and
	// resource directories.
	ErrDirectoryRequired = errors.New("rampart: user and resource directories are required")
)
