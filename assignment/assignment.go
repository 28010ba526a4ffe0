// Package assignment defines the binding of a user to a role at a scope.
package assignment

import (
	"errors"
	"fmt"
	"time"

	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/resource"
)

// ErrScopeMismatch is returned when the scope id does not fit the scope:
// organization scope takes no id, project and team scopes require one.
var ErrScopeMismatch = errors.New("rampart: scope mismatch")

// Scope is the breadth at which an assignment applies.
type Scope string

const (
	// ScopeOrganization applies across the whole organization.
	ScopeOrganization Scope = "organization"

	// ScopeProject applies to a single project.
	ScopeProject Scope = Scope(resource.Project)

	// ScopeTeam applies to a single team.
	ScopeTeam Scope = Scope(resource.Team)
)

// ScopeOf returns the assignment scope matching a resource type.
func ScopeOf(t resource.Type) Scope { return Scope(t) }

// ResourceType returns the resource type for project and team scopes.
func (s Scope) ResourceType() (resource.Type, bool) {
	t := resource.Type(s)
	return t, t.Valid()
}

// Valid reports whether s is a known scope.
func (s Scope) Valid() bool {
	if s == ScopeOrganization {
		return true
	}
	_, ok := s.ResourceType()
	return ok
}

// Assignment binds a user to a role within an organization, optionally
// narrowed to one project or team.
type Assignment struct {
	ID             id.AssignmentID `json:"id" db:"id"`
	OrganizationID string          `json:"organization_id" db:"organization_id"`
	UserID         string          `json:"user_id" db:"user_id"`
	RoleID         id.RoleID       `json:"role_id" db:"role_id"`
	Scope          Scope           `json:"scope" db:"scope"`
	ScopeID        string          `json:"scope_id,omitempty" db:"scope_id"`
	GrantedBy      string          `json:"granted_by,omitempty" db:"granted_by"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// Key returns the unique identity tuple of a.
func (a *Assignment) Key() Key {
	return Key{UserID: a.UserID, RoleID: a.RoleID, Scope: a.Scope, ScopeID: a.ScopeID}
}

// Key is the composite identity (user, role, scope, scope id). At most one
// assignment exists per key.
type Key struct {
	UserID  string    `json:"user_id"`
	RoleID  id.RoleID `json:"role_id"`
	Scope   Scope     `json:"scope"`
	ScopeID string    `json:"scope_id,omitempty"`
}

// Validate checks the scope shape of k.
func (k Key) Validate() error {
	return ValidateScope(k.Scope, k.ScopeID)
}

// String renders the key for logs and cache keys.
func (k Key) String() string {
	return k.UserID + "|" + k.RoleID.String() + "|" + string(k.Scope) + "|" + k.ScopeID
}

// ValidateScope checks that scopeID is empty for organization scope and
// present for project and team scopes.
func ValidateScope(s Scope, scopeID string) error {
	switch {
	case !s.Valid():
		return fmt.Errorf("%w: unknown scope %q", ErrScopeMismatch, string(s))
	case s == ScopeOrganization && scopeID != "":
		return fmt.Errorf("%w: organization scope takes no scope id", ErrScopeMismatch)
	case s != ScopeOrganization && scopeID == "":
		return fmt.Errorf("%w: %s scope requires a scope id", ErrScopeMismatch, s)
	}
	return nil
}

// ListFilter contains filters for listing assignments.
type ListFilter struct {
	OrganizationID string     `json:"organization_id,omitempty"`
	UserID         string     `json:"user_id,omitempty"`
	RoleID         *id.RoleID `json:"role_id,omitempty"`
	Scope          Scope      `json:"scope,omitempty"`
	ScopeID        string     `json:"scope_id,omitempty"`
	Limit          int        `json:"limit,omitempty"`
	Offset         int        `json:"offset,omitempty"`
}
