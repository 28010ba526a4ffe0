// Package role defines the organization-scoped Role entity and its store
// interface.
package role

import (
	"strings"
	"time"

	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/permission"
)

// Reserved names of the roles every organization is provisioned with.
const (
	NameAdmin  = "admin"
	NameMember = "member"
	NameViewer = "viewer"
)

// Role is a named bundle of permissions owned by one organization.
type Role struct {
	ID             id.RoleID               `json:"id" db:"id"`
	OrganizationID string                  `json:"organization_id" db:"organization_id"`
	Name           string                  `json:"name" db:"name"`
	Slug           string                  `json:"slug" db:"slug"`
	Description    string                  `json:"description,omitempty" db:"description"`
	Permissions    []permission.Permission `json:"permissions" db:"permissions"`
	IsDefault      bool                    `json:"is_default" db:"is_default"`
	CreatedAt      time.Time               `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at" db:"updated_at"`
}

// IsProtected reports whether the role carries one of the reserved names.
func (r *Role) IsProtected() bool { return IsProtectedName(r.Name) }

// Patch holds a partial update. Nil fields are left unchanged; a non-nil
// empty Permissions slice clears the permission set.
type Patch struct {
	Name        *string                 `json:"name,omitempty"`
	Description *string                 `json:"description,omitempty"`
	Permissions []permission.Permission `json:"permissions,omitempty"`
}

// ListFilter contains filters for listing roles.
type ListFilter struct {
	OrganizationID string `json:"organization_id,omitempty"`
	IsDefault      *bool  `json:"is_default,omitempty"`
	Search         string `json:"search,omitempty"`
	Limit          int    `json:"limit,omitempty"`
	Offset         int    `json:"offset,omitempty"`
}

// Slugify returns the uniqueness key of a role name. Role names compare
// case-insensitively with surrounding whitespace ignored, so "Admin " and
// "admin" collide.
func Slugify(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// IsProtectedName reports whether name is reserved.
func IsProtectedName(name string) bool {
	switch Slugify(name) {
	case NameAdmin, NameMember, NameViewer:
		return true
	}
	return false
}

// ProtectedNames lists the reserved names in provisioning order.
func ProtectedNames() []string { return []string{NameAdmin, NameMember, NameViewer} }
