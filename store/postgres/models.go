package postgres

import (
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/rampart/assignment"
	"github.com/xraph/rampart/grant"
	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/resource"
	"github.com/xraph/rampart/role"
)

// ──────────────────────────────────────────────────
// Role model
// ──────────────────────────────────────────────────

type roleModel struct {
	grove.BaseModel `grove:"table:rampart_roles"`
	ID              string    `grove:"id,pk"`
	OrganizationID  string    `grove:"organization_id,notnull"`
	Name            string    `grove:"name,notnull"`
	Slug            string    `grove:"slug,notnull"`
	Description     string    `grove:"description"`
	Permissions     []string  `grove:"permissions,type:jsonb"`
	IsDefault       bool      `grove:"is_default,notnull"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

func roleToModel(r *role.Role) *roleModel {
	return &roleModel{
		ID:             r.ID.String(),
		OrganizationID: r.OrganizationID,
		Name:           r.Name,
		Slug:           r.Slug,
		Description:    r.Description,
		Permissions:    permission.Strings(r.Permissions),
		IsDefault:      r.IsDefault,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func roleFromModel(m *roleModel) *role.Role {
	rid, _ := id.ParseRoleID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &role.Role{
		ID:             rid,
		OrganizationID: m.OrganizationID,
		Name:           m.Name,
		Slug:           m.Slug,
		Description:    m.Description,
		Permissions:    permission.FromStrings(m.Permissions),
		IsDefault:      m.IsDefault,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Assignment model
// ──────────────────────────────────────────────────

type assignmentModel struct {
	grove.BaseModel `grove:"table:rampart_assignments"`
	ID              string    `grove:"id,pk"`
	OrganizationID  string    `grove:"organization_id,notnull"`
	UserID          string    `grove:"user_id,notnull"`
	RoleID          string    `grove:"role_id,notnull"`
	Scope           string    `grove:"scope,notnull"`
	ScopeID         string    `grove:"scope_id,notnull"`
	GrantedBy       string    `grove:"granted_by"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
}

func assignmentToModel(a *assignment.Assignment) *assignmentModel {
	return &assignmentModel{
		ID:             a.ID.String(),
		OrganizationID: a.OrganizationID,
		UserID:         a.UserID,
		RoleID:         a.RoleID.String(),
		Scope:          string(a.Scope),
		ScopeID:        a.ScopeID,
		GrantedBy:      a.GrantedBy,
		CreatedAt:      a.CreatedAt,
	}
}

func assignmentFromModel(m *assignmentModel) *assignment.Assignment {
	aid, _ := id.ParseAssignmentID(m.ID) //nolint:errcheck // stored IDs are always valid
	rid, _ := id.ParseRoleID(m.RoleID)   //nolint:errcheck // stored IDs are always valid
	return &assignment.Assignment{
		ID:             aid,
		OrganizationID: m.OrganizationID,
		UserID:         m.UserID,
		RoleID:         rid,
		Scope:          assignment.Scope(m.Scope),
		ScopeID:        m.ScopeID,
		GrantedBy:      m.GrantedBy,
		CreatedAt:      m.CreatedAt,
	}
}

// roleIDsFromModels parses the role ids of assignment rows. A row with an
// unparseable id is reported rather than skipped.
func roleIDsFromModels(models []assignmentModel) ([]id.RoleID, error) {
	result := make([]id.RoleID, 0, len(models))
	for _, m := range models {
		rid, err := id.ParseRoleID(m.RoleID)
		if err != nil {
			return nil, fmt.Errorf("rampart: assignment %s has invalid role id %q: %w", m.ID, m.RoleID, err)
		}
		result = append(result, rid)
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Grant model
// ──────────────────────────────────────────────────

// grantModel is one permission of a direct grant. The primary key is the
// (resource, user, permission) triple.
type grantModel struct {
	grove.BaseModel `grove:"table:rampart_grants"`
	ResourceType    string    `grove:"resource_type,pk"`
	ResourceID      string    `grove:"resource_id,pk"`
	UserID          string    `grove:"user_id,pk"`
	Permission      string    `grove:"permission,pk"`
	OrganizationID  string    `grove:"organization_id,notnull"`
	GrantedBy       string    `grove:"granted_by"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
}

func grantToModel(e *grant.Entry) grantModel {
	return grantModel{
		ResourceType:   string(e.ResourceType),
		ResourceID:     e.ResourceID,
		UserID:         e.UserID,
		Permission:     string(e.Permission),
		OrganizationID: e.OrganizationID,
		GrantedBy:      e.GrantedBy,
		CreatedAt:      e.CreatedAt,
	}
}

func grantFromModel(m *grantModel) *grant.Entry {
	return &grant.Entry{
		OrganizationID: m.OrganizationID,
		ResourceType:   resource.Type(m.ResourceType),
		ResourceID:     m.ResourceID,
		UserID:         m.UserID,
		Permission:     permission.Permission(m.Permission),
		GrantedBy:      m.GrantedBy,
		CreatedAt:      m.CreatedAt,
	}
}
