// Package grant defines direct resource grants: permission sets attached to a
// (user, project|team) pair without going through a role.
//
// Grants are stored as one Entry per permission, so re-granting is a
// conflict-free insert and revoking is a delete of the listed entries.
package grant

import (
	"time"

	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/resource"
)

// Grant is the aggregated view of every entry for one (resource, user) pair.
type Grant struct {
	OrganizationID string                  `json:"organization_id"`
	ResourceType   resource.Type           `json:"resource_type"`
	ResourceID     string                  `json:"resource_id"`
	UserID         string                  `json:"user_id"`
	Permissions    []permission.Permission `json:"permissions"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

// Resource returns the granted resource.
func (g *Grant) Resource() resource.Ref {
	return resource.Ref{Type: g.ResourceType, ID: g.ResourceID}
}

// Entry is a single granted permission as persisted.
type Entry struct {
	OrganizationID string                `json:"organization_id" db:"organization_id"`
	ResourceType   resource.Type         `json:"resource_type" db:"resource_type"`
	ResourceID     string                `json:"resource_id" db:"resource_id"`
	UserID         string                `json:"user_id" db:"user_id"`
	Permission     permission.Permission `json:"permission" db:"permission"`
	GrantedBy      string                `json:"granted_by,omitempty" db:"granted_by"`
	CreatedAt      time.Time             `json:"created_at" db:"created_at"`
}

// Entries expands a grant into one entry per permission.
func Entries(g *Grant, grantedBy string, at time.Time) []*Entry {
	out := make([]*Entry, 0, len(g.Permissions))
	for _, p := range permission.Normalize(g.Permissions) {
		out = append(out, &Entry{
			OrganizationID: g.OrganizationID,
			ResourceType:   g.ResourceType,
			ResourceID:     g.ResourceID,
			UserID:         g.UserID,
			Permission:     p,
			GrantedBy:      grantedBy,
			CreatedAt:      at,
		})
	}
	return out
}

// Aggregate folds entries into grants, one per (resource, user), preserving
// the order in which each pair is first seen.
func Aggregate(entries []*Entry) []*Grant {
	type key struct {
		rt  resource.Type
		rid string
		uid string
	}
	index := make(map[key]*Grant)
	var out []*Grant
	for _, e := range entries {
		k := key{e.ResourceType, e.ResourceID, e.UserID}
		g, ok := index[k]
		if !ok {
			g = &Grant{
				OrganizationID: e.OrganizationID,
				ResourceType:   e.ResourceType,
				ResourceID:     e.ResourceID,
				UserID:         e.UserID,
				CreatedAt:      e.CreatedAt,
				UpdatedAt:      e.CreatedAt,
			}
			index[k] = g
			out = append(out, g)
		}
		g.Permissions = append(g.Permissions, e.Permission)
		if e.CreatedAt.Before(g.CreatedAt) {
			g.CreatedAt = e.CreatedAt
		}
		if e.CreatedAt.After(g.UpdatedAt) {
			g.UpdatedAt = e.CreatedAt
		}
	}
	for _, g := range out {
		g.Permissions = permission.Normalize(g.Permissions)
	}
	return out
}

// ListFilter contains filters for listing grants.
type ListFilter struct {
	OrganizationID string        `json:"organization_id,omitempty"`
	ResourceType   resource.Type `json:"resource_type,omitempty"`
	ResourceID     string        `json:"resource_id,omitempty"`
	UserID         string        `json:"user_id,omitempty"`
}
