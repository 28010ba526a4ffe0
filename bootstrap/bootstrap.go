// Package bootstrap holds the canonical permission sets of the roles every
// organization is provisioned with. The same mapping backs the legacy-role
// fast path of the resolution engine, so what "admin" may always do is
// defined exactly once.
package bootstrap

import (
	"slices"

	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/role"
)

// MappingVersion changes whenever a default permission set changes.
// Provisioning never rewrites existing roles, so a bump only affects
// organizations provisioned afterwards.
const MappingVersion = 2

// Definition is the default shape of one provisioned role.
type Definition struct {
	Name        string
	Description string
	Permissions []permission.Permission
}

var (
	// Destructive organization-level permissions no default role receives.
	destructive = []permission.Permission{permission.OrgDelete}

	adminPerms = permission.Normalize(permission.Without(permission.All(), destructive...))

	viewerPerms = permission.Expand("*:view")

	memberPerms = permission.Normalize(append(permission.Expand("*:view"),
		permission.ProjectCreate,
		permission.ProjectUpdate,
		permission.TaskCreate,
		permission.TaskUpdate,
		permission.TaskAssign,
		permission.TaskComment,
		permission.ArticleCreate,
		permission.ArticleUpdate,
		permission.FileUpload,
		permission.TimeLog,
		permission.TimeUpdate,
	))

	definitions = []Definition{
		{
			Name:        role.NameAdmin,
			Description: "Full access to the organization except deleting it.",
			Permissions: adminPerms,
		},
		{
			Name:        role.NameMember,
			Description: "Views everything and contributes to projects, tasks, articles and time tracking.",
			Permissions: memberPerms,
		},
		{
			Name:        role.NameViewer,
			Description: "Read-only access.",
			Permissions: viewerPerms,
		},
	}

	// Permissions a legacy admin or owner holds regardless of role data.
	administrative = func() permission.Set {
		s := make(permission.Set)
		for _, p := range adminPerms {
			if p.Domain() == "user" || p == permission.OrgManageSettings {
				s.Add(p)
			}
		}
		return s
	}()
)

// Definitions returns the default roles in provisioning order. The result is
// a deep copy.
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	for i, d := range definitions {
		d.Permissions = slices.Clone(d.Permissions)
		out[i] = d
	}
	return out
}

// Lookup returns the definition for a reserved role name.
func Lookup(name string) (Definition, bool) {
	slug := role.Slugify(name)
	for _, d := range definitions {
		if d.Name == slug {
			d.Permissions = slices.Clone(d.Permissions)
			return d, true
		}
	}
	return Definition{}, false
}

// IsAdministrative reports whether p belongs to the administrative set:
// user management and organization settings, as granted to the default
// admin role.
func IsAdministrative(p permission.Permission) bool {
	return administrative.Has(p)
}

// Administrative returns the administrative set, sorted.
func Administrative() []permission.Permission {
	return administrative.Sorted()
}
