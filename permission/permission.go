// Package permission holds the closed catalog of permissions rampart knows
// about. Permissions are "<domain>:<action>" strings; anything outside the
// catalog is rejected at the boundary with ErrUnknownPermission instead of
// being treated as an ungranted permission.
package permission

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// CatalogVersion changes whenever a permission is added to or removed from
// the catalog.
const CatalogVersion = 3

// ErrUnknownPermission is returned for permission strings outside the catalog.
var ErrUnknownPermission = errors.New("rampart: unknown permission")

// Permission is a catalog entry such as "project:view".
type Permission string

// Organization.
const (
	OrgView           Permission = "org:view"
	OrgManageSettings Permission = "org:manage_settings"
	OrgManageBilling  Permission = "org:manage_billing"
	OrgDelete         Permission = "org:delete"
)

// Users and roles.
const (
	UserView   Permission = "user:view"
	UserInvite Permission = "user:invite"
	UserManage Permission = "user:manage"
	UserRemove Permission = "user:remove"

	RoleView   Permission = "role:view"
	RoleManage Permission = "role:manage"
	RoleAssign Permission = "role:assign"
)

// Teams.
const (
	TeamView          Permission = "team:view"
	TeamCreate        Permission = "team:create"
	TeamUpdate        Permission = "team:update"
	TeamDelete        Permission = "team:delete"
	TeamManageMembers Permission = "team:manage_members"
)

// Projects.
const (
	ProjectView          Permission = "project:view"
	ProjectCreate        Permission = "project:create"
	ProjectUpdate        Permission = "project:update"
	ProjectDelete        Permission = "project:delete"
	ProjectManageMembers Permission = "project:manage_members"
)

// Tasks.
const (
	TaskView    Permission = "task:view"
	TaskCreate  Permission = "task:create"
	TaskUpdate  Permission = "task:update"
	TaskDelete  Permission = "task:delete"
	TaskAssign  Permission = "task:assign"
	TaskComment Permission = "task:comment"
)

// Knowledge-base articles, attachments and time tracking.
const (
	ArticleView    Permission = "article:view"
	ArticleCreate  Permission = "article:create"
	ArticleUpdate  Permission = "article:update"
	ArticleDelete  Permission = "article:delete"
	ArticlePublish Permission = "article:publish"

	FileView   Permission = "file:view"
	FileUpload Permission = "file:upload"
	FileDelete Permission = "file:delete"

	TimeView   Permission = "time:view"
	TimeLog    Permission = "time:log"
	TimeUpdate Permission = "time:update"
	TimeDelete Permission = "time:delete"
	TimeReport Permission = "time:report"
)

var catalog = []Permission{
	OrgView, OrgManageSettings, OrgManageBilling, OrgDelete,
	UserView, UserInvite, UserManage, UserRemove,
	RoleView, RoleManage, RoleAssign,
	TeamView, TeamCreate, TeamUpdate, TeamDelete, TeamManageMembers,
	ProjectView, ProjectCreate, ProjectUpdate, ProjectDelete, ProjectManageMembers,
	TaskView, TaskCreate, TaskUpdate, TaskDelete, TaskAssign, TaskComment,
	ArticleView, ArticleCreate, ArticleUpdate, ArticleDelete, ArticlePublish,
	FileView, FileUpload, FileDelete,
	TimeView, TimeLog, TimeUpdate, TimeDelete, TimeReport,
}

var known = func() map[Permission]struct{} {
	m := make(map[Permission]struct{}, len(catalog))
	for _, p := range catalog {
		m[p] = struct{}{}
	}
	return m
}()

// Exists reports whether p is in the catalog.
func Exists(p Permission) bool {
	_, ok := known[p]
	return ok
}

// All returns a copy of the catalog in declaration order.
func All() []Permission {
	return slices.Clone(catalog)
}

// Parse converts s into a catalog permission.
func Parse(s string) (Permission, error) {
	p := Permission(s)
	if !Exists(p) {
		return "", fmt.Errorf("%w: %q", ErrUnknownPermission, s)
	}
	return p, nil
}

// ParseAll converts every string in ss, failing on the first unknown entry.
func ParseAll(ss []string) ([]Permission, error) {
	out := make([]Permission, 0, len(ss))
	for _, s := range ss {
		p, err := Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Validate returns ErrUnknownPermission for the first entry outside the catalog.
func Validate(ps []Permission) error {
	for _, p := range ps {
		if !Exists(p) {
			return fmt.Errorf("%w: %q", ErrUnknownPermission, string(p))
		}
	}
	return nil
}

// Normalize returns ps sorted with duplicates collapsed. The input is not
// modified. A nil or empty input yields an empty, non-nil slice.
func Normalize(ps []Permission) []Permission {
	out := slices.Clone(ps)
	if out == nil {
		out = []Permission{}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Strings converts ps to plain strings, for storage and wire formats.
func Strings(ps []Permission) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = string(p)
	}
	return out
}

// FromStrings converts stored strings back without validation. Entries no
// longer in the catalog are dropped so a retired permission can never match.
func FromStrings(ss []string) []Permission {
	out := make([]Permission, 0, len(ss))
	for _, s := range ss {
		if p := Permission(s); Exists(p) {
			out = append(out, p)
		}
	}
	return out
}

// Domain returns the part before the colon ("project" for "project:view").
func (p Permission) Domain() string {
	d, _, _ := strings.Cut(string(p), ":")
	return d
}

// Action returns the part after the colon ("view" for "project:view").
func (p Permission) Action() string {
	_, a, _ := strings.Cut(string(p), ":")
	return a
}

func (p Permission) String() string { return string(p) }

// Set is a membership view over a permission list.
type Set map[Permission]struct{}

// NewSet builds a Set from one or more lists.
func NewSet(lists ...[]Permission) Set {
	s := make(Set)
	for _, l := range lists {
		s.Add(l...)
	}
	return s
}

// Add inserts ps into the set.
func (s Set) Add(ps ...Permission) {
	for _, p := range ps {
		s[p] = struct{}{}
	}
}

// Has reports whether p is a member.
func (s Set) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// Sorted returns the members in sorted order.
func (s Set) Sorted() []Permission {
	out := make([]Permission, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}
