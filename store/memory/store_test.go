package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/rampart/assignment"
	"github.com/xraph/rampart/grant"
	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/resource"
	"github.com/xraph/rampart/role"
	"github.com/xraph/rampart/store"
)

// Compile-time check that *Store implements store.Store.
var _ store.Store = (*Store)(nil)

func newRole(org, name string, perms ...permission.Permission) *role.Role {
	return &role.Role{
		ID:             id.NewRoleID(),
		OrganizationID: org,
		Name:           name,
		Slug:           role.Slugify(name),
		Permissions:    perms,
	}
}

func TestRoleCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	r := newRole("org1", "Editors", permission.ArticleUpdate)

	// Create
	if err := s.CreateRole(ctx, r); err != nil {
		t.Fatal(err)
	}
	if r.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be set")
	}

	// Get
	got, err := s.GetRole(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Editors" {
		t.Fatalf("expected Editors, got %s", got.Name)
	}

	// GetBySlug
	if _, err = s.GetRoleBySlug(ctx, "org1", "editors"); err != nil {
		t.Fatal(err)
	}
	if _, err = s.GetRoleBySlug(ctx, "org2", "editors"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound in another organization, got %v", err)
	}

	// Update renames the slug index.
	got.Name, got.Slug = "Reviewers", "reviewers"
	if err := s.UpdateRole(ctx, got); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetRoleBySlug(ctx, "org1", "editors"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("old slug should be free, got %v", err)
	}
	if _, err := s.GetRoleBySlug(ctx, "org1", "reviewers"); err != nil {
		t.Fatal(err)
	}

	// Delete
	if err := s.DeleteRole(ctx, r.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetRole(ctx, r.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteRole(ctx, r.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRoleSlugConflict(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.CreateRole(ctx, newRole("org1", "Ops")); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateRole(ctx, newRole("org1", "OPS")); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err := s.CreateRole(ctx, newRole("org2", "Ops")); err != nil {
		t.Fatalf("same slug in another organization: %v", err)
	}

	other := newRole("org1", "Dev")
	if err := s.CreateRole(ctx, other); err != nil {
		t.Fatal(err)
	}
	other.Name, other.Slug = "ops", "ops"
	if err := s.UpdateRole(ctx, other); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict on rename, got %v", err)
	}
}

func TestStoredRoleIsIsolated(t *testing.T) {
	ctx := context.Background()
	s := New()
	r := newRole("org1", "Iso", permission.TaskView)
	if err := s.CreateRole(ctx, r); err != nil {
		t.Fatal(err)
	}
	r.Permissions[0] = permission.OrgDelete

	got, _ := s.GetRole(ctx, r.ID)
	if got.Permissions[0] != permission.TaskView {
		t.Fatalf("caller mutation leaked into store: %v", got.Permissions)
	}
}

func TestListRolesFilterAndPagination(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	for _, name := range []string{"alpha", "beta", "gamma", "delta"} {
		if err := s.CreateRole(ctx, newRole("org1", name)); err != nil {
			t.Fatal(err)
		}
	}
	def := newRole("org1", "viewer")
	def.IsDefault = true
	if err := s.CreateRole(ctx, def); err != nil {
		t.Fatal(err)
	}

	all, err := s.ListRoles(ctx, &role.ListFilter{OrganizationID: "org1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 5 || all[0].Name != "alpha" || all[4].Name != "viewer" {
		t.Fatalf("expected creation order, got %d roles", len(all))
	}

	page, _ := s.ListRoles(ctx, &role.ListFilter{OrganizationID: "org1", Limit: 2, Offset: 1})
	if len(page) != 2 || page[0].Name != "beta" {
		t.Fatalf("unexpected page %v", page)
	}

	isDefault := true
	defaults, _ := s.ListRoles(ctx, &role.ListFilter{OrganizationID: "org1", IsDefault: &isDefault})
	if len(defaults) != 1 {
		t.Fatalf("expected 1 default role, got %d", len(defaults))
	}

	search, _ := s.ListRoles(ctx, &role.ListFilter{Search: "TA"})
	if len(search) != 2 {
		t.Fatalf("expected beta and delta, got %d", len(search))
	}

	n, err := s.CountRoles(ctx, &role.ListFilter{OrganizationID: "org1", Limit: 1})
	if err != nil || n != 5 {
		t.Fatalf("expected count 5 ignoring limit, got %d (%v)", n, err)
	}
}

func TestAssignmentLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()
	r := newRole("org1", "Tasker")
	if err := s.CreateRole(ctx, r); err != nil {
		t.Fatal(err)
	}

	a := &assignment.Assignment{
		ID:             id.NewAssignmentID(),
		OrganizationID: "org1",
		UserID:         "u1",
		RoleID:         r.ID,
		Scope:          assignment.ScopeProject,
		ScopeID:        "p1",
	}
	stored, created, err := s.CreateAssignment(ctx, a)
	if err != nil || !created {
		t.Fatalf("expected creation, got created=%v err=%v", created, err)
	}

	dup := *a
	dup.ID = id.NewAssignmentID()
	again, created, err := s.CreateAssignment(ctx, &dup)
	if err != nil || created {
		t.Fatalf("expected idempotent create, got created=%v err=%v", created, err)
	}
	if again.ID.String() != stored.ID.String() {
		t.Fatal("expected the existing assignment back")
	}

	ids, err := s.ListRoleIDsForUser(ctx, "org1", "u1", assignment.ScopeProject, "p1")
	if err != nil || len(ids) != 1 {
		t.Fatalf("expected one role id, got %v (%v)", ids, err)
	}
	ids, _ = s.ListRoleIDsForUser(ctx, "org1", "u1", assignment.ScopeProject, "p2")
	if len(ids) != 0 {
		t.Fatalf("expected no roles on p2, got %v", ids)
	}

	if err := s.DeleteRole(ctx, r.ID); !errors.Is(err, store.ErrInUse) {
		t.Fatalf("expected ErrInUse, got %v", err)
	}

	n, _ := s.CountAssignments(ctx, &assignment.ListFilter{RoleID: &r.ID})
	if n != 1 {
		t.Fatalf("expected 1 assignment for role, got %d", n)
	}

	removed, err := s.DeleteAssignmentByKey(ctx, a.Key())
	if err != nil || removed == nil {
		t.Fatalf("expected removal, got %v (%v)", removed, err)
	}
	removed, err = s.DeleteAssignmentByKey(ctx, a.Key())
	if err != nil || removed != nil {
		t.Fatalf("expected no-op removal, got %v (%v)", removed, err)
	}
	if _, err := s.GetAssignment(ctx, stored.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteRole(ctx, r.ID); err != nil {
		t.Fatalf("delete after unassign: %v", err)
	}
}

func TestCreateAssignmentRequiresRole(t *testing.T) {
	s := New()
	_, _, err := s.CreateAssignment(context.Background(), &assignment.Assignment{
		ID: id.NewAssignmentID(), OrganizationID: "org1", UserID: "u1",
		RoleID: id.NewRoleID(), Scope: assignment.ScopeOrganization,
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGrantEntries(t *testing.T) {
	ctx := context.Background()
	s := New()
	p1 := resource.Ref{Type: resource.Project, ID: "p1"}
	now := time.Now().UTC()

	g := &grant.Grant{OrganizationID: "org1", ResourceType: p1.Type, ResourceID: p1.ID, UserID: "u1",
		Permissions: []permission.Permission{permission.ProjectView, permission.ProjectUpdate}}
	if err := s.AddGrantEntries(ctx, grant.Entries(g, "admin", now)); err != nil {
		t.Fatal(err)
	}
	// Duplicates are skipped.
	if err := s.AddGrantEntries(ctx, grant.Entries(g, "admin", now)); err != nil {
		t.Fatal(err)
	}

	perms, _ := s.ListGrantedPermissions(ctx, p1, "u1")
	if len(perms) != 2 {
		t.Fatalf("expected 2 permissions, got %v", perms)
	}

	if err := s.RemoveGrantEntries(ctx, p1, "u1", []permission.Permission{permission.ProjectView}); err != nil {
		t.Fatal(err)
	}
	entries, _ := s.ListGrantEntries(ctx, &grant.ListFilter{ResourceType: p1.Type, ResourceID: p1.ID})
	if len(entries) != 1 || entries[0].Permission != permission.ProjectUpdate {
		t.Fatalf("unexpected entries %v", entries)
	}

	if err := s.RemoveGrantEntries(ctx, p1, "u1", nil); err != nil {
		t.Fatal(err)
	}
	perms, _ = s.ListGrantedPermissions(ctx, p1, "u1")
	if len(perms) != 0 {
		t.Fatalf("expected no permissions, got %v", perms)
	}
}
