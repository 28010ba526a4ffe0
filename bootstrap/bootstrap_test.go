package bootstrap_test

import (
	"slices"
	"testing"

	"github.com/xraph/rampart/bootstrap"
	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/role"
)

func TestDefinitionsMatchProtectedNames(t *testing.T) {
	defs := bootstrap.Definitions()
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
		if !role.IsProtectedName(d.Name) {
			t.Errorf("%q is not a protected name", d.Name)
		}
		if err := permission.Validate(d.Permissions); err != nil {
			t.Errorf("%q: %v", d.Name, err)
		}
	}
	if !slices.Equal(names, role.ProtectedNames()) {
		t.Fatalf("definitions %v != protected names %v", names, role.ProtectedNames())
	}
}

func TestAdminExcludesDestructive(t *testing.T) {
	admin, ok := bootstrap.Lookup("Admin")
	if !ok {
		t.Fatal("admin definition missing")
	}
	if slices.Contains(admin.Permissions, permission.OrgDelete) {
		t.Error("admin must not receive org:delete")
	}
	if len(admin.Permissions) != len(permission.All())-1 {
		t.Errorf("admin should hold the catalog minus org:delete, got %d of %d", len(admin.Permissions), len(permission.All()))
	}
}

func TestViewerHoldsOnlyViews(t *testing.T) {
	viewer, _ := bootstrap.Lookup(role.NameViewer)
	if len(viewer.Permissions) == 0 {
		t.Fatal("viewer has no permissions")
	}
	for _, p := range viewer.Permissions {
		if p.Action() != "view" {
			t.Errorf("viewer holds non-view permission %q", p)
		}
	}
}

func TestMemberScope(t *testing.T) {
	member, _ := bootstrap.Lookup(role.NameMember)
	for _, p := range permission.Expand("*:view") {
		if !slices.Contains(member.Permissions, p) {
			t.Errorf("member is missing view permission %q", p)
		}
	}
	for _, p := range member.Permissions {
		if p.Action() == "delete" {
			t.Errorf("member must not hold %q", p)
		}
	}
}

func TestAdministrativeSubsetOfAdmin(t *testing.T) {
	admin, _ := bootstrap.Lookup(role.NameAdmin)
	set := permission.NewSet(admin.Permissions)
	adm := bootstrap.Administrative()
	if len(adm) == 0 {
		t.Fatal("administrative set is empty")
	}
	for _, p := range adm {
		if !set.Has(p) {
			t.Errorf("administrative %q is not granted to the default admin", p)
		}
	}
	if !bootstrap.IsAdministrative(permission.OrgManageSettings) || !bootstrap.IsAdministrative(permission.UserManage) {
		t.Error("organization settings and user management must be administrative")
	}
	if bootstrap.IsAdministrative(permission.ProjectDelete) || bootstrap.IsAdministrative(permission.OrgDelete) {
		t.Error("project:delete and org:delete must not be administrative")
	}
}

func TestDefinitionsAreCopies(t *testing.T) {
	defs := bootstrap.Definitions()
	defs[0].Permissions[0] = "tampered:perm"
	if bootstrap.Definitions()[0].Permissions[0] == "tampered:perm" {
		t.Fatal("Definitions must return a deep copy")
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, ok := bootstrap.Lookup("owner"); ok {
		t.Fatal("owner is a legacy role, not a provisioned one")
	}
}
