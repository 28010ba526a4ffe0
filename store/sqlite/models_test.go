package sqlite

import (
	"strings"
	"testing"

	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/role"
)

func TestRoleModelStoresPermissionsAsJSON(t *testing.T) {
	r := &role.Role{
		ID:             id.NewRoleID(),
		OrganizationID: "org1",
		Name:           "Ops",
		Slug:           "ops",
		Permissions:    []permission.Permission{permission.TaskView, permission.TaskCreate},
	}
	m, err := roleToModel(r)
	if err != nil {
		t.Fatal(err)
	}
	if m.Permissions != `["task:view","task:create"]` {
		t.Fatalf("unexpected column value %s", m.Permissions)
	}

	back, err := roleFromModel(m)
	if err != nil {
		t.Fatal(err)
	}
	if len(back.Permissions) != 2 || back.Permissions[1] != permission.TaskCreate {
		t.Fatalf("unexpected permissions %v", back.Permissions)
	}
}

func TestRoleModelEmptyPermissions(t *testing.T) {
	back, err := roleFromModel(&roleModel{ID: id.NewRoleID().String(), Permissions: ""})
	if err != nil {
		t.Fatal(err)
	}
	if len(back.Permissions) != 0 {
		t.Fatalf("expected no permissions, got %v", back.Permissions)
	}

	if _, err := roleFromModel(&roleModel{Permissions: "{broken"}); err == nil {
		t.Fatal("expected error for corrupt JSON")
	}
}

func TestRoleIDsFromModelsRejectsBadID(t *testing.T) {
	good := id.NewRoleID()
	ids, err := roleIDsFromModels([]assignmentModel{{ID: "a1", RoleID: good.String()}})
	if err != nil || len(ids) != 1 || ids[0].String() != good.String() {
		t.Fatalf("ids = %v, err = %v", ids, err)
	}

	_, err = roleIDsFromModels([]assignmentModel{
		{ID: "a1", RoleID: good.String()},
		{ID: "a2", RoleID: "not-a-role"},
	})
	if err == nil || !strings.Contains(err.Error(), "a2") {
		t.Fatalf("expected an error naming the bad row, got %v", err)
	}
}
