package directory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/directory"
	"github.com/xraph/rampart/resource"
)

func TestMemoryDirectory(t *testing.T) {
	ctx := context.Background()
	dir := directory.NewMemory().
		AddUser("u1", "org1", rampart.LegacyAdmin).
		AddResource(resource.Project, "p1", "org1").
		AddOrganization("org2")

	org, err := dir.GetOrganizationID(ctx, "u1")
	if err != nil || org != "org1" {
		t.Fatalf("GetOrganizationID = %q, %v", org, err)
	}
	legacy, err := dir.GetLegacyRole(ctx, "u1")
	if err != nil || legacy != rampart.LegacyAdmin {
		t.Fatalf("GetLegacyRole = %q, %v", legacy, err)
	}
	if _, err := dir.GetOrganizationID(ctx, "ghost"); !errors.Is(err, rampart.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	for _, org := range []string{"org1", "org2"} {
		if ok, _ := dir.OrganizationExists(ctx, org); !ok {
			t.Errorf("%s should exist", org)
		}
	}
	if ok, _ := dir.OrganizationExists(ctx, "org3"); ok {
		t.Error("org3 should not exist")
	}

	p1 := resource.Ref{Type: resource.Project, ID: "p1"}
	if ok, _ := dir.ResourceBelongsToOrganization(ctx, p1, "org1"); !ok {
		t.Error("p1 belongs to org1")
	}
	if ok, _ := dir.ResourceBelongsToOrganization(ctx, p1, "org2"); ok {
		t.Error("p1 does not belong to org2")
	}
	if ok, _ := dir.ResourceBelongsToOrganization(ctx, resource.Ref{Type: resource.Team, ID: "p1"}, "org1"); ok {
		t.Error("a team with the same id is a different resource")
	}

	dir.RemoveUser("u1")
	if _, err := dir.GetLegacyRole(ctx, "u1"); !errors.Is(err, rampart.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound after removal, got %v", err)
	}
}
