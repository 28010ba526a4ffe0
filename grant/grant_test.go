package grant_test

import (
	"slices"
	"testing"
	"time"

	"github.com/xraph/rampart/grant"
	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/resource"
)

func TestEntriesNormalizes(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	g := &grant.Grant{
		OrganizationID: "org1",
		ResourceType:   resource.Project,
		ResourceID:     "p1",
		UserID:         "u1",
		Permissions:    []permission.Permission{permission.TaskView, permission.ProjectDelete, permission.TaskView},
	}
	entries := grant.Entries(g, "u0", at)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.GrantedBy != "u0" || !e.CreatedAt.Equal(at) || e.ResourceID != "p1" {
			t.Errorf("unexpected entry %+v", e)
		}
	}
}

func TestAggregate(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	entries := []*grant.Entry{
		{ResourceType: resource.Project, ResourceID: "p1", UserID: "u1", Permission: permission.TaskView, CreatedAt: t1},
		{ResourceType: resource.Project, ResourceID: "p1", UserID: "u2", Permission: permission.TaskView, CreatedAt: t0},
		{ResourceType: resource.Project, ResourceID: "p1", UserID: "u1", Permission: permission.ProjectDelete, CreatedAt: t0},
	}
	got := grant.Aggregate(entries)
	if len(got) != 2 {
		t.Fatalf("expected 2 grants, got %d", len(got))
	}
	u1 := got[0]
	if u1.UserID != "u1" {
		t.Fatalf("expected first-seen order, got %q", u1.UserID)
	}
	if !slices.Equal(u1.Permissions, []permission.Permission{permission.ProjectDelete, permission.TaskView}) {
		t.Errorf("permissions = %v", u1.Permissions)
	}
	if !u1.CreatedAt.Equal(t0) || !u1.UpdatedAt.Equal(t1) {
		t.Errorf("timestamps = %v / %v", u1.CreatedAt, u1.UpdatedAt)
	}
	if u1.Resource() != (resource.Ref{Type: resource.Project, ID: "p1"}) {
		t.Errorf("Resource() = %v", u1.Resource())
	}
}
