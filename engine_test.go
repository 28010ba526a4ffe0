package rampart_test

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/assignment"
	"github.com/xraph/rampart/directory"
	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/resource"
	"github.com/xraph/rampart/role"
	"github.com/xraph/rampart/store/memory"
)

type fixture struct {
	eng   *rampart.Engine
	store *memory.Store
	dir   *directory.Memory
}

// newFixture builds an engine over a memory store with two organizations:
// org1 (users u1..u3, projects p1 and p2, team t1) and org2 (user x1,
// project px).
func newFixture(t *testing.T, opts ...rampart.Option) *fixture {
	t.Helper()
	s := memory.New()
	dir := directory.NewMemory().
		AddUser("u1", "org1", rampart.LegacyMember).
		AddUser("u2", "org1", rampart.LegacyAdmin).
		AddUser("u3", "org1", rampart.LegacyViewer).
		AddUser("owner", "org1", rampart.LegacyOwner).
		AddResource(resource.Project, "p1", "org1").
		AddResource(resource.Project, "p2", "org1").
		AddResource(resource.Team, "t1", "org1").
		AddUser("x1", "org2", rampart.LegacyAdmin).
		AddResource(resource.Project, "px", "org2")

	eng, err := rampart.NewEngine(append([]rampart.Option{
		rampart.WithStore(s),
		rampart.WithDirectory(dir),
	}, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{eng: eng, store: s, dir: dir}
}

func (f *fixture) provision(t *testing.T, org string) map[string]*role.Role {
	t.Helper()
	roles, err := f.eng.ProvisionDefaults(context.Background(), org)
	if err != nil {
		t.Fatalf("ProvisionDefaults(%s): %v", org, err)
	}
	byName := make(map[string]*role.Role, len(roles))
	for _, r := range roles {
		byName[r.Name] = r
	}
	return byName
}

func (f *fixture) assign(t *testing.T, userID string, r *role.Role, scope assignment.Scope, scopeID string) *assignment.Assignment {
	t.Helper()
	a, err := f.eng.AssignRole(context.Background(), &rampart.AssignRequest{
		UserID: userID, RoleID: r.ID, Scope: scope, ScopeID: scopeID, GrantedBy: "test",
	})
	if err != nil {
		t.Fatalf("AssignRole(%s, %s, %s/%s): %v", userID, r.Name, scope, scopeID, err)
	}
	return a
}

func (f *fixture) createRole(t *testing.T, org, name string, perms ...permission.Permission) *role.Role {
	t.Helper()
	r, err := f.eng.CreateRole(context.Background(), org, name, "", perms)
	if err != nil {
		t.Fatalf("CreateRole(%s): %v", name, err)
	}
	return r
}

func mustHave(t *testing.T, f *fixture, userID, org string, p permission.Permission, res *resource.Ref, want bool) {
	t.Helper()
	got, err := f.eng.HasPermission(context.Background(), userID, org, p, res)
	if err != nil {
		t.Fatalf("HasPermission(%s, %s, %s, %v): %v", userID, org, p, res, err)
	}
	if got != want {
		t.Fatalf("HasPermission(%s, %s, %s, %v) = %v, want %v", userID, org, p, res, got, want)
	}
}

func TestNewEngineRequirements(t *testing.T) {
	if _, err := rampart.NewEngine(); !errors.Is(err, rampart.ErrStoreRequired) {
		t.Fatalf("expected ErrStoreRequired, got %v", err)
	}
	if _, err := rampart.NewEngine(rampart.WithStore(memory.New())); !errors.Is(err, rampart.ErrDirectoryRequired) {
		t.Fatalf("expected ErrDirectoryRequired, got %v", err)
	}
	dir := directory.NewMemory()
	eng, err := rampart.NewEngine(
		rampart.WithStore(memory.New()),
		rampart.WithUserDirectory(dir),
		rampart.WithResourceDirectory(dir),
	)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := eng.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

// Organization-scope roles grant with or without a resource argument.
func TestOrganizationRoleGrantsEverywhere(t *testing.T) {
	f := newFixture(t)
	editors := f.createRole(t, "org1", "Editors", permission.TaskUpdate)
	f.assign(t, "u1", editors, assignment.ScopeOrganization, "")

	mustHave(t, f, "u1", "org1", permission.TaskUpdate, nil, true)
	mustHave(t, f, "u1", "org1", permission.TaskUpdate, resource.New(resource.Project, "p1"), true)
	mustHave(t, f, "u1", "org1", permission.TaskUpdate, resource.New(resource.Team, "t1"), true)
	mustHave(t, f, "u1", "org1", permission.TaskDelete, nil, false)
}

// A project-scoped role only grants on that project.
func TestScopedRoleOnlyGrantsOnResource(t *testing.T) {
	f := newFixture(t)
	lead := f.createRole(t, "org1", "Project lead", permission.ProjectDelete)
	f.assign(t, "u1", lead, assignment.ScopeProject, "p1")

	mustHave(t, f, "u1", "org1", permission.ProjectDelete, nil, false)
	mustHave(t, f, "u1", "org1", permission.ProjectDelete, resource.New(resource.Project, "p1"), true)
	mustHave(t, f, "u1", "org1", permission.ProjectDelete, resource.New(resource.Project, "p2"), false)
	mustHave(t, f, "u1", "org1", permission.ProjectDelete, resource.New(resource.Team, "t1"), false)
}

func TestTeamScopedRole(t *testing.T) {
	f := newFixture(t)
	mgr := f.createRole(t, "org1", "Team manager", permission.TeamManageMembers)
	f.assign(t, "u3", mgr, assignment.ScopeTeam, "t1")

	mustHave(t, f, "u3", "org1", permission.TeamManageMembers, resource.New(resource.Team, "t1"), true)
	mustHave(t, f, "u3", "org1", permission.TeamManageMembers, nil, false)
}

// Scoped assignments may exceed what the user holds organization-wide.
func TestScopedRoleMayExceedOrganizationRole(t *testing.T) {
	f := newFixture(t)
	defaults := f.provision(t, "org1")
	f.assign(t, "u3", defaults[role.NameViewer], assignment.ScopeOrganization, "")
	f.assign(t, "u3", defaults[role.NameAdmin], assignment.ScopeProject, "p1")

	mustHave(t, f, "u3", "org1", permission.ProjectDelete, nil, false)
	mustHave(t, f, "u3", "org1", permission.ProjectDelete, resource.New(resource.Project, "p1"), true)
}

// Revoking a direct grant never overrides an organization-scope role.
func TestAdditiveOnlyRevokeKeepsOrganizationGrant(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	defaults := f.provision(t, "org1")
	f.assign(t, "u1", defaults[role.NameAdmin], assignment.ScopeOrganization, "")
	p1 := resource.New(resource.Project, "p1")

	if _, err := f.eng.Grant(ctx, &rampart.GrantRequest{Resource: *p1, UserID: "u1", Permissions: []permission.Permission{permission.ProjectDelete}}); err != nil {
		t.Fatalf("Grant: %v", err)
	}
	mustHave(t, f, "u1", "org1", permission.ProjectDelete, p1, true)

	if _, err := f.eng.RevokeGrant(ctx, *p1, "u1", nil); err != nil {
		t.Fatalf("RevokeGrant: %v", err)
	}
	mustHave(t, f, "u1", "org1", permission.ProjectDelete, p1, true)

	res, err := f.eng.Check(ctx, &rampart.CheckRequest{UserID: "u1", OrganizationID: "org1", Permission: permission.ProjectDelete, Resource: p1})
	if err != nil {
		t.Fatal(err)
	}
	if res.MatchedBy[0].Source != rampart.SourceOrganizationRole {
		t.Fatalf("expected organization role to grant, got %v", res.MatchedBy)
	}
}

// The end-to-end bootstrap scenario.
func TestScenarioBootstrapMemberAndDirectGrant(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	defaults := f.provision(t, "org1")
	for _, name := range role.ProtectedNames() {
		r, ok := defaults[name]
		if !ok || !r.IsDefault {
			t.Fatalf("default role %q missing or not flagged default", name)
		}
	}

	f.assign(t, "u1", defaults[role.NameMember], assignment.ScopeOrganization, "")
	mustHave(t, f, "u1", "org1", permission.ProjectView, nil, true)
	mustHave(t, f, "u1", "org1", permission.ProjectDelete, nil, false)

	if _, err := f.eng.Grant(ctx, &rampart.GrantRequest{
		Resource:    resource.Ref{Type: resource.Project, ID: "p1"},
		UserID:      "u1",
		Permissions: []permission.Permission{permission.ProjectDelete},
	}); err != nil {
		t.Fatalf("Grant: %v", err)
	}
	mustHave(t, f, "u1", "org1", permission.ProjectDelete, nil, false)
	mustHave(t, f, "u1", "org1", permission.ProjectDelete, resource.New(resource.Project, "p1"), true)
	mustHave(t, f, "u1", "org1", permission.ProjectDelete, resource.New(resource.Project, "p2"), false)
}

// A legacy admin holds the administrative set with no assignments at all.
func TestScenarioLegacyFastPath(t *testing.T) {
	f := newFixture(t)
	mustHave(t, f, "u2", "org1", permission.OrgManageSettings, nil, true)
	mustHave(t, f, "u2", "org1", permission.UserManage, nil, true)
	mustHave(t, f, "owner", "org1", permission.UserInvite, nil, true)

	// Outside the administrative set the legacy role grants nothing.
	mustHave(t, f, "u2", "org1", permission.ProjectDelete, nil, false)
	mustHave(t, f, "u2", "org1", permission.OrgDelete, nil, false)

	// Members and viewers gain nothing from the fast path.
	mustHave(t, f, "u1", "org1", permission.OrgManageSettings, nil, false)
	mustHave(t, f, "u3", "org1", permission.UserManage, nil, false)

	res, err := f.eng.Check(context.Background(), &rampart.CheckRequest{UserID: "u2", OrganizationID: "org1", Permission: permission.OrgManageSettings})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Allowed || res.MatchedBy[0].Source != rampart.SourceLegacyRole {
		t.Fatalf("expected legacy allow, got %+v", res)
	}
}

func TestCrossOrganizationChecksAreFalse(t *testing.T) {
	f := newFixture(t)
	f.provision(t, "org2")

	// x1 is a legacy admin of org2 and must not administer org1.
	mustHave(t, f, "x1", "org1", permission.OrgManageSettings, nil, false)
	// Unknown users resolve to false, not an error.
	mustHave(t, f, "ghost", "org1", permission.ProjectView, nil, false)

	// A resource of another organization is never granted through org1.
	defaults := f.provision(t, "org1")
	f.assign(t, "u1", defaults[role.NameMember], assignment.ScopeOrganization, "")
	res, err := f.eng.Check(context.Background(), &rampart.CheckRequest{
		UserID: "u1", OrganizationID: "org1", Permission: permission.ProjectDelete,
		Resource: resource.New(resource.Project, "px"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Allowed || res.Decision != rampart.DecisionDenyCrossOrganization {
		t.Fatalf("expected cross-organization deny, got %+v", res)
	}
}

// "No" and "could not answer" stay distinguishable.
func TestMalformedQueriesAreErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.eng.HasPermission(context.Background(), "u1", "org1", "project:teleport", nil)
	if !errors.Is(err, rampart.ErrUnknownPermission) {
		t.Fatalf("expected ErrUnknownPermission, got %v", err)
	}
	_, err = f.eng.HasPermission(context.Background(), "u1", "org-missing", permission.ProjectView, nil)
	if !errors.Is(err, rampart.ErrOrganizationNotFound) {
		t.Fatalf("expected ErrOrganizationNotFound, got %v", err)
	}
	_, err = f.eng.HasPermission(context.Background(), "u1", "org1", permission.ProjectView, &resource.Ref{Type: "task", ID: "k1"})
	if !errors.Is(err, rampart.ErrInvalidResource) {
		t.Fatalf("expected ErrInvalidResource, got %v", err)
	}

	ok, err := f.eng.HasPermission(context.Background(), "u1", "org1", permission.ProjectDelete, nil)
	if err != nil || ok {
		t.Fatalf("ungranted permission must be (false, nil), got (%v, %v)", ok, err)
	}
}

// failingDirectory reports an infrastructure failure for user lookups.
type failingDirectory struct{ *directory.Memory }

var errDirectoryDown = errors.New("directory down")

func (failingDirectory) GetOrganizationID(context.Context, string) (string, error) {
	return "", errDirectoryDown
}

func TestCollaboratorFailureIsAnError(t *testing.T) {
	dir := failingDirectory{directory.NewMemory().AddOrganization("org1")}
	eng, err := rampart.NewEngine(rampart.WithStore(memory.New()), rampart.WithDirectory(dir))
	if err != nil {
		t.Fatal(err)
	}
	_, err = eng.HasPermission(context.Background(), "u1", "org1", permission.ProjectView, nil)
	if !errors.Is(err, errDirectoryDown) {
		t.Fatalf("expected directory failure to surface, got %v", err)
	}
}

func TestRoleEditTakesEffect(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	r := f.createRole(t, "org1", "Reporter", permission.TimeView)
	f.assign(t, "u1", r, assignment.ScopeOrganization, "")
	mustHave(t, f, "u1", "org1", permission.TimeReport, nil, false)

	if _, err := f.eng.UpdateRole(ctx, r.ID, role.Patch{Permissions: []permission.Permission{permission.TimeView, permission.TimeReport}}); err != nil {
		t.Fatal(err)
	}
	mustHave(t, f, "u1", "org1", permission.TimeReport, nil, true)
}

func TestCheckResultDetails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lead := f.createRole(t, "org1", "Lead", permission.ProjectManageMembers)
	f.assign(t, "u1", lead, assignment.ScopeProject, "p1")

	res, err := f.eng.Check(ctx, &rampart.CheckRequest{
		UserID: "u1", OrganizationID: "org1", Permission: permission.ProjectManageMembers,
		Resource: resource.New(resource.Project, "p1"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Allowed || res.Decision != rampart.DecisionAllow {
		t.Fatalf("expected allow, got %+v", res)
	}
	if m := res.MatchedBy[0]; m.Source != rampart.SourceScopedRole || m.RuleID != lead.ID.String() {
		t.Fatalf("unexpected match %+v", m)
	}
	if res.EvalTimeNs < 0 {
		t.Error("expected non-negative evaluation time")
	}

	res, err = f.eng.Check(ctx, &rampart.CheckRequest{UserID: "u1", OrganizationID: "org1", Permission: permission.ProjectManageMembers})
	if err != nil {
		t.Fatal(err)
	}
	if res.Allowed || res.Decision != rampart.DecisionDenyNoGrant {
		t.Fatalf("expected deny_no_grant, got %+v", res)
	}

	if _, err := f.eng.Check(ctx, nil); err == nil {
		t.Fatal("expected error for nil request")
	}
}
