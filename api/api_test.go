package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xraph/forge"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/api"
	"github.com/xraph/rampart/directory"
	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/resource"
	"github.com/xraph/rampart/role"
	"github.com/xraph/rampart/store/memory"
)

type roleBody struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

type listBody[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

type server struct {
	router forge.Router
	eng    *rampart.Engine
}

func newServer(t *testing.T) *server {
	t.Helper()
	dir := directory.NewMemory().
		AddUser("u1", "org1", rampart.LegacyMember).
		AddUser("u2", "org1", rampart.LegacyMember).
		AddResource(resource.Project, "p1", "org1").
		AddUser("x1", "org2", rampart.LegacyMember).
		AddResource(resource.Project, "px", "org2")

	eng, err := rampart.NewEngine(rampart.WithStore(memory.New()), rampart.WithDirectory(dir))
	if err != nil {
		t.Fatal(err)
	}

	router := forge.NewRouter()
	if err := api.New(eng, router).RegisterRoutes(router); err != nil {
		t.Fatalf("RegisterRoutes: %v", err)
	}
	return &server{router: router, eng: eng}
}

// do sends a request as user u1 of org1.
func (s *server) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return s.send(t, rampart.WithCaller(context.Background(), "u1", "org1"), method, path, body)
}

func (s *server) send(t *testing.T, ctx context.Context, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// decode expects exactly one JSON document in the body.
func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	dec := json.NewDecoder(bytes.NewReader(rec.Body.Bytes()))
	if err := dec.Decode(v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		t.Fatalf("body holds more than one JSON document: %q", rec.Body.String())
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %q)", rec.Code, want, rec.Body.String())
	}
}

func TestProvisionDefaultsRoute(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodPost, "/v1/roles/provision-defaults", nil)
	expectStatus(t, rec, http.StatusOK)
	var first listBody[roleBody]
	decode(t, rec, &first)
	if len(first.Items) != 3 || first.Total != 3 {
		t.Fatalf("provisioned %d roles (total %d), want 3", len(first.Items), first.Total)
	}

	rec = s.do(t, http.MethodPost, "/v1/roles/provision-defaults", nil)
	expectStatus(t, rec, http.StatusOK)
	var second listBody[roleBody]
	decode(t, rec, &second)

	ids := map[string]bool{}
	for _, r := range first.Items {
		ids[r.ID] = true
	}
	for _, r := range second.Items {
		if !ids[r.ID] {
			t.Errorf("re-provisioning created new role %s (%s)", r.Name, r.ID)
		}
	}
}

func TestRoleRoutes(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodPost, "/v1/roles", api.CreateRoleRequest{
		Name:        "Editor",
		Permissions: []string{"project:update", "project:view"},
	})
	expectStatus(t, rec, http.StatusCreated)
	var created roleBody
	decode(t, rec, &created)
	if created.ID == "" || created.Name != "Editor" {
		t.Fatalf("created = %+v", created)
	}

	rec = s.do(t, http.MethodGet, "/v1/roles/"+created.ID, nil)
	expectStatus(t, rec, http.StatusOK)
	var got roleBody
	decode(t, rec, &got)
	if got.ID != created.ID {
		t.Errorf("got role %s, want %s", got.ID, created.ID)
	}

	// No query parameters at all.
	rec = s.do(t, http.MethodGet, "/v1/roles", nil)
	expectStatus(t, rec, http.StatusOK)
	var list listBody[roleBody]
	decode(t, rec, &list)
	if list.Total != 1 || list.Limit != 50 {
		t.Errorf("list = %+v, want one role with default limit", list)
	}

	name := "Writer"
	rec = s.do(t, http.MethodPut, "/v1/roles/"+created.ID, api.UpdateRoleRequest{Name: &name})
	expectStatus(t, rec, http.StatusOK)
	var updated roleBody
	decode(t, rec, &updated)
	if updated.Name != "Writer" || len(updated.Permissions) != 2 {
		t.Errorf("updated = %+v", updated)
	}

	rec = s.do(t, http.MethodPost, "/v1/roles", api.CreateRoleRequest{Name: "WRITER"})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = s.do(t, http.MethodDelete, "/v1/roles/"+created.ID, nil)
	expectStatus(t, rec, http.StatusNoContent)

	rec = s.do(t, http.MethodGet, "/v1/roles/"+created.ID, nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestRoleOfOtherOrganizationIsHidden(t *testing.T) {
	s := newServer(t)

	other, err := s.eng.CreateRole(context.Background(), "org2", "Auditor", "", nil)
	if err != nil {
		t.Fatal(err)
	}

	rec := s.do(t, http.MethodGet, "/v1/roles/"+other.ID.String(), nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestPermissionsRoute(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodGet, "/v1/permissions", nil)
	expectStatus(t, rec, http.StatusOK)
	var list listBody[api.PermissionInfo]
	decode(t, rec, &list)
	if len(list.Items) != len(permission.All()) {
		t.Errorf("catalog has %d entries, want %d", len(list.Items), len(permission.All()))
	}
}

func TestAssignmentRoutes(t *testing.T) {
	s := newServer(t)

	roles, err := s.eng.ProvisionDefaults(context.Background(), "org1")
	if err != nil {
		t.Fatal(err)
	}
	var member *role.Role
	for _, r := range roles {
		if r.Name == role.NameMember {
			member = r
		}
	}

	body := api.AssignRoleRequest{UserID: "u2", RoleID: member.ID.String(), Scope: "organization"}
	rec := s.do(t, http.MethodPost, "/v1/assignments", body)
	expectStatus(t, rec, http.StatusCreated)

	rec = s.do(t, http.MethodGet, "/v1/assignments?user_id=u2", nil)
	expectStatus(t, rec, http.StatusOK)
	var byUser listBody[map[string]any]
	decode(t, rec, &byUser)
	if byUser.Total != 1 {
		t.Fatalf("assignments of u2 = %d, want 1", byUser.Total)
	}

	rec = s.do(t, http.MethodGet, "/v1/assignments?scope=organization", nil)
	expectStatus(t, rec, http.StatusOK)

	rec = s.do(t, http.MethodGet, "/v1/assignments", nil)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = s.do(t, http.MethodGet, "/v1/assignments?scope=project&scope_id=px", nil)
	expectStatus(t, rec, http.StatusForbidden)

	rec = s.do(t, http.MethodDelete, "/v1/assignments", body)
	expectStatus(t, rec, http.StatusNoContent)

	rec = s.do(t, http.MethodGet, "/v1/assignments?user_id=u2", nil)
	expectStatus(t, rec, http.StatusOK)
	decode(t, rec, &byUser)
	if byUser.Total != 0 {
		t.Errorf("assignments of u2 after removal = %d, want 0", byUser.Total)
	}
}

func TestGrantAndCheckRoutes(t *testing.T) {
	s := newServer(t)

	checkBody := api.CheckRequest{Permission: "project:update", ResourceType: "project", ResourceID: "p1"}
	var check api.CheckResponse

	rec := s.do(t, http.MethodPost, "/v1/check", checkBody)
	expectStatus(t, rec, http.StatusOK)
	decode(t, rec, &check)
	if check.Allowed {
		t.Fatal("allowed before any grant")
	}

	grantBody := api.GrantRequest{ResourceType: "project", ResourceID: "p1", UserID: "u1", Permissions: []string{"project:update"}}
	rec = s.do(t, http.MethodPost, "/v1/grants", grantBody)
	expectStatus(t, rec, http.StatusOK)

	rec = s.do(t, http.MethodGet, "/v1/grants?resource_type=project&resource_id=p1", nil)
	expectStatus(t, rec, http.StatusOK)
	var grants listBody[map[string]any]
	decode(t, rec, &grants)
	if grants.Total != 1 {
		t.Fatalf("grants on p1 = %d, want 1", grants.Total)
	}

	rec = s.do(t, http.MethodPost, "/v1/check", checkBody)
	expectStatus(t, rec, http.StatusOK)
	decode(t, rec, &check)
	if !check.Allowed || check.Decision == "" {
		t.Fatalf("check after grant = %+v", check)
	}

	rec = s.do(t, http.MethodPost, "/v1/check/batch", api.BatchCheckRequest{
		Checks: []api.CheckRequest{checkBody, {Permission: "project:delete", ResourceType: "project", ResourceID: "p1"}},
	})
	expectStatus(t, rec, http.StatusOK)
	var batch api.BatchCheckResponse
	decode(t, rec, &batch)
	if len(batch.Results) != 2 || !batch.Results[0].Allowed || batch.Results[1].Allowed {
		t.Fatalf("batch = %+v", batch)
	}

	rec = s.do(t, http.MethodDelete, "/v1/grants", api.GrantRequest{ResourceType: "project", ResourceID: "p1", UserID: "u1"})
	expectStatus(t, rec, http.StatusOK)

	rec = s.do(t, http.MethodPost, "/v1/check", checkBody)
	expectStatus(t, rec, http.StatusOK)
	decode(t, rec, &check)
	if check.Allowed {
		t.Error("allowed after revoking the whole grant")
	}

	rec = s.do(t, http.MethodPost, "/v1/check", api.CheckRequest{Permission: "project:edit"})
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestRoutesRequireOrganization(t *testing.T) {
	s := newServer(t)

	rec := s.send(t, context.Background(), http.MethodGet, "/v1/roles", nil)
	expectStatus(t, rec, http.StatusBadRequest)
}
