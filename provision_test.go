package rampart_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/bootstrap"
	"github.com/xraph/rampart/role"
)

func TestProvisionDefaultsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first := f.provision(t, "org1")
	second := f.provision(t, "org1")
	for _, name := range role.ProtectedNames() {
		if first[name].ID.String() != second[name].ID.String() {
			t.Fatalf("%s re-created on second provisioning", name)
		}
	}

	roles, err := f.eng.ListRoles(ctx, "org1")
	if err != nil {
		t.Fatal(err)
	}
	if len(roles) != len(bootstrap.Definitions()) {
		t.Fatalf("expected %d roles, got %d", len(bootstrap.Definitions()), len(roles))
	}
}

func TestProvisionDefaultsMatchesMapping(t *testing.T) {
	f := newFixture(t)
	roles := f.provision(t, "org1")
	for _, def := range bootstrap.Definitions() {
		r := roles[def.Name]
		if len(r.Permissions) != len(def.Permissions) {
			t.Fatalf("%s: %d permissions, mapping has %d", def.Name, len(r.Permissions), len(def.Permissions))
		}
		for i := range def.Permissions {
			if r.Permissions[i] != def.Permissions[i] {
				t.Fatalf("%s: permission %d is %s, want %s", def.Name, i, r.Permissions[i], def.Permissions[i])
			}
		}
	}
}

func TestProvisionDefaultsConcurrently(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.eng.ProvisionDefaults(ctx, "org1"); err != nil {
				t.Errorf("ProvisionDefaults: %v", err)
			}
		}()
	}
	wg.Wait()

	roles, err := f.eng.ListRoles(ctx, "org1")
	if err != nil {
		t.Fatal(err)
	}
	if len(roles) != 3 {
		t.Fatalf("expected exactly 3 default roles, got %d", len(roles))
	}
}

func TestProvisionDefaultsErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.eng.ProvisionDefaults(ctx, "nope"); !errors.Is(err, rampart.ErrOrganizationNotFound) {
		t.Fatalf("expected ErrOrganizationNotFound, got %v", err)
	}
}
