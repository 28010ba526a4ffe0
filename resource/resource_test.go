package resource_test

import (
	"errors"
	"testing"

	"github.com/xraph/rampart/resource"
)

func TestRefValidate(t *testing.T) {
	tests := []struct {
		name    string
		ref     resource.Ref
		wantErr bool
	}{
		{"project", resource.Ref{Type: resource.Project, ID: "p1"}, false},
		{"team", resource.Ref{Type: resource.Team, ID: "t1"}, false},
		{"missing id", resource.Ref{Type: resource.Project}, true},
		{"organization is not a resource", resource.Ref{Type: "organization", ID: "o1"}, true},
		{"empty", resource.Ref{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ref.Validate()
			if tt.wantErr && !errors.Is(err, resource.ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestRefString(t *testing.T) {
	if got := resource.New(resource.Team, "t9").String(); got != "team:t9" {
		t.Fatalf("String() = %q", got)
	}
}
