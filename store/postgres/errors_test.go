package postgres

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/store"
)

func TestClassify(t *testing.T) {
	unique := fmt.Errorf("exec: %w", &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "rampart_roles_organization_id_slug_key"})
	fk := &pgconn.PgError{Code: codeForeignKeyViolation, ConstraintName: "rampart_assignments_role_id_fkey"}
	other := errors.New("connection reset")

	tests := []struct {
		name  string
		err   error
		onFK  error
		want  error
		avoid []error
	}{
		{"unique violation", unique, nil, store.ErrConflict, nil},
		{"fk on insert", fk, store.ErrNotFound, store.ErrNotFound, []error{store.ErrInUse}},
		{"fk on delete", fk, store.ErrInUse, store.ErrInUse, []error{store.ErrNotFound}},
		{"fk without mapping", fk, nil, fk, []error{store.ErrNotFound, store.ErrInUse}},
		{"other error", other, store.ErrInUse, other, []error{store.ErrInUse, store.ErrConflict}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err, "op", tt.onFK)
			if !errors.Is(got, tt.want) {
				t.Fatalf("expected %v in chain, got %v", tt.want, got)
			}
			for _, a := range tt.avoid {
				if errors.Is(got, a) {
					t.Fatalf("unexpected %v in chain: %v", a, got)
				}
			}
		})
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
