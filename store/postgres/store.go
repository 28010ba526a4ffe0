// Package postgres provides a PostgreSQL implementation of the rampart
// composite store using grove ORM with Go-based migrations. Uniqueness and
// referential integrity are enforced by the schema.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	_ "github.com/xraph/grove/drivers/pgdriver/pgmigrate"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/rampart/assignment"
	"github.com/xraph/rampart/grant"
	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/resource"
	"github.com/xraph/rampart/role"
	"github.com/xraph/rampart/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a PostgreSQL implementation of the composite rampart store.
type Store struct {
	db   *grove.DB
	pgdb *pgdriver.PgDB
}

// New creates a new PostgreSQL store.
func New(db *grove.DB) *Store {
	return &Store{
		db:   db,
		pgdb: pgdriver.Unwrap(db),
	}
}

// Migrate runs programmatic migrations via the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pgdb)
	if err != nil {
		return fmt.Errorf("rampart: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("rampart: migration failed: %w", err)
	}
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ──────────────────────────────────────────────────
// Role operations
// ──────────────────────────────────────────────────

func (s *Store) CreateRole(ctx context.Context, r *role.Role) error {
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	if _, err := s.pgdb.NewInsert(roleToModel(r)).Exec(ctx); err != nil {
		return classify(err, "create role", nil)
	}
	return nil
}

func (s *Store) GetRole(ctx context.Context, roleID id.RoleID) (*role.Role, error) {
	m := new(roleModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", roleID.String()).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("role %s: %w", roleID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("rampart: get role: %w", err)
	}
	return roleFromModel(m), nil
}

func (s *Store) GetRoleBySlug(ctx context.Context, organizationID, slug string) (*role.Role, error) {
	m := new(roleModel)
	err := s.pgdb.NewSelect(m).
		Where("organization_id = ?", organizationID).
		Where("slug = ?", slug).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("role slug %q: %w", slug, store.ErrNotFound)
		}
		return nil, fmt.Errorf("rampart: get role by slug: %w", err)
	}
	return roleFromModel(m), nil
}

func (s *Store) UpdateRole(ctx context.Context, r *role.Role) error {
	r.UpdatedAt = time.Now().UTC()
	res, err := s.pgdb.NewUpdate(roleToModel(r)).WherePK().Exec(ctx)
	if err != nil {
		return classify(err, "update role", nil)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rampart: update role: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("role %s: %w", r.ID, store.ErrNotFound)
	}
	return nil
}

// DeleteRole relies on the ON DELETE RESTRICT foreign key from assignments,
// so a concurrent assign either lands first and blocks the delete or fails
// on the missing role.
func (s *Store) DeleteRole(ctx context.Context, roleID id.RoleID) error {
	res, err := s.pgdb.NewDelete((*roleModel)(nil)).
		Where("id = ?", roleID.String()).Exec(ctx)
	if err != nil {
		return classify(err, "delete role", store.ErrInUse)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rampart: delete role: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("role %s: %w", roleID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) ListRoles(ctx context.Context, filter *role.ListFilter) ([]*role.Role, error) {
	var models []roleModel
	q := s.pgdb.NewSelect(&models).OrderExpr("created_at ASC, id ASC")
	if filter != nil {
		if filter.OrganizationID != "" {
			q = q.Where("organization_id = ?", filter.OrganizationID)
		}
		if filter.IsDefault != nil {
			q = q.Where("is_default = ?", *filter.IsDefault)
		}
		if filter.Search != "" {
			q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Search+"%")
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("rampart: list roles: %w", err)
	}
	result := make([]*role.Role, len(models))
	for i := range models {
		result[i] = roleFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountRoles(ctx context.Context, filter *role.ListFilter) (int64, error) {
	q := s.pgdb.NewSelect((*roleModel)(nil))
	if filter != nil {
		if filter.OrganizationID != "" {
			q = q.Where("organization_id = ?", filter.OrganizationID)
		}
		if filter.IsDefault != nil {
			q = q.Where("is_default = ?", *filter.IsDefault)
		}
		if filter.Search != "" {
			q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Search+"%")
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("rampart: count roles: %w", err)
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// Assignment operations
// ──────────────────────────────────────────────────

func (s *Store) CreateAssignment(ctx context.Context, a *assignment.Assignment) (*assignment.Assignment, bool, error) {
	a.CreatedAt = time.Now().UTC()
	res, err := s.pgdb.NewInsert(assignmentToModel(a)).
		OnConflict("(user_id, role_id, scope, scope_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, false, classify(err, "create assignment", store.ErrNotFound)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("rampart: create assignment: %w", err)
	}
	if n > 0 {
		return a, true, nil
	}
	existing, err := s.findAssignment(ctx, a.Key())
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("rampart: assignment %s vanished during create: %w", a.Key(), store.ErrConflict)
	}
	return existing, false, nil
}

func (s *Store) GetAssignment(ctx context.Context, assID id.AssignmentID) (*assignment.Assignment, error) {
	m := new(assignmentModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", assID.String()).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("assignment %s: %w", assID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("rampart: get assignment: %w", err)
	}
	return assignmentFromModel(m), nil
}

func (s *Store) findAssignment(ctx context.Context, k assignment.Key) (*assignment.Assignment, error) {
	m := new(assignmentModel)
	err := s.pgdb.NewSelect(m).
		Where("user_id = ?", k.UserID).
		Where("role_id = ?", k.RoleID.String()).
		Where("scope = ?", string(k.Scope)).
		Where("scope_id = ?", k.ScopeID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("rampart: find assignment: %w", err)
	}
	return assignmentFromModel(m), nil
}

func (s *Store) DeleteAssignmentByKey(ctx context.Context, k assignment.Key) (*assignment.Assignment, error) {
	existing, err := s.findAssignment(ctx, k)
	if err != nil || existing == nil {
		return nil, err
	}
	res, err := s.pgdb.NewDelete((*assignmentModel)(nil)).
		Where("id = ?", existing.ID.String()).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("rampart: delete assignment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rampart: delete assignment: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	return existing, nil
}

func (s *Store) ListAssignments(ctx context.Context, filter *assignment.ListFilter) ([]*assignment.Assignment, error) {
	var models []assignmentModel
	q := s.pgdb.NewSelect(&models).OrderExpr("created_at ASC, id ASC")
	if filter != nil {
		if filter.OrganizationID != "" {
			q = q.Where("organization_id = ?", filter.OrganizationID)
		}
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.RoleID != nil {
			q = q.Where("role_id = ?", filter.RoleID.String())
		}
		if filter.Scope != "" {
			q = q.Where("scope = ?", string(filter.Scope))
		}
		if filter.ScopeID != "" {
			q = q.Where("scope_id = ?", filter.ScopeID)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("rampart: list assignments: %w", err)
	}
	result := make([]*assignment.Assignment, len(models))
	for i := range models {
		result[i] = assignmentFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountAssignments(ctx context.Context, filter *assignment.ListFilter) (int64, error) {
	q := s.pgdb.NewSelect((*assignmentModel)(nil))
	if filter != nil {
		if filter.OrganizationID != "" {
			q = q.Where("organization_id = ?", filter.OrganizationID)
		}
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.RoleID != nil {
			q = q.Where("role_id = ?", filter.RoleID.String())
		}
		if filter.Scope != "" {
			q = q.Where("scope = ?", string(filter.Scope))
		}
		if filter.ScopeID != "" {
			q = q.Where("scope_id = ?", filter.ScopeID)
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("rampart: count assignments: %w", err)
	}
	return count, nil
}

func (s *Store) ListRoleIDsForUser(ctx context.Context, organizationID, userID string, scope assignment.Scope, scopeID string) ([]id.RoleID, error) {
	var models []assignmentModel
	err := s.pgdb.NewSelect(&models).
		Where("organization_id = ?", organizationID).
		Where("user_id = ?", userID).
		Where("scope = ?", string(scope)).
		Where("scope_id = ?", scopeID).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("rampart: list role ids for user: %w", err)
	}
	return roleIDsFromModels(models)
}

// ──────────────────────────────────────────────────
// Grant operations
// ──────────────────────────────────────────────────

func (s *Store) AddGrantEntries(ctx context.Context, entries []*grant.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	models := make([]grantModel, len(entries))
	for i, e := range entries {
		models[i] = grantToModel(e)
	}
	_, err := s.pgdb.NewInsert(&models).
		OnConflict("(resource_type, resource_id, user_id, permission) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("rampart: add grant entries: %w", err)
	}
	return nil
}

func (s *Store) RemoveGrantEntries(ctx context.Context, ref resource.Ref, userID string, perms []permission.Permission) error {
	tx, err := s.pgdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("rampart: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	if len(perms) == 0 {
		_, err = tx.NewDelete((*grantModel)(nil)).
			Where("resource_type = ?", string(ref.Type)).
			Where("resource_id = ?", ref.ID).
			Where("user_id = ?", userID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("rampart: clear grant: %w", err)
		}
	}
	for _, p := range perms {
		_, err = tx.NewDelete((*grantModel)(nil)).
			Where("resource_type = ?", string(ref.Type)).
			Where("resource_id = ?", ref.ID).
			Where("user_id = ?", userID).
			Where("permission = ?", string(p)).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("rampart: revoke grant entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("rampart: commit tx: %w", err)
	}
	return nil
}

func (s *Store) ListGrantEntries(ctx context.Context, filter *grant.ListFilter) ([]*grant.Entry, error) {
	var models []grantModel
	q := s.pgdb.NewSelect(&models).OrderExpr("created_at ASC, user_id ASC, permission ASC")
	if filter != nil {
		if filter.OrganizationID != "" {
			q = q.Where("organization_id = ?", filter.OrganizationID)
		}
		if filter.ResourceType != "" {
			q = q.Where("resource_type = ?", string(filter.ResourceType))
		}
		if filter.ResourceID != "" {
			q = q.Where("resource_id = ?", filter.ResourceID)
		}
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("rampart: list grant entries: %w", err)
	}
	result := make([]*grant.Entry, len(models))
	for i := range models {
		result[i] = grantFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) ListGrantedPermissions(ctx context.Context, ref resource.Ref, userID string) ([]permission.Permission, error) {
	entries, err := s.ListGrantEntries(ctx, &grant.ListFilter{
		ResourceType: ref.Type,
		ResourceID:   ref.ID,
		UserID:       userID,
	})
	if err != nil {
		return nil, err
	}
	result := make([]permission.Permission, len(entries))
	for i, e := range entries {
		result[i] = e.Permission
	}
	return result, nil
}
