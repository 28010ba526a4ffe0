// Package mongo provides a MongoDB implementation of the rampart composite
// store using grove ORM. Uniqueness is enforced with unique indexes; the
// role/assignment invariant, which MongoDB cannot express as a constraint,
// is kept by re-checking after each write and undoing a losing write.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/rampart/assignment"
	"github.com/xraph/rampart/grant"
	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/resource"
	"github.com/xraph/rampart/role"
	"github.com/xraph/rampart/store"
)

// Collection name constants.
const (
	colRoles       = "rampart_roles"
	colAssignments = "rampart_assignments"
	colGrants      = "rampart_grants"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a MongoDB implementation of the composite rampart store.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// Migrate creates indexes for all rampart collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		if _, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("rampart/mongo: migrate %s indexes: %w", col, err)
		}
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

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongod.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all rampart collections.
func migrationIndexes() map[string][]mongod.IndexModel {
	return map[string][]mongod.IndexModel{
		colRoles: {
			{
				Keys:    bson.D{{Key: "organization_id", Value: 1}, {Key: "slug", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "organization_id", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		colAssignments: {
			{
				Keys: bson.D{
					{Key: "user_id", Value: 1},
					{Key: "role_id", Value: 1},
					{Key: "scope", Value: 1},
					{Key: "scope_id", Value: 1},
				},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{
				{Key: "organization_id", Value: 1},
				{Key: "user_id", Value: 1},
				{Key: "scope", Value: 1},
				{Key: "scope_id", Value: 1},
			}},
			{Keys: bson.D{{Key: "scope", Value: 1}, {Key: "scope_id", Value: 1}}},
			{Keys: bson.D{{Key: "role_id", Value: 1}}},
		},
		colGrants: {
			{Keys: bson.D{
				{Key: "resource_type", Value: 1},
				{Key: "resource_id", Value: 1},
				{Key: "user_id", Value: 1},
			}},
			{Keys: bson.D{{Key: "organization_id", Value: 1}}},
		},
	}
}

// ──────────────────────────────────────────────────
// Role operations
// ──────────────────────────────────────────────────

func (s *Store) CreateRole(ctx context.Context, r *role.Role) error {
	t := now()
	r.CreatedAt = t
	r.UpdatedAt = t
	if _, err := s.mdb.NewInsert(roleToModel(r)).Exec(ctx); err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return fmt.Errorf("role slug %q: %w", r.Slug, store.ErrConflict)
		}
		return fmt.Errorf("rampart: create role: %w", err)
	}
	return nil
}

func (s *Store) GetRole(ctx context.Context, roleID id.RoleID) (*role.Role, error) {
	var m roleModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": roleID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("role %s: %w", roleID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("rampart: get role: %w", err)
	}
	return roleFromModel(&m), nil
}

func (s *Store) GetRoleBySlug(ctx context.Context, organizationID, slug string) (*role.Role, error) {
	var m roleModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"organization_id": organizationID, "slug": slug}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("role slug %q: %w", slug, store.ErrNotFound)
		}
		return nil, fmt.Errorf("rampart: get role by slug: %w", err)
	}
	return roleFromModel(&m), nil
}

func (s *Store) UpdateRole(ctx context.Context, r *role.Role) error {
	r.UpdatedAt = now()
	m := roleToModel(r)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return fmt.Errorf("role slug %q: %w", r.Slug, store.ErrConflict)
		}
		return fmt.Errorf("rampart: update role: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("role %s: %w", r.ID, store.ErrNotFound)
	}
	return nil
}

// DeleteRole deletes, then recounts assignments. An assignment that landed
// between the check and the delete restores the role and reports ErrInUse.
func (s *Store) DeleteRole(ctx context.Context, roleID id.RoleID) error {
	existing, err := s.GetRole(ctx, roleID)
	if err != nil {
		return err
	}
	inUse, err := s.roleAssigned(ctx, roleID)
	if err != nil {
		return err
	}
	if inUse {
		return fmt.Errorf("role %s: %w", roleID, store.ErrInUse)
	}

	res, err := s.mdb.NewDelete((*roleModel)(nil)).
		Filter(bson.M{"_id": roleID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("rampart: delete role: %w", err)
	}
	if res.DeletedCount() == 0 {
		return fmt.Errorf("role %s: %w", roleID, store.ErrNotFound)
	}

	inUse, err = s.roleAssigned(ctx, roleID)
	if err != nil {
		return err
	}
	if inUse {
		if _, err := s.mdb.NewInsert(roleToModel(existing)).Exec(ctx); err != nil {
			return fmt.Errorf("rampart: restore role %s: %w", roleID, err)
		}
		return fmt.Errorf("role %s: %w", roleID, store.ErrInUse)
	}
	return nil
}

func (s *Store) roleAssigned(ctx context.Context, roleID id.RoleID) (bool, error) {
	n, err := s.mdb.NewFind((*assignmentModel)(nil)).
		Filter(bson.M{"role_id": roleID.String()}).
		Count(ctx)
	if err != nil {
		return false, fmt.Errorf("rampart: count role assignments: %w", err)
	}
	return n > 0, nil
}

func roleFilter(filter *role.ListFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.OrganizationID != "" {
		f["organization_id"] = filter.OrganizationID
	}
	if filter.IsDefault != nil {
		f["is_default"] = *filter.IsDefault
	}
	if filter.Search != "" {
		f["name"] = bson.M{"$regex": regexp.QuoteMeta(filter.Search), "$options": "i"}
	}
	return f
}

func (s *Store) ListRoles(ctx context.Context, filter *role.ListFilter) ([]*role.Role, error) {
	var models []roleModel
	q := s.mdb.NewFind(&models).
		Filter(roleFilter(filter)).
		Sort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
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
	count, err := s.mdb.NewFind((*roleModel)(nil)).
		Filter(roleFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("rampart: count roles: %w", err)
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// Assignment operations
// ──────────────────────────────────────────────────

// CreateAssignment inserts, then verifies the role. A role deleted in
// between withdraws the new assignment; DeleteRole's recount covers the
// opposite order.
func (s *Store) CreateAssignment(ctx context.Context, a *assignment.Assignment) (*assignment.Assignment, bool, error) {
	if _, err := s.GetRole(ctx, a.RoleID); err != nil {
		return nil, false, err
	}

	a.CreatedAt = now()
	if _, err := s.mdb.NewInsert(assignmentToModel(a)).Exec(ctx); err != nil {
		if !mongod.IsDuplicateKeyError(err) {
			return nil, false, fmt.Errorf("rampart: create assignment: %w", err)
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

	if _, err := s.GetRole(ctx, a.RoleID); isNotFound(err) {
		if _, derr := s.mdb.NewDelete((*assignmentModel)(nil)).
			Filter(bson.M{"_id": a.ID.String()}).
			Exec(ctx); derr != nil {
			return nil, false, fmt.Errorf("rampart: withdraw orphaned assignment: %w", derr)
		}
		return nil, false, err
	} else if err != nil {
		return nil, false, err
	}
	return a, true, nil
}

func isNotFound(err error) bool { return errors.Is(err, store.ErrNotFound) }

func (s *Store) GetAssignment(ctx context.Context, assID id.AssignmentID) (*assignment.Assignment, error) {
	var m assignmentModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": assID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("assignment %s: %w", assID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("rampart: get assignment: %w", err)
	}
	return assignmentFromModel(&m), nil
}

func keyFilter(k assignment.Key) bson.M {
	return bson.M{
		"user_id":  k.UserID,
		"role_id":  k.RoleID.String(),
		"scope":    string(k.Scope),
		"scope_id": k.ScopeID,
	}
}

func (s *Store) findAssignment(ctx context.Context, k assignment.Key) (*assignment.Assignment, error) {
	var m assignmentModel
	err := s.mdb.NewFind(&m).Filter(keyFilter(k)).Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("rampart: find assignment: %w", err)
	}
	return assignmentFromModel(&m), nil
}

func (s *Store) DeleteAssignmentByKey(ctx context.Context, k assignment.Key) (*assignment.Assignment, error) {
	existing, err := s.findAssignment(ctx, k)
	if err != nil || existing == nil {
		return nil, err
	}
	res, err := s.mdb.NewDelete((*assignmentModel)(nil)).
		Filter(bson.M{"_id": existing.ID.String()}).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("rampart: delete assignment: %w", err)
	}
	if res.DeletedCount() == 0 {
		return nil, nil
	}
	return existing, nil
}

func assignmentFilter(filter *assignment.ListFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.OrganizationID != "" {
		f["organization_id"] = filter.OrganizationID
	}
	if filter.UserID != "" {
		f["user_id"] = filter.UserID
	}
	if filter.RoleID != nil {
		f["role_id"] = filter.RoleID.String()
	}
	if filter.Scope != "" {
		f["scope"] = string(filter.Scope)
	}
	if filter.ScopeID != "" {
		f["scope_id"] = filter.ScopeID
	}
	return f
}

func (s *Store) ListAssignments(ctx context.Context, filter *assignment.ListFilter) ([]*assignment.Assignment, error) {
	var models []assignmentModel
	q := s.mdb.NewFind(&models).
		Filter(assignmentFilter(filter)).
		Sort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
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
	count, err := s.mdb.NewFind((*assignmentModel)(nil)).
		Filter(assignmentFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("rampart: count assignments: %w", err)
	}
	return count, nil
}

func (s *Store) ListRoleIDsForUser(ctx context.Context, organizationID, userID string, scope assignment.Scope, scopeID string) ([]id.RoleID, error) {
	var models []assignmentModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{
			"organization_id": organizationID,
			"user_id":         userID,
			"scope":           string(scope),
			"scope_id":        scopeID,
		}).
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
	for _, e := range entries {
		if _, err := s.mdb.NewInsert(grantToModel(e)).Exec(ctx); err != nil {
			if mongod.IsDuplicateKeyError(err) {
				continue // already granted
			}
			return fmt.Errorf("rampart: add grant entry: %w", err)
		}
	}
	return nil
}

func (s *Store) RemoveGrantEntries(ctx context.Context, ref resource.Ref, userID string, perms []permission.Permission) error {
	f := bson.M{
		"resource_type": string(ref.Type),
		"resource_id":   ref.ID,
		"user_id":       userID,
	}
	if len(perms) > 0 {
		f["permission"] = bson.M{"$in": permission.Strings(perms)}
	}
	_, err := s.mdb.NewDelete((*grantModel)(nil)).
		Many().
		Filter(f).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("rampart: revoke grant entries: %w", err)
	}
	return nil
}

func (s *Store) ListGrantEntries(ctx context.Context, filter *grant.ListFilter) ([]*grant.Entry, error) {
	f := bson.M{}
	if filter != nil {
		if filter.OrganizationID != "" {
			f["organization_id"] = filter.OrganizationID
		}
		if filter.ResourceType != "" {
			f["resource_type"] = string(filter.ResourceType)
		}
		if filter.ResourceID != "" {
			f["resource_id"] = filter.ResourceID
		}
		if filter.UserID != "" {
			f["user_id"] = filter.UserID
		}
	}
	var models []grantModel
	err := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "created_at", Value: 1}, {Key: "user_id", Value: 1}, {Key: "permission", Value: 1}}).
		Scan(ctx)
	if err != nil {
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
