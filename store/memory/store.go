// Package memory provides an in-memory implementation of the rampart
// composite store. It is intended for testing, development and standalone
// use. Every invariant the SQL backends enforce with constraints is enforced
// here under a single write lock.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/xraph/rampart/assignment"
	"github.com/xraph/rampart/grant"
	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/resource"
	"github.com/xraph/rampart/role"
	"github.com/xraph/rampart/store"
)

// Compile-time interface checks.
var (
	_ store.Store      = (*Store)(nil)
	_ role.Store       = (*Store)(nil)
	_ assignment.Store = (*Store)(nil)
	_ grant.Store      = (*Store)(nil)
)

// Store is a thread-safe in-memory store for all rampart entities.
type Store struct {
	mu sync.RWMutex

	roles       map[string]*role.Role             // roleID -> role
	slugs       map[string]string                 // org|slug -> roleID
	assignments map[string]*assignment.Assignment // assignmentID -> assignment
	byKey       map[string]string                 // Key.String() -> assignmentID
	grants      map[string]*grant.Entry           // grantKey -> entry

	now func() time.Time
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		roles:       make(map[string]*role.Role),
		slugs:       make(map[string]string),
		assignments: make(map[string]*assignment.Assignment),
		byKey:       make(map[string]string),
		grants:      make(map[string]*grant.Entry),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping is a no-op for the memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (s *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Role Store
// ──────────────────────────────────────────────────

func (s *Store) CreateRole(_ context.Context, r *role.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sk := slugKey(r.OrganizationID, r.Slug)
	if _, taken := s.slugs[sk]; taken {
		return fmt.Errorf("role slug %q: %w", r.Slug, store.ErrConflict)
	}
	if _, dup := s.roles[r.ID.String()]; dup {
		return fmt.Errorf("role %s: %w", r.ID, store.ErrConflict)
	}
	t := s.now()
	r.CreatedAt, r.UpdatedAt = t, t
	s.roles[r.ID.String()] = copyRole(r)
	s.slugs[sk] = r.ID.String()
	return nil
}

func (s *Store) GetRole(_ context.Context, roleID id.RoleID) (*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.roles[roleID.String()]
	if !ok {
		return nil, fmt.Errorf("role %s: %w", roleID, store.ErrNotFound)
	}
	return copyRole(r), nil
}

func (s *Store) GetRoleBySlug(_ context.Context, organizationID, slug string) (*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rid, ok := s.slugs[slugKey(organizationID, slug)]
	if !ok {
		return nil, fmt.Errorf("role slug %q: %w", slug, store.ErrNotFound)
	}
	return copyRole(s.roles[rid]), nil
}

func (s *Store) UpdateRole(_ context.Context, r *role.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.roles[r.ID.String()]
	if !ok {
		return fmt.Errorf("role %s: %w", r.ID, store.ErrNotFound)
	}
	oldKey := slugKey(existing.OrganizationID, existing.Slug)
	newKey := slugKey(existing.OrganizationID, r.Slug)
	if newKey != oldKey {
		if _, taken := s.slugs[newKey]; taken {
			return fmt.Errorf("role slug %q: %w", r.Slug, store.ErrConflict)
		}
		delete(s.slugs, oldKey)
		s.slugs[newKey] = r.ID.String()
	}
	r.OrganizationID = existing.OrganizationID
	r.CreatedAt = existing.CreatedAt
	r.UpdatedAt = s.now()
	s.roles[r.ID.String()] = copyRole(r)
	return nil
}

func (s *Store) DeleteRole(_ context.Context, roleID id.RoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.roles[roleID.String()]
	if !ok {
		return fmt.Errorf("role %s: %w", roleID, store.ErrNotFound)
	}
	for _, a := range s.assignments {
		if a.RoleID.String() == roleID.String() {
			return fmt.Errorf("role %s: %w", roleID, store.ErrInUse)
		}
	}
	delete(s.slugs, slugKey(r.OrganizationID, r.Slug))
	delete(s.roles, roleID.String())
	return nil
}

func (s *Store) ListRoles(_ context.Context, filter *role.ListFilter) ([]*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*role.Role, 0, len(s.roles))
	for _, r := range s.roles {
		if filter != nil {
			if filter.OrganizationID != "" && r.OrganizationID != filter.OrganizationID {
				continue
			}
			if filter.IsDefault != nil && r.IsDefault != *filter.IsDefault {
				continue
			}
			if filter.Search != "" && !strings.Contains(strings.ToLower(r.Name), strings.ToLower(filter.Search)) {
				continue
			}
		}
		result = append(result, copyRole(r))
	}
	slices.SortFunc(result, func(a, b *role.Role) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.ID.String(), b.ID.String()))
	})
	if filter == nil {
		return result, nil
	}
	return applyPagination(result, filter.Limit, filter.Offset), nil
}

func (s *Store) CountRoles(ctx context.Context, filter *role.ListFilter) (int64, error) {
	var f role.ListFilter
	if filter != nil {
		f = *filter
		f.Limit, f.Offset = 0, 0
	}
	list, err := s.ListRoles(ctx, &f)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

// ──────────────────────────────────────────────────
// Assignment Store
// ──────────────────────────────────────────────────

func (s *Store) CreateAssignment(_ context.Context, a *assignment.Assignment) (*assignment.Assignment, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[a.RoleID.String()]; !ok {
		return nil, false, fmt.Errorf("role %s: %w", a.RoleID, store.ErrNotFound)
	}
	k := a.Key().String()
	if existingID, ok := s.byKey[k]; ok {
		return copyAssignment(s.assignments[existingID]), false, nil
	}
	a.CreatedAt = s.now()
	s.assignments[a.ID.String()] = copyAssignment(a)
	s.byKey[k] = a.ID.String()
	return copyAssignment(a), true, nil
}

func (s *Store) GetAssignment(_ context.Context, assID id.AssignmentID) (*assignment.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assignments[assID.String()]
	if !ok {
		return nil, fmt.Errorf("assignment %s: %w", assID, store.ErrNotFound)
	}
	return copyAssignment(a), nil
}

func (s *Store) DeleteAssignmentByKey(_ context.Context, k assignment.Key) (*assignment.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ks := k.String()
	aid, ok := s.byKey[ks]
	if !ok {
		return nil, nil
	}
	a := s.assignments[aid]
	delete(s.byKey, ks)
	delete(s.assignments, aid)
	return a, nil
}

func (s *Store) ListAssignments(_ context.Context, filter *assignment.ListFilter) ([]*assignment.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*assignment.Assignment, 0)
	for _, a := range s.assignments {
		if filter != nil && !matchAssignment(a, filter) {
			continue
		}
		result = append(result, copyAssignment(a))
	}
	slices.SortFunc(result, func(a, b *assignment.Assignment) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.ID.String(), b.ID.String()))
	})
	if filter == nil {
		return result, nil
	}
	return applyPagination(result, filter.Limit, filter.Offset), nil
}

func (s *Store) CountAssignments(ctx context.Context, filter *assignment.ListFilter) (int64, error) {
	var f assignment.ListFilter
	if filter != nil {
		f = *filter
		f.Limit, f.Offset = 0, 0
	}
	list, err := s.ListAssignments(ctx, &f)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (s *Store) ListRoleIDsForUser(_ context.Context, organizationID, userID string, scope assignment.Scope, scopeID string) ([]id.RoleID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []id.RoleID
	for _, a := range s.assignments {
		if a.OrganizationID == organizationID && a.UserID == userID && a.Scope == scope && a.ScopeID == scopeID {
			ids = append(ids, a.RoleID)
		}
	}
	return ids, nil
}

func matchAssignment(a *assignment.Assignment, f *assignment.ListFilter) bool {
	switch {
	case f.OrganizationID != "" && a.OrganizationID != f.OrganizationID:
		return false
	case f.UserID != "" && a.UserID != f.UserID:
		return false
	case f.RoleID != nil && a.RoleID.String() != f.RoleID.String():
		return false
	case f.Scope != "" && a.Scope != f.Scope:
		return false
	case f.ScopeID != "" && a.ScopeID != f.ScopeID:
		return false
	}
	return true
}

// ──────────────────────────────────────────────────
// Grant Store
// ──────────────────────────────────────────────────

func (s *Store) AddGrantEntries(_ context.Context, entries []*grant.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		k := grantKey(resource.Ref{Type: e.ResourceType, ID: e.ResourceID}, e.UserID, e.Permission)
		if _, ok := s.grants[k]; ok {
			continue
		}
		c := *e
		s.grants[k] = &c
	}
	return nil
}

func (s *Store) RemoveGrantEntries(_ context.Context, ref resource.Ref, userID string, perms []permission.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(perms) == 0 {
		for k, e := range s.grants {
			if e.ResourceType == ref.Type && e.ResourceID == ref.ID && e.UserID == userID {
				delete(s.grants, k)
			}
		}
		return nil
	}
	for _, p := range perms {
		delete(s.grants, grantKey(ref, userID, p))
	}
	return nil
}

func (s *Store) ListGrantEntries(_ context.Context, filter *grant.ListFilter) ([]*grant.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*grant.Entry, 0)
	for _, e := range s.grants {
		if filter != nil {
			if filter.OrganizationID != "" && e.OrganizationID != filter.OrganizationID {
				continue
			}
			if filter.ResourceType != "" && e.ResourceType != filter.ResourceType {
				continue
			}
			if filter.ResourceID != "" && e.ResourceID != filter.ResourceID {
				continue
			}
			if filter.UserID != "" && e.UserID != filter.UserID {
				continue
			}
		}
		c := *e
		result = append(result, &c)
	}
	slices.SortFunc(result, func(a, b *grant.Entry) int {
		return cmp.Or(
			a.CreatedAt.Compare(b.CreatedAt),
			strings.Compare(a.UserID, b.UserID),
			strings.Compare(string(a.Permission), string(b.Permission)),
		)
	})
	return result, nil
}

func (s *Store) ListGrantedPermissions(_ context.Context, ref resource.Ref, userID string) ([]permission.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var perms []permission.Permission
	for _, e := range s.grants {
		if e.ResourceType == ref.Type && e.ResourceID == ref.ID && e.UserID == userID {
			perms = append(perms, e.Permission)
		}
	}
	return perms, nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func slugKey(organizationID, slug string) string { return organizationID + "|" + slug }

func grantKey(ref resource.Ref, userID string, p permission.Permission) string {
	return ref.String() + "|" + userID + "|" + string(p)
}

func copyRole(r *role.Role) *role.Role {
	c := *r
	c.Permissions = slices.Clone(r.Permissions)
	return &c
}

func copyAssignment(a *assignment.Assignment) *assignment.Assignment {
	c := *a
	return &c
}

func applyPagination[T any](items []*T, limit, offset int) []*T {
	if offset >= len(items) {
		return []*T{}
	}
	if offset > 0 {
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
