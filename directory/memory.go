// Package directory provides an in-process user and resource directory for
// standalone deployments and tests. Production deployments usually adapt
// their own user, project and team services to rampart.Directory instead.
package directory

import (
	"context"
	"fmt"
	"sync"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/resource"
)

var _ rampart.Directory = (*Memory)(nil)

type user struct {
	organizationID string
	legacy         rampart.LegacyRole
}

// Memory is a thread-safe in-memory directory.
type Memory struct {
	mu            sync.RWMutex
	organizations map[string]struct{}
	users         map[string]user
	resources     map[resource.Ref]string // resource -> organization
}

// NewMemory creates an empty directory.
func NewMemory() *Memory {
	return &Memory{
		organizations: make(map[string]struct{}),
		users:         make(map[string]user),
		resources:     make(map[resource.Ref]string),
	}
}

// AddOrganization registers an organization.
func (m *Memory) AddOrganization(organizationID string) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.organizations[organizationID] = struct{}{}
	return m
}

// AddUser registers a user in an organization with a legacy role.
func (m *Memory) AddUser(userID, organizationID string, legacy rampart.LegacyRole) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.organizations[organizationID] = struct{}{}
	m.users[userID] = user{organizationID: organizationID, legacy: legacy}
	return m
}

// AddResource registers a project or team in an organization.
func (m *Memory) AddResource(t resource.Type, resourceID, organizationID string) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.organizations[organizationID] = struct{}{}
	m.resources[resource.Ref{Type: t, ID: resourceID}] = organizationID
	return m
}

// RemoveUser forgets a user.
func (m *Memory) RemoveUser(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, userID)
}

func (m *Memory) GetLegacyRole(_ context.Context, userID string) (rampart.LegacyRole, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[userID]
	if !ok {
		return "", fmt.Errorf("%w: %s", rampart.ErrUserNotFound, userID)
	}
	return u.legacy, nil
}

func (m *Memory) GetOrganizationID(_ context.Context, userID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[userID]
	if !ok {
		return "", fmt.Errorf("%w: %s", rampart.ErrUserNotFound, userID)
	}
	return u.organizationID, nil
}

func (m *Memory) OrganizationExists(_ context.Context, organizationID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.organizations[organizationID]
	return ok, nil
}

func (m *Memory) ResourceBelongsToOrganization(_ context.Context, ref resource.Ref, organizationID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	org, ok := m.resources[ref]
	return ok && org == organizationID, nil
}
