// Package cache provides role permission caches for the rampart engine.
package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/permission"
)

// Compile-time interface check.
var _ rampart.Cache = (*Memory)(nil)

// entry is what both caches store per role.
type entry struct {
	OrganizationID string                  `json:"organization_id"`
	Permissions    []permission.Permission `json:"permissions"`
}

// Memory is an in-process LRU cache with TTL-based expiration.
type Memory struct {
	lru *lru.LRU[string, entry]
}

// MemoryOption configures the memory cache.
type MemoryOption func(*memoryConfig)

type memoryConfig struct {
	ttl     time.Duration
	maxSize int
}

// WithTTL sets the cache entry time-to-live.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(c *memoryConfig) { c.ttl = ttl }
}

// WithMaxSize sets the maximum number of cached roles.
func WithMaxSize(n int) MemoryOption {
	return func(c *memoryConfig) { c.maxSize = n }
}

// NewMemory creates a new in-memory cache.
func NewMemory(opts ...MemoryOption) *Memory {
	def := rampart.DefaultConfig()
	cfg := memoryConfig{ttl: def.CacheTTL, maxSize: def.CacheSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxSize <= 0 {
		cfg.maxSize = def.CacheSize
	}
	return &Memory{lru: lru.NewLRU[string, entry](cfg.maxSize, nil, cfg.ttl)}
}

// NewMemoryFromConfig sizes a memory cache from the engine config.
func NewMemoryFromConfig(c rampart.Config) *Memory {
	return NewMemory(WithTTL(c.CacheTTL), WithMaxSize(c.CacheSize))
}

// GetRolePermissions returns the cached permissions of a role. An entry
// cached for another organization is a miss.
func (m *Memory) GetRolePermissions(_ context.Context, organizationID string, roleID id.RoleID) ([]permission.Permission, bool) {
	e, ok := m.lru.Get(roleID.String())
	if !ok || e.OrganizationID != organizationID {
		return nil, false
	}
	return append([]permission.Permission(nil), e.Permissions...), true
}

// SetRolePermissions caches the permissions of a role.
func (m *Memory) SetRolePermissions(_ context.Context, organizationID string, roleID id.RoleID, perms []permission.Permission) {
	m.lru.Add(roleID.String(), entry{
		OrganizationID: organizationID,
		Permissions:    append([]permission.Permission(nil), perms...),
	})
}

// InvalidateRole drops a cached role.
func (m *Memory) InvalidateRole(_ context.Context, roleID id.RoleID) {
	m.lru.Remove(roleID.String())
}

// Len returns the number of cached roles.
func (m *Memory) Len() int { return m.lru.Len() }
