package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/permission"
)

var _ rampart.Cache = (*Redis)(nil)

// Redis shares role permission sets between engine instances. Redis
// failures degrade to cache misses; the store stays authoritative.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// RedisOption configures the redis cache.
type RedisOption func(*Redis)

// WithPrefix sets the key prefix. Defaults to "rampart".
func WithPrefix(prefix string) RedisOption {
	return func(r *Redis) { r.prefix = prefix }
}

// WithRedisTTL sets the entry expiry.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) { r.ttl = ttl }
}

// WithLogger sets the logger used for redis errors.
func WithLogger(l *slog.Logger) RedisOption {
	return func(r *Redis) { r.logger = l }
}

// NewRedis creates a redis-backed cache.
func NewRedis(client *redis.Client, opts ...RedisOption) *Redis {
	r := &Redis{
		client: client,
		prefix: "rampart",
		ttl:    rampart.DefaultConfig().CacheTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) key(roleID id.RoleID) string {
	return r.prefix + ":role:" + roleID.String()
}

// GetRolePermissions returns the cached permissions of a role.
func (r *Redis) GetRolePermissions(ctx context.Context, organizationID string, roleID id.RoleID) ([]permission.Permission, bool) {
	raw, err := r.client.Get(ctx, r.key(roleID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		r.logger.Warn("role cache read failed", slog.String("role_id", roleID.String()), slog.String("error", err.Error()))
		return nil, false
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		r.logger.Warn("role cache entry corrupt", slog.String("role_id", roleID.String()), slog.String("error", err.Error()))
		return nil, false
	}
	if e.OrganizationID != organizationID {
		return nil, false
	}
	if e.Permissions == nil {
		e.Permissions = []permission.Permission{}
	}
	return e.Permissions, true
}

// SetRolePermissions caches the permissions of a role.
func (r *Redis) SetRolePermissions(ctx context.Context, organizationID string, roleID id.RoleID, perms []permission.Permission) {
	raw, err := json.Marshal(entry{OrganizationID: organizationID, Permissions: perms})
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, r.key(roleID), raw, r.ttl).Err(); err != nil {
		r.logger.Warn("role cache write failed", slog.String("role_id", roleID.String()), slog.String("error", err.Error()))
	}
}

// InvalidateRole drops a cached role.
func (r *Redis) InvalidateRole(ctx context.Context, roleID id.RoleID) {
	if err := r.client.Del(ctx, r.key(roleID)).Err(); err != nil {
		r.logger.Warn("role cache invalidation failed", slog.String("role_id", roleID.String()), slog.String("error", err.Error()))
	}
}
