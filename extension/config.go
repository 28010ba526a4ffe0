package extension

import (
	"time"

	"github.com/xraph/rampart"
)

// Backend names the store the extension builds from a grove.DB found in
// the DI container.
type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendSQLite   Backend = "sqlite"
	BackendMongo    Backend = "mongo"
)

// Config holds the rampart extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.rampart" or "rampart" keys).
type Config struct {
	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// Backend selects the store built from the container's *grove.DB when
	// no store was supplied. Empty means the store must be injected.
	Backend Backend `json:"backend" mapstructure:"backend" yaml:"backend"`

	// RedisAddr switches the role cache from in-process to Redis.
	RedisAddr string `json:"redis_addr" mapstructure:"redis_addr" yaml:"redis_addr"`

	// RedisPrefix namespaces cache keys in a shared Redis.
	RedisPrefix string `json:"redis_prefix" mapstructure:"redis_prefix" yaml:"redis_prefix"`

	// CacheTTL bounds how long a role's permission set is cached. Zero
	// disables the cache.
	CacheTTL time.Duration `json:"cache_ttl" mapstructure:"cache_ttl" yaml:"cache_ttl"`

	// CacheSize bounds the in-process cache.
	CacheSize int `json:"cache_size" mapstructure:"cache_size" yaml:"cache_size"`

	// DisableMetrics skips the Prometheus plugin.
	DisableMetrics bool `json:"disable_metrics" mapstructure:"disable_metrics" yaml:"disable_metrics"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	ec := rampart.DefaultConfig()
	return Config{
		RedisPrefix: "rampart",
		CacheTTL:    ec.CacheTTL,
		CacheSize:   ec.CacheSize,
	}
}

// engineConfig projects the cache settings onto the engine config.
func (c Config) engineConfig() rampart.Config {
	ec := rampart.DefaultConfig()
	ec.CacheTTL = c.CacheTTL
	if c.CacheSize > 0 {
		ec.CacheSize = c.CacheSize
	}
	return ec
}
