package rampart

import "time"

// Config holds configuration for the rampart engine.
type Config struct {
	// CacheTTL is how long role permission sets are cached by caches built
	// from this config. Zero disables caching.
	CacheTTL time.Duration `json:"cache_ttl,omitempty"`

	// CacheSize bounds the number of cached roles. Defaults to 4096.
	CacheSize int `json:"cache_size,omitempty"`

	// LogDecisions logs every check outcome at debug level.
	LogDecisions bool `json:"log_decisions,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		CacheTTL:  30 * time.Second,
		CacheSize: 4096,
	}
}
