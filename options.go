package rampart

import (
	"log/slog"

	"github.com/xraph/rampart/plugin"
	"github.com/xraph/rampart/store"
)

// Option is a functional option for the Engine.
type Option func(*Engine)

// WithStore sets the composite store.
func WithStore(s store.Store) Option { return func(e *Engine) { e.store = s } }

// WithUserDirectory sets the source of user organizations and legacy roles.
func WithUserDirectory(d UserDirectory) Option { return func(e *Engine) { e.users = d } }

// WithResourceDirectory sets the source of organization and resource ownership.
func WithResourceDirectory(d ResourceDirectory) Option {
	return func(e *Engine) { e.resources = d }
}

// WithDirectory sets both directories from one implementation.
func WithDirectory(d Directory) Option {
	return func(e *Engine) {
		e.users = d
		e.resources = d
	}
}

// WithCache sets the role permission cache.
func WithCache(c Cache) Option { return func(e *Engine) { e.cache = c } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithConfig sets the engine configuration.
func WithConfig(c Config) Option { return func(e *Engine) { e.config = c } }

// WithPlugin registers a plugin with the engine. Plugins are registered in
// option order once all options are applied, so the registry logs through
// the final logger whatever the position of WithLogger.
func WithPlugin(x plugin.Plugin) Option {
	return func(e *Engine) { e.pending = append(e.pending, x) }
}
