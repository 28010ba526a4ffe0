// Package extension provides a Forge extension entry point for rampart.
package extension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-redis/redis/v8"
	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/api"
	"github.com/xraph/rampart/cache"
	"github.com/xraph/rampart/metrics"
	"github.com/xraph/rampart/plugin"
	"github.com/xraph/rampart/store"
	"github.com/xraph/rampart/store/mongo"
	"github.com/xraph/rampart/store/postgres"
	"github.com/xraph/rampart/store/sqlite"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "rampart"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Scoped role-based permissions for multi-tenant organizations"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

var (
	errNotInitialized = errors.New("rampart: extension not initialized")
	errNoStore        = errors.New("rampart: no store configured")
	errNoDirectory    = errors.New("rampart: no directory configured")
)

// Extension adapts rampart as a Forge extension.
type Extension struct {
	config     Config
	eng        *rampart.Engine
	apiHandler *api.API
	logger     *slog.Logger
	store      store.Store
	directory  rampart.Directory
	engineOpts []rampart.Option
	plugins    []plugin.Plugin
	metrics    *metrics.Plugin
	redis      *redis.Client
}

// New creates a rampart Forge extension with the given options.
func New(opts ...ExtOption) *Extension {
	e := &Extension{config: DefaultConfig()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the extension name.
func (e *Extension) Name() string { return ExtensionName }

// Description returns the extension description.
func (e *Extension) Description() string { return ExtensionDescription }

// Version returns the extension version.
func (e *Extension) Version() string { return ExtensionVersion }

// Dependencies returns the list of extension names this extension depends on.
func (e *Extension) Dependencies() []string { return []string{} }

// Engine returns the underlying engine.
func (e *Extension) Engine() *rampart.Engine { return e.eng }

// API returns the API handler.
func (e *Extension) API() *api.API { return e.apiHandler }

// Metrics returns the Prometheus plugin, nil when disabled.
func (e *Extension) Metrics() *metrics.Plugin { return e.metrics }

// Register implements [forge.Extension]. It initializes the engine,
// registers it in the DI container, and optionally registers HTTP routes.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.init(fapp); err != nil {
		return err
	}

	if err := vessel.Provide(fapp.Container(), func() (*rampart.Engine, error) {
		return e.eng, nil
	}); err != nil {
		return fmt.Errorf("rampart: register engine in container: %w", err)
	}

	if e.metrics != nil {
		if err := vessel.Provide(fapp.Container(), func() (*metrics.Plugin, error) {
			return e.metrics, nil
		}); err != nil {
			return fmt.Errorf("rampart: register metrics in container: %w", err)
		}
	}

	return nil
}

func (e *Extension) init(fapp forge.App) error {
	logger := e.logger
	if logger == nil {
		logger = slog.Default()
	}

	s, err := e.resolveStore(fapp)
	if err != nil {
		return err
	}
	d := e.directory
	if d == nil {
		if d, err = forge.Inject[rampart.Directory](fapp.Container()); err != nil {
			return errNoDirectory
		}
	}

	ec := e.config.engineConfig()
	opts := make([]rampart.Option, 0, len(e.engineOpts)+len(e.plugins)+6)
	opts = append(opts,
		rampart.WithLogger(logger),
		rampart.WithConfig(ec),
		rampart.WithStore(s),
		rampart.WithDirectory(d),
	)
	if c := e.buildCache(ec, logger); c != nil {
		opts = append(opts, rampart.WithCache(c))
	}

	if !e.config.DisableMetrics {
		e.metrics = metrics.New(nil)
		opts = append(opts, rampart.WithPlugin(e.metrics))
	}
	for _, x := range e.plugins {
		opts = append(opts, rampart.WithPlugin(x))
	}
	opts = append(opts, e.engineOpts...)

	eng, err := rampart.NewEngine(opts...)
	if err != nil {
		return fmt.Errorf("rampart: create engine: %w", err)
	}
	e.eng = eng

	e.apiHandler = api.New(eng, fapp.Router())

	if !e.config.DisableRoutes {
		if err := e.apiHandler.RegisterRoutes(fapp.Router()); err != nil {
			return fmt.Errorf("rampart: register routes: %w", err)
		}
	}

	return nil
}

// resolveStore prefers an explicit store, then a store.Store in the
// container, then one built on the container's grove.DB per Config.Backend.
func (e *Extension) resolveStore(fapp forge.App) (store.Store, error) {
	if e.store != nil {
		return e.store, nil
	}
	if s, err := forge.Inject[store.Store](fapp.Container()); err == nil {
		return s, nil
	}
	if e.config.Backend == "" {
		return nil, errNoStore
	}

	db, err := forge.Inject[*grove.DB](fapp.Container())
	if err != nil {
		return nil, fmt.Errorf("rampart: resolve grove database: %w", err)
	}
	return newStore(e.config.Backend, db)
}

func newStore(b Backend, db *grove.DB) (store.Store, error) {
	switch b {
	case BackendPostgres:
		return postgres.New(db), nil
	case BackendSQLite:
		return sqlite.New(db), nil
	case BackendMongo:
		return mongo.New(db), nil
	}
	return nil, fmt.Errorf("rampart: unknown backend %q", b)
}

func (e *Extension) buildCache(ec rampart.Config, logger *slog.Logger) rampart.Cache {
	if ec.CacheTTL <= 0 {
		return nil
	}
	if e.config.RedisAddr == "" {
		return cache.NewMemoryFromConfig(ec)
	}
	e.redis = redis.NewClient(&redis.Options{Addr: e.config.RedisAddr})
	return cache.NewRedis(e.redis,
		cache.WithPrefix(e.config.RedisPrefix),
		cache.WithRedisTTL(ec.CacheTTL),
		cache.WithLogger(logger),
	)
}

// Start runs migrations if enabled and verifies the store is reachable.
func (e *Extension) Start(ctx context.Context) error {
	if e.eng == nil {
		return errNotInitialized
	}

	if !e.config.DisableMigrate {
		if err := e.eng.Store().Migrate(ctx); err != nil {
			return fmt.Errorf("rampart: migration failed: %w", err)
		}
	}

	return e.eng.Start(ctx)
}

// Stop notifies plugins and releases the Redis connection.
func (e *Extension) Stop(ctx context.Context) error {
	if e.eng == nil {
		return nil
	}
	err := e.eng.Stop(ctx)
	if e.redis != nil {
		err = errors.Join(err, e.redis.Close())
	}
	return err
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.eng == nil {
		return errNotInitialized
	}
	return e.eng.Store().Ping(ctx)
}

// Handler returns the HTTP handler for all API routes.
func (e *Extension) Handler() http.Handler {
	if e.apiHandler == nil {
		return http.NotFoundHandler()
	}
	return e.apiHandler.Handler()
}

// RegisterRoutes registers all rampart API routes into a Forge router.
func (e *Extension) RegisterRoutes(router forge.Router) error {
	if e.apiHandler != nil {
		return e.apiHandler.RegisterRoutes(router)
	}
	return nil
}
