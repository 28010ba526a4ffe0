package rampart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/rampart/plugin"
	"github.com/xraph/rampart/resource"
	"github.com/xraph/rampart/store"
)

// Engine resolves permission checks and manages roles, assignments and
// direct grants. It holds no mutable state of its own and is safe for
// concurrent use.
type Engine struct {
	store     store.Store
	users     UserDirectory
	resources ResourceDirectory
	cache     Cache
	versions  roleVersions
	plugins   *plugin.Registry
	pending   []plugin.Plugin
	logger    *slog.Logger
	config    Config
	now       func() time.Time
}

// NewEngine creates a new engine with the given options.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		logger: slog.Default(),
		config: DefaultConfig(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		return nil, ErrStoreRequired
	}
	if e.users == nil || e.resources == nil {
		return nil, ErrDirectoryRequired
	}
	if len(e.pending) > 0 {
		e.plugins = plugin.NewRegistry(e.logger)
		for _, x := range e.pending {
			e.plugins.Register(x)
		}
		e.pending = nil
	}
	return e, nil
}

// Store returns the underlying composite store.
func (e *Engine) Store() store.Store { return e.store }

// Plugins returns the plugin registry (may be nil).
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.config }

// Start verifies the store is reachable.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.store.Ping(ctx); err != nil {
		return fmt.Errorf("rampart: ping store: %w", err)
	}
	return nil
}

// Stop notifies plugins of shutdown.
func (e *Engine) Stop(ctx context.Context) error {
	if e.plugins != nil {
		e.plugins.EmitShutdown(ctx)
	}
	return nil
}

// requireOrganization returns ErrOrganizationNotFound unless the resource
// directory knows organizationID.
func (e *Engine) requireOrganization(ctx context.Context, organizationID string) error {
	if organizationID == "" {
		return fmt.Errorf("%w: empty id", ErrOrganizationNotFound)
	}
	ok, err := e.resources.OrganizationExists(ctx, organizationID)
	if err != nil {
		return fmt.Errorf("rampart: lookup organization: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrOrganizationNotFound, organizationID)
	}
	return nil
}

// RequireResource returns ErrCrossOrganizationResource unless ref lives in
// organizationID.
func (e *Engine) RequireResource(ctx context.Context, organizationID string, ref resource.Ref) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	ok, err := e.resources.ResourceBelongsToOrganization(ctx, ref, organizationID)
	if err != nil {
		return fmt.Errorf("rampart: lookup resource organization: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrCrossOrganizationResource, ref)
	}
	return nil
}

// translate maps backend errors onto domain errors.
func translate(err error, notFound, conflict error) error {
	switch {
	case err == nil:
		return nil
	case notFound != nil && errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%w: %w", notFound, err)
	case conflict != nil && errors.Is(err, store.ErrConflict):
		return fmt.Errorf("%w: %w", conflict, err)
	case errors.Is(err, store.ErrInUse):
		return fmt.Errorf("%w: %w", ErrRoleInUse, err)
	}
	return err
}
