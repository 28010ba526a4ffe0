// Package store defines the aggregate persistence interface. The role,
// assignment and grant packages each define their own store interface and a
// single backend (memory, postgres, sqlite, mongo) implements all of them.
package store

import (
	"context"
	"errors"

	"github.com/xraph/rampart/assignment"
	"github.com/xraph/rampart/grant"
	"github.com/xraph/rampart/role"
)

// Backend errors. Backends wrap these so the engine can translate them into
// domain errors with errors.Is.
var (
	// ErrNotFound is returned when an entity does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("store: conflict")

	// ErrInUse is returned when a delete would orphan referencing rows.
	ErrInUse = errors.New("store: in use")
)

// Store is the aggregate persistence interface.
type Store interface {
	role.Store
	assignment.Store
	grant.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
