package sqlite

import (
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/xraph/rampart/store"
)

// classify maps unique constraint violations onto store.ErrConflict and,
// on connections with foreign keys enabled, a missing role onto
// store.ErrNotFound.
func classify(err error, op string) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("rampart: %s: %w", op, store.ErrConflict)
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("rampart: %s: %w", op, store.ErrNotFound)
		}
	}
	return fmt.Errorf("rampart: %s: %w", op, err)
}
