package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/xraph/rampart/store"
)

// SQLSTATE codes the store maps onto store sentinels.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// classify maps constraint violations onto store sentinels. onForeignKey
// picks the sentinel for a foreign key violation, which means "role
// missing" on insert and "role still assigned" on delete.
func classify(err error, op string, onForeignKey error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("rampart: %s: %w: %s", op, store.ErrConflict, pgErr.ConstraintName)
		case codeForeignKeyViolation:
			if onForeignKey != nil {
				return fmt.Errorf("rampart: %s: %w: %s", op, onForeignKey, pgErr.ConstraintName)
			}
		}
	}
	return fmt.Errorf("rampart: %s: %w", op, err)
}
