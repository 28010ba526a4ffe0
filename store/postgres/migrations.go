package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the rampart store (PostgreSQL).
var Migrations = migrate.NewGroup("rampart")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_roles",
			Version: "20260301000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS rampart_roles (
    id               TEXT PRIMARY KEY,
    organization_id  TEXT NOT NULL,
    name             TEXT NOT NULL,
    slug             TEXT NOT NULL,
    description      TEXT NOT NULL DEFAULT '',
    permissions      JSONB NOT NULL DEFAULT '[]',
    is_default       BOOLEAN NOT NULL DEFAULT FALSE,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    UNIQUE (organization_id, slug)
);

CREATE INDEX IF NOT EXISTS idx_rampart_roles_org ON rampart_roles (organization_id, created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS rampart_roles`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_assignments",
			Version: "20260301000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS rampart_assignments (
    id               TEXT PRIMARY KEY,
    organization_id  TEXT NOT NULL,
    user_id          TEXT NOT NULL,
    role_id          TEXT NOT NULL REFERENCES rampart_roles (id) ON DELETE RESTRICT,
    scope            TEXT NOT NULL CHECK (scope IN ('organization', 'project', 'team')),
    scope_id         TEXT NOT NULL DEFAULT '',
    granted_by       TEXT NOT NULL DEFAULT '',
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    UNIQUE (user_id, role_id, scope, scope_id),
    CHECK ((scope = 'organization') = (scope_id = ''))
);

CREATE INDEX IF NOT EXISTS idx_rampart_assignments_lookup
    ON rampart_assignments (organization_id, user_id, scope, scope_id);
CREATE INDEX IF NOT EXISTS idx_rampart_assignments_scope ON rampart_assignments (scope, scope_id);
CREATE INDEX IF NOT EXISTS idx_rampart_assignments_role ON rampart_assignments (role_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS rampart_assignments`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_grants",
			Version: "20260301000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS rampart_grants (
    resource_type    TEXT NOT NULL CHECK (resource_type IN ('project', 'team')),
    resource_id      TEXT NOT NULL,
    user_id          TEXT NOT NULL,
    permission       TEXT NOT NULL,
    organization_id  TEXT NOT NULL,
    granted_by       TEXT NOT NULL DEFAULT '',
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    PRIMARY KEY (resource_type, resource_id, user_id, permission)
);

CREATE INDEX IF NOT EXISTS idx_rampart_grants_org ON rampart_grants (organization_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS rampart_grants`)
				return err
			},
		},
	)
}
