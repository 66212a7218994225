package postgres

import (
	"context"
	"fmt"
)

// schemaStatements create the tables and indexes used by PostgresStore.
// Each statement is idempotent.
var schemaStatements = []struct {
	name string
	sql  string
}{
	{"users table", `CREATE TABLE IF NOT EXISTS users (
    id              UUID PRIMARY KEY,
    email           TEXT NOT NULL UNIQUE,
    hashed_password TEXT NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`},
	{"conversations table", `CREATE TABLE IF NOT EXISTS conversations (
    id             UUID PRIMARY KEY,
    owner_id       UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    title          TEXT NOT NULL,
    model_provider TEXT NOT NULL,
    model_name     TEXT NOT NULL,
    messages       JSONB NOT NULL DEFAULT '[]'::jsonb,
    version        INTEGER NOT NULL DEFAULT 1,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`},
	{"owner_updated index", `CREATE INDEX IF NOT EXISTS idx_conversations_owner_updated
    ON conversations (owner_id, updated_at DESC)`},
}

// EnsureSchema creates the tables if they do not already exist. Production
// deployments may disable it (AUTO_MIGRATE=false) and manage the schema with
// migration tooling instead.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.Exec(ctx, stmt.sql); err != nil {
			return fmt.Errorf("postgres: create %s: %w", stmt.name, err)
		}
	}
	return nil
}
