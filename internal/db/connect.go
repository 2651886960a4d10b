package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite

	"github.com/talentlink/talentlink-backend/internal/config"
)

// Open connects using the descriptor, tunes the pool, verifies connectivity
// and ensures the schema exists.
func Open(ctx context.Context, d config.Database) (*sql.DB, error) {
	switch d.Engine {
	case config.EnginePostgres, config.EngineSQLite:
	default:
		return nil, fmt.Errorf("db: unsupported engine: %s", d.Engine)
	}

	db, err := sql.Open(d.DriverName(), d.DSN())
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}
	tunePool(d, db)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db: ping %s: %w", d, err)
	}
	if d.Engine == config.EngineSQLite {
		if err := applySQLitePragmas(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := ensureSchema(ctx, db, d.Engine); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db: schema: %w", err)
	}
	return db, nil
}

func tunePool(d config.Database, db *sql.DB) {
	maxOpen := 20
	maxIdle := 10
	idleLife := 15 * time.Minute

	if d.Engine == config.EngineSQLite {
		// single writer
		maxOpen, maxIdle, idleLife = 1, 1, 0
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(d.ConnMaxAge)
	db.SetConnMaxIdleTime(idleLife)
}

func applySQLitePragmas(ctx context.Context, db *sql.DB) error {
	for _, p := range []string{
		"PRAGMA foreign_keys = ON;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
	} {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("db: sqlite pragma %q: %w", p, err)
		}
	}
	return nil
}

func ensureSchema(ctx context.Context, db *sql.DB, engine config.Engine) error {
	schema := schemaPostgres
	if engine == config.EngineSQLite {
		schema = schemaSQLite
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  email TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL,
  is_staff INTEGER NOT NULL DEFAULT 0,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS blacklisted_tokens (
  jti TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  expires_at INTEGER NOT NULL,
  blacklisted_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS blacklisted_tokens_expires_idx ON blacklisted_tokens (expires_at);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  email TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL,
  is_staff INTEGER NOT NULL DEFAULT 0,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS blacklisted_tokens (
  jti TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  expires_at BIGINT NOT NULL,
  blacklisted_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS blacklisted_tokens_expires_idx ON blacklisted_tokens (expires_at);
`
