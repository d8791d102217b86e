// Package db opens the runtime's Postgres connection and applies
// embedded migrations against it.
package db

import (
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"time"

	_ "github.com/lib/pq" // Postgres driver

	"github.com/cortexrt/agent-runtime/internal/errs"
	"github.com/cortexrt/agent-runtime/internal/logging"
	"github.com/cortexrt/agent-runtime/migrations"
)

var log = logging.New("db")

// PoolConfig holds the connection-pool tunables. internal/config owns
// their env var names and defaults; Connect only applies them.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Connect opens dsn, applies pool, runs pending migrations, and
// returns the ready connection. Callers hold the *sql.DB themselves —
// there is no package-level connection state to fall back on.
func Connect(dsn string, pool PoolConfig) (*sql.DB, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, &errs.StateStoreError{Op: "open", Cause: err}
	}

	conn.SetMaxOpenConns(pool.MaxOpenConns)
	conn.SetMaxIdleConns(pool.MaxIdleConns)
	conn.SetConnMaxLifetime(pool.ConnMaxLifetime)
	conn.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	if err := conn.Ping(); err != nil {
		return nil, &errs.StateStoreError{Op: "ping", Cause: err}
	}

	log.Printf("connected with pool: max_open=%d, max_idle=%d, max_lifetime=%v",
		pool.MaxOpenConns, pool.MaxIdleConns, pool.ConnMaxLifetime)

	if err := applyMigrations(conn); err != nil {
		return nil, &errs.StateStoreError{Op: "migrate", Cause: err}
	}
	return conn, nil
}

// applyMigrations reads migration files embedded at build time and
// applies any not yet recorded in schema_migrations.
func applyMigrations(conn *sql.DB) error {
	if _, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	rows, err := conn.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return err
	}
	defer rows.Close()
	applied := map[string]struct{}{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return err
		}
		applied[v] = struct{}{}
	}

	entries, err := fs.ReadDir(migrations.FS, ".")
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, e := range entries {
		name := e.Name()
		if _, ok := applied[name]; ok {
			continue
		}
		sqlBytes, err := migrations.FS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := conn.Exec(string(sqlBytes)); err != nil {
			return fmt.Errorf("exec %s: %w", name, err)
		}
		if _, err := conn.Exec(`INSERT INTO schema_migrations (version, applied_at) VALUES ($1, $2)`, name, time.Now()); err != nil {
			return err
		}
		log.Printf("migrated %s", name)
	}
	return nil
}
