package testutil

import (
	"database/sql"
	"io/fs"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cortexrt/agent-runtime/migrations"
)

// ApplyMigrations applies the embedded migration files with the same
// schema_migrations bookkeeping as internal/db's migration runner; the
// apply loop is a copy of that runner's, not a call into it.
func ApplyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()

	if _, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS schema_migrations (
            version TEXT PRIMARY KEY,
            applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`); err != nil {
		require.NoError(t, err, "Failed to create schema_migrations table")
	}

	rows, err := db.Query(`SELECT version FROM schema_migrations`)
	require.NoError(t, err, "Failed to query applied migrations")
	defer rows.Close()

	applied := map[string]struct{}{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			require.NoError(t, err, "Failed to scan migration version")
		}
		applied[v] = struct{}{}
	}

	entries, err := fs.ReadDir(migrations.FS, ".")
	require.NoError(t, err, "Failed to read embedded migrations")

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		name := entry.Name()
		if _, ok := applied[name]; ok {
			continue
		}

		sqlBytes, err := migrations.FS.ReadFile(name)
		require.NoError(t, err, "Failed to read migration %s", name)

		if _, err := db.Exec(string(sqlBytes)); err != nil {
			require.NoError(t, err, "Failed to execute migration %s", name)
		}

		if _, err := db.Exec(`INSERT INTO schema_migrations (version, applied_at) VALUES ($1, $2)`, name, time.Now()); err != nil {
			require.NoError(t, err, "Failed to record migration %s", name)
		}

		t.Logf("applied migration: %s", name)
	}
}

// ApplyMigrationsWithTestData applies migrations and registers a standard
// active test agent definition for integration tests that exercise the
// full claim/dispatch path.
func ApplyMigrationsWithTestData(t *testing.T, db *sql.DB) {
	t.Helper()

	ApplyMigrations(t, db)

	const testDefinitionYAML = `
name: integration-test-agent
model: mock-model
steps:
  - name: step_one
    type: INSTRUCTION
    instruction: "Summarize: {{.input}}"
`

	_, err := db.Exec(`
		INSERT INTO agent_definitions (id, agent_name, definition_yaml, status, created_at)
		VALUES ('11111111-1111-1111-1111-111111111111', 'integration-test-agent', $1, 'active', now())
		ON CONFLICT (id) DO NOTHING`, testDefinitionYAML)
	require.NoError(t, err, "Failed to insert test agent definition")
}
