// Package migrations embeds the schema's SQL migration files so the
// binary carries its own schema and never depends on a file being
// present at deploy time.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
