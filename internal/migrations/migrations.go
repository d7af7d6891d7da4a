// Package migrations embeds the goose schema migrations of the vault, one
// directory per SQL dialect.
package migrations

import "embed"

// Dialect directories inside FS.
const (
	SQLiteDir   = "sqlite"
	PostgresDir = "postgres"
)

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
