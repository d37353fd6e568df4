// Package migrations embeds the schema migration files applied by the
// SQLite store on startup.
package migrations

import "embed"

// FS holds every .sql migration, embedded at compile time.
//
//go:embed *.sql
var FS embed.FS
