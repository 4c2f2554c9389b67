// Package migrations embeds the SQLite schema migrations applied by
// github.com/joshjon/kit/sqlitedb.Migrate at startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
