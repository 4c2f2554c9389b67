// Package migrations embeds the PostgreSQL schema migrations applied by
// github.com/joshjon/kit/pgdb.Migrate at startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
