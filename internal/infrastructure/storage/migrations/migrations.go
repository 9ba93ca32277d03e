// Package migrations holds the goose schema migrations for the SQLite store.
package migrations

import "embed"

// FS contains the SQL migrations, applied in version order.
//
//go:embed *.sql
var FS embed.FS
