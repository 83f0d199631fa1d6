// Package migrations embeds SQL migration files.
package migrations

import "embed"

// FS contains the postgres migrations.
//
//go:embed *.sql
var FS embed.FS
