// Package migrations embeds the SQL schema migrations for the discount engine.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
