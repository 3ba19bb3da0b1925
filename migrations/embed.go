// Package migrations embeds the schema so the server and the migration
// script apply the same files.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
