// Package migrations embeds the schema files for the parking access
// database so deployment tooling can apply them without the source tree.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
