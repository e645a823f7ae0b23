// Package migrations ships the version store schema. Files are applied in
// name order; each NNN_name.up.sql has a matching .down.sql.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
