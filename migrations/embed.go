// Package migrations embeds the SQL schema migrations so the migrate tool
// ships them inside its binary.
package migrations

import "embed"

// FS holds the versioned up/down migration files.
//
//go:embed *.sql
var FS embed.FS
