// Package migrations holds the journal schema, applied in file-name order.
package migrations

import "embed"

// FS holds the numbered up and down scripts.
//
//go:embed *.sql
var FS embed.FS
