// Package migrations embeds the SQL schema migrations the server applies at
// startup via goose.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
