// Package migrations embeds the PostgreSQL schema migrations.
package migrations

import "embed"

// FS holds every *.up.sql / *.down.sql pair, named NNNNNN_name for golang-migrate
//
//go:embed *.sql
var FS embed.FS
