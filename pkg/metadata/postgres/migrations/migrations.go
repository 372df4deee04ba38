// Package migrations embeds the schema fstore's Postgres metadata store
// expects, applied by the `fstore migrate` command via golang-migrate.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
