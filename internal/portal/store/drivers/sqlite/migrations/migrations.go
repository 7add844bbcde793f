// Package migrations embeds the SQL migrations for the sqlite driver.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
