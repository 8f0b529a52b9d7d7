// Package migrations embeds the SQL migrations for the account schema.
// They are applied at startup with goose when a database is configured.
package migrations

import "embed"

// Migrations holds the embedded goose migration files.
//
//go:embed *.sql
var Migrations embed.FS
