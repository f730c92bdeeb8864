// Package migrations contiene el esquema de la base local; se aplica al arrancar con DB_AUTO_MIGRATE.
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS
