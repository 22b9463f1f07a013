// Package migrations carries the SQL for the gating schema (decision_events
// and its indexes), embedded so services can run it with bun/migrate or fold
// the raw files into their own migration pipeline.
package migrations

import (
	"embed"
	"fmt"

	"github.com/uptrace/bun/migrate"
)

//go:embed *.sql
var migrationFS embed.FS

// FS exposes the raw embedded SQL files.
var FS = migrationFS

// Migrations is ready to hand to a bun migrate.Migrator.
var Migrations = migrate.NewMigrations()

func init() {
	if err := Migrations.Discover(migrationFS); err != nil {
		panic(fmt.Sprintf("gating migrations: %v", err))
	}
}
