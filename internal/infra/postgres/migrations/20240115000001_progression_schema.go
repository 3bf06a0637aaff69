package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//go:embed 0001_progression_schema.up.sql
var progressionSchemaUp string

//go:embed 0001_progression_schema.down.sql
var progressionSchemaDown string

var Migrations = migrate.NewMigrations()

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, progressionSchemaUp)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, progressionSchemaDown)
			return err
		},
	)
}
