package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

// default thresholds; level n needs 100*(n-1)*n/2 xp
func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `
				INSERT INTO level_configurations (level, xp_required)
				SELECT n, 100 * (n - 1) * n / 2 FROM generate_series(1, 50) AS n
				ON CONFLICT (level) DO NOTHING`)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `DELETE FROM level_configurations`)
			return err
		},
	)
}
