package postgres

import (
	"context"

	"progression-service/internal/domain"
)

func (t *pgTx) LockUser(ctx context.Context, userID int64) (domain.User, error) {
	var row userRow
	err := t.tx.NewSelect().Model(&row).Where("u.id = ?", userID).For("UPDATE").Scan(ctx)
	if err != nil {
		return domain.User{}, notFound(err, "User")
	}
	return row.toDomain(), nil
}

// UpdateUser writes only the fields present in the patch. last_active is a
// DATE and is written from its calendar date so no zone conversion applies.
func (t *pgTx) UpdateUser(ctx context.Context, userID int64, patch domain.UserPatch) error {
	if patch.Empty() {
		return nil
	}
	q := t.tx.NewUpdate().Model((*userRow)(nil)).
		Where("id = ?", userID).
		Set("updated_at = now()")
	if patch.Streak != nil {
		q = q.Set("streak = ?", *patch.Streak)
	}
	if patch.LastActive.Set {
		if patch.LastActive.Value == nil {
			q = q.Set("last_active = NULL")
		} else {
			q = q.Set("last_active = ?::date", patch.LastActive.Value.Format(dateLayout))
		}
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.NotFound("User")
	}
	return nil
}

func (t *pgTx) IncrementXP(ctx context.Context, userID int64, amount int64) (int64, error) {
	var xp int64
	err := t.tx.QueryRowContext(ctx,
		`UPDATE users SET xp = xp + ?, updated_at = now() WHERE id = ? RETURNING xp`,
		amount, userID).Scan(&xp)
	if err != nil {
		return 0, notFound(err, "User")
	}
	return xp, nil
}
