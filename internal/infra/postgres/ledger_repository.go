package postgres

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"progression-service/internal/domain"
)

func (t *pgTx) AppendXP(ctx context.Context, entry domain.XPTransaction) (domain.XPTransaction, error) {
	row := xpTransactionRow{
		UserID:      entry.UserID,
		Amount:      entry.Amount,
		Source:      string(entry.Source),
		ReferenceID: entry.ReferenceID,
		CreatedAt:   entry.CreatedAt,
	}
	if _, err := t.tx.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
		return domain.XPTransaction{}, err
	}
	entry.ID = row.ID
	return entry, nil
}

func (t *pgTx) HasXPEntry(ctx context.Context, userID int64, source domain.XPSource, referenceID int64) (bool, error) {
	return t.tx.NewSelect().Model((*xpTransactionRow)(nil)).
		Where("xt.user_id = ? AND xt.source = ? AND xt.reference_id = ?", userID, string(source), referenceID).
		Exists(ctx)
}

func (t *pgTx) SumXP(ctx context.Context, userID int64, source domain.XPSource, referenceIDs []int64) (int64, error) {
	if len(referenceIDs) == 0 {
		return 0, nil
	}
	var sum int64
	err := t.tx.NewSelect().Model((*xpTransactionRow)(nil)).
		ColumnExpr("COALESCE(SUM(xt.xp_amount), 0)").
		Where("xt.user_id = ? AND xt.source = ?", userID, string(source)).
		Where("xt.reference_id IN (?)", bun.In(referenceIDs)).
		Scan(ctx, &sum)
	return sum, err
}

func (t *pgTx) InsertUserBadge(ctx context.Context, userID, badgeID int64, now time.Time) (bool, error) {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO user_badges (user_id, badge_id, earned_at) VALUES (?, ?, ?)
		 ON CONFLICT (user_id, badge_id) DO NOTHING`,
		userID, badgeID, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
