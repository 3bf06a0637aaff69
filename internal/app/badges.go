package app

import (
	"context"
	"time"

	"progression-service/internal/domain"
)

type badgeTx interface {
	ledgerTx
	CatalogReader
	BadgeRepository
}

// awardCourseBadge grants the course's badge and its XP. It returns nil when
// the course has no badge or the user already holds it; no XP moves then.
func awardCourseBadge(ctx context.Context, tx badgeTx, userID, courseID int64, now time.Time) (*domain.Badge, error) {
	badge, err := tx.BadgeForCourse(ctx, courseID)
	if err != nil || badge == nil {
		return nil, err
	}

	inserted, err := tx.InsertUserBadge(ctx, userID, badge.ID, now)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return nil, nil
	}

	if _, err := grantXP(ctx, tx, userID, badge.XPReward, domain.SourceBadgeEarned, badge.ID, now); err != nil {
		return nil, err
	}
	return badge, nil
}
