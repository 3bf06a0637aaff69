package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"progression-service/internal/app"
	"progression-service/internal/domain"
)

// rankedUsersCTE orders every user once; rank is dense over the full sort key
// and position is the ordinal with id as the last tiebreaker.
const rankedUsersCTE = `
WITH ranked AS (
	SELECT id, username, email, COALESCE(avatar_url, '') AS avatar_url,
	       xp, level, streak, last_active, created_at,
	       DENSE_RANK() OVER (ORDER BY xp DESC, created_at ASC) AS user_rank,
	       ROW_NUMBER() OVER (ORDER BY xp DESC, created_at ASC, id ASC) AS user_position
	FROM users
)`

const rankedColumns = `id, username, email, avatar_url, xp, level, streak, last_active, created_at, user_rank, user_position`

const statsSQL = `
SELECT COUNT(*),
       COALESCE(ROUND(AVG(xp)), 0)::bigint,
       COALESCE(MAX(xp), 0),
       COALESCE(ROUND(AVG(level)::numeric, 1), 0)::float8,
       COALESCE(MAX(level), 0),
       COUNT(*) FILTER (WHERE streak > 0),
       COALESCE(ROUND(AVG(streak)::numeric, 1), 0)::float8,
       (SELECT COUNT(DISTINCT user_id) FROM xp_transactions WHERE created_at >= $1)
FROM users`

// Leaderboard reads the ranking through a pgx pool, outside any unit of work.
type Leaderboard struct {
	pool *pgxpool.Pool
}

func NewLeaderboard(pool *pgxpool.Pool) *Leaderboard {
	return &Leaderboard{pool: pool}
}

var _ app.RankingSource = (*Leaderboard)(nil)

func scanRanked(row pgx.Row) (domain.RankedUser, error) {
	var r domain.RankedUser
	err := row.Scan(
		&r.User.ID, &r.User.Username, &r.User.Email, &r.User.AvatarURL,
		&r.User.XP, &r.User.Level, &r.User.Streak, &r.User.LastActive, &r.User.CreatedAt,
		&r.Rank, &r.Position,
	)
	return r, err
}

func (l *Leaderboard) query(ctx context.Context, sql string, args ...interface{}) ([]domain.RankedUser, error) {
	rows, err := l.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}
	defer rows.Close()

	out := make([]domain.RankedUser, 0)
	for rows.Next() {
		r, err := scanRanked(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}
	return out, nil
}

func (l *Leaderboard) Page(ctx context.Context, limit, offset int) ([]domain.RankedUser, error) {
	return l.query(ctx, rankedUsersCTE+`
		SELECT `+rankedColumns+` FROM ranked ORDER BY user_position LIMIT $1 OFFSET $2`, limit, offset)
}

func (l *Leaderboard) Position(ctx context.Context, userID int64) (domain.RankedUser, error) {
	r, err := scanRanked(l.pool.QueryRow(ctx, rankedUsersCTE+`
		SELECT `+rankedColumns+` FROM ranked WHERE id = $1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.RankedUser{}, domain.NotFound("User")
	}
	if err != nil {
		return domain.RankedUser{}, fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}
	return r, nil
}

func (l *Leaderboard) Range(ctx context.Context, from, to int64) ([]domain.RankedUser, error) {
	return l.query(ctx, rankedUsersCTE+`
		SELECT `+rankedColumns+` FROM ranked WHERE user_position BETWEEN $1 AND $2 ORDER BY user_position`, from, to)
}

func (l *Leaderboard) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := l.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}
	return n, nil
}

func (l *Leaderboard) Stats(ctx context.Context, recentSince time.Time) (domain.LeaderboardStats, error) {
	var s domain.LeaderboardStats
	err := l.pool.QueryRow(ctx, statsSQL, recentSince).Scan(
		&s.TotalUsers, &s.AverageXP, &s.MaxXP, &s.AverageLevel, &s.MaxLevel,
		&s.ActiveUsers, &s.AverageStreak, &s.RecentActiveUsers,
	)
	if err != nil {
		return domain.LeaderboardStats{}, fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}
	return s, nil
}

func (l *Leaderboard) LevelThresholds(ctx context.Context) ([]domain.LevelThreshold, error) {
	rows, err := l.pool.Query(ctx, `SELECT level, xp_required FROM level_configurations ORDER BY level`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
	}
	defer rows.Close()

	var out []domain.LevelThreshold
	for rows.Next() {
		var lt domain.LevelThreshold
		if err := rows.Scan(&lt.Level, &lt.XPRequired); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
		}
		out = append(out, lt)
	}
	return out, rows.Err()
}
