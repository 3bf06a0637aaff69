package memory

import (
	"context"
	"math"
	"time"

	"progression-service/internal/app"
	"progression-service/internal/domain"
)

// Ranking serves leaderboard reads from the committed state of a Store.
type Ranking struct {
	store *Store
}

func NewRanking(store *Store) *Ranking {
	return &Ranking{store: store}
}

var _ app.RankingSource = (*Ranking)(nil)

func (r *Ranking) snapshot() []domain.RankedUser {
	r.store.mu.Lock()
	users := make([]domain.User, 0, len(r.store.st.users))
	for _, u := range r.store.st.users {
		users = append(users, u)
	}
	r.store.mu.Unlock()
	return domain.RankUsers(users)
}

func (r *Ranking) Page(_ context.Context, limit, offset int) ([]domain.RankedUser, error) {
	ranked := r.snapshot()
	if offset >= len(ranked) {
		return []domain.RankedUser{}, nil
	}
	end := offset + limit
	if end > len(ranked) {
		end = len(ranked)
	}
	return ranked[offset:end], nil
}

func (r *Ranking) Position(_ context.Context, userID int64) (domain.RankedUser, error) {
	for _, entry := range r.snapshot() {
		if entry.User.ID == userID {
			return entry, nil
		}
	}
	return domain.RankedUser{}, domain.NotFound("User")
}

func (r *Ranking) Range(_ context.Context, from, to int64) ([]domain.RankedUser, error) {
	ranked := r.snapshot()
	out := make([]domain.RankedUser, 0)
	for _, entry := range ranked {
		if entry.Position >= from && entry.Position <= to {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (r *Ranking) Count(_ context.Context) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return int64(len(r.store.st.users)), nil
}

func (r *Ranking) Stats(_ context.Context, recentSince time.Time) (domain.LeaderboardStats, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var stats domain.LeaderboardStats
	var xpSum, levelSum, streakSum int64
	for _, u := range r.store.st.users {
		stats.TotalUsers++
		xpSum += u.XP
		levelSum += int64(u.Level)
		streakSum += int64(u.Streak)
		if u.XP > stats.MaxXP {
			stats.MaxXP = u.XP
		}
		if u.Level > stats.MaxLevel {
			stats.MaxLevel = u.Level
		}
		if u.Streak > 0 {
			stats.ActiveUsers++
		}
	}
	if stats.TotalUsers > 0 {
		n := float64(stats.TotalUsers)
		stats.AverageXP = int64(math.Round(float64(xpSum) / n))
		stats.AverageLevel = math.Round(float64(levelSum)/n*10) / 10
		stats.AverageStreak = math.Round(float64(streakSum)/n*10) / 10
	}

	recent := make(map[int64]struct{})
	for _, e := range r.store.st.ledger {
		if !e.CreatedAt.Before(recentSince) {
			recent[e.UserID] = struct{}{}
		}
	}
	stats.RecentActiveUsers = int64(len(recent))
	return stats, nil
}

func (r *Ranking) LevelThresholds(_ context.Context) ([]domain.LevelThreshold, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return append([]domain.LevelThreshold(nil), r.store.st.levels...), nil
}
