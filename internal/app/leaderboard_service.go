package app

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"progression-service/internal/domain"
	"progression-service/internal/logger"
)

const (
	PodiumSize          = 3
	DefaultSummaryTTL   = 30 * time.Second
	recentActivityRange = 7 * 24 * time.Hour
	summaryFlightKey    = "leaderboard:summary"
)

// LeaderboardSummary is the cached podium plus aggregate statistics.
type LeaderboardSummary struct {
	Podium      []domain.RankedUser     `json:"podium"`
	Stats       domain.LeaderboardStats `json:"stats"`
	GeneratedAt time.Time               `json:"generated_at"`
}

// Standing locates one user in the ranking.
type Standing struct {
	Entry         domain.RankedUser
	TotalUsers    int64
	TopPercentage int
}

// LevelProgress describes XP progress from the current level to the next.
type LevelProgress struct {
	CurrentLevelXP int64 `json:"current_level_xp"`
	NextLevelXP    int64 `json:"next_level_xp"`
	Progress       int64 `json:"progress"`
	Needed         int64 `json:"needed"`
	Percentage     int   `json:"percentage"`
}

// ProfileStanding is the profile leaderboard view.
type ProfileStanding struct {
	Standing
	Neighbors []domain.RankedUser
	Level     LevelProgress
}

// LeaderboardPage is one page of the global ranking.
type LeaderboardPage struct {
	Entries    []domain.RankedUser
	TotalUsers int64
	Page       int
	Limit      int
}

// LeaderboardService answers ranking reads. It never writes progression
// state and never coordinates with writers.
type LeaderboardService struct {
	ranking  RankingSource
	cache    SummaryCache
	cacheTTL time.Duration
	sf       singleflight.Group
	log      *logger.Logger
	now      func() time.Time
}

func NewLeaderboardService(ranking RankingSource, cache SummaryCache, cacheTTL time.Duration, log *logger.Logger) *LeaderboardService {
	return newLeaderboardServiceWithClock(ranking, cache, cacheTTL, log, time.Now)
}

func newLeaderboardServiceWithClock(ranking RankingSource, cache SummaryCache, cacheTTL time.Duration, log *logger.Logger, now func() time.Time) *LeaderboardService {
	if cacheTTL <= 0 {
		cacheTTL = DefaultSummaryTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &LeaderboardService{ranking: ranking, cache: cache, cacheTTL: cacheTTL, log: log, now: now}
}

// GlobalPage returns a page of the ranking; page is 1-based.
func (s *LeaderboardService) GlobalPage(ctx context.Context, page, limit int) (LeaderboardPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}
	entries, err := s.ranking.Page(ctx, limit, (page-1)*limit)
	if err != nil {
		return LeaderboardPage{}, err
	}
	total, err := s.ranking.Count(ctx)
	if err != nil {
		return LeaderboardPage{}, err
	}
	return LeaderboardPage{Entries: entries, TotalUsers: total, Page: page, Limit: limit}, nil
}

// TopN returns the first n users of the ranking.
func (s *LeaderboardService) TopN(ctx context.Context, n int) ([]domain.RankedUser, error) {
	if n < 1 || n > 100 {
		n = 10
	}
	return s.ranking.Page(ctx, n, 0)
}

// PositionOf locates the user in the ranking.
func (s *LeaderboardService) PositionOf(ctx context.Context, userID int64) (Standing, error) {
	entry, err := s.ranking.Position(ctx, userID)
	if err != nil {
		return Standing{}, err
	}
	total, err := s.ranking.Count(ctx)
	if err != nil {
		return Standing{}, err
	}
	return Standing{
		Entry:         entry,
		TotalUsers:    total,
		TopPercentage: domain.TopPercentage(entry.Position, total),
	}, nil
}

// WindowAround returns up to 2*radius+1 users centered on the user, shifted
// to stay inside the ranking near either end.
func (s *LeaderboardService) WindowAround(ctx context.Context, userID int64, radius int64) ([]domain.RankedUser, error) {
	standing, err := s.PositionOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.window(ctx, standing, radius)
}

func (s *LeaderboardService) window(ctx context.Context, standing Standing, radius int64) ([]domain.RankedUser, error) {
	if radius < 0 {
		radius = 0
	}
	from, to := domain.WindowBounds(standing.Entry.Position, radius, standing.TotalUsers)
	return s.ranking.Range(ctx, from, to)
}

// Profile combines the user's standing, neighbors and level progress.
func (s *LeaderboardService) Profile(ctx context.Context, userID int64, radius int64) (ProfileStanding, error) {
	standing, err := s.PositionOf(ctx, userID)
	if err != nil {
		return ProfileStanding{}, err
	}
	neighbors, err := s.window(ctx, standing, radius)
	if err != nil {
		return ProfileStanding{}, err
	}
	levels, err := s.ranking.LevelThresholds(ctx)
	if err != nil {
		return ProfileStanding{}, err
	}
	return ProfileStanding{
		Standing:  standing,
		Neighbors: neighbors,
		Level:     levelProgress(standing.Entry.User, levels),
	}, nil
}

// levelProgress measures xp against the thresholds of the stored level and
// the one after it. Missing thresholds fall back to (level-1)*100.
func levelProgress(u domain.User, levels []domain.LevelThreshold) LevelProgress {
	byLevel := make(map[int]int64, len(levels))
	for _, l := range levels {
		byLevel[l.Level] = l.XPRequired
	}
	threshold := func(level int) int64 {
		if xp, ok := byLevel[level]; ok {
			return xp
		}
		if level <= 1 {
			return 0
		}
		return int64(level-1) * 100
	}

	current := threshold(u.Level)
	next := threshold(u.Level + 1)
	lp := LevelProgress{
		CurrentLevelXP: current,
		NextLevelXP:    next,
		Progress:       u.XP - current,
		Needed:         next - u.XP,
	}
	if lp.Progress < 0 {
		lp.Progress = 0
	}
	if lp.Needed < 0 {
		lp.Needed = 0
	}
	if span := next - current; span > 0 {
		lp.Percentage = int(lp.Progress * 100 / span)
		if lp.Percentage > 100 {
			lp.Percentage = 100
		}
	}
	return lp
}

// Summary returns the podium and statistics, served from cache when fresh.
func (s *LeaderboardService) Summary(ctx context.Context) (LeaderboardSummary, error) {
	if s.cache != nil {
		cached, err := s.cache.GetSummary(ctx)
		if err != nil {
			s.log.Warn("leaderboard summary cache read failed", "error", err)
		} else if cached != nil {
			return *cached, nil
		}
	}

	v, err, _ := s.sf.Do(summaryFlightKey, func() (interface{}, error) {
		return s.RefreshSummary(ctx)
	})
	if err != nil {
		return LeaderboardSummary{}, err
	}
	return v.(LeaderboardSummary), nil
}

// RefreshSummary recomputes the summary and stores it in the cache.
func (s *LeaderboardService) RefreshSummary(ctx context.Context) (LeaderboardSummary, error) {
	now := s.now()
	podium, err := s.ranking.Page(ctx, PodiumSize, 0)
	if err != nil {
		return LeaderboardSummary{}, err
	}
	stats, err := s.ranking.Stats(ctx, now.Add(-recentActivityRange))
	if err != nil {
		return LeaderboardSummary{}, err
	}
	summary := LeaderboardSummary{Podium: podium, Stats: stats, GeneratedAt: now}

	if s.cache != nil {
		if err := s.cache.SetSummary(ctx, summary, s.cacheTTL); err != nil {
			s.log.Warn("leaderboard summary cache write failed", "error", err)
		}
	}
	return summary, nil
}
