package memory

import (
	"context"
	"sync"
	"time"

	"progression-service/internal/app"
)

// SummaryCache keeps the leaderboard summary in process with a TTL.
type SummaryCache struct {
	clock func() time.Time

	mu        sync.RWMutex
	summary   *app.LeaderboardSummary
	expiresAt time.Time
}

func NewSummaryCache() *SummaryCache {
	return &SummaryCache{clock: time.Now}
}

var _ app.SummaryCache = (*SummaryCache)(nil)

func (c *SummaryCache) GetSummary(_ context.Context) (*app.LeaderboardSummary, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.summary == nil || !c.expiresAt.After(c.clock()) {
		return nil, nil
	}
	s := *c.summary
	return &s, nil
}

func (c *SummaryCache) SetSummary(_ context.Context, summary app.LeaderboardSummary, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summary = &summary
	c.expiresAt = c.clock().Add(ttl)
	return nil
}
