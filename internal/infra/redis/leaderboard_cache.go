package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"progression-service/internal/app"
)

const summaryKey = "leaderboard:summary"

// LeaderboardCache stores the podium/stats summary as one JSON value with a TTL.
type LeaderboardCache struct {
	client *redis.Client
}

func NewLeaderboardCache(client *redis.Client) *LeaderboardCache {
	return &LeaderboardCache{client: client}
}

var _ app.SummaryCache = (*LeaderboardCache)(nil)

func (c *LeaderboardCache) GetSummary(ctx context.Context) (*app.LeaderboardSummary, error) {
	raw, err := c.client.Get(ctx, summaryKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var summary app.LeaderboardSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		// a value we cannot read is treated as a miss and overwritten on refresh
		return nil, nil
	}
	return &summary, nil
}

func (c *LeaderboardCache) SetSummary(ctx context.Context, summary app.LeaderboardSummary, ttl time.Duration) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, summaryKey, raw, ttl).Err()
}
