package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"progression-service/internal/app"
	"progression-service/internal/domain"
)

func TestLeaderboardCacheRoundTripAndExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	cache := NewLeaderboardCache(newClient(mr))
	ctx := context.Background()

	miss, err := cache.GetSummary(ctx)
	if err != nil || miss != nil {
		t.Fatalf("expected clean miss, got %+v err=%v", miss, err)
	}

	summary := app.LeaderboardSummary{
		Podium: []domain.RankedUser{{User: domain.User{ID: 7, Username: "ada", XP: 300}, Rank: 1, Position: 1}},
		Stats:  domain.LeaderboardStats{TotalUsers: 3, MaxXP: 300},
	}
	if err := cache.SetSummary(ctx, summary, 30*time.Second); err != nil {
		t.Fatalf("set summary: %v", err)
	}

	got, err := cache.GetSummary(ctx)
	if err != nil || got == nil {
		t.Fatalf("expected hit, got %+v err=%v", got, err)
	}
	if got.Podium[0].User.Username != "ada" || got.Stats.TotalUsers != 3 {
		t.Fatalf("unexpected cached summary %+v", got)
	}

	mr.FastForward(time.Minute)
	if got, _ := cache.GetSummary(ctx); got != nil {
		t.Fatalf("expected expiry, got %+v", got)
	}
}

func TestLeaderboardCacheIgnoresGarbage(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	if err := mr.Set(summaryKey, "not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	got, err := NewLeaderboardCache(newClient(mr)).GetSummary(context.Background())
	if err != nil || got != nil {
		t.Fatalf("expected garbage to read as a miss, got %+v err=%v", got, err)
	}
}
