package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"progression-service/internal/app"
	"progression-service/internal/domain"
)

type fakeRefresher struct {
	calls atomic.Int32
	err   error
}

func (f *fakeRefresher) RefreshSummary(context.Context) (app.LeaderboardSummary, error) {
	f.calls.Add(1)
	if f.err != nil {
		return app.LeaderboardSummary{}, f.err
	}
	return app.LeaderboardSummary{Stats: domain.LeaderboardStats{TotalUsers: 3}}, nil
}

func TestWarmerRefreshesOnStart(t *testing.T) {
	refresher := &fakeRefresher{}
	w := NewLeaderboardWarmer(refresher, time.Hour, nil)
	if err := w.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for refresher.calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected an immediate refresh after start")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWarmSurvivesRefreshFailure(t *testing.T) {
	refresher := &fakeRefresher{err: errors.New("redis down")}
	w := NewLeaderboardWarmer(refresher, 0, nil)
	if w.interval != DefaultWarmInterval {
		t.Fatalf("expected default interval, got %v", w.interval)
	}

	w.Warm()
	w.Warm()
	if got := refresher.calls.Load(); got != 2 {
		t.Fatalf("expected 2 refresh attempts, got %d", got)
	}
}
