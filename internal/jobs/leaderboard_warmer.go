package jobs

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"progression-service/internal/app"
	"progression-service/internal/logger"
)

// DefaultWarmInterval is used when no interval is configured.
const DefaultWarmInterval = time.Minute

// SummaryRefresher recomputes and caches the leaderboard summary.
type SummaryRefresher interface {
	RefreshSummary(ctx context.Context) (app.LeaderboardSummary, error)
}

// LeaderboardWarmer keeps the cached podium and stats fresh so readers
// rarely pay for a recompute.
type LeaderboardWarmer struct {
	scheduler *gocron.Scheduler
	refresher SummaryRefresher
	interval  time.Duration
	timeout   time.Duration
	log       *logger.Logger
}

func NewLeaderboardWarmer(refresher SummaryRefresher, interval time.Duration, log *logger.Logger) *LeaderboardWarmer {
	if interval <= 0 {
		interval = DefaultWarmInterval
	}
	if log == nil {
		log = logger.Nop()
	}
	return &LeaderboardWarmer{
		scheduler: gocron.NewScheduler(time.UTC),
		refresher: refresher,
		interval:  interval,
		timeout:   interval,
		log:       log,
	}
}

// Start registers the refresh job and runs the scheduler in the background.
// The first refresh happens immediately.
func (w *LeaderboardWarmer) Start() error {
	_, err := w.scheduler.Every(w.interval).SingletonMode().Do(w.Warm)
	if err != nil {
		return err
	}
	w.scheduler.StartAsync()
	w.log.Info("leaderboard warmer started", "interval", w.interval.String())
	return nil
}

// Stop halts the scheduler and waits for a running refresh.
func (w *LeaderboardWarmer) Stop() {
	w.scheduler.Stop()
	w.log.Info("leaderboard warmer stopped")
}

// Warm runs one refresh. Failures are logged and retried on the next tick.
func (w *LeaderboardWarmer) Warm() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	summary, err := w.refresher.RefreshSummary(ctx)
	if err != nil {
		w.log.Warn("leaderboard warm-up failed", "error", err)
		return
	}
	w.log.Debug("leaderboard warmed", "total_users", summary.Stats.TotalUsers)
}
