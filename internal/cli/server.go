package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"progression-service/internal/app"
	"progression-service/internal/config"
	"progression-service/internal/infra/memory"
	"progression-service/internal/infra/postgres"
	rediscache "progression-service/internal/infra/redis"
	"progression-service/internal/jobs"
	"progression-service/internal/logger"
	transport "progression-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the progression API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// backends groups the storage each service reads and writes.
type backends struct {
	uow     app.UnitOfWork
	ranking app.RankingSource
	loader  memory.QuizLoader
	closers []func()
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openBackends uses Postgres when configured and a seeded in-memory store
// otherwise.
func openBackends(ctx context.Context, cfg config.Config, log *logger.Logger) (*backends, error) {
	if cfg.Postgres.URL == "" {
		log.Warn("postgres url not configured, using in-memory store with sample data")
		store := memory.NewStore()
		quizzes := seedSampleData(store)
		return &backends{
			uow:     store,
			ranking: memory.NewRanking(store),
			loader:  memory.NewStaticQuizLoader(quizzes),
		}, nil
	}

	db := postgres.Open(cfg.Postgres.URL)
	if err := runMigrations(ctx, db, log); err != nil {
		db.Close()
		return nil, err
	}
	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &backends{
		uow:     postgres.NewStore(db),
		ranking: postgres.NewLeaderboard(pool),
		loader:  postgres.NewQuizLoader(pool),
		closers: []func(){func() { db.Close() }, pool.Close},
	}, nil
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Server.Mode, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer log.Sync()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret not configured")
	}

	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.close()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	quizTTL := cfg.QuizTTL()
	var quizRepo app.QuizRepository
	var summaryCache app.SummaryCache
	if redisClient != nil {
		quizRepo = rediscache.NewQuizRepository(redisClient, b.loader, quizTTL)
		summaryCache = rediscache.NewLeaderboardCache(redisClient)
	} else {
		quizRepo = memory.NewQuizRepository(b.loader, quizTTL)
		summaryCache = memory.NewSummaryCache()
	}

	progression := app.NewProgressionService(b.uow, quizRepo, app.ProgressionOptions{
		LessonXP:  cfg.Progression.LessonXP,
		Location:  cfg.Location(),
		TxTimeout: config.TTLDuration(cfg.Progression.TxTimeout, app.DefaultTxTimeout),
		Logger:    log.With("component", "progression"),
	})
	leaderboard := app.NewLeaderboardService(
		b.ranking,
		summaryCache,
		config.TTLDuration(cfg.Leaderboard.CacheTTL, app.DefaultSummaryTTL),
		log.With("component", "leaderboard"),
	)

	warmer := jobs.NewLeaderboardWarmer(
		leaderboard,
		config.TTLDuration(cfg.Leaderboard.WarmInterval, jobs.DefaultWarmInterval),
		log.With("component", "jobs"),
	)
	if err := warmer.Start(); err != nil {
		return err
	}
	defer warmer.Stop()

	router := transport.NewRouter(transport.RouterConfig{
		Progression:    progression,
		Leaderboard:    leaderboard,
		Auth:           transport.NewAuthenticator(cfg.Auth.JWTSecret),
		Logger:         log,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Development:    cfg.Development(),
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting progression service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.TTLDuration(cfg.Server.ShutdownTimeout, 5*time.Second))
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
