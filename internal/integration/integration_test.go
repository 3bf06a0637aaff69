package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	"progression-service/internal/app"
	"progression-service/internal/domain"
	"progression-service/internal/infra/postgres"
	pgmigrations "progression-service/internal/infra/postgres/migrations"
	infraredis "progression-service/internal/infra/redis"
)

type env struct {
	db          *bun.DB
	pool        *pgxpool.Pool
	redis       *goredis.Client
	progression *app.ProgressionService
	leaderboard *app.LeaderboardService
}

func setup(t *testing.T, ctx context.Context) *env {
	t.Helper()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	t.Cleanup(pgCleanup)
	redisURL, redisCleanup := startRedis(t, ctx)
	t.Cleanup(redisCleanup)

	db := postgres.Open(pgURL)
	t.Cleanup(func() { _ = db.Close() })
	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	seedCatalog(t, ctx, db)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	t.Cleanup(pool.Close)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	t.Cleanup(func() { _ = redisClient.Close() })

	quizRepo := infraredis.NewQuizRepository(redisClient, postgres.NewQuizLoader(pool), 5*time.Minute)
	return &env{
		db:          db,
		pool:        pool,
		redis:       redisClient,
		progression: app.NewProgressionService(postgres.NewStore(db), quizRepo, app.ProgressionOptions{}),
		leaderboard: app.NewLeaderboardService(postgres.NewLeaderboard(pool), infraredis.NewLeaderboardCache(redisClient), time.Minute, nil),
	}
}

func TestLessonFlowEndToEnd(t *testing.T) {
	ctx := context.Background()
	e := setup(t, ctx)

	if _, err := e.progression.Enroll(ctx, 1, 10); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if _, err := e.progression.StartLesson(ctx, 1, 101); err != nil {
		t.Fatalf("start: %v", err)
	}
	first, err := e.progression.CompleteLesson(ctx, 1, 101)
	if err != nil {
		t.Fatalf("complete 101: %v", err)
	}
	if first.CourseCompleted() || first.NextLesson == nil || first.NextLesson.ID != 102 {
		t.Fatalf("unexpected first completion %+v", first)
	}

	second, err := e.progression.CompleteLesson(ctx, 1, 102)
	if err != nil {
		t.Fatalf("complete 102: %v", err)
	}
	if !second.CourseCompleted() || second.TotalXPEarned != 75 {
		t.Fatalf("expected course completion with 75 xp, got %+v", second)
	}
	if len(second.CourseCompletion.BadgesAwarded) != 1 {
		t.Fatalf("expected badge award, got %+v", second.CourseCompletion)
	}
	if second.Enrollment.Status != domain.EnrollmentCompleted || second.Enrollment.CompletedAt == nil {
		t.Fatalf("expected completed enrollment, got %+v", second.Enrollment)
	}

	_, err = e.progression.CompleteLesson(ctx, 1, 102)
	var already *domain.AlreadyCompletedError
	if !errors.As(err, &already) || already.CompletedAt == nil {
		t.Fatalf("expected AlreadyCompletedError, got %v", err)
	}

	assertLedgerMatchesXP(t, ctx, e.pool, 1, 120)

	report, err := e.progression.CourseReport(ctx, 1, 10)
	if err != nil {
		t.Fatalf("course report: %v", err)
	}
	if report.Completed != 2 || report.TotalXP() != 100 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestConcurrentCompletionGrantsOnce(t *testing.T) {
	ctx := context.Background()
	e := setup(t, ctx)

	if _, err := e.progression.Enroll(ctx, 2, 10); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	const workers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, rejected := 0, 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.progression.CompleteLesson(ctx, 2, 101)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrAlreadyCompleted):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 || rejected != workers-1 {
		t.Fatalf("expected 1 success and %d rejections, got %d/%d", workers-1, succeeded, rejected)
	}
	assertLedgerMatchesXP(t, ctx, e.pool, 2, 25)
}

func TestQuizSubmissionAndRanking(t *testing.T) {
	ctx := context.Background()
	e := setup(t, ctx)

	answers := make([]domain.AnswerSubmission, 0, 5)
	for i := int64(1); i <= 5; i++ {
		answers = append(answers, domain.AnswerSubmission{QuestionID: i, UserAnswer: "yes"})
	}
	out, err := e.progression.SubmitQuiz(ctx, 3, 7, answers, 42)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if out.Grading.Score != 100 || out.Attempt.XPEarned != 40 || out.Streak != 1 {
		t.Fatalf("unexpected submission %+v", out)
	}

	// answer key is now cached in redis
	if n, err := e.redis.Exists(ctx, "quiz:7:questions").Result(); err != nil || n != 1 {
		t.Fatalf("expected cached answer key, got %d (%v)", n, err)
	}

	history, err := e.progression.QuizAttempts(ctx, 3, 7, 1, 10)
	if err != nil {
		t.Fatalf("attempts: %v", err)
	}
	if history.Total != 1 || history.Best == nil || history.Best.Score != 100 {
		t.Fatalf("unexpected history %+v", history)
	}

	standing, err := e.leaderboard.PositionOf(ctx, 3)
	if err != nil {
		t.Fatalf("position: %v", err)
	}
	if standing.Entry.Position != 1 || standing.TotalUsers != 3 {
		t.Fatalf("expected carol first of 3, got %+v", standing)
	}

	summary, err := e.leaderboard.Summary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Stats.TotalUsers != 3 || summary.Stats.RecentActiveUsers != 1 || len(summary.Podium) != 3 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	assertLedgerMatchesXP(t, ctx, e.pool, 3, 40)
}

func seedCatalog(t *testing.T, ctx context.Context, db *bun.DB) {
	t.Helper()
	statements := []string{
		`INSERT INTO users (id, username, email, created_at) VALUES
			(1, 'alice', 'alice@example.com', '2023-12-01T00:00:00Z'),
			(2, 'bob', 'bob@example.com', '2023-12-01T01:00:00Z'),
			(3, 'carol', 'carol@example.com', '2023-12-01T02:00:00Z')`,
		`INSERT INTO courses (id, title, xp_reward) VALUES (10, 'Go Basics', 50)`,
		`INSERT INTO lessons (id, course_id, title, order_index) VALUES
			(101, 10, 'Variables', 1),
			(102, 10, 'Functions', 2)`,
		`INSERT INTO badges (id, course_id, name, xp_reward) VALUES (500, 10, 'Gopher', 20)`,
		`INSERT INTO quizzes (id, title, xp_reward, total_questions) VALUES (7, 'Go quiz', 40, 5)`,
		`INSERT INTO quiz_questions (quiz_id, question, options, correct_answer, question_order)
			SELECT 7, 'Question ' || n, '["yes","no"]'::jsonb, 'yes', n FROM generate_series(1, 5) AS n`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

// assertLedgerMatchesXP checks users.xp against the sum of the user's ledger.
func assertLedgerMatchesXP(t *testing.T, ctx context.Context, pool *pgxpool.Pool, userID int64, want int64) {
	t.Helper()
	var xp, sum int64
	err := pool.QueryRow(ctx, `
		SELECT u.xp, COALESCE((SELECT SUM(xp_amount) FROM xp_transactions WHERE user_id = u.id), 0)
		FROM users u WHERE u.id = $1`, userID).Scan(&xp, &sum)
	if err != nil {
		t.Fatalf("read xp: %v", err)
	}
	if xp != sum || xp != want {
		t.Fatalf("user %d: xp=%d ledger=%d want=%d", userID, xp, sum, want)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "progression", "POSTGRES_PASSWORD": "progression", "POSTGRES_DB": "progression"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://progression:progression@%s:%s/progression?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
