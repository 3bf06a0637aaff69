package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sample = `
server:
  port: "9090"
  mode: production
postgres:
  url: postgres://app@localhost/progression
auth:
  jwt_secret: from-file
progression:
  lesson_xp: 30
  timezone: Asia/Almaty
  tx_timeout: 5s
leaderboard:
  cache_ttl: 45s
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadReadsSections(t *testing.T) {
	cfg, err := Load(writeConfig(t, sample))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Development() {
		t.Fatalf("unexpected server section %+v", cfg.Server)
	}
	if cfg.Progression.LessonXP != 30 {
		t.Fatalf("expected lesson xp 30, got %d", cfg.Progression.LessonXP)
	}
	if got := TTLDuration(cfg.Progression.TxTimeout, time.Second); got != 5*time.Second {
		t.Fatalf("expected 5s tx timeout, got %v", got)
	}
	if got := cfg.Location().String(); got != "Asia/Almaty" {
		t.Fatalf("expected Asia/Almaty, got %s", got)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("DATABASE_URL", "postgres://override")

	cfg, err := Load(writeConfig(t, sample))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Auth.JWTSecret != "from-env" || cfg.Postgres.URL != "postgres://override" {
		t.Fatalf("env overrides not applied: %+v %+v", cfg.Auth, cfg.Postgres)
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for empty, got %v", got)
	}
	if got := TTLDuration("soon", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for garbage, got %v", got)
	}
	if got := TTLDuration("90s", time.Minute); got != 90*time.Second {
		t.Fatalf("expected 90s, got %v", got)
	}
}

func TestQuizTTLDefaultsToOneMinute(t *testing.T) {
	var cfg Config
	if got := cfg.QuizTTL(); got != time.Minute {
		t.Fatalf("expected 1m default, got %v", got)
	}

	cfg, err := Load(filepath.Join("..", "..", "config", "config.yaml"))
	if err != nil {
		t.Fatalf("load shipped config: %v", err)
	}
	if got := cfg.QuizTTL(); got > DefaultQuizTTL {
		t.Fatalf("shipped quiz ttl %v exceeds %v", got, DefaultQuizTTL)
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	var cfg Config
	if cfg.Location() != time.UTC {
		t.Fatalf("expected UTC for empty timezone")
	}
	cfg.Progression.Timezone = "Not/AZone"
	if cfg.Location() != time.UTC {
		t.Fatalf("expected UTC for unknown timezone")
	}
}
