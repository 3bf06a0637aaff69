package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultQuizTTL bounds how long a cached answer key may lag a catalog edit.
const DefaultQuizTTL = time.Minute

// Config mirrors config.yaml. server.mode is "development" or "production";
// only development echoes raw errors.
type Config struct {
	Server struct {
		Port            string   `yaml:"port"`
		Mode            string   `yaml:"mode"`
		AllowedOrigins  []string `yaml:"allowed_origins"`
		ShutdownTimeout string   `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
	Quiz struct {
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
	Progression struct {
		LessonXP  int64  `yaml:"lesson_xp"`
		Timezone  string `yaml:"timezone"`
		TxTimeout string `yaml:"tx_timeout"`
	} `yaml:"progression"`
	Leaderboard struct {
		CacheTTL     string `yaml:"cache_ttl"`
		WarmInterval string `yaml:"warm_interval"`
	} `yaml:"leaderboard"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Load reads YAML config from path and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv lets deployments keep secrets and endpoints out of the YAML file.
func (c *Config) applyEnv() {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Postgres.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("APP_MODE"); v != "" {
		c.Server.Mode = v
	}
}

// Development reports whether raw errors may be shown to clients.
func (c Config) Development() bool {
	return c.Server.Mode == "development"
}

// Location resolves progression.timezone, UTC when empty or unknown.
func (c Config) Location() *time.Location {
	if c.Progression.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Progression.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// QuizTTL is the answer key cache lifetime, DefaultQuizTTL when unset.
func (c Config) QuizTTL() time.Duration {
	return TTLDuration(c.Quiz.TTL, DefaultQuizTTL)
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
