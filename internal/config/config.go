package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/noah-isme/scholar-ledger-api/internal/engine"
)

// Database drivers supported by the API.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ScoreLimits caps the components a teacher may enter for a subject.
type ScoreLimits struct {
	CA1  float64
	CA2  float64
	Exam float64
}

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	LogLevel          string
	DatabaseDriver    string
	DatabaseURL       string
	RedisURL          string
	NATSURL           string
	EventSubjectBase  string
	JWTSecret         string
	RankingCacheTTL   time.Duration
	TiePolicy         engine.TiePolicy
	ScoreLimits       ScoreLimits
	SchoolName        string
	DefaultSession    string
	DefaultTerm       string
	RateLimitMax      int
	RateLimitWindow   time.Duration
	AllowedCORSOrigin string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SCHOLAR")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "Scholar Ledger API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("events.subject_base", "scholar")
	v.SetDefault("ranking.cache_ttl", "10m")
	v.SetDefault("ranking.tie_policy", string(engine.TieSequential))
	v.SetDefault("scores.max_ca1", 20)
	v.SetDefault("scores.max_ca2", 20)
	v.SetDefault("scores.max_exam", 60)
	v.SetDefault("school.name", "")
	v.SetDefault("school.session", "2025/2026")
	v.SetDefault("school.term", "First Term")
	v.SetDefault("ratelimit.max", 60)
	v.SetDefault("ratelimit.window", "1m")
	v.SetDefault("cors.origins", "*")
}

func fromViper(v *viper.Viper) (Config, error) {
	ttl, err := parseDuration(v.GetString("ranking.cache_ttl"), 10*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid ranking cache ttl: %w", err)
	}

	window, err := parseDuration(v.GetString("ratelimit.window"), time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid rate limit window: %w", err)
	}

	policy, err := engine.ParseTiePolicy(v.GetString("ranking.tie_policy"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid ranking tie policy: %w", err)
	}

	cfg := Config{
		AppName:          v.GetString("app.name"),
		AppEnv:           v.GetString("app.env"),
		AppPort:          v.GetString("app.port"),
		LogLevel:         strings.ToLower(v.GetString("log.level")),
		DatabaseDriver:   strings.ToLower(v.GetString("database.driver")),
		DatabaseURL:      v.GetString("database.url"),
		RedisURL:         v.GetString("redis.url"),
		NATSURL:          v.GetString("nats.url"),
		EventSubjectBase: v.GetString("events.subject_base"),
		JWTSecret:        v.GetString("jwt.secret"),
		RankingCacheTTL:  ttl,
		TiePolicy:        policy,
		ScoreLimits: ScoreLimits{
			CA1:  v.GetFloat64("scores.max_ca1"),
			CA2:  v.GetFloat64("scores.max_ca2"),
			Exam: v.GetFloat64("scores.max_exam"),
		},
		SchoolName:        v.GetString("school.name"),
		DefaultSession:    strings.TrimSpace(v.GetString("school.session")),
		DefaultTerm:       strings.TrimSpace(v.GetString("school.term")),
		RateLimitMax:      v.GetInt("ratelimit.max"),
		RateLimitWindow:   window,
		AllowedCORSOrigin: v.GetString("cors.origins"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.DatabaseDriver != DriverPostgres && cfg.DatabaseDriver != DriverSQLite {
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	if cfg.ScoreLimits.CA1 <= 0 || cfg.ScoreLimits.CA2 <= 0 || cfg.ScoreLimits.Exam <= 0 {
		return Config{}, fmt.Errorf("score limits must be positive")
	}

	if cfg.DefaultSession == "" || cfg.DefaultTerm == "" {
		return Config{}, fmt.Errorf("default session and term must be provided")
	}

	if cfg.RateLimitMax <= 0 {
		cfg.RateLimitMax = 60
	}

	return cfg, nil
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}
