package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	SessionBackendMemory   = "memory"
	SessionBackendRedis    = "redis"
	SessionBackendPostgres = "postgres"
)

type Config struct {
	Addr                     string
	Environment              string
	LogLevel                 string
	APIBaseURL               string
	APITimeout               time.Duration
	SessionBackend           string
	SessionSecret            string
	SessionTTL               time.Duration
	CookieSecure             bool
	RedisAddr                string
	RedisPassword            string
	RedisDB                  int
	DatabaseURL              string
	RunMigrations            bool
	ToastDuration            time.Duration
	DashboardRefreshInterval time.Duration
	HealthCheckInterval      time.Duration
	MaxBodyBytes             int64
	RateLimitPerMinute       int
	DefaultLocale            string
	MetricsEnabled           bool
}

// Load reads .env files (when present) and then the process environment.
// Values already set in the environment win over .env entries.
func Load(envFiles ...string) Config {
	loadDotEnv(envFiles...)
	return Config{
		Addr:                     getEnv("APP_ADDR", ":8080"),
		Environment:              getEnv("APP_ENV", "development"),
		LogLevel:                 getEnv("LOG_LEVEL", "info"),
		APIBaseURL:               getEnv("API_BASE_URL", "http://localhost:5000"),
		APITimeout:               getEnvDuration("API_TIMEOUT", 10*time.Second),
		SessionBackend:           strings.ToLower(getEnv("SESSION_BACKEND", SessionBackendMemory)),
		SessionSecret:            getEnv("SESSION_SECRET", ""),
		SessionTTL:               getEnvDuration("SESSION_TTL", 8*time.Hour),
		CookieSecure:             getEnvBool("COOKIE_SECURE", false),
		RedisAddr:                getEnv("REDIS_ADDR", ""),
		RedisPassword:            getEnv("REDIS_PASSWORD", ""),
		RedisDB:                  getEnvInt("REDIS_DB", 0),
		DatabaseURL:              getEnv("DATABASE_URL", ""),
		RunMigrations:            getEnvBool("RUN_MIGRATIONS", true),
		ToastDuration:            getEnvDuration("TOAST_DURATION", 5*time.Second),
		DashboardRefreshInterval: getEnvDuration("DASHBOARD_REFRESH_INTERVAL", 5*time.Minute),
		HealthCheckInterval:      getEnvDuration("HEALTH_CHECK_INTERVAL", 30*time.Second),
		MaxBodyBytes:             int64(getEnvInt("MAX_BODY_BYTES", 8<<20)),
		RateLimitPerMinute:       getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		DefaultLocale:            getEnv("DEFAULT_LOCALE", "en"),
		MetricsEnabled:           getEnvBool("METRICS_ENABLED", true),
	}
}

func loadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("dotenv load failed", "file", file, "err", err)
		}
	}
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIBaseURL) == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	parsed, err := url.Parse(c.APIBaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("API_BASE_URL must be an absolute URL")
	}
	if c.IsProduction() {
		if len(strings.TrimSpace(c.SessionSecret)) < 32 {
			return fmt.Errorf("SESSION_SECRET must be at least 32 characters in production")
		}
		if !c.CookieSecure {
			return fmt.Errorf("COOKIE_SECURE must be enabled in production")
		}
	}
	switch c.SessionBackend {
	case SessionBackendMemory:
	case SessionBackendRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			return fmt.Errorf("REDIS_ADDR must be set when SESSION_BACKEND is redis")
		}
	case SessionBackendPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL must be set when SESSION_BACKEND is postgres")
		}
	default:
		return fmt.Errorf("SESSION_BACKEND must be one of memory, redis, postgres")
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("API_TIMEOUT must be positive")
	}
	if c.SessionTTL < time.Minute {
		return fmt.Errorf("SESSION_TTL must be at least 1m")
	}
	if c.ToastDuration <= 0 {
		return fmt.Errorf("TOAST_DURATION must be positive")
	}
	if c.DashboardRefreshInterval < 0 || c.HealthCheckInterval < 0 {
		return fmt.Errorf("refresh intervals must not be negative")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	return nil
}
