package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		APIBaseURL:               "http://upstream.local",
		APITimeout:               5 * time.Second,
		SessionBackend:           SessionBackendMemory,
		SessionTTL:               time.Hour,
		ToastDuration:            5 * time.Second,
		DashboardRefreshInterval: 5 * time.Minute,
		MaxBodyBytes:             1 << 20,
		RateLimitPerMinute:       60,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "relative api url", mutate: func(c *Config) { c.APIBaseURL = "/api" }, wantErr: "API_BASE_URL"},
		{name: "redis without addr", mutate: func(c *Config) { c.SessionBackend = SessionBackendRedis }, wantErr: "REDIS_ADDR"},
		{name: "postgres without url", mutate: func(c *Config) { c.SessionBackend = SessionBackendPostgres }, wantErr: "DATABASE_URL"},
		{name: "unknown backend", mutate: func(c *Config) { c.SessionBackend = "etcd" }, wantErr: "SESSION_BACKEND"},
		{name: "short secret in production", mutate: func(c *Config) {
			c.Environment = "production"
			c.SessionSecret = "short"
			c.CookieSecure = true
		}, wantErr: "SESSION_SECRET"},
		{name: "insecure cookie in production", mutate: func(c *Config) {
			c.Environment = "production"
			c.SessionSecret = strings.Repeat("s", 32)
		}, wantErr: "COOKIE_SECURE"},
		{name: "tiny body limit", mutate: func(c *Config) { c.MaxBodyBytes = 10 }, wantErr: "MAX_BODY_BYTES"},
		{name: "zero rate limit", mutate: func(c *Config) { c.RateLimitPerMinute = 0 }, wantErr: "RATE_LIMIT_PER_MINUTE"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("expected valid config, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error mentioning %s, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoadReadsDotEnvWithoutOverridingEnvironment(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "API_BASE_URL=http://from-dotenv:5000\nTOAST_DURATION=6s\nSESSION_BACKEND=REDIS\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("API_BASE_URL", "http://from-env:5000")
	t.Setenv("TOAST_DURATION", "")
	t.Setenv("SESSION_BACKEND", "")
	os.Unsetenv("TOAST_DURATION")
	os.Unsetenv("SESSION_BACKEND")

	cfg := Load(envFile)
	if cfg.APIBaseURL != "http://from-env:5000" {
		t.Fatalf("expected process env to win, got %s", cfg.APIBaseURL)
	}
	if cfg.ToastDuration != 6*time.Second {
		t.Fatalf("expected toast duration from .env, got %s", cfg.ToastDuration)
	}
	if cfg.SessionBackend != SessionBackendRedis {
		t.Fatalf("expected normalized backend, got %s", cfg.SessionBackend)
	}
}

func TestLoadIgnoresMissingDotEnv(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "missing.env"))
	if cfg.Addr == "" {
		t.Fatal("expected defaults when .env is missing")
	}
}
