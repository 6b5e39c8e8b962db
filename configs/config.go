package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

type Threads struct {
	BaseURL      string
	APIVersion   string
	ClientSecret string
}

type Twitter struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
}

type LinkedIn struct {
	BaseURL      string
	APIVersion   string
	TokenURL     string
	ClientID     string
	ClientSecret string
}

type Config struct {
	PostgresURI        string
	RedisURI           string
	Port               string
	LogLevel           string
	SecretKey          string
	CookieName         string
	DefaultWorkspaceID string
	DispatchToken      string

	WorkerConcurrency   int
	PublishTimeout      time.Duration
	PlatformHTTPTimeout time.Duration

	DispatchSchedule     string
	ReconcileSchedule    string
	ReconcileGrace       time.Duration
	TokenRefreshSchedule string

	Threads  Threads
	Twitter  Twitter
	LinkedIn LinkedIn
}

func LoadConfig() *Config {
	return &Config{
		PostgresURI:        getEnv("POSTGRES_URI", ""),
		RedisURI:           getEnv("REDIS_URI", "localhost:6379"),
		Port:               getEnv("PORT", "3000"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		SecretKey:          getEnv("SECRET_KEY", ""),
		CookieName:         getEnv("COOKIE_NAME", "postflow_session"),
		DefaultWorkspaceID: getEnv("DEFAULT_WORKSPACE_ID", "default"),
		DispatchToken:      getEnv("DISPATCH_TOKEN", ""),

		WorkerConcurrency:   getEnvInt("WORKER_CONCURRENCY", 10),
		PublishTimeout:      getEnvDuration("PUBLISH_TIMEOUT", 5*time.Minute),
		PlatformHTTPTimeout: getEnvDuration("PLATFORM_HTTP_TIMEOUT", 15*time.Second),

		DispatchSchedule:     getEnv("DISPATCH_SCHEDULE", "@every 1m"),
		ReconcileSchedule:    getEnv("RECONCILE_SCHEDULE", "@every 5m"),
		ReconcileGrace:       getEnvDuration("RECONCILE_GRACE", 15*time.Minute),
		TokenRefreshSchedule: getEnv("TOKEN_REFRESH_SCHEDULE", "@every 10m"),

		Threads: Threads{
			BaseURL:      getEnv("THREADS_BASE_URL", "https://graph.threads.net"),
			APIVersion:   getEnv("THREADS_API_VERSION", "v1.0"),
			ClientSecret: getEnv("THREADS_CLIENT_SECRET", ""),
		},
		Twitter: Twitter{
			BaseURL:      getEnv("TWITTER_BASE_URL", "https://api.twitter.com"),
			TokenURL:     getEnv("TWITTER_TOKEN_URL", "https://api.twitter.com/2/oauth2/token"),
			ClientID:     getEnv("TWITTER_CLIENT_ID", ""),
			ClientSecret: getEnv("TWITTER_CLIENT_SECRET", ""),
		},
		LinkedIn: LinkedIn{
			BaseURL:      getEnv("LINKEDIN_BASE_URL", "https://api.linkedin.com"),
			APIVersion:   getEnv("LINKEDIN_API_VERSION", "202401"),
			TokenURL:     getEnv("LINKEDIN_TOKEN_URL", "https://www.linkedin.com/oauth/v2/accessToken"),
			ClientID:     getEnv("LINKEDIN_CLIENT_ID", ""),
			ClientSecret: getEnv("LINKEDIN_CLIENT_SECRET", ""),
		},
	}
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", value)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", value)
		return defaultValue
	}
	return d
}
