package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv string

	HTTPAddr       string
	DatabaseURL    string
	DBQueryTimeout time.Duration

	JWTSecret string
	JWTIssuer string

	// RabbitMQ
	RabbitURL            string
	RabbitExchange       string
	RabbitPushRoutingKey string

	// Redis & Caching
	RedisURL        string
	CacheTTLDetails time.Duration // Get
	CacheTTLList    time.Duration // List (first page)

	// Rate Limiting
	RLEnabled bool
	RLLimit   int
	RLWindow  time.Duration

	// Scheduling
	SchedulerEnabled  bool
	SchedulerTimezone string
	Location          *time.Location
	RecoveryLookback  time.Duration
	AlarmReminderHour int
	AlarmDedupTTL     time.Duration
	PushRatePerSec    float64

	LogLevel  string
	LogFormat string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.AppEnv = getEnv("APP_ENV", "dev")
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8081")
	cfg.DatabaseURL = getEnv("DATABASE_URL", "")
	cfg.DBQueryTimeout = getDuration("DB_QUERY_TIMEOUT", 3*time.Second)

	cfg.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.JWTIssuer = getEnv("JWT_ISSUER", "")

	cfg.RabbitURL = getEnv("RABBIT_URL", "")
	cfg.RabbitExchange = getEnv("RABBIT_EXCHANGE", "discovery.events")
	cfg.RabbitPushRoutingKey = getEnv("RABBIT_PUSH_ROUTING_KEY", "push.requested")

	cfg.RedisURL = getEnv("REDIS_URL", "redis://localhost:6379/0")
	cfg.CacheTTLDetails = getDuration("CACHE_TTL_DETAILS", 5*time.Minute)
	cfg.CacheTTLList = getDuration("CACHE_TTL_LIST", 15*time.Second)

	// Rate Limiting Defaults: 100 reqs / 1 min
	cfg.RLEnabled = getBoolEnv("RL_ENABLED", true)
	cfg.RLLimit = getIntEnv("RL_IP_LIMIT", 100)
	cfg.RLWindow = getDuration("RL_IP_WINDOW", 1*time.Minute)

	cfg.SchedulerEnabled = getBoolEnv("SCHEDULER_ENABLED", true)
	cfg.SchedulerTimezone = getEnv("SCHEDULER_TIMEZONE", "Asia/Seoul")
	cfg.RecoveryLookback = getDuration("SCHEDULER_RECOVERY_LOOKBACK", 0)
	cfg.AlarmReminderHour = getIntEnv("ALARM_REMINDER_HOUR", 9)
	cfg.AlarmDedupTTL = getDuration("ALARM_DEDUP_TTL", 7*24*time.Hour)
	cfg.PushRatePerSec = getFloatEnv("PUSH_RATE_PER_SEC", 50)

	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFormat = getEnv("LOG_FORMAT", "console")

	cfg.HTTPReadTimeout = getDuration("HTTP_READ_TIMEOUT", 10*time.Second)
	cfg.HTTPWriteTimeout = getDuration("HTTP_WRITE_TIMEOUT", 20*time.Second)
	cfg.HTTPIdleTimeout = getDuration("HTTP_IDLE_TIMEOUT", 60*time.Second)

	// validation
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("missing DATABASE_URL")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("missing JWT_SECRET")
	}

	loc, err := time.LoadLocation(cfg.SchedulerTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_TIMEZONE %q: %w", cfg.SchedulerTimezone, err)
	}
	cfg.Location = loc
	if cfg.AlarmReminderHour < 0 || cfg.AlarmReminderHour > 23 {
		return nil, fmt.Errorf("ALARM_REMINDER_HOUR must be 0..23, got %d", cfg.AlarmReminderHour)
	}

	// Rabbit: optional in dev, required elsewhere
	if cfg.AppEnv != "dev" && cfg.RabbitURL == "" {
		return nil, fmt.Errorf("missing RABBIT_URL (required when APP_ENV != dev)")
	}

	return cfg, nil
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getIntEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getBoolEnv(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getFloatEnv(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
