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
	TelegramToken    string
	WebhookPublicURL string
	Port             string
	DBPath           string

	CacheBackend  string // memory | redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	MetricsTTL    time.Duration

	HistoryDays     int
	BenchmarkSymbol string
	PriceSource     string // yahoo | mock

	LogLevel  string
	LogPretty bool
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		TelegramToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		WebhookPublicURL: os.Getenv("WEBHOOK_PUBLIC_URL"),
		Port:             getEnv("PORT", "9095"),
		DBPath:           getEnv("DB_PATH", "/app/data/portfolio.db"),
		CacheBackend:     strings.ToLower(getEnv("CACHE_BACKEND", "memory")),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		BenchmarkSymbol:  strings.ToUpper(getEnv("BENCHMARK_SYMBOL", "BTC")),
		PriceSource:      strings.ToLower(getEnv("PRICE_SOURCE", "yahoo")),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}

	var err error
	if cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0")); err != nil {
		return Config{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	if cfg.MetricsTTL, err = time.ParseDuration(getEnv("METRICS_TTL", "10m")); err != nil {
		return Config{}, fmt.Errorf("invalid METRICS_TTL: %w", err)
	}
	if cfg.HistoryDays, err = strconv.Atoi(getEnv("HISTORY_DAYS", "30")); err != nil {
		return Config{}, fmt.Errorf("invalid HISTORY_DAYS: %w", err)
	}
	if cfg.LogPretty, err = strconv.ParseBool(getEnv("LOG_PRETTY", "false")); err != nil {
		return Config{}, fmt.Errorf("invalid LOG_PRETTY: %w", err)
	}

	if cfg.HistoryDays < 2 {
		return Config{}, fmt.Errorf("HISTORY_DAYS must be at least 2, got %d", cfg.HistoryDays)
	}
	if cfg.MetricsTTL <= 0 {
		return Config{}, fmt.Errorf("METRICS_TTL must be positive, got %s", cfg.MetricsTTL)
	}
	switch cfg.CacheBackend {
	case "memory", "redis":
	default:
		return Config{}, fmt.Errorf("unknown CACHE_BACKEND %q (use memory or redis)", cfg.CacheBackend)
	}
	switch cfg.PriceSource {
	case "yahoo", "mock":
	default:
		return Config{}, fmt.Errorf("unknown PRICE_SOURCE %q (use yahoo or mock)", cfg.PriceSource)
	}
	if cfg.TelegramToken != "" && cfg.WebhookPublicURL == "" {
		return Config{}, fmt.Errorf("missing env WEBHOOK_PUBLIC_URL (required with TELEGRAM_BOT_TOKEN)")
	}
	return cfg, nil
}

// TelegramEnabled reports whether the bot should be started.
func (c Config) TelegramEnabled() bool { return c.TelegramToken != "" }
