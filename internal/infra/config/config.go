package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	StoreMemory = "memory"
	StoreMongo  = "mongo"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env                string
	HTTPAddr           string
	StoreMode          string
	MongoURI           string
	MongoDB            string
	KafkaBrokers       []string
	KafkaTopicPrefix   string
	IdempotencyTTL     time.Duration
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration
	RequestTimeout     time.Duration
	FixturesPath       string
	DefaultTimeZone    string
	LogLevel           string
}

// RelayEnabled reports whether outbox records should be shipped to Kafka.
func (c Config) RelayEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	cfg := Config{
		Env:              getEnv("APP_ENV", "dev"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		StoreMode:        strings.ToLower(getEnv("STORE_MODE", StoreMemory)),
		MongoURI:         os.Getenv("MONGO_URI"),
		MongoDB:          getEnv("MONGO_DB", "stayrates"),
		KafkaTopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", ""),
		FixturesPath:     os.Getenv("FIXTURES_PATH"),
		DefaultTimeZone:  getEnv("DEFAULT_TIMEZONE", "UTC"),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}
	for _, raw := range strings.Split(getEnv("KAFKA_BROKERS", ""), ",") {
		if b := strings.TrimSpace(raw); b != "" {
			cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
		}
	}

	idempotencyTTL, err := parseDurationEnv("IDEMP_TTL", 168*time.Hour)
	if err != nil {
		return Config{}, err
	}
	cfg.IdempotencyTTL = idempotencyTTL

	poll, err := parseDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond)
	if err != nil {
		return Config{}, err
	}
	cfg.OutboxPollInterval = poll

	timeout, err := parseDurationEnv("REQUEST_TIMEOUT", 5*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.RequestTimeout = timeout

	retryStr := getEnv("RETRY_BACKOFF", "1s,5s,30s")
	for _, raw := range strings.Split(retryStr, ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}

	if _, err := time.LoadLocation(cfg.DefaultTimeZone); err != nil {
		return Config{}, fmt.Errorf("invalid DEFAULT_TIMEZONE %q: %w", cfg.DefaultTimeZone, err)
	}
	switch cfg.StoreMode {
	case StoreMemory:
	case StoreMongo:
		if cfg.MongoURI == "" {
			return Config{}, fmt.Errorf("MONGO_URI is required when STORE_MODE=mongo")
		}
	default:
		return Config{}, fmt.Errorf("unknown STORE_MODE %q", cfg.StoreMode)
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}
