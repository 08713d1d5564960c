// Package config builds runtime configuration from environment variables so
// main stays lean. Every value has a development default.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr string

	// PostgresDSN is used by the batch job and subscription stores. Empty
	// means in-memory stores.
	PostgresDSN string

	// Redis backs the approximate usage counter cache.
	Redis RedisConfig

	// KafkaBrokers backs the notification publisher. Empty means
	// notifications are logged only.
	KafkaBrokers []string

	Providers ProvidersConfig
	Batch     BatchConfig
	Monitor   MonitorConfig
	Usage     UsageConfig
}

// RedisConfig mirrors the go-redis options the platform client applies.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// ProvidersConfig tunes the failover orchestrator and its breakers.
type ProvidersConfig struct {
	PrimaryURL    string
	PrimaryKey    string
	SecondaryURL  string
	SecondaryKey  string
	SearchTimeout time.Duration

	BreakerFailureThreshold int
	BreakerResetTimeout     time.Duration
}

// BatchConfig tunes the batch orchestrator and its worker pool.
type BatchConfig struct {
	ChunkSize   int
	WorkerCount int
	MaxAttempts int
	RetryBase   time.Duration
}

// MonitorConfig tunes the monitoring scheduler.
type MonitorConfig struct {
	TickInterval time.Duration
}

// UsageConfig tunes the approximate per-user search admission.
type UsageConfig struct {
	MonthlyLimit int64
	CacheTTL     time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	return Server{
		Addr:         envString("PERSONLENS_ADDR", ":8080"),
		PostgresDSN:  os.Getenv("PERSONLENS_POSTGRES_DSN"),
		KafkaBrokers: envList("PERSONLENS_KAFKA_BROKERS"),
		Redis: RedisConfig{
			URL:          os.Getenv("PERSONLENS_REDIS_URL"),
			PoolSize:     envInt("PERSONLENS_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("PERSONLENS_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("PERSONLENS_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("PERSONLENS_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("PERSONLENS_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Providers: ProvidersConfig{
			PrimaryURL:              envString("PERSONLENS_PRIMARY_URL", "http://localhost:9001"),
			PrimaryKey:              os.Getenv("PERSONLENS_PRIMARY_KEY"),
			SecondaryURL:            envString("PERSONLENS_SECONDARY_URL", "http://localhost:9002"),
			SecondaryKey:            os.Getenv("PERSONLENS_SECONDARY_KEY"),
			SearchTimeout:           envDuration("PERSONLENS_SEARCH_TIMEOUT", 10*time.Second),
			BreakerFailureThreshold: envInt("PERSONLENS_BREAKER_FAILURES", 5),
			BreakerResetTimeout:     envDuration("PERSONLENS_BREAKER_RESET", 60*time.Second),
		},
		Batch: BatchConfig{
			ChunkSize:   envInt("PERSONLENS_BATCH_CHUNK_SIZE", 5),
			WorkerCount: envInt("PERSONLENS_BATCH_WORKERS", 1),
			MaxAttempts: envInt("PERSONLENS_BATCH_MAX_ATTEMPTS", 3),
			RetryBase:   envDuration("PERSONLENS_BATCH_RETRY_BASE", 2*time.Second),
		},
		Monitor: MonitorConfig{
			TickInterval: envDuration("PERSONLENS_MONITOR_TICK", time.Minute),
		},
		Usage: UsageConfig{
			MonthlyLimit: int64(envInt("PERSONLENS_USAGE_MONTHLY_LIMIT", 10000)),
			CacheTTL:     envDuration("PERSONLENS_USAGE_CACHE_TTL", 60*time.Second),
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
