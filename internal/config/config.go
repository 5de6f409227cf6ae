package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the process configuration
type Config struct {
	Server      ServerConfig
	Mongo       MongoConfig
	Kafka       KafkaConfig
	Redis       RedisConfig
	Outbox      OutboxConfig
	Tracing     TracingConfig
	Idempotency IdempotencyConfig
}

type ServerConfig struct {
	Addr         string
	LogLevel     string
	Environment  string
	AllowOrigins []string
}

type MongoConfig struct {
	URI         string
	Database    string
	MaxPoolSize uint64
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
}

// RedisConfig configures stock locks. An empty Addr disables them.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration
}

type OutboxConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

type TracingConfig struct {
	Enabled      bool
	OTLPEndpoint string
}

type IdempotencyConfig struct {
	Retention time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("CORS_ALLOW_ORIGINS", "*")
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017/?replicaSet=rs0")
	v.SetDefault("MONGODB_DATABASE", "exims")
	v.SetDefault("MONGODB_MAX_POOL_SIZE", 100)
	v.SetDefault("KAFKA_ENABLED", false)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("STOCK_LOCK_TTL", "10s")
	v.SetDefault("OUTBOX_POLL_INTERVAL", "1s")
	v.SetDefault("OUTBOX_BATCH_SIZE", 100)
	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	v.SetDefault("IDEMPOTENCY_RETENTION", "24h")
}

// Load reads envFile when it exists, then lets environment variables override it
func Load(envFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Addr:         v.GetString("SERVER_ADDR"),
			LogLevel:     v.GetString("LOG_LEVEL"),
			Environment:  v.GetString("ENVIRONMENT"),
			AllowOrigins: splitList(v.GetString("CORS_ALLOW_ORIGINS")),
		},
		Mongo: MongoConfig{
			URI:         v.GetString("MONGODB_URI"),
			Database:    v.GetString("MONGODB_DATABASE"),
			MaxPoolSize: v.GetUint64("MONGODB_MAX_POOL_SIZE"),
		},
		Kafka: KafkaConfig{
			Enabled: v.GetBool("KAFKA_ENABLED"),
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			LockTTL:  v.GetDuration("STOCK_LOCK_TTL"),
		},
		Outbox: OutboxConfig{
			PollInterval: v.GetDuration("OUTBOX_POLL_INTERVAL"),
			BatchSize:    v.GetInt("OUTBOX_BATCH_SIZE"),
		},
		Tracing: TracingConfig{
			Enabled:      v.GetBool("TRACING_ENABLED"),
			OTLPEndpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		},
		Idempotency: IdempotencyConfig{
			Retention: v.GetDuration("IDEMPOTENCY_RETENTION"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot start with
func (c *Config) Validate() error {
	switch {
	case c.Mongo.URI == "":
		return errors.New("MONGODB_URI is required")
	case c.Mongo.Database == "":
		return errors.New("MONGODB_DATABASE is required")
	case c.Kafka.Enabled && len(c.Kafka.Brokers) == 0:
		return errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	case c.Redis.LockTTL <= 0:
		return errors.New("STOCK_LOCK_TTL must be positive")
	case c.Outbox.PollInterval <= 0 || c.Outbox.BatchSize <= 0:
		return errors.New("OUTBOX_POLL_INTERVAL and OUTBOX_BATCH_SIZE must be positive")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
