// Package config loads and validates the search server configuration from a
// YAML file with environment-variable overrides. It provides typed structs
// for every subsystem (Server, Engine, Search, Kafka, Redis, RateLimit, etc.).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Engine    EngineConfig    `yaml:"engine"`
	Search    SearchConfig    `yaml:"search"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// EngineConfig controls the index and the ranking fan-out.
type EngineConfig struct {
	StopWords     []string `yaml:"stopWords"`
	BucketCount   int      `yaml:"bucketCount"`
	ParallelParts int      `yaml:"parallelParts"`
	// DefaultPolicy is used when a request names none: "sequential" or "parallel".
	DefaultPolicy string `yaml:"defaultPolicy"`
}

// SearchConfig controls batch query limits.
type SearchConfig struct {
	MaxBatchQueries      int `yaml:"maxBatchQueries"`
	MaxConcurrentQueries int `yaml:"maxConcurrentQueries"`
}

// KafkaConfig holds Kafka broker and topic settings for document ingest.
type KafkaConfig struct {
	Enabled       bool        `yaml:"enabled"`
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	DocumentIngest string `yaml:"documentIngest"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// RateLimitConfig controls per-client request throttling.
type RateLimitConfig struct {
	Enabled         bool          `yaml:"enabled"`
	RequestsPerMin  int           `yaml:"requestsPerMinute"`
	Burst           int           `yaml:"burst"`
	CleanupInterval time.Duration `yaml:"cleanupInterval"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with defaults for any missing
// values, or an error if the result does not validate.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate reports every field that cannot be used as configured.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.requestTimeout must be positive"))
	}
	if c.Engine.BucketCount < 0 {
		errs = append(errs, fmt.Errorf("engine.bucketCount must not be negative"))
	}
	if c.Engine.ParallelParts < 0 {
		errs = append(errs, fmt.Errorf("engine.parallelParts must not be negative"))
	}
	switch strings.ToLower(c.Engine.DefaultPolicy) {
	case "", "sequential", "seq", "parallel", "par":
	default:
		errs = append(errs, fmt.Errorf("engine.defaultPolicy %q is not sequential or parallel", c.Engine.DefaultPolicy))
	}
	if c.Search.MaxBatchQueries <= 0 {
		errs = append(errs, fmt.Errorf("search.maxBatchQueries must be positive"))
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topics.DocumentIngest == "") {
		errs = append(errs, fmt.Errorf("kafka is enabled but brokers or topics.documentIngest is empty"))
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, fmt.Errorf("redis is enabled but addr is empty"))
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMin <= 0 {
		errs = append(errs, fmt.Errorf("rateLimit.requestsPerMinute must be positive"))
	}
	return errors.Join(errs...)
}

// defaultConfig returns a Config with defaults for local development.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			RequestTimeout:  10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Engine: EngineConfig{
			StopWords:     []string{"a", "an", "and", "in", "of", "on", "the", "with"},
			BucketCount:   60,
			ParallelParts: 4,
			DefaultPolicy: "sequential",
		},
		Search: SearchConfig{
			MaxBatchQueries:      100,
			MaxConcurrentQueries: 8,
		},
		Kafka: KafkaConfig{
			Enabled:       false,
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "search-server-group",
			Topics: KafkaTopics{
				DocumentIngest: "document-ingest",
			},
		},
		Redis: RedisConfig{
			Enabled:  false,
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:         true,
			RequestsPerMin:  600,
			Burst:           50,
			CleanupInterval: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads SP_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SP_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SP_ENGINE_STOP_WORDS"); v != "" {
		cfg.Engine.StopWords = strings.Fields(v)
	}
	if v := os.Getenv("SP_ENGINE_BUCKET_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.BucketCount = n
		}
	}
	if v := os.Getenv("SP_ENGINE_PARALLEL_PARTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.ParallelParts = n
		}
	}
	if v := os.Getenv("SP_ENGINE_DEFAULT_POLICY"); v != "" {
		cfg.Engine.DefaultPolicy = v
	}
	if v := os.Getenv("SP_KAFKA_ENABLED"); v != "" {
		cfg.Kafka.Enabled = v == "true"
	}
	if v := os.Getenv("SP_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("SP_REDIS_ENABLED"); v != "" {
		cfg.Redis.Enabled = v == "true"
	}
	if v := os.Getenv("SP_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("SP_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.RateLimit.Enabled = v == "true"
	}
	if v := os.Getenv("SP_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SP_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
