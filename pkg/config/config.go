package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/chatprune/pkg/chat"
	"github.com/platinummonkey/chatprune/pkg/events"
	"github.com/platinummonkey/chatprune/pkg/jobs"
	"github.com/platinummonkey/chatprune/pkg/settings"
	"github.com/platinummonkey/chatprune/pkg/storage"
)

// EnvPrefix prefixes every environment variable read by LoadConfig
const EnvPrefix = "CHATPRUNE_"

// ConfigFileEnv names the optional YAML configuration file
const ConfigFileEnv = EnvPrefix + "CONFIG_FILE"

// Job dispatch backends
const (
	BackendRedis = "redis"
	BackendKafka = "kafka"
	BackendLocal = "local"
)

// Settings sources
const (
	SettingsSourceRedis  = "redis"
	SettingsSourceStatic = "static"
)

// Config holds all application configuration
type Config struct {
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Jobs          JobsConfig          `yaml:"jobs"`
	Kafka         KafkaConfig         `yaml:"kafka"`
	Settings      SettingsConfig      `yaml:"settings"`
	Observability ObservabilityConfig `yaml:"observability"`
	Worker        WorkerConfig        `yaml:"worker"`
}

// DatabaseConfig holds datastore connection settings
type DatabaseConfig struct {
	Driver      string        `yaml:"driver" validate:"oneof=postgres sqlite3"`
	URL         string        `yaml:"url" validate:"required"`
	MaxConns    int           `yaml:"max_conns" validate:"gte=1"`
	MinConns    int           `yaml:"min_conns" validate:"gte=0,ltefield=MaxConns"`
	Timeout     time.Duration `yaml:"timeout" validate:"gt=0"`
	MaxLifetime time.Duration `yaml:"max_lifetime" validate:"gte=0"`
	MaxIdleTime time.Duration `yaml:"max_idle_time" validate:"gte=0"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	URL        string `yaml:"url"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db" validate:"gte=0"`
	MaxRetries int    `yaml:"max_retries" validate:"gte=0"`
	PoolSize   int    `yaml:"pool_size" validate:"gte=1"`
}

// JobsConfig controls where kick jobs go
type JobsConfig struct {
	Backends     []string      `yaml:"backends" validate:"min=1,dive,oneof=redis kafka local"`
	QueueKey     string        `yaml:"queue_key" validate:"required"`
	KickDelay    time.Duration `yaml:"kick_delay" validate:"gte=0"`
	LocalWorkers int           `yaml:"local_workers" validate:"gte=1"`
	Timeout      time.Duration `yaml:"timeout" validate:"gt=0"`
}

// KafkaConfig holds broker and topic settings
type KafkaConfig struct {
	Brokers       []string      `yaml:"brokers"`
	JobTopic      string        `yaml:"job_topic"`
	TriggerTopic  string        `yaml:"trigger_topic"`
	ConsumerGroup string        `yaml:"consumer_group"`
	WriteTimeout  time.Duration `yaml:"write_timeout" validate:"gte=0"`

	CommitInterval time.Duration      `yaml:"commit_interval" validate:"gte=0"`
	TriggerRetry   events.RetryConfig `yaml:"trigger_retry"`
}

// SettingsConfig selects where site settings are read from. The static
// values double as defaults for fields missing from the Redis hash.
type SettingsConfig struct {
	Source            string        `yaml:"source" validate:"oneof=redis static"`
	RedisKey          string        `yaml:"redis_key"`
	CacheTTL          time.Duration `yaml:"cache_ttl" validate:"gte=0"`
	ChatEnabled       bool          `yaml:"chat_enabled"`
	ChatAllowedGroups string        `yaml:"chat_allowed_groups" validate:"grouplist"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level" validate:"oneof=trace debug info warn warning error fatal panic"`
	LogFormat string `yaml:"log_format" validate:"oneof=json text"`

	MetricsEnabled bool `yaml:"metrics_enabled"`

	OTelEnabled        bool          `yaml:"otel_enabled"`
	OTelEndpoint       string        `yaml:"otel_endpoint" validate:"required_if=OTelEnabled true"`
	OTelServiceName    string        `yaml:"otel_service_name" validate:"required_if=OTelEnabled true"`
	OTelServiceVersion string        `yaml:"otel_service_version"`
	OTelInsecure       bool          `yaml:"otel_insecure"`
	OTelSampleRatio    float64       `yaml:"otel_sample_ratio" validate:"gte=0,lte=1"`
	OTelMetricInterval time.Duration `yaml:"otel_metric_interval" validate:"gte=0"`
}

// WorkerConfig holds settings for the long-running worker
type WorkerConfig struct {
	OpsAddr         string        `yaml:"ops_addr" validate:"required"`
	ConsumeTriggers bool          `yaml:"consume_triggers"`
	SweepSchedule   string        `yaml:"sweep_schedule"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
}

// Default returns the built-in configuration
func Default() *Config {
	store := storage.DefaultConfig()
	site := settings.Defaults()

	return &Config{
		Database: DatabaseConfig{
			Driver:      store.Driver,
			MaxConns:    store.MaxConns,
			MinConns:    store.MinConns,
			Timeout:     store.Timeout,
			MaxLifetime: store.MaxLifetime,
			MaxIdleTime: store.MaxIdleTime,
		},
		Redis: RedisConfig{
			URL:        store.RedisURL,
			DB:         store.RedisDB,
			MaxRetries: store.RedisMaxRetries,
			PoolSize:   store.RedisPoolSize,
		},
		Jobs: JobsConfig{
			Backends:     []string{BackendRedis},
			QueueKey:     jobs.DefaultQueueKey,
			LocalWorkers: 4,
			Timeout:      30 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			JobTopic:      "chatprune.kick_users",
			TriggerTopic:  "chatprune.triggers",
			ConsumerGroup: "chatprune-worker",
			WriteTimeout:  10 * time.Second,
			TriggerRetry:  events.DefaultRetryConfig(),
		},
		Settings: SettingsConfig{
			Source:            SettingsSourceRedis,
			RedisKey:          settings.DefaultKey,
			CacheTTL:          30 * time.Second,
			ChatEnabled:       site.ChatEnabled,
			ChatAllowedGroups: site.ChatAllowedGroups.String(),
		},
		Observability: ObservabilityConfig{
			LogLevel:           "info",
			LogFormat:          "json",
			MetricsEnabled:     true,
			OTelEndpoint:       "localhost:4317",
			OTelServiceName:    "chatprune",
			OTelServiceVersion: "1.0.0",
			OTelInsecure:       true,
			OTelSampleRatio:    1,
			OTelMetricInterval: 10 * time.Second,
		},
		Worker: WorkerConfig{
			OpsAddr:         ":9090",
			ConsumeTriggers: true,
			ShutdownTimeout: 30 * time.Second,
		},
	}
}

// LoadConfig loads configuration from the optional YAML file named by
// CHATPRUNE_CONFIG_FILE, then applies environment overrides and validates.
func LoadConfig() (*Config, error) {
	return Load(os.Getenv(ConfigFileEnv))
}

// Load is LoadConfig with an explicit file path (empty for none)
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Database.Driver = getEnv("DATABASE_DRIVER", c.Database.Driver)
	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)
	c.Database.MaxConns = getEnvInt("DATABASE_MAX_CONNS", c.Database.MaxConns)
	c.Database.MinConns = getEnvInt("DATABASE_MIN_CONNS", c.Database.MinConns)
	c.Database.Timeout = getEnvDuration("DATABASE_TIMEOUT", c.Database.Timeout)
	c.Database.MaxLifetime = getEnvDuration("DATABASE_MAX_LIFETIME", c.Database.MaxLifetime)
	c.Database.MaxIdleTime = getEnvDuration("DATABASE_MAX_IDLE_TIME", c.Database.MaxIdleTime)

	c.Redis.URL = getEnv("REDIS_URL", c.Redis.URL)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("REDIS_DB", c.Redis.DB)
	c.Redis.MaxRetries = getEnvInt("REDIS_MAX_RETRIES", c.Redis.MaxRetries)
	c.Redis.PoolSize = getEnvInt("REDIS_POOL_SIZE", c.Redis.PoolSize)

	c.Jobs.Backends = getEnvList("JOBS_BACKENDS", c.Jobs.Backends)
	c.Jobs.QueueKey = getEnv("JOBS_QUEUE_KEY", c.Jobs.QueueKey)
	c.Jobs.KickDelay = getEnvDuration("JOBS_KICK_DELAY", c.Jobs.KickDelay)
	c.Jobs.LocalWorkers = getEnvInt("JOBS_LOCAL_WORKERS", c.Jobs.LocalWorkers)
	c.Jobs.Timeout = getEnvDuration("JOBS_TIMEOUT", c.Jobs.Timeout)

	c.Kafka.Brokers = getEnvList("KAFKA_BROKERS", c.Kafka.Brokers)
	c.Kafka.JobTopic = getEnv("KAFKA_JOB_TOPIC", c.Kafka.JobTopic)
	c.Kafka.TriggerTopic = getEnv("KAFKA_TRIGGER_TOPIC", c.Kafka.TriggerTopic)
	c.Kafka.ConsumerGroup = getEnv("KAFKA_CONSUMER_GROUP", c.Kafka.ConsumerGroup)
	c.Kafka.WriteTimeout = getEnvDuration("KAFKA_WRITE_TIMEOUT", c.Kafka.WriteTimeout)
	c.Kafka.CommitInterval = getEnvDuration("KAFKA_COMMIT_INTERVAL", c.Kafka.CommitInterval)
	c.Kafka.TriggerRetry.MaxAttempts = getEnvInt("TRIGGER_RETRY_MAX_ATTEMPTS", c.Kafka.TriggerRetry.MaxAttempts)

	c.Settings.Source = getEnv("SETTINGS_SOURCE", c.Settings.Source)
	c.Settings.RedisKey = getEnv("SETTINGS_REDIS_KEY", c.Settings.RedisKey)
	c.Settings.CacheTTL = getEnvDuration("SETTINGS_CACHE_TTL", c.Settings.CacheTTL)
	c.Settings.ChatEnabled = getEnvBool("CHAT_ENABLED", c.Settings.ChatEnabled)
	c.Settings.ChatAllowedGroups = getEnv("CHAT_ALLOWED_GROUPS", c.Settings.ChatAllowedGroups)

	c.Observability.LogLevel = getEnv("LOG_LEVEL", c.Observability.LogLevel)
	c.Observability.LogFormat = getEnv("LOG_FORMAT", c.Observability.LogFormat)
	c.Observability.MetricsEnabled = getEnvBool("METRICS_ENABLED", c.Observability.MetricsEnabled)
	c.Observability.OTelEnabled = getEnvBool("OTEL_ENABLED", c.Observability.OTelEnabled)
	c.Observability.OTelEndpoint = getEnv("OTEL_ENDPOINT", c.Observability.OTelEndpoint)
	c.Observability.OTelServiceName = getEnv("OTEL_SERVICE_NAME", c.Observability.OTelServiceName)
	c.Observability.OTelServiceVersion = getEnv("OTEL_SERVICE_VERSION", c.Observability.OTelServiceVersion)
	c.Observability.OTelInsecure = getEnvBool("OTEL_INSECURE", c.Observability.OTelInsecure)
	c.Observability.OTelSampleRatio = getEnvFloat("OTEL_SAMPLE_RATIO", c.Observability.OTelSampleRatio)
	c.Observability.OTelMetricInterval = getEnvDuration("OTEL_METRIC_INTERVAL", c.Observability.OTelMetricInterval)

	c.Worker.OpsAddr = getEnv("WORKER_OPS_ADDR", c.Worker.OpsAddr)
	c.Worker.ConsumeTriggers = getEnvBool("WORKER_CONSUME_TRIGGERS", c.Worker.ConsumeTriggers)
	c.Worker.SweepSchedule = getEnv("WORKER_SWEEP_SCHEDULE", c.Worker.SweepSchedule)
	c.Worker.ShutdownTimeout = getEnvDuration("WORKER_SHUTDOWN_TIMEOUT", c.Worker.ShutdownTimeout)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := chat.NewValidator().Struct(c); err != nil {
		return err
	}

	if c.Jobs.uses(BackendKafka) || c.Worker.ConsumeTriggers {
		if len(c.Kafka.Brokers) == 0 {
			return errors.New("kafka brokers are required for the kafka job backend or trigger consumer")
		}
	}
	if c.Jobs.uses(BackendKafka) && c.Kafka.JobTopic == "" {
		return errors.New("kafka job topic is required for the kafka job backend")
	}
	if c.Worker.ConsumeTriggers && (c.Kafka.TriggerTopic == "" || c.Kafka.ConsumerGroup == "") {
		return errors.New("kafka trigger topic and consumer group are required to consume triggers")
	}
	if (c.Jobs.uses(BackendRedis) || c.Settings.Source == SettingsSourceRedis) && c.Redis.URL == "" {
		return errors.New("redis URL is required for the redis job backend or settings source")
	}
	if c.Settings.Source == SettingsSourceRedis && c.Settings.RedisKey == "" {
		return errors.New("settings redis key is required for the redis settings source")
	}

	return nil
}

// UsesBackend reports whether kick jobs are sent to backend
func (c *Config) UsesBackend(backend string) bool {
	return c.Jobs.uses(backend)
}

func (j JobsConfig) uses(backend string) bool {
	return slices.Contains(j.Backends, backend)
}

// StorageConfig converts the database and Redis sections to storage.Config
func (c *Config) StorageConfig() storage.Config {
	return storage.Config{
		Driver:          c.Database.Driver,
		DatabaseURL:     c.Database.URL,
		MaxConns:        c.Database.MaxConns,
		MinConns:        c.Database.MinConns,
		Timeout:         c.Database.Timeout,
		MaxLifetime:     c.Database.MaxLifetime,
		MaxIdleTime:     c.Database.MaxIdleTime,
		RedisURL:        c.Redis.URL,
		RedisPassword:   c.Redis.Password,
		RedisDB:         c.Redis.DB,
		RedisMaxRetries: c.Redis.MaxRetries,
		RedisPoolSize:   c.Redis.PoolSize,
	}
}

// JobWriterConfig returns the Kafka producer settings for kick jobs
func (c *Config) JobWriterConfig() jobs.KafkaConfig {
	return jobs.KafkaConfig{
		Brokers:      c.Kafka.Brokers,
		Topic:        c.Kafka.JobTopic,
		WriteTimeout: c.Kafka.WriteTimeout,
	}
}

// TriggerReaderConfig returns the Kafka consumer settings for triggers
func (c *Config) TriggerReaderConfig() events.KafkaReaderConfig {
	return events.KafkaReaderConfig{
		Brokers:        c.Kafka.Brokers,
		Topic:          c.Kafka.TriggerTopic,
		GroupID:        c.Kafka.ConsumerGroup,
		CommitInterval: c.Kafka.CommitInterval,
	}
}

// SiteDefaults returns the statically configured site settings
func (c *Config) SiteDefaults() (chat.SiteSettings, error) {
	groups, err := chat.ParseGroupList(c.Settings.ChatAllowedGroups)
	if err != nil {
		return chat.SiteSettings{}, fmt.Errorf("invalid chat allowed groups: %w", err)
	}
	return chat.SiteSettings{
		ChatEnabled:       c.Settings.ChatEnabled,
		ChatAllowedGroups: groups,
	}, nil
}

// getEnv returns a prefixed environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat returns a float environment variable or a default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList returns a comma-separated environment variable or a default
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(EnvPrefix + key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
