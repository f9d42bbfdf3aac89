package configs

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"assignment_service/internal/lifecycle"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	Production bool            `yaml:"production" env:"PRODUCTION" env-default:"false"`
	HTTP       HTTPConfig      `yaml:"http"`
	GRPC       GRPCConfig      `yaml:"grpc"`
	Storage    StorageConfig   `yaml:"storage"`
	DB         DBConfig        `yaml:"db"`
	Kafka      KafkaConfig     `yaml:"kafka"`
	Redis      RedisConfig     `yaml:"redis"`
	Lifecycle  LifecycleConfig `yaml:"lifecycle"`
	Catalog    CatalogConfig   `yaml:"catalog"`
}

type HTTPConfig struct {
	Address         string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"15s"`
}

type GRPCConfig struct {
	Address string `yaml:"address" env:"GRPC_ADDRESS" env-default:":9090"`
}

type StorageConfig struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"postgres"`
}

type DBConfig struct {
	URL         string `yaml:"url" env:"DB_URL"`
	MaxConns    int32  `yaml:"max_conns" env:"DB_MAX_CONNS" env-default:"10"`
	Migrate     bool   `yaml:"migrate" env:"DB_MIGRATE" env-default:"true"`
	ConnRetries int    `yaml:"conn_retries" env:"DB_CONN_RETRIES" env-default:"5"`
}

type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	Topic        string        `yaml:"topic" env:"KAFKA_TOPIC" env-default:"assignment-status-changed"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"KAFKA_WRITE_TIMEOUT" env-default:"5s"`
	BatchTimeout time.Duration `yaml:"batch_timeout" env:"KAFKA_BATCH_TIMEOUT" env-default:"10ms"`
	QueueSize    int           `yaml:"queue_size" env:"KAFKA_QUEUE_SIZE" env-default:"1024"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr" env:"REDIS_ADDR"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"` //nolint:gosec // config struct, not hardcoded cred
	DB       int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	TTL      time.Duration `yaml:"ttl" env:"REDIS_TTL" env-default:"5m"`
}

type LifecycleConfig struct {
	Cutoff        string        `yaml:"cutoff" env:"LIFECYCLE_CUTOFF" env-default:"17:00"`
	Timezone      string        `yaml:"timezone" env:"LIFECYCLE_TIMEZONE" env-default:"Local"`
	SweepInterval time.Duration `yaml:"sweep_interval" env:"LIFECYCLE_SWEEP_INTERVAL" env-default:"1m"`
}

type CatalogConfig struct {
	File string `yaml:"file" env:"CATALOG_FILE"`
}

// Load reads the YAML file found by getConfigPath, lets environment
// variables override it, and validates the result. Without a config file
// the environment alone is used.
func Load() (*Config, error) {
	var cfg Config

	path := getConfigPath()
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read config from env: %w", err)
		}
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func getConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}

	possiblePaths := []string{
		"config/config.yaml",
		"/etc/assignment-service/config.yaml",
		"./config.yaml",
	}
	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return "config.yaml"
}

func validateConfig(cfg *Config) error {
	if cfg.HTTP.Address == "" {
		return fmt.Errorf("HTTP address must be set")
	}

	switch cfg.Storage.Driver {
	case StorageDriverPostgres:
		if cfg.DB.URL == "" {
			return fmt.Errorf("database url must be set for the postgres driver")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if _, err := cfg.Lifecycle.Schedule(); err != nil {
		return err
	}
	if cfg.Lifecycle.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive")
	}

	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.Topic == "" {
		return fmt.Errorf("kafka topic must be set when brokers are configured")
	}
	return nil
}

// Schedule builds the cutoff schedule the lifecycle engine runs on.
func (c LifecycleConfig) Schedule() (lifecycle.Schedule, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return lifecycle.Schedule{}, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return lifecycle.NewSchedule(c.Cutoff, loc)
}
