package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Store driver names
const (
	StoreDriverMemory   = "memory"
	StoreDriverPostgres = "postgres"
)

// Notifier kinds
const (
	NotifierKindNone    = "none"
	NotifierKindWebhook = "webhook"
	NotifierKindAMQP    = "amqp"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Grading  GradingConfig  `yaml:"grading"`
	Models   []ModelConfig  `yaml:"models"`
	Notifier NotifierConfig `yaml:"notifier"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Logging  LoggingConfig  `yaml:"logging"`
	App      AppConfig      `yaml:"app"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
}

// StoreConfig selects and configures the job store backend
type StoreConfig struct {
	// Driver is "memory" (default, process-lifetime retention) or "postgres"
	Driver   string         `yaml:"driver"`
	Database DatabaseConfig `yaml:"database"`
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// GradingConfig holds the job pipeline tuning
type GradingConfig struct {
	// TempDir receives one uploaded video artifact per in-flight job
	TempDir string `yaml:"temp_dir"`
	// FFmpegPath overrides the ffmpeg binary used for frame decoding
	FFmpegPath string `yaml:"ffmpeg_path"`
	// SampleStride keeps every Nth decoded frame
	SampleStride int `yaml:"sample_stride"`
	// MaxFrames caps selected frames per job
	MaxFrames int `yaml:"max_frames"`
	// MaxConcurrentJobs bounds simultaneously executing jobs;
	// a value <= 0 disables the bound
	MaxConcurrentJobs int64 `yaml:"max_concurrent_jobs"`
}

// ModelConfig binds one crop type to its inference endpoint
type ModelConfig struct {
	CropType  string        `yaml:"crop_type"`
	Endpoint  string        `yaml:"endpoint"`
	Timeout   time.Duration `yaml:"timeout"`
	InputSize int           `yaml:"input_size"`
}

// NotifierConfig selects the outbound result sink
type NotifierConfig struct {
	// Kind is "none" (default), "webhook" or "amqp"
	Kind        string        `yaml:"kind"`
	CallbackURL string        `yaml:"callback_url"`
	Timeout     time.Duration `yaml:"timeout"`
}

// RabbitMQConfig holds RabbitMQ connection and exchange configuration for
// the amqp notifier
type RabbitMQConfig struct {
	Host       string           `yaml:"host"`
	Port       int              `yaml:"port"`
	User       string           `yaml:"user"`
	Password   string           `yaml:"password"`
	VHost      string           `yaml:"vhost"`
	Exchange   ExchangeConfig   `yaml:"exchange"`
	Queue      QueueConfig      `yaml:"queue"`
	RoutingKey string           `yaml:"routing_key"`
	Connection ConnectionConfig `yaml:"connection"`
}

// ExchangeConfig holds RabbitMQ exchange configuration
type ExchangeConfig struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
}

// QueueConfig holds RabbitMQ queue configuration
type QueueConfig struct {
	Name       string `yaml:"name"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
	Exclusive  bool   `yaml:"exclusive"`
}

// ConnectionConfig holds RabbitMQ connection settings
type ConnectionConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	Heartbeat         time.Duration `yaml:"heartbeat"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	Output       string `yaml:"output"`
	EnableCaller bool   `yaml:"enable_caller"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// Load reads and parses the configuration file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Store.Driver == "" {
		c.Store.Driver = StoreDriverMemory
	}
	if c.Notifier.Kind == "" {
		c.Notifier.Kind = NotifierKindNone
	}
	if c.Grading.TempDir == "" {
		c.Grading.TempDir = "temp_videos"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	switch c.Store.Driver {
	case StoreDriverMemory:
	case StoreDriverPostgres:
		if c.Store.Database.Host == "" {
			return fmt.Errorf("database host is required for the postgres store")
		}
		if c.Store.Database.Port < MinPort || c.Store.Database.Port > MaxPort {
			return fmt.Errorf("invalid database port: %d (must be between %d and %d)", c.Store.Database.Port, MinPort, MaxPort)
		}
		if c.Store.Database.Database == "" {
			return fmt.Errorf("database name is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store driver: %q", c.Store.Driver)
	}

	if len(c.Models) == 0 {
		return fmt.Errorf("at least one model must be configured")
	}

	seen := make(map[string]bool, len(c.Models))
	for _, m := range c.Models {
		if m.CropType == "" {
			return fmt.Errorf("model crop_type is required")
		}
		if m.Endpoint == "" {
			return fmt.Errorf("model endpoint is required for crop %q", m.CropType)
		}
		if seen[m.CropType] {
			return fmt.Errorf("duplicate model for crop %q", m.CropType)
		}
		seen[m.CropType] = true
	}

	if c.Grading.SampleStride < 0 {
		return fmt.Errorf("sample_stride must not be negative")
	}
	if c.Grading.MaxFrames < 0 {
		return fmt.Errorf("max_frames must not be negative")
	}

	switch c.Notifier.Kind {
	case NotifierKindNone:
	case NotifierKindWebhook:
		if c.Notifier.CallbackURL == "" {
			return fmt.Errorf("notifier callback_url is required for the webhook notifier")
		}
	case NotifierKindAMQP:
		if c.RabbitMQ.Host == "" {
			return fmt.Errorf("rabbitmq host is required for the amqp notifier")
		}
		if c.RabbitMQ.Port < MinPort || c.RabbitMQ.Port > MaxPort {
			return fmt.Errorf("invalid rabbitmq port: %d (must be between %d and %d)", c.RabbitMQ.Port, MinPort, MaxPort)
		}
		if c.RabbitMQ.Exchange.Name == "" {
			return fmt.Errorf("rabbitmq exchange name is required for the amqp notifier")
		}
	default:
		return fmt.Errorf("unknown notifier kind: %q", c.Notifier.Kind)
	}

	return nil
}
