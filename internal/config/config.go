package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/davidtran-dev/jobmatch-be/internal/analysis"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Logging  LoggingConfig  `yaml:"logging"`
	App      AppConfig      `yaml:"app"`
	Queue    QueueConfig    `yaml:"queue"`
	Analysis AnalysisConfig `yaml:"analysis"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
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

// RedisConfig holds the status cache connection configuration
type RedisConfig struct {
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	StatusTTL time.Duration `yaml:"status_ttl"`
}

// RabbitMQConfig holds RabbitMQ connection and exchange/queue configuration
type RabbitMQConfig struct {
	Host       string           `yaml:"host"`
	Port       int              `yaml:"port"`
	User       string           `yaml:"user"`
	Password   string           `yaml:"password"`
	VHost      string           `yaml:"vhost"`
	Exchange   ExchangeConfig   `yaml:"exchange"`
	Queue      BrokerQueue      `yaml:"queue"`
	RoutingKey string           `yaml:"routing_key"`
	Connection ConnectionConfig `yaml:"connection"`
	Consumer   ConsumerConfig   `yaml:"consumer"`
}

// ExchangeConfig holds RabbitMQ exchange configuration
type ExchangeConfig struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
}

// BrokerQueue holds RabbitMQ queue configuration
type BrokerQueue struct {
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

// ConsumerConfig holds RabbitMQ consumer settings
type ConsumerConfig struct {
	PrefetchCount int `yaml:"prefetch_count"`
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

// QueueConfig holds the processing queue configuration
type QueueConfig struct {
	NumWorkers         int           `yaml:"num_workers"`
	QueueCapacity      int           `yaml:"queue_capacity"`
	MaxAttempts        int           `yaml:"max_attempts"`
	BaseBackoff        time.Duration `yaml:"base_backoff"`
	MaxBackoff         time.Duration `yaml:"max_backoff"`
	StatsFlushInterval time.Duration `yaml:"stats_flush_interval"`
	StatsFlushEvery    int           `yaml:"stats_flush_every"`
}

// AnalysisConfig holds the tiered scoring pipeline configuration
type AnalysisConfig struct {
	Primary          string                    `yaml:"primary"`
	Secondary        string                    `yaml:"secondary"`
	Tier1Timeout     time.Duration             `yaml:"tier1_timeout"`
	Tier2Timeout     time.Duration             `yaml:"tier2_timeout"`
	BreakerThreshold int                       `yaml:"breaker_threshold"`
	BreakerCooldown  time.Duration             `yaml:"breaker_cooldown"`
	OpenAI           ProviderConfig            `yaml:"openai"`
	Anthropic        ProviderConfig            `yaml:"anthropic"`
	Profile          analysis.CandidateProfile `yaml:"profile"`
}

// ProviderConfig holds settings for one AI provider endpoint
type ProviderConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
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

	return &config, nil
}

// Validate checks the full service configuration
func (c *Config) Validate() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < MinPort || c.Database.Port > MaxPort {
		return fmt.Errorf("invalid database port: %d (must be between %d and %d)", c.Database.Port, MinPort, MaxPort)
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.RabbitMQ.Host == "" {
		return fmt.Errorf("rabbitmq host is required")
	}

	if c.RabbitMQ.Port < MinPort || c.RabbitMQ.Port > MaxPort {
		return fmt.Errorf("invalid rabbitmq port: %d (must be between %d and %d)", c.RabbitMQ.Port, MinPort, MaxPort)
	}

	if c.RabbitMQ.Exchange.Name == "" {
		return fmt.Errorf("rabbitmq exchange name is required")
	}

	if c.RabbitMQ.Queue.Name == "" {
		return fmt.Errorf("rabbitmq queue name is required")
	}

	if err := c.ValidateQueueConfig(); err != nil {
		return err
	}

	return c.ValidateAnalysisConfig()
}

// ValidateQueueConfig checks the processing queue settings
func (c *Config) ValidateQueueConfig() error {
	if c.Queue.NumWorkers <= 0 {
		return fmt.Errorf("queue num_workers must be greater than 0")
	}

	if c.Queue.QueueCapacity <= 0 {
		return fmt.Errorf("queue queue_capacity must be greater than 0")
	}

	if c.Queue.MaxAttempts <= 0 {
		return fmt.Errorf("queue max_attempts must be greater than 0")
	}

	if c.Queue.BaseBackoff <= 0 {
		return fmt.Errorf("queue base_backoff must be greater than 0")
	}

	if c.Queue.MaxBackoff < c.Queue.BaseBackoff {
		return fmt.Errorf("queue max_backoff must not be smaller than base_backoff")
	}

	if c.Queue.StatsFlushInterval <= 0 {
		return fmt.Errorf("queue stats_flush_interval must be greater than 0")
	}

	return nil
}

// ValidateAnalysisConfig checks the scoring pipeline settings
func (c *Config) ValidateAnalysisConfig() error {
	if c.Analysis.Tier1Timeout <= 0 {
		return fmt.Errorf("analysis tier1_timeout must be greater than 0")
	}

	if c.Analysis.Tier2Timeout <= 0 {
		return fmt.Errorf("analysis tier2_timeout must be greater than 0")
	}

	if c.Analysis.BreakerThreshold <= 0 {
		return fmt.Errorf("analysis breaker_threshold must be greater than 0")
	}

	if c.Analysis.BreakerCooldown <= 0 {
		return fmt.Errorf("analysis breaker_cooldown must be greater than 0")
	}

	return nil
}
