package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535

	// EnvPrefix prefixes environment overrides, e.g. PREDICT_REDIS_HOST
	EnvPrefix = "PREDICT"
)

// Broker drivers
const (
	DriverRedis    = "redis"
	DriverRabbitMQ = "rabbitmq"
	DriverSQS      = "sqs"
)

// Classifier kinds
const (
	ClassifierStatic = "static"
	ClassifierHTTP   = "http"
	ClassifierRouted = "routed"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Broker   BrokerConfig   `yaml:"broker"`
	Logging  LoggingConfig  `yaml:"logging"`
	App      AppConfig      `yaml:"app"`
	Worker   WorkerConfig   `yaml:"worker"`
	Gateway  GatewayConfig  `yaml:"gateway"`
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

// RedisConfig holds redis connection configuration.
// Redis always holds synchronous results and is the default work queue.
type RedisConfig struct {
	Host          string        `yaml:"host"`
	Port          int           `yaml:"port"`
	Password      string        `yaml:"password"`
	DB            int           `yaml:"db"`
	PoolSize      int           `yaml:"pool_size"`
	DialTimeout   time.Duration `yaml:"dial_timeout"`
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryInterval time.Duration `yaml:"retry_interval"`
	ResultTTL     time.Duration `yaml:"result_ttl"`
}

// BrokerConfig selects and configures the work queue transport
type BrokerConfig struct {
	Driver   string         `yaml:"driver"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	SQS      SQSConfig      `yaml:"sqs"`
}

// RabbitMQConfig holds RabbitMQ connection and exchange/queue configuration
type RabbitMQConfig struct {
	Host        string           `yaml:"host"`
	Port        int              `yaml:"port"`
	User        string           `yaml:"user"`
	Password    string           `yaml:"password"`
	VHost       string           `yaml:"vhost"`
	ConsumerTag string           `yaml:"consumer_tag"`
	Exchange    ExchangeConfig   `yaml:"exchange"`
	Queue       QueueConfig      `yaml:"queue"`
	Connection  ConnectionConfig `yaml:"connection"`
	Publish     PublishConfig    `yaml:"publish"`
	Consumer    ConsumerConfig   `yaml:"consumer"`
}

// ExchangeConfig holds RabbitMQ exchange configuration.
// An empty name publishes through the default exchange.
type ExchangeConfig struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
}

// QueueConfig holds RabbitMQ queue declaration flags
type QueueConfig struct {
	Durable    bool `yaml:"durable"`
	AutoDelete bool `yaml:"auto_delete"`
}

// ConnectionConfig holds RabbitMQ connection settings
type ConnectionConfig struct {
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryInterval time.Duration `yaml:"retry_interval"`
	Heartbeat     time.Duration `yaml:"heartbeat"`
}

// PublishConfig holds RabbitMQ publish retry settings
type PublishConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
}

// ConsumerConfig holds RabbitMQ consumer settings
type ConsumerConfig struct {
	PrefetchCount int `yaml:"prefetch_count"`
}

// SQSConfig holds Amazon SQS settings. Endpoint is for local emulators.
type SQSConfig struct {
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	Output       string `yaml:"output"`
	EnableCaller bool   `yaml:"enable_caller"`

	Rotation LogRotationConfig `yaml:"rotation"`
}

// LogRotationConfig controls rotation when output is a file path
type LogRotationConfig struct {
	Enable     bool `yaml:"enable"`
	MaxSizeMB  int  `yaml:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days"`
	Compress   bool `yaml:"compress"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// WorkerConfig holds worker service configuration
type WorkerConfig struct {
	Concurrency       int              `yaml:"concurrency"`
	MaxBatchSize      int              `yaml:"max_batch_size"`
	QueueName         string           `yaml:"queue_name"`
	TimeoutMS         int              `yaml:"timeout_ms"`
	DrainInterval     time.Duration    `yaml:"drain_interval"`
	ReconnectInterval time.Duration    `yaml:"reconnect_interval"`
	DeadLetterQueue   string           `yaml:"dead_letter_queue"`
	ShutdownTimeout   time.Duration    `yaml:"shutdown_timeout"`
	Classifier        ClassifierConfig `yaml:"classifier"`
}

// Timeout returns the drain budget, zero when unset
func (w WorkerConfig) Timeout() time.Duration {
	return time.Duration(w.TimeoutMS) * time.Millisecond
}

// ClassifierConfig describes a classifier tree.
// static uses Labels, http uses URL and Timeout, routed uses Router and Routes.
type ClassifierConfig struct {
	Kind    string                      `yaml:"kind"`
	Labels  []string                    `yaml:"labels"`
	URL     string                      `yaml:"url"`
	Timeout time.Duration               `yaml:"timeout"`
	Router  *ClassifierConfig           `yaml:"router"`
	Routes  map[string]ClassifierConfig `yaml:"routes"`
}

// GatewayConfig holds job submission settings
type GatewayConfig struct {
	PollInterval time.Duration         `yaml:"poll_interval"`
	PollTimeout  time.Duration         `yaml:"poll_timeout"`
	Tasks        map[string]TaskConfig `yaml:"tasks"`
}

// TaskConfig maps a prediction task to its queue and response label field
type TaskConfig struct {
	Queue      string `yaml:"queue"`
	LabelField string `yaml:"label_field"`
}

// Load reads and parses the configuration file, then applies defaults
// and PREDICT_* environment overrides
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
	config.applyEnv()

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.Broker.Driver == "" {
		c.Broker.Driver = DriverRedis
	}
	if c.Broker.RabbitMQ.ConsumerTag == "" {
		c.Broker.RabbitMQ.ConsumerTag = "predict-worker"
	}

	if c.Worker.Concurrency == 0 {
		c.Worker.Concurrency = 1
	}
	if c.Worker.MaxBatchSize == 0 {
		c.Worker.MaxBatchSize = 16
	}
	if c.Worker.DrainInterval == 0 {
		c.Worker.DrainInterval = 20 * time.Millisecond
	}
	if c.Broker.RabbitMQ.Consumer.PrefetchCount == 0 {
		// an unbounded prefetch lets one consumer hold the whole queue
		c.Broker.RabbitMQ.Consumer.PrefetchCount = c.Worker.MaxBatchSize
	}
	if c.Worker.ReconnectInterval == 0 {
		c.Worker.ReconnectInterval = 100 * time.Millisecond
	}
	if c.Worker.ShutdownTimeout == 0 {
		c.Worker.ShutdownTimeout = 30 * time.Second
	}
	if c.Worker.Classifier.Kind == "" {
		c.Worker.Classifier.Kind = ClassifierStatic
	}

	if c.Gateway.PollInterval == 0 {
		c.Gateway.PollInterval = 10 * time.Millisecond
	}
	if c.Gateway.PollTimeout == 0 {
		c.Gateway.PollTimeout = 30 * time.Second
	}
	if len(c.Gateway.Tasks) == 0 {
		c.Gateway.Tasks = map[string]TaskConfig{
			"ccam":     {Queue: "surgery_queue", LabelField: "ccam_codes"},
			"severity": {Queue: "severity_level_queue", LabelField: "severity"},
		}
	}
}

// applyEnv overrides connection settings from the environment
func (c *Config) applyEnv() {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, key := range []string{
		"server.port",
		"database.host", "database.port", "database.user", "database.password", "database.database",
		"redis.host", "redis.port", "redis.password",
		"broker.driver",
		"broker.rabbitmq.host", "broker.rabbitmq.user", "broker.rabbitmq.password",
		"broker.sqs.region", "broker.sqs.endpoint",
		"worker.queue_name", "worker.classifier.url",
		"logging.level",
	} {
		_ = v.BindEnv(key)
	}

	setString := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	setInt := func(key string, dst *int) {
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}

	setInt("server.port", &c.Server.Port)
	setString("database.host", &c.Database.Host)
	setInt("database.port", &c.Database.Port)
	setString("database.user", &c.Database.User)
	setString("database.password", &c.Database.Password)
	setString("database.database", &c.Database.Database)
	setString("redis.host", &c.Redis.Host)
	setInt("redis.port", &c.Redis.Port)
	setString("redis.password", &c.Redis.Password)
	setString("broker.driver", &c.Broker.Driver)
	setString("broker.rabbitmq.host", &c.Broker.RabbitMQ.Host)
	setString("broker.rabbitmq.user", &c.Broker.RabbitMQ.User)
	setString("broker.rabbitmq.password", &c.Broker.RabbitMQ.Password)
	setString("broker.sqs.region", &c.Broker.SQS.Region)
	setString("broker.sqs.endpoint", &c.Broker.SQS.Endpoint)
	setString("worker.queue_name", &c.Worker.QueueName)
	setString("worker.classifier.url", &c.Worker.Classifier.URL)
	setString("logging.level", &c.Logging.Level)
}

// ValidateAPIConfig checks the settings the api service depends on
func (c *Config) ValidateAPIConfig() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateRedis(); err != nil {
		return err
	}

	if c.Gateway.PollInterval <= 0 {
		return fmt.Errorf("gateway poll_interval must be greater than 0")
	}

	if c.Gateway.PollTimeout <= 0 {
		return fmt.Errorf("gateway poll_timeout must be greater than 0")
	}

	if len(c.Gateway.Tasks) == 0 {
		return fmt.Errorf("at least one gateway task is required")
	}

	for name, task := range c.Gateway.Tasks {
		if task.Queue == "" {
			return fmt.Errorf("gateway task %s: queue is required", name)
		}
		if task.LabelField == "" {
			return fmt.Errorf("gateway task %s: label_field is required", name)
		}
	}

	return nil
}

// ValidateWorkerConfig checks the settings the worker service depends on
func (c *Config) ValidateWorkerConfig() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateRedis(); err != nil {
		return err
	}

	switch c.Broker.Driver {
	case DriverRedis:
	case DriverRabbitMQ:
		if c.Broker.RabbitMQ.Host == "" {
			return fmt.Errorf("rabbitmq host is required")
		}
		if c.Broker.RabbitMQ.Port < MinPort || c.Broker.RabbitMQ.Port > MaxPort {
			return fmt.Errorf("invalid rabbitmq port: %d (must be between %d and %d)", c.Broker.RabbitMQ.Port, MinPort, MaxPort)
		}
	case DriverSQS:
		if c.Broker.SQS.Region == "" {
			return fmt.Errorf("sqs region is required")
		}
	default:
		return fmt.Errorf("unknown broker driver: %s", c.Broker.Driver)
	}

	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("worker concurrency must be greater than 0")
	}

	if c.Worker.MaxBatchSize <= 0 {
		return fmt.Errorf("worker max_batch_size must be greater than 0")
	}

	if c.Worker.QueueName == "" {
		return fmt.Errorf("worker queue_name is required")
	}

	if c.Worker.TimeoutMS < 0 {
		return fmt.Errorf("worker timeout_ms must not be negative")
	}

	if c.Worker.DrainInterval <= 0 {
		return fmt.Errorf("worker drain_interval must be greater than 0")
	}

	if c.Worker.ReconnectInterval <= 0 {
		return fmt.Errorf("worker reconnect_interval must be greater than 0")
	}

	return validateClassifier("worker classifier", c.Worker.Classifier)
}

func (c *Config) validateDatabase() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < MinPort || c.Database.Port > MaxPort {
		return fmt.Errorf("invalid database port: %d (must be between %d and %d)", c.Database.Port, MinPort, MaxPort)
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	return nil
}

func (c *Config) validateRedis() error {
	if c.Redis.Host == "" {
		return fmt.Errorf("redis host is required")
	}

	if c.Redis.Port < MinPort || c.Redis.Port > MaxPort {
		return fmt.Errorf("invalid redis port: %d (must be between %d and %d)", c.Redis.Port, MinPort, MaxPort)
	}

	return nil
}

func validateClassifier(path string, cfg ClassifierConfig) error {
	switch cfg.Kind {
	case ClassifierStatic:
		if len(cfg.Labels) == 0 {
			return fmt.Errorf("%s: static classifier needs labels", path)
		}
	case ClassifierHTTP:
		if cfg.URL == "" {
			return fmt.Errorf("%s: http classifier needs url", path)
		}
	case ClassifierRouted:
		if cfg.Router == nil {
			return fmt.Errorf("%s: routed classifier needs router", path)
		}
		if err := validateClassifier(path+" router", *cfg.Router); err != nil {
			return err
		}
		if len(cfg.Routes) == 0 {
			return fmt.Errorf("%s: routed classifier needs routes", path)
		}
		for category, route := range cfg.Routes {
			if err := validateClassifier(path+" route "+category, route); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%s: unknown kind %q", path, cfg.Kind)
	}

	return nil
}
