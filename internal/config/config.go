package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535

	// DefaultSheetName is the sheet holding job rows when none is configured
	DefaultSheetName = "Job"
)

var ErrMissingRequired = errors.New("missing required configuration")

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Sheets   SheetsConfig   `yaml:"sheets"`
	Auth     AuthConfig     `yaml:"auth"`
	CORS     CORSConfig     `yaml:"cors"`
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
	App      AppConfig      `yaml:"app"`
	Worker   WorkerConfig   `yaml:"worker"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// SheetsConfig holds the Google Sheets job store configuration
type SheetsConfig struct {
	SpreadsheetID      string        `yaml:"spreadsheet_id"`
	SheetName          string        `yaml:"sheet_name"`
	ServiceAccountKey  string        `yaml:"service_account_key"`  // inline JSON key
	ServiceAccountFile string        `yaml:"service_account_file"` // path to a JSON key
	Endpoint           string        `yaml:"endpoint"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	RetryAttempts      int           `yaml:"retry_attempts"`
	RetryInterval      time.Duration `yaml:"retry_interval"`
	BackoffMultiplier  float64       `yaml:"backoff_multiplier"`
}

// AuthConfig holds the shared password gate and session settings
type AuthConfig struct {
	Password       string          `yaml:"password"`
	PasswordHash   string          `yaml:"password_hash"`
	JWTSecret      string          `yaml:"jwt_secret"`
	TokenTTL       time.Duration   `yaml:"token_ttl"`
	CookieName     string          `yaml:"cookie_name"`
	CookieDomain   string          `yaml:"cookie_domain"`
	CookieSecure   bool            `yaml:"cookie_secure"`
	LoginRateLimit RateLimitConfig `yaml:"login_rate_limit"`
}

// RateLimitConfig holds per-IP token bucket settings
type RateLimitConfig struct {
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	Burst             int           `yaml:"burst"`
	IdleTTL           time.Duration `yaml:"idle_ttl"`
}

// CORSConfig lists the browser origins allowed to call the API
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Enabled         bool          `yaml:"enabled"`
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
	ConnectRetries  int           `yaml:"connect_retries"`
	RetryInterval   time.Duration `yaml:"retry_interval"`
}

// RabbitMQConfig holds RabbitMQ connection and exchange/queue configuration
type RabbitMQConfig struct {
	Enabled    bool             `yaml:"enabled"`
	Host       string           `yaml:"host"`
	Port       int              `yaml:"port"`
	User       string           `yaml:"user"`
	Password   string           `yaml:"password"`
	VHost      string           `yaml:"vhost"`
	Exchange   ExchangeConfig   `yaml:"exchange"`
	Queue      QueueConfig      `yaml:"queue"`
	BindingKey string           `yaml:"binding_key"`
	Connection ConnectionConfig `yaml:"connection"`
	Publish    PublishConfig    `yaml:"publish"`
	Consumer   ConsumerConfig   `yaml:"consumer"`
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

// PublishConfig holds RabbitMQ publish retry settings
type PublishConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
	Timeout           time.Duration `yaml:"timeout"`
}

// ConsumerConfig holds RabbitMQ consumer settings
type ConsumerConfig struct {
	PrefetchCount int `yaml:"prefetch_count"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
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

// WorkerConfig holds worker service configuration
type WorkerConfig struct {
	Concurrency     int           `yaml:"concurrency"`
	EventTimeout    time.Duration `yaml:"event_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// envOverrides are secrets and deployment settings read from the
// environment. Set values replace the ones from the YAML file.
type envOverrides struct {
	SpreadsheetID      string `envconfig:"GOOGLE_SPREADSHEET_ID"`
	SheetName          string `envconfig:"GOOGLE_SHEET_NAME"`
	ServiceAccountKey  string `envconfig:"GOOGLE_SERVICE_ACCOUNT_KEY"`
	ServiceAccountFile string `envconfig:"GOOGLE_SERVICE_ACCOUNT_FILE"`
	AuthPassword       string `envconfig:"AUTH_PASSWORD"`
	AuthPasswordHash   string `envconfig:"AUTH_PASSWORD_HASH"`
	AuthJWTSecret      string `envconfig:"AUTH_JWT_SECRET"`
	DatabasePassword   string `envconfig:"DATABASE_PASSWORD"`
	RabbitMQPassword   string `envconfig:"RABBITMQ_PASSWORD"`
}

// Load reads and parses the configuration file, then applies environment
// overrides and defaults
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.applyEnv(); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	config.applyDefaults()

	return &config, nil
}

func (c *Config) applyEnv() error {
	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return err
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	set(&c.Sheets.SpreadsheetID, env.SpreadsheetID)
	set(&c.Sheets.SheetName, env.SheetName)
	set(&c.Sheets.ServiceAccountKey, env.ServiceAccountKey)
	set(&c.Sheets.ServiceAccountFile, env.ServiceAccountFile)
	set(&c.Auth.Password, env.AuthPassword)
	set(&c.Auth.PasswordHash, env.AuthPasswordHash)
	set(&c.Auth.JWTSecret, env.AuthJWTSecret)
	set(&c.Database.Password, env.DatabasePassword)
	set(&c.RabbitMQ.Password, env.RabbitMQPassword)

	return nil
}

func (c *Config) applyDefaults() {
	c.Sheets.SheetName = strings.TrimSpace(c.Sheets.SheetName)
	if c.Sheets.SheetName == "" {
		c.Sheets.SheetName = DefaultSheetName
	}
	if c.Sheets.RequestTimeout <= 0 {
		c.Sheets.RequestTimeout = 15 * time.Second
	}
	if c.Sheets.RetryAttempts <= 0 {
		c.Sheets.RetryAttempts = 3
	}
	if c.Sheets.RetryInterval <= 0 {
		c.Sheets.RetryInterval = 500 * time.Millisecond
	}
	if c.Sheets.BackoffMultiplier < 1 {
		c.Sheets.BackoffMultiplier = 2.0
	}

	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = 12 * time.Hour
	}
	if c.Auth.LoginRateLimit.RequestsPerMinute <= 0 {
		c.Auth.LoginRateLimit.RequestsPerMinute = 10
	}
	if c.Auth.LoginRateLimit.Burst <= 0 {
		c.Auth.LoginRateLimit.Burst = 5
	}
	if c.Auth.LoginRateLimit.IdleTTL <= 0 {
		c.Auth.LoginRateLimit.IdleTTL = 5 * time.Minute
	}

	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}

	if c.Database.ConnectRetries <= 0 {
		c.Database.ConnectRetries = 1
	}
	if c.Database.RetryInterval <= 0 {
		c.Database.RetryInterval = 2 * time.Second
	}

	if c.RabbitMQ.Exchange.Type == "" {
		c.RabbitMQ.Exchange.Type = "topic"
	}
	if c.RabbitMQ.BindingKey == "" {
		c.RabbitMQ.BindingKey = "job.*"
	}
	if c.RabbitMQ.Connection.RetryAttempts <= 0 {
		c.RabbitMQ.Connection.RetryAttempts = 1
	}
	if c.RabbitMQ.Publish.Timeout <= 0 {
		c.RabbitMQ.Publish.Timeout = 5 * time.Second
	}
	if c.RabbitMQ.Consumer.PrefetchCount <= 0 {
		c.RabbitMQ.Consumer.PrefetchCount = 10
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// ValidateAPIConfig checks the settings the API service needs
func (c *Config) ValidateAPIConfig() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	if c.Sheets.SpreadsheetID == "" {
		return fmt.Errorf("%w: sheets spreadsheet_id (GOOGLE_SPREADSHEET_ID)", ErrMissingRequired)
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("%w: auth jwt_secret (AUTH_JWT_SECRET)", ErrMissingRequired)
	}

	if c.Auth.Password == "" && c.Auth.PasswordHash == "" {
		return fmt.Errorf("%w: auth password or password_hash (AUTH_PASSWORD, AUTH_PASSWORD_HASH)", ErrMissingRequired)
	}

	if c.Database.Enabled {
		if err := c.Database.validate(); err != nil {
			return err
		}
	}

	if c.RabbitMQ.Enabled {
		if err := c.RabbitMQ.validate(false); err != nil {
			return err
		}
	}

	return nil
}

// ValidateWorkerConfig checks the settings the worker service needs. The
// worker always uses both the database and RabbitMQ.
func (c *Config) ValidateWorkerConfig() error {
	if err := c.Database.validate(); err != nil {
		return err
	}

	if err := c.RabbitMQ.validate(true); err != nil {
		return err
	}

	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("worker concurrency must be greater than 0")
	}

	if c.Worker.EventTimeout <= 0 {
		return fmt.Errorf("worker event_timeout must be greater than 0")
	}

	if c.Worker.ShutdownTimeout <= 0 {
		return fmt.Errorf("worker shutdown_timeout must be greater than 0")
	}

	return nil
}

func (d DatabaseConfig) validate() error {
	if d.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if d.Port < MinPort || d.Port > MaxPort {
		return fmt.Errorf("invalid database port: %d (must be between %d and %d)", d.Port, MinPort, MaxPort)
	}

	if d.Database == "" {
		return fmt.Errorf("database name is required")
	}

	return nil
}

func (r RabbitMQConfig) validate(needQueue bool) error {
	if r.Host == "" {
		return fmt.Errorf("rabbitmq host is required")
	}

	if r.Port < MinPort || r.Port > MaxPort {
		return fmt.Errorf("invalid rabbitmq port: %d (must be between %d and %d)", r.Port, MinPort, MaxPort)
	}

	if r.Exchange.Name == "" {
		return fmt.Errorf("rabbitmq exchange name is required")
	}

	if needQueue && r.Queue.Name == "" {
		return fmt.Errorf("rabbitmq queue name is required")
	}

	return nil
}
