// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Session       SessionConfig      `mapstructure:"session"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Catalog       CatalogConfig      `mapstructure:"catalog"`
	Orders        OrdersConfig       `mapstructure:"orders"`
	LLM           LLMConfig          `mapstructure:"llm"`
	Embedding     EmbeddingConfig    `mapstructure:"embedding"`
	Agent         AgentConfig        `mapstructure:"agent"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Camunda       CamundaConfig      `mapstructure:"camunda"`
	Tracing       TracingConfig      `mapstructure:"tracing"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	CookieName      string `mapstructure:"cookie_name"`
	CookieMaxAge    int    `mapstructure:"cookie_max_age"` // seconds
	AllowedOrigin   string `mapstructure:"allowed_origin"`
	RequestTimeout  int    `mapstructure:"request_timeout"`  // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

// SessionConfig selects the session repository.
type SessionConfig struct {
	Backend   string `mapstructure:"backend"` // memory | redis
	KeyPrefix string `mapstructure:"key_prefix"`
	TTL       int    `mapstructure:"ttl"` // seconds, 0 keeps sessions forever
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- Domain Sections ---

// CatalogConfig holds settings for the venue/menu provider.
type CatalogConfig struct {
	Backend          string  `mapstructure:"backend"` // file | elasticsearch
	FilePath         string  `mapstructure:"file_path"`
	VenueIndex       string  `mapstructure:"venue_index"`
	MenuIndex        string  `mapstructure:"menu_index"`
	SearchRadius     float64 `mapstructure:"search_radius"`
	FetchConcurrency int     `mapstructure:"fetch_concurrency"`
	Timeout          int     `mapstructure:"timeout"` // milliseconds
}

// OrdersConfig selects where booked orders are kept.
type OrdersConfig struct {
	Backend  string `mapstructure:"backend"` // file | postgres
	FilePath string `mapstructure:"file_path"`
}

// LLMConfig holds settings for the text-generation collaborator.
type LLMConfig struct {
	Provider   string `mapstructure:"provider"` // genai | gemini | ark
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	Timeout    int    `mapstructure:"timeout"` // milliseconds
	MaxRetries int    `mapstructure:"max_retries"`
}

// EmbeddingConfig holds settings for the embedding collaborator.
type EmbeddingConfig struct {
	Provider    string `mapstructure:"provider"` // gemini | http
	BaseURL     string `mapstructure:"base_url"`
	APIKey      string `mapstructure:"api_key"`
	Model       string `mapstructure:"model"`
	TaskType    string `mapstructure:"task_type"`
	Timeout     int    `mapstructure:"timeout"` // milliseconds
	Concurrency int    `mapstructure:"concurrency"`
	Cache       struct {
		Enabled bool `mapstructure:"enabled"`
		TTL     int  `mapstructure:"ttl"` // seconds
	} `mapstructure:"cache"`
}

// AgentConfig tunes the conversation engine.
type AgentConfig struct {
	TopK        int `mapstructure:"top_k"`
	StepTimeout int `mapstructure:"step_timeout"` // milliseconds
}

// NotificationConfig holds settings for the order notifier.
type NotificationConfig struct {
	Region string `mapstructure:"region"`
	SNS    struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
	SES struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
		ToEmail   string `mapstructure:"to_email"`
	} `mapstructure:"ses"`
}

type CamundaConfig struct {
	Enabled             bool   `mapstructure:"enabled"`
	BrokerAddress       string `mapstructure:"broker_address"`
	FulfillmentProcess  string `mapstructure:"fulfillment_process"`
	MaxJobsActive       int    `mapstructure:"max_jobs_active"`
	Timeout             int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout      int    `mapstructure:"request_timeout"` // milliseconds
	NotifyWorkerEnabled bool   `mapstructure:"notify_worker_enabled"`
}

// TracingConfig controls the Jaeger exporter.
type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
