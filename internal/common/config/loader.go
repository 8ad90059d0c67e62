// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultSearchRadius = 5.0
	DefaultTopK         = 5
	// One year, the lifetime of the session cookie.
	DefaultCookieMaxAge = 31556952
)

func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	// APP_LLM_API_KEY style overrides
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars replaces ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills secrets from well-known variables when the file left them empty.
func overrideEmptyConfig(cfg *Config) {
	if cfg.LLM.APIKey == "" {
		if val := os.Getenv("LLM_API_KEY"); val != "" {
			cfg.LLM.APIKey = val
		} else if val := os.Getenv("GEMINI_API_KEY"); val != "" {
			cfg.LLM.APIKey = val
		}
	}
	if cfg.Embedding.APIKey == "" {
		if val := os.Getenv("EMBEDDING_API_KEY"); val != "" {
			cfg.Embedding.APIKey = val
		} else if val := os.Getenv("GEMINI_API_KEY"); val != "" {
			cfg.Embedding.APIKey = val
		}
	}
	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
	if cfg.Database.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Database.Redis.Password = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "ordering-agent"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8000"
	}
	if cfg.Server.CookieName == "" {
		cfg.Server.CookieName = "user_id"
	}
	if cfg.Server.CookieMaxAge == 0 {
		cfg.Server.CookieMaxAge = DefaultCookieMaxAge
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 60000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30000
	}

	if cfg.Session.Backend == "" {
		cfg.Session.Backend = "memory"
	}
	if cfg.Session.KeyPrefix == "" {
		cfg.Session.KeyPrefix = "session:"
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}
	if len(cfg.Database.Elasticsearch.Addresses) == 0 && cfg.Database.Elasticsearch.URL != "" {
		cfg.Database.Elasticsearch.Addresses = []string{cfg.Database.Elasticsearch.URL}
	}

	if cfg.Catalog.Backend == "" {
		cfg.Catalog.Backend = "file"
	}
	if cfg.Catalog.FilePath == "" {
		cfg.Catalog.FilePath = "data/catalog.json"
	}
	if cfg.Catalog.VenueIndex == "" {
		cfg.Catalog.VenueIndex = "venues"
	}
	if cfg.Catalog.MenuIndex == "" {
		cfg.Catalog.MenuIndex = "menus"
	}
	if cfg.Catalog.SearchRadius == 0 {
		cfg.Catalog.SearchRadius = DefaultSearchRadius
	}
	if cfg.Catalog.FetchConcurrency == 0 {
		cfg.Catalog.FetchConcurrency = 8
	}
	if cfg.Catalog.Timeout == 0 {
		cfg.Catalog.Timeout = 10000
	}

	if cfg.Orders.Backend == "" {
		cfg.Orders.Backend = "file"
	}
	if cfg.Orders.FilePath == "" {
		cfg.Orders.FilePath = "tmp/orders.json"
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "genai"
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 30000
	}

	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "http"
	}
	if cfg.Embedding.TaskType == "" {
		cfg.Embedding.TaskType = "SEMANTIC_SIMILARITY"
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 15000
	}
	if cfg.Embedding.Concurrency == 0 {
		cfg.Embedding.Concurrency = 4
	}
	if cfg.Embedding.Cache.TTL == 0 {
		cfg.Embedding.Cache.TTL = 86400
	}

	if cfg.Agent.TopK == 0 {
		cfg.Agent.TopK = DefaultTopK
	}
	if cfg.Agent.StepTimeout == 0 {
		cfg.Agent.StepTimeout = 45000
	}

	if cfg.Notifications.Region == "" {
		cfg.Notifications.Region = "us-east-1"
	}

	if cfg.Camunda.FulfillmentProcess == "" {
		cfg.Camunda.FulfillmentProcess = "order-fulfillment"
	}
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 5
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 10000
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	switch cfg.Session.Backend {
	case "memory":
	case "redis":
		if cfg.Database.Redis.Address == "" {
			return fmt.Errorf("database.redis.address is required for the redis session backend")
		}
	default:
		return fmt.Errorf("unknown session.backend %q", cfg.Session.Backend)
	}

	switch cfg.Catalog.Backend {
	case "file":
		if cfg.Catalog.FilePath == "" {
			return fmt.Errorf("catalog.file_path is required")
		}
	case "elasticsearch":
		if cfg.Database.Elasticsearch.GetURL() == "" {
			return fmt.Errorf("database.elasticsearch.addresses or url is required")
		}
	default:
		return fmt.Errorf("unknown catalog.backend %q", cfg.Catalog.Backend)
	}

	switch cfg.Orders.Backend {
	case "file":
	case "postgres":
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
		if cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required")
		}
	default:
		return fmt.Errorf("unknown orders.backend %q", cfg.Orders.Backend)
	}

	switch cfg.LLM.Provider {
	case "genai":
		if cfg.LLM.BaseURL == "" {
			return fmt.Errorf("llm.base_url is required for the genai provider")
		}
	case "gemini", "ark":
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("llm.api_key is required for the %s provider", cfg.LLM.Provider)
		}
	default:
		return fmt.Errorf("unknown llm.provider %q", cfg.LLM.Provider)
	}

	switch cfg.Embedding.Provider {
	case "http":
		if cfg.Embedding.BaseURL == "" {
			return fmt.Errorf("embedding.base_url is required for the http provider")
		}
	case "gemini":
		if cfg.Embedding.APIKey == "" {
			return fmt.Errorf("embedding.api_key is required for the gemini provider")
		}
	default:
		return fmt.Errorf("unknown embedding.provider %q", cfg.Embedding.Provider)
	}
	if cfg.Embedding.Cache.Enabled && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required when embedding.cache is enabled")
	}

	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}
	if cfg.Notifications.SNS.Enabled && cfg.Notifications.SNS.TopicARN == "" {
		return fmt.Errorf("notifications.sns.topic_arn is required")
	}
	if cfg.Notifications.SES.Enabled && (cfg.Notifications.SES.FromEmail == "" || cfg.Notifications.SES.ToEmail == "") {
		return fmt.Errorf("notifications.ses.from_email and to_email are required")
	}
	if cfg.Catalog.SearchRadius < 0 {
		return fmt.Errorf("catalog.search_radius must not be negative")
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
