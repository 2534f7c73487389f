package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig
	Spoonacular SpoonacularConfig
	Search      SearchConfig
	Session     SessionConfig
	Storage     StorageConfig
	RateLimit   RateLimitConfig
	Log         LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SpoonacularConfig holds recipe API configuration
type SpoonacularConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	MaxRetries        int           `mapstructure:"max_retries"`
}

// SearchConfig holds result pagination settings
type SearchConfig struct {
	PageSize int `mapstructure:"page_size"`
}

// SessionConfig holds per-session behavior toggles
type SessionConfig struct {
	PersistFavorites bool          `mapstructure:"persist_favorites"`
	IdleTTL          time.Duration `mapstructure:"idle_ttl"` // 0 keeps sessions until closed
	SweepInterval    time.Duration `mapstructure:"sweep_interval"`
}

// StorageConfig selects the key-value backend for persisted lists
type StorageConfig struct {
	Type   string `mapstructure:"type"` // "memory", "file", "sqlite" or "s3"
	Path   string `mapstructure:"path"` // directory for "file", database file for "sqlite"
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
	Region string `mapstructure:"region"`
}

// RateLimitConfig holds inbound rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" or "json"
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/mealquest/")

	v.SetEnvPrefix("MEALQUEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; env vars and defaults are enough
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads a .env file from the working directory if present.
// Variables already set in the environment win over the file.
func loadEnvFile() error {
	err := godotenv.Load()
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})

	// AutomaticEnv only resolves keys viper already knows about
	v.SetDefault("spoonacular.api_key", "")
	v.SetDefault("spoonacular.base_url", "https://api.spoonacular.com")
	v.SetDefault("spoonacular.timeout", "15s")
	v.SetDefault("spoonacular.requests_per_second", 1.0)
	v.SetDefault("spoonacular.burst", 5)
	v.SetDefault("spoonacular.max_retries", 3)

	v.SetDefault("search.page_size", 9)

	v.SetDefault("session.persist_favorites", false)
	v.SetDefault("session.idle_ttl", "30m")
	v.SetDefault("session.sweep_interval", "1m")

	v.SetDefault("storage.type", "file")
	v.SetDefault("storage.path", "./data")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.prefix", "mealquest/")
	v.SetDefault("storage.region", "us-east-1")

	v.SetDefault("ratelimit.per_ip", 120)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Spoonacular.APIKey == "" {
		return fmt.Errorf("Spoonacular API key is required (set MEALQUEST_SPOONACULAR_API_KEY)")
	}

	if config.Search.PageSize <= 0 {
		return fmt.Errorf("search page size must be positive, got: %d", config.Search.PageSize)
	}

	if config.Session.IdleTTL < 0 {
		return fmt.Errorf("session idle TTL must not be negative, got: %s", config.Session.IdleTTL)
	}
	if config.Session.IdleTTL > 0 && config.Session.SweepInterval <= 0 {
		return fmt.Errorf("session sweep interval must be positive, got: %s", config.Session.SweepInterval)
	}

	switch config.Storage.Type {
	case "memory":
	case "file", "sqlite":
		if config.Storage.Path == "" {
			return fmt.Errorf("storage path is required when storage type is '%s'", config.Storage.Type)
		}
	case "s3":
		if config.Storage.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when storage type is 's3'")
		}
	default:
		return fmt.Errorf("storage type must be 'memory', 'file', 'sqlite' or 's3', got: %s", config.Storage.Type)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("log format must be 'text' or 'json', got: %s", config.Log.Format)
	}

	return nil
}
