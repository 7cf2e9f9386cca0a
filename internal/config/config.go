package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	DB        DBConfig        `mapstructure:"db"`
	Log       LogConfig       `mapstructure:"log"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Sitemap   SitemapConfig   `mapstructure:"sitemap"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Port    string    `mapstructure:"port"`
	BaseURL string    `mapstructure:"base_url"`
	TLS     TLSConfig `mapstructure:"tls"`
}

// TLSConfig holds TLS-specific configuration.
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
}

// DBConfig holds the listing store configuration.
// URL is the store endpoint: a go-sql-driver DSN for mysql, a file path for sqlite.
// Key is the access key presented to the hosted store.
type DBConfig struct {
	Driver       string `mapstructure:"driver"`
	URL          string `mapstructure:"url"`
	Key          string `mapstructure:"key"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // e.g., "debug", "info", "warn", "error"
	Format string `mapstructure:"format"` // e.g., "json", "console"
}

// CacheConfig holds configuration for the SQLite response cache.
type CacheConfig struct {
	FilePath   string        `mapstructure:"file_path"`
	SitemapTTL time.Duration `mapstructure:"sitemap_ttl"`
}

// TelemetryConfig sizes the background counter/analytics dispatcher.
type TelemetryConfig struct {
	Workers   int `mapstructure:"workers"`
	QueueSize int `mapstructure:"queue_size"`
}

// SitemapConfig holds the locales the sitemap is generated for.
type SitemapConfig struct {
	Locales []string `mapstructure:"locales"`
}

// CORSConfig holds the allowed origins for the JSON API.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig limits analytics event submissions per client.
type RateLimitConfig struct {
	EventsPerSecond float64 `mapstructure:"events_per_second"`
	Burst           int     `mapstructure:"burst"`
}

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

var (
	ErrMissingStoreURL = errors.New("store url is not set (MCPDIR_DB_URL)")
	ErrMissingStoreKey = errors.New("store access key is not set (MCPDIR_DB_KEY)")
	ErrUnknownDriver   = errors.New("unsupported store driver")
)

// LoadConfig reads configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("db.driver", DriverMySQL)
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("cache.file_path", "cache.db")
	v.SetDefault("cache.sitemap_ttl", time.Hour)
	v.SetDefault("telemetry.workers", 2)
	v.SetDefault("telemetry.queue_size", 1024)
	v.SetDefault("sitemap.locales", []string{"en"})
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("ratelimit.events_per_second", 5.0)
	v.SetDefault("ratelimit.burst", 20)

	// Set up viper to read from config file
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/mcp-directory/")
	v.AddConfigPath("$HOME/.mcp-directory")

	// Attempt to read the config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return nil, err
		}
		// Config file not found; proceed with defaults and env vars
	}

	// Set up viper to read from environment variables
	v.SetEnvPrefix("MCPDIR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about.
	for _, key := range []string{"db.url", "db.key"} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate reports configuration the service cannot start without.
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case DriverMySQL, DriverSQLite:
	default:
		return ErrUnknownDriver
	}
	if c.DB.URL == "" {
		return ErrMissingStoreURL
	}
	// The local sqlite file has no credentials.
	if c.DB.Driver == DriverMySQL && c.DB.Key == "" {
		return ErrMissingStoreKey
	}
	return nil
}
