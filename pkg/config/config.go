// Package config loads photo fetcher configuration from an optional YAML
// file, a .env file and PHOTO_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. PHOTO_API_BASE_URL.
const EnvPrefix = "PHOTO"

// Store drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Store     StoreConfig     `mapstructure:"store"`
	Favorites FavoritesConfig `mapstructure:"favorites"`
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
}

type APIConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	UserAgent       string        `mapstructure:"user_agent"`
	PageSize        int           `mapstructure:"page_size"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ResourceTimeout time.Duration `mapstructure:"resource_timeout"`
	RateLimit       float64       `mapstructure:"rate_limit"`
	RateBurst       int           `mapstructure:"rate_burst"`
	// MaxAttempts counts the first attempt; 1 disables retries.
	MaxAttempts int `mapstructure:"max_attempts"`
}

type StoreConfig struct {
	Driver     string        `mapstructure:"driver"`
	RedisAddr  string        `mapstructure:"redis_addr"`
	RedisDB    int           `mapstructure:"redis_db"`
	SQLitePath string        `mapstructure:"sqlite_path"`
	Feed       string        `mapstructure:"feed"`
	TTL        time.Duration `mapstructure:"ttl"`
}

type FavoritesConfig struct {
	Key string `mapstructure:"key"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CatalogMaxPages int           `mapstructure:"catalog_max_pages"`
}

// Load reads configuration. An empty configPath searches ./configs and the
// working directory for config.yaml; a missing file is not an error.
func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "https://picsum.photos")
	v.SetDefault("api.user_agent", "photo-fetcher/0.1.0")
	v.SetDefault("api.page_size", 30)
	v.SetDefault("api.request_timeout", 30*time.Second)
	v.SetDefault("api.resource_timeout", 60*time.Second)
	v.SetDefault("api.rate_limit", 10.0)
	v.SetDefault("api.rate_burst", 5)
	v.SetDefault("api.max_attempts", 1)
	v.SetDefault("store.driver", DriverMemory)
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.redis_db", 0)
	v.SetDefault("store.sqlite_path", "./data/photos.db")
	v.SetDefault("store.feed", "picsum")
	v.SetDefault("store.ttl", time.Duration(0))
	v.SetDefault("favorites.key", "favoritePhotos")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.catalog_max_pages", 10)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.API.BaseURL == "":
		return errors.New("api.base_url must not be empty")
	case c.API.PageSize < 1:
		return fmt.Errorf("api.page_size must be positive, got %d", c.API.PageSize)
	case c.API.RequestTimeout <= 0:
		return fmt.Errorf("api.request_timeout must be positive, got %v", c.API.RequestTimeout)
	case c.API.ResourceTimeout <= 0:
		return fmt.Errorf("api.resource_timeout must be positive, got %v", c.API.ResourceTimeout)
	case c.API.RateLimit < 0:
		return fmt.Errorf("api.rate_limit must not be negative, got %v", c.API.RateLimit)
	case c.API.MaxAttempts < 1:
		return fmt.Errorf("api.max_attempts must be at least 1, got %d", c.API.MaxAttempts)
	case c.Store.TTL < 0:
		return fmt.Errorf("store.ttl must not be negative, got %v", c.Store.TTL)
	case c.Server.Port < 1 || c.Server.Port > 65535:
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	case c.Server.CatalogMaxPages < 1:
		return fmt.Errorf("server.catalog_max_pages must be positive, got %d", c.Server.CatalogMaxPages)
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverRedis:
		if c.Store.RedisAddr == "" {
			return errors.New("store.redis_addr is required for the redis driver")
		}
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("store.sqlite_path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}
	return nil
}
