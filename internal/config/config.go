package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env if present; silent no-op otherwise.
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment
// variables.
type Config struct {
	App       AppConfig
	Server    ServerConfig
	OFF       OFFConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	History   HistoryConfig
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"nutriscan"`
	Environment string `envconfig:"APP_ENV" default:"production"`
	AuthToken   string `envconfig:"AUTH_TOKEN" default:"super-secret-token"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// OFFConfig holds Open Food Facts API settings.
type OFFConfig struct {
	BaseURL   string        `envconfig:"OFF_BASE_URL" default:"https://world.openfoodfacts.org/api/v0/product"`
	UserAgent string        `envconfig:"OFF_USER_AGENT" default:"CampusWell NutriScan/1.0 (https://github.com/campuswell/nutriscan)"`
	Timeout   time.Duration `envconfig:"OFF_TIMEOUT" default:"8s"`
}

// RateLimitConfig bounds outbound lookups to the API.
type RateLimitConfig struct {
	Limit  int           `envconfig:"RATE_LIMIT" default:"10"`
	Window time.Duration `envconfig:"RATE_WINDOW" default:"1s"`
}

// CacheConfig holds result cache settings. Type selects the backing store:
// "memory" for a single instance, "redis" for shared deployments.
type CacheConfig struct {
	Type      string        `envconfig:"CACHE_TYPE" default:"memory"`
	Freshness time.Duration `envconfig:"CACHE_FRESHNESS" default:"30m"`
	Retention time.Duration `envconfig:"CACHE_RETENTION" default:"1h"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// HistoryConfig holds scan history settings.
type HistoryConfig struct {
	Enabled bool   `envconfig:"HISTORY_ENABLED" default:"true"`
	Path    string `envconfig:"HISTORY_PATH" default:"./data/history.db"`
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true when running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
