package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DatabaseURL string `env:"DATABASE_URL" envDefault:"sqlite://catalogsync.db"`
	TablePrefix string `env:"DB_TABLE_PREFIX"`

	// Redis
	RedisURL    string        `env:"REDIS_URL"`
	SyncLockTTL time.Duration `env:"SYNC_LOCK_TTL" envDefault:"10m"`

	// Kafka
	KafkaBrokers       []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaEventsTopic   string   `env:"KAFKA_SYNC_EVENTS_TOPIC" envDefault:"catalog-sync-events"`
	KafkaRequestsTopic string   `env:"KAFKA_SYNC_REQUESTS_TOPIC" envDefault:"catalog-sync-requests"`

	// API Configuration
	APIPort        string   `env:"API_PORT" envDefault:"8080"`
	APIHost        string   `env:"API_HOST" envDefault:"0.0.0.0"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// Shopify
	FetchTimeout       time.Duration `env:"FETCH_TIMEOUT" envDefault:"30s"`
	ShopifyAPIURL      string        `env:"SHOPIFY_API_URL"`
	ShopifyAccessToken string        `env:"SHOPIFY_ACCESS_TOKEN"`

	// Install-time sync settings
	CatalogTable string `env:"CATALOG_TABLE" envDefault:"shopify_products"`
	SyncSchedule string `env:"SYNC_SCHEDULE" envDefault:"five_minutes"`

	// Environment
	Env      string `env:"ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func Load() (*Config, error) {
	// Load .env file
	godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	return cfg, nil
}

// KafkaEnabled reports whether any broker is configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0 && c.KafkaBrokers[0] != ""
}
