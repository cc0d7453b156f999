package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/tthanhhau/shopsearch/pkg/config"
)

// Backend selection modes. Auto probes the search engine at startup and
// falls back to the catalog store when it is unreachable.
const (
	BackendAuto          = "auto"
	BackendElasticsearch = "elasticsearch"
	BackendFallback      = "fallback"
)

// Config holds all configuration for the search service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"SEARCH_HTTP_PORT" envDefault:"8010"`

	// Catalog document store
	MongoURI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"shop"`

	// Elasticsearch
	ElasticsearchURL   string `env:"ELASTICSEARCH_URL" envDefault:"http://localhost:9200"`
	ElasticsearchIndex string `env:"ELASTICSEARCH_INDEX" envDefault:"shop_products"`

	// Backend selection (auto, elasticsearch, or fallback)
	SearchBackend string `env:"SEARCH_BACKEND" envDefault:"auto"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Redis cache for facets and suggestions
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL      time.Duration `env:"SEARCH_CACHE_TTL" envDefault:"60s"`

	// JWT secret for the admin sync endpoint
	JWTSecret string `env:"JWT_SECRET" envDefault:"dev-secret"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load search config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	switch c.SearchBackend {
	case BackendAuto, BackendElasticsearch, BackendFallback:
	default:
		return fmt.Errorf("invalid search backend %q: must be auto, elasticsearch, or fallback", c.SearchBackend)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("invalid cache TTL: %s", c.CacheTTL)
	}
	return nil
}
