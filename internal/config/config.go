package config

import (
	"fmt"

	pkgconfig "github.com/debjit15/angrybolly/pkg/config"
)

// Config holds all configuration for the reviews service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"REVIEWS_HTTP_PORT" envDefault:"8007"`

	// Redis
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Submission policy
	AutoApprove     bool `env:"REVIEWS_AUTO_APPROVE" envDefault:"true"`
	DedupWindowHrs  int  `env:"REVIEWS_DEDUP_WINDOW_HOURS" envDefault:"24"`
	PageSize        int  `env:"REVIEWS_PAGE_SIZE" envDefault:"10"`
	CooldownMinutes int  `env:"DOWNLOADS_COOLDOWN_MINUTES" envDefault:"5"`
	RetentionHrs    int  `env:"RATE_LIMIT_RETENTION_HOURS" envDefault:"1"`

	// Secrets. The identity hash secret keys the one-way hashing of device
	// fingerprints and client IPs; changing it invalidates dedup history.
	IdentityHashSecret string `env:"IDENTITY_HASH_SECRET" envDefault:"dev-identity-secret"`
	AdminJWTSecret     string `env:"ADMIN_JWT_SECRET" envDefault:"dev-admin-secret"`

	// Edge throttle on write endpoints
	WriteRPS   int `env:"WRITE_RATE_LIMIT_RPS" envDefault:"5"`
	WriteBurst int `env:"WRITE_RATE_LIMIT_BURST" envDefault:"10"`

	// CORS
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Tracing
	TracingEnabled bool    `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint   string  `env:"OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TraceSampleRt  float64 `env:"TRACE_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load reviews config: %w", err)
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
	if c.PageSize < 1 {
		return fmt.Errorf("invalid page size: %d", c.PageSize)
	}
	if c.DedupWindowHrs < 1 {
		return fmt.Errorf("invalid dedup window: %d hours", c.DedupWindowHrs)
	}
	if c.CooldownMinutes < 1 {
		return fmt.Errorf("invalid download cooldown: %d minutes", c.CooldownMinutes)
	}
	if c.RetentionHrs*60 < c.CooldownMinutes {
		return fmt.Errorf("rate limit retention (%dh) shorter than cooldown (%dm)", c.RetentionHrs, c.CooldownMinutes)
	}
	return nil
}
