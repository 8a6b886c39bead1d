package config

import (
	"fmt"
	"net/url"

	pkgconfig "github.com/utafrali/storefront/pkg/config"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"STOREFRONT_HTTP_PORT" envDefault:"8080"`

	// Upstream shop API: requests go to {APIBase}/api/{APIPath}.
	APIBase string `env:"STOREFRONT_API_BASE" envDefault:"http://localhost:8090"`
	APIPath string `env:"STOREFRONT_API_PATH" envDefault:"demo"`

	// Upstream transport. Retries apply to reads only.
	HTTPTimeoutSeconds int `env:"STOREFRONT_HTTP_TIMEOUT_SECONDS" envDefault:"10"`
	HTTPMaxRetries     int `env:"STOREFRONT_HTTP_MAX_RETRIES" envDefault:"0"`

	// Circuit breaker settings for the shop API
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeout      int     `env:"CB_TIMEOUT_SECONDS" envDefault:"30"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// Edge
	RateLimitRPS       float64  `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst     int      `env:"RATE_LIMIT_BURST" envDefault:"40"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`

	// Number of recent notices kept for GET /api/v1/notices
	NoticeBuffer int `env:"NOTICE_BUFFER" envDefault:"50"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Pprof debug endpoints (IP allowlist in CIDR notation)
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.0/8,::1/128" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration invariants. pkgconfig.Load calls it.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if _, err := url.ParseRequestURI(c.APIBase); err != nil {
		return fmt.Errorf("invalid STOREFRONT_API_BASE %q: %w", c.APIBase, err)
	}
	if c.APIPath == "" {
		return fmt.Errorf("STOREFRONT_API_PATH is required")
	}
	if c.HTTPTimeoutSeconds < 1 {
		return fmt.Errorf("STOREFRONT_HTTP_TIMEOUT_SECONDS must be positive, got %d", c.HTTPTimeoutSeconds)
	}
	if c.HTTPMaxRetries < 0 {
		return fmt.Errorf("STOREFRONT_HTTP_MAX_RETRIES must not be negative, got %d", c.HTTPMaxRetries)
	}
	if c.CBFailureRatio <= 0 || c.CBFailureRatio > 1.0 {
		return fmt.Errorf("CB_FAILURE_RATIO must be in (0.0, 1.0], got %f", c.CBFailureRatio)
	}
	if c.NoticeBuffer < 1 {
		return fmt.Errorf("NOTICE_BUFFER must be positive, got %d", c.NoticeBuffer)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}
