package config

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"

	"officeflow-api/internal/store"
)

// Store backends
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Config holds all application configuration
type Config struct {
	// Application
	AppEnv   string `env:"APP_ENV" envDefault:"production"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Version  string `env:"SERVICE_VERSION" envDefault:"dev"`

	// Store
	StoreBackend        string `env:"STORE_BACKEND" envDefault:"memory"`
	StoreKeyScheme      string `env:"STORE_KEY_SCHEME" envDefault:"collection"`
	StoreKeyPrefix      string `env:"STORE_KEY_PREFIX"`
	CommitFailurePolicy string `env:"COMMIT_FAILURE_POLICY" envDefault:"rollback"`
	RoleCacheSize       int    `env:"ROLE_CACHE_SIZE" envDefault:"128"`
	BcryptCost          int    `env:"BCRYPT_COST" envDefault:"12"`

	// Database
	DatabaseURL string `env:"DATABASE_URL"`

	// SQLite
	SQLitePath string `env:"SQLITE_PATH" envDefault:"officeflow.db"`

	// Redis
	RedisURL string `env:"REDIS_URL"`

	// JWT Configuration
	JWTHS256Secret      string `env:"JWT_HS256_SECRET"`     // Base64-encoded HMAC secret
	JWTRS256PublicKey   string `env:"JWT_RS256_PUBLIC_KEY"` // Optional PEM public key for RS256 issuers
	JWTAllowedIssuers   string `env:"JWT_ALLOWED_ISSUERS"`  // CSV list of allowed issuers
	JWTAudience         string `env:"JWT_AUDIENCE"`         // Expected JWT audience
	JWTClockSkewSeconds int    `env:"JWT_CLOCK_SKEW_SECONDS" envDefault:"60"`

	// Legacy JWT Configuration (deprecated)
	JWTIssuer string `env:"JWT_ISSUER"` // Deprecated: use JWT_ALLOWED_ISSUERS (CSV)

	// OpenTelemetry
	OTELEnabled          bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELExporterEndpoint string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	OTELServiceName      string  `env:"SERVICE_NAME" envDefault:"officeflow-api"`
	OTELSamplingRatio    float64 `env:"OTEL_SAMPLING_RATIO" envDefault:"0.1"`

	// Metrics
	MetricsToken string `env:"METRICS_TOKEN"`

	// Server
	Port string `env:"PORT" envDefault:"3002"`

	// Rate Limiting
	RateLimitPerActorPerMin int `env:"RATE_LIMIT_PER_ACTOR_PER_MIN" envDefault:"120"`
}

// StoreOptions maps the store settings onto store.Options.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		KeyScheme:    store.KeyScheme(c.StoreKeyScheme),
		KeyPrefix:    c.StoreKeyPrefix,
		CommitPolicy: store.CommitPolicy(c.CommitFailurePolicy),
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadStoreConfig loads configuration for commands that only touch the
// store (migrate, bootstrap, check). JWT settings are not required.
func LoadStoreConfig() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.ValidateStore(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate performs custom validation on the configuration
func (c *Config) Validate() error {
	if err := c.ValidateStore(); err != nil {
		return err
	}

	// Validate JWT_HS256_SECRET (must be valid Base64)
	if c.JWTHS256Secret == "" {
		return fmt.Errorf("JWT_HS256_SECRET is required")
	}
	if _, err := c.HS256Secret(); err != nil {
		return err
	}

	// Validate JWT_ALLOWED_ISSUERS (CSV list)
	if c.JWTAllowedIssuers == "" {
		// Fallback to legacy single issuer variable
		if c.JWTIssuer != "" {
			c.JWTAllowedIssuers = c.JWTIssuer
		} else {
			c.JWTAllowedIssuers = "officeflow-web" // default
		}
	}

	// Validate that parsed issuers list is not empty
	issuers := c.GetAllowedIssuers()
	if len(issuers) == 0 {
		return fmt.Errorf("JWT_ALLOWED_ISSUERS must contain at least one valid issuer")
	}

	if c.JWTAudience == "" {
		return fmt.Errorf("JWT_AUDIENCE is required")
	}

	if c.OTELSamplingRatio < 0 || c.OTELSamplingRatio > 1 {
		return fmt.Errorf("OTEL_SAMPLING_RATIO must be between 0 and 1")
	}

	if c.JWTClockSkewSeconds < 0 {
		return fmt.Errorf("JWT_CLOCK_SKEW_SECONDS must be non-negative")
	}

	if c.RateLimitPerActorPerMin <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_ACTOR_PER_MIN must be positive")
	}

	return nil
}

// ValidateStore checks the store and backend settings.
func (c *Config) ValidateStore() error {
	switch c.StoreBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when STORE_BACKEND=redis")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	case BackendSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("SQLITE_PATH is required when STORE_BACKEND=sqlite")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be one of memory, redis, postgres, sqlite (got %q)", c.StoreBackend)
	}

	if !store.KeyScheme(c.StoreKeyScheme).IsValid() {
		return fmt.Errorf("STORE_KEY_SCHEME must be collection or entity (got %q)", c.StoreKeyScheme)
	}

	if !store.CommitPolicy(c.CommitFailurePolicy).IsValid() {
		return fmt.Errorf("COMMIT_FAILURE_POLICY must be rollback or keep (got %q)", c.CommitFailurePolicy)
	}

	if c.RoleCacheSize < 0 {
		return fmt.Errorf("ROLE_CACHE_SIZE must be non-negative")
	}

	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31")
	}

	return nil
}

// HS256Secret decodes JWT_HS256_SECRET.
func (c *Config) HS256Secret() ([]byte, error) {
	secret, err := base64.StdEncoding.DecodeString(c.JWTHS256Secret)
	if err != nil {
		return nil, fmt.Errorf("JWT_HS256_SECRET must be valid base64: %w", err)
	}
	if len(secret) < 32 {
		return nil, fmt.Errorf("JWT_HS256_SECRET must decode to at least 32 bytes")
	}
	return secret, nil
}

// IsDev reports whether the service runs in a development environment.
func (c *Config) IsDev() bool {
	return c.AppEnv == "dev" || c.AppEnv == "development"
}

// GetAllowedIssuers returns the list of allowed JWT issuers
func (c *Config) GetAllowedIssuers() []string {
	issuers := strings.Split(c.JWTAllowedIssuers, ",")
	result := make([]string, 0, len(issuers))
	for _, issuer := range issuers {
		trimmed := strings.TrimSpace(issuer)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// TelemetryEnabled reports whether OTLP export is switched on and has a target.
func (c *Config) TelemetryEnabled() bool {
	return c.OTELEnabled && c.OTELExporterEndpoint != ""
}
