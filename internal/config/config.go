package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/utafrali/ToolCatalog/pkg/config"
	"github.com/utafrali/ToolCatalog/pkg/database"
	"github.com/utafrali/ToolCatalog/pkg/tracing"
)

const (
	defaultJWTSecret = "change-this-to-a-secure-secret"

	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config holds all configuration for the catalog service.
type Config struct {
	Environment    string        `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	HTTPPort       int           `env:"HTTP_PORT" envDefault:"8080"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	StoreDriver    string        `env:"STORE_DRIVER" envDefault:"postgres"`

	// PostgreSQL
	PostgresHost    string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort    int           `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser    string        `env:"POSTGRES_USER" envDefault:"toolcatalog"`
	PostgresPass    string        `env:"POSTGRES_PASSWORD" envDefault:"toolcatalog_secret"`
	PostgresDB      string        `env:"POSTGRES_DB" envDefault:"toolcatalog"`
	PostgresSSL     string        `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	DBMaxConns      int32         `env:"DB_MAX_CONNS" envDefault:"20"`
	DBMinConns      int32         `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLife   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"30m"`
	DBMaxConnIdle   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"5m"`
	SlowQueryMillis int           `env:"LOG_SLOW_QUERY_MS" envDefault:"200"`

	// Redis
	RedisEnabled  bool          `env:"REDIS_ENABLED" envDefault:"true"`
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	ToolCacheTTL  time.Duration `env:"TOOL_CACHE_TTL" envDefault:"5m"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Auth
	JWTSecret          string        `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	JWTTokenExpiry     time.Duration `env:"JWT_TOKEN_EXPIRY" envDefault:"168h"`
	BcryptCost         int           `env:"BCRYPT_COST" envDefault:"12"`
	AuthRateLimitRPS   float64       `env:"AUTH_RATE_LIMIT_RPS" envDefault:"5"`
	AuthRateLimitBurst int           `env:"AUTH_RATE_LIMIT_BURST" envDefault:"10"`
	AdminEmail         string        `env:"ADMIN_EMAIL"`
	AdminPassword      string        `env:"ADMIN_PASSWORD"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Tracing
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from the environment and validates it.
func Load(opts ...pkgconfig.Option) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg, opts...); err != nil {
		return nil, fmt.Errorf("load toolcatalog config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.StoreDriver != StoreDriverPostgres && c.StoreDriver != StoreDriverMemory {
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, c.StoreDriver)
	}
	if c.JWTTokenExpiry <= 0 {
		return fmt.Errorf("JWT_TOKEN_EXPIRY must be positive, got %s", c.JWTTokenExpiry)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}

	// Outside development an explicitly set, strong JWT secret is required.
	if !c.IsDevelopment() {
		if c.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be explicitly set via environment variable in %q mode", c.Environment)
		}
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(c.JWTSecret))
		}
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Postgres returns the pool settings for database.NewPostgresPool.
func (c *Config) Postgres() *database.PostgresConfig {
	return &database.PostgresConfig{
		Host:               c.PostgresHost,
		Port:               c.PostgresPort,
		User:               c.PostgresUser,
		Password:           c.PostgresPass,
		DBName:             c.PostgresDB,
		SSLMode:            c.PostgresSSL,
		MaxConns:           c.DBMaxConns,
		MinConns:           c.DBMinConns,
		MaxConnLifetime:    c.DBMaxConnLife,
		MaxConnIdleTime:    c.DBMaxConnIdle,
		SlowQueryThreshold: time.Duration(c.SlowQueryMillis) * time.Millisecond,
	}
}

func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Addr:        c.RedisAddr,
		Password:    c.RedisPassword,
		DB:          c.RedisDB,
		DialTimeout: 2 * time.Second,
	}
}

func (c *Config) Tracing(serviceName, version string) tracing.Config {
	return tracing.Config{
		Enabled:        c.OTELEnabled,
		ServiceName:    serviceName,
		ServiceVersion: version,
		Environment:    c.Environment,
		OTLPEndpoint:   c.OTELEndpoint,
		SampleRate:     c.OTELSampleRate,
	}
}
