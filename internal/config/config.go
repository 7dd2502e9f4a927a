package config

import (
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Blacklist backends accepted by BLACKLIST_BACKEND.
const (
	BlacklistPostgres = "postgres"
	BlacklistRedis    = "redis"
	BlacklistMemory   = "memory"
)

type Config struct {
	Port                   string        `mapstructure:"PORT"`
	Env                    string        `mapstructure:"ENV"`
	DatabaseURL            string        `mapstructure:"DATABASE_URL"`
	DBMaxConns             int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns             int32         `mapstructure:"DB_MIN_CONNS"`
	RedisURL               string        `mapstructure:"REDIS_URL"`
	JWTSigningKey          string        `mapstructure:"JWT_SIGNING_KEY"`
	JWTIssuer              string        `mapstructure:"JWT_ISSUER"`
	AccessTokenTTL         time.Duration `mapstructure:"ACCESS_TOKEN_TTL"`
	RefreshTokenTTL        time.Duration `mapstructure:"REFRESH_TOKEN_TTL"`
	BlacklistBackend       string        `mapstructure:"BLACKLIST_BACKEND"`
	BlacklistPurgeSchedule string        `mapstructure:"BLACKLIST_PURGE_SCHEDULE"`
	CORSOrigins            []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS           float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst         int           `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeout         time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	BodyLimit              string        `mapstructure:"BODY_LIMIT"`
	CookieSecure           bool          `mapstructure:"COOKIE_SECURE"`
}

var envKeys = []string{
	"PORT",
	"ENV",
	"DATABASE_URL",
	"DB_MAX_CONNS",
	"DB_MIN_CONNS",
	"REDIS_URL",
	"JWT_SIGNING_KEY",
	"JWT_ISSUER",
	"ACCESS_TOKEN_TTL",
	"REFRESH_TOKEN_TTL",
	"BLACKLIST_BACKEND",
	"BLACKLIST_PURGE_SCHEDULE",
	"CORS_ORIGINS",
	"RATE_LIMIT_RPS",
	"RATE_LIMIT_BURST",
	"REQUEST_TIMEOUT",
	"BODY_LIMIT",
	"COOKIE_SECURE",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("JWT_ISSUER", "medlink")
	v.SetDefault("ACCESS_TOKEN_TTL", "60m")
	v.SetDefault("REFRESH_TOKEN_TTL", "24h")
	v.SetDefault("BLACKLIST_BACKEND", BlacklistPostgres)
	v.SetDefault("BLACKLIST_PURGE_SCHEDULE", "@hourly")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("COOKIE_SECURE", false)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) <= 1 {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() && cfg.JWTSigningKey == "" {
		log.Println("WARNING: JWT_SIGNING_KEY is empty; a random key is generated on every start.")
		log.Println("WARNING: Issued tokens will not survive a restart. Set JWT_SIGNING_KEY outside development.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// SigningKey decodes JWT_SIGNING_KEY. It returns nil when the key is unset.
func (c *Config) SigningKey() ([]byte, error) {
	if c.JWTSigningKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.JWTSigningKey)
	if err != nil {
		return nil, fmt.Errorf("JWT_SIGNING_KEY is not valid hex: %w", err)
	}
	return key, nil
}

// Validate checks that the configuration is safe to run. Outside development
// a signing key of at least 32 bytes is mandatory, and the chosen blacklist
// backend must have what it needs.
func (c *Config) Validate() error {
	key, err := c.SigningKey()
	if err != nil {
		return err
	}
	if !c.IsDev() && key == nil {
		return fmt.Errorf("JWT_SIGNING_KEY is required when ENV=%q", c.Env)
	}
	if key != nil && len(key) < 32 {
		return fmt.Errorf("JWT_SIGNING_KEY must be at least 32 bytes (64 hex chars), got %d bytes", len(key))
	}

	switch c.BlacklistBackend {
	case BlacklistPostgres, BlacklistMemory:
	case BlacklistRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when BLACKLIST_BACKEND is %q", BlacklistRedis)
		}
	default:
		return fmt.Errorf("BLACKLIST_BACKEND must be %q, %q, or %q, got %q",
			BlacklistPostgres, BlacklistRedis, BlacklistMemory, c.BlacklistBackend)
	}

	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive")
	}
	if c.RefreshTokenTTL < c.AccessTokenTTL {
		return fmt.Errorf("REFRESH_TOKEN_TTL must not be shorter than ACCESS_TOKEN_TTL")
	}
	if c.BlacklistPurgeSchedule == "" {
		return fmt.Errorf("BLACKLIST_PURGE_SCHEDULE must not be empty")
	}

	return nil
}
