// Package config loads the Ticket Hub service configuration from the
// environment using github.com/caarlos0/env. A .env file is honoured in
// development.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	auth "github.com/tickethub/go-auth-hub"
)

// DevSigningKey is the placeholder secret shipped in examples. It is only
// accepted in development.
const DevSigningKey = "ticket-hub-dev-secret-change-me"

// Config is the root service configuration.
type Config struct {
	// Env is development, test or production. Unset means production.
	Env string `env:"APP_ENV" envDefault:"production"`

	Auth     AuthConfig
	HTTP     HTTPConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Log      LogConfig
	Seed     SeedConfig
}

// AuthConfig holds token and password settings.
type AuthConfig struct {
	SigningKey      string        `env:"JWT_SECRET" envDefault:"ticket-hub-dev-secret-change-me"`
	TokenExpiration time.Duration `env:"JWT_EXPIRES_IN" envDefault:"24h"`
	Issuer          string        `env:"JWT_ISSUER" envDefault:"ticket-hub"`
	Audience        []string      `env:"JWT_AUDIENCE" envDefault:"ticket-hub-users" envSeparator:","`
	PasswordCost    int           `env:"BCRYPT_COST" envDefault:"12"`
	AuthScheme      string        `env:"AUTH_SCHEME" envDefault:"Bearer"`
	ContextKey      string        `env:"AUTH_CONTEXT_KEY" envDefault:"user"`
}

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	Port               int           `env:"PORT" envDefault:"3001"`
	APIPrefix          string        `env:"API_PREFIX" envDefault:"/api"`
	CORSOrigins        []string      `env:"CORS_ORIGINS" envDefault:"http://localhost:8080" envSeparator:","`
	RateLimitMax       int           `env:"RATE_LIMIT_MAX" envDefault:"100"`
	RateLimitWindow    time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"15m"`
	UserCreateLimitMax int           `env:"USER_CREATE_LIMIT_MAX" envDefault:"10"`
	BodyLimit          int           `env:"HTTP_BODY_LIMIT" envDefault:"10485760"`
	ShutdownTimeout    time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	PhoneRegion        string        `env:"PHONE_REGION" envDefault:"BR"`
}

// DatabaseConfig selects the backing database. postgres:// URLs use pgx,
// file: and sqlite: URLs use the embedded SQLite driver.
type DatabaseConfig struct {
	URL          string `env:"DATABASE_URL" envDefault:"file:tickethub.db?cache=shared"`
	Debug        bool   `env:"DATABASE_DEBUG" envDefault:"false"`
	CreateSchema bool   `env:"DATABASE_CREATE_SCHEMA" envDefault:"false"`
}

// RedisConfig is optional; when URL is empty rate limits are kept in memory.
type RedisConfig struct {
	URL       string `env:"REDIS_URL"`
	KeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"tickethub:limiter:"`
}

type LogConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// SeedConfig describes the admin account created on an empty database.
type SeedConfig struct {
	AdminEmail      string `env:"SEED_ADMIN_EMAIL"`
	AdminPassword   string `env:"SEED_ADMIN_PASSWORD"`
	AdminName       string `env:"SEED_ADMIN_NAME" envDefault:"Administrador"`
	AdminDepartment string `env:"SEED_ADMIN_DEPARTMENT" envDefault:"TI"`
}

var _ auth.Config = Config{}

// Load reads an optional .env file and parses the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return Config{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	return Parse(env.Options{})
}

// Parse parses configuration with the given env options. Tests pass an
// explicit Environment map.
func Parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Sanitize applies guardrails to values loaded from env.
func (c *Config) Sanitize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	if c.Env == "" {
		c.Env = "production"
	}

	if c.Auth.TokenExpiration <= 0 {
		c.Auth.TokenExpiration = 24 * time.Hour
	}
	if c.Auth.PasswordCost <= 0 {
		c.Auth.PasswordCost = auth.DefaultPasswordCost
	}

	if c.HTTP.APIPrefix != "" && !strings.HasPrefix(c.HTTP.APIPrefix, "/") {
		c.HTTP.APIPrefix = "/" + c.HTTP.APIPrefix
	}
	c.HTTP.APIPrefix = strings.TrimRight(c.HTTP.APIPrefix, "/")

	if c.HTTP.RateLimitMax <= 0 {
		c.HTTP.RateLimitMax = 100
	}
	if c.HTTP.RateLimitWindow <= 0 {
		c.HTTP.RateLimitWindow = 15 * time.Minute
	}
	if c.HTTP.UserCreateLimitMax <= 0 {
		c.HTTP.UserCreateLimitMax = 10
	}
}

// Validate refuses configurations that would run insecurely in production.
func (c Config) Validate() error {
	if c.IsDevelopment() {
		return nil
	}

	secret := strings.TrimSpace(c.Auth.SigningKey)
	if secret == "" || secret == DevSigningKey {
		return errors.New("JWT_SECRET must be set to a non default value outside development")
	}
	if len(secret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters outside development")
	}

	return nil
}

func (c Config) IsDevelopment() bool {
	switch c.Env {
	case "development", "dev", "test":
		return true
	default:
		return false
	}
}

// Addr is the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTP.Port)
}

func (c Config) GetSigningKey() string {
	return c.Auth.SigningKey
}

func (c Config) GetTokenExpiration() time.Duration {
	return c.Auth.TokenExpiration
}

func (c Config) GetIssuer() string {
	return c.Auth.Issuer
}

func (c Config) GetAudience() []string {
	return c.Auth.Audience
}

func (c Config) GetPasswordCost() int {
	return c.Auth.PasswordCost
}

func (c Config) GetAuthScheme() string {
	return c.Auth.AuthScheme
}

func (c Config) GetContextKey() string {
	return c.Auth.ContextKey
}
