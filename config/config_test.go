package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickethub/go-auth-hub/config"
)

func parse(t *testing.T, environment map[string]string) (config.Config, error) {
	t.Helper()
	return config.Parse(env.Options{Environment: environment})
}

func TestParseDefaults(t *testing.T) {
	cfg, err := parse(t, map[string]string{"APP_ENV": "development"})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.True(t, cfg.IsDevelopment())

	assert.Equal(t, config.DevSigningKey, cfg.GetSigningKey())
	assert.Equal(t, 24*time.Hour, cfg.GetTokenExpiration())
	assert.Equal(t, "ticket-hub", cfg.GetIssuer())
	assert.Equal(t, []string{"ticket-hub-users"}, cfg.GetAudience())
	assert.Equal(t, 12, cfg.GetPasswordCost())
	assert.Equal(t, "Bearer", cfg.GetAuthScheme())
	assert.Equal(t, "user", cfg.GetContextKey())

	assert.Equal(t, ":3001", cfg.Addr())
	assert.Equal(t, "/api", cfg.HTTP.APIPrefix)
	assert.Equal(t, 100, cfg.HTTP.RateLimitMax)
	assert.Equal(t, 15*time.Minute, cfg.HTTP.RateLimitWindow)
	assert.Equal(t, 10, cfg.HTTP.UserCreateLimitMax)
	assert.Equal(t, "BR", cfg.HTTP.PhoneRegion)

	assert.True(t, strings.HasPrefix(cfg.Database.URL, "file:"))
	assert.Empty(t, cfg.Redis.URL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Seed.AdminEmail)
}

func TestParseOverrides(t *testing.T) {
	cfg, err := parse(t, map[string]string{
		"APP_ENV":          "Production",
		"JWT_SECRET":       strings.Repeat("s", 48),
		"JWT_EXPIRES_IN":   "2h",
		"JWT_AUDIENCE":     "web,mobile",
		"BCRYPT_COST":      "10",
		"PORT":             "8080",
		"API_PREFIX":       "v1/",
		"CORS_ORIGINS":     "https://a.example,https://b.example",
		"RATE_LIMIT_MAX":   "5",
		"DATABASE_URL":     "postgres://u:p@db:5432/tickets",
		"REDIS_URL":        "redis://cache:6379/0",
		"LOG_LEVEL":        "debug",
		"SEED_ADMIN_EMAIL": "admin@empresa.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 2*time.Hour, cfg.GetTokenExpiration())
	assert.Equal(t, []string{"web", "mobile"}, cfg.GetAudience())
	assert.Equal(t, 10, cfg.GetPasswordCost())
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "/v1", cfg.HTTP.APIPrefix)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, 5, cfg.HTTP.RateLimitMax)
	assert.Equal(t, "redis://cache:6379/0", cfg.Redis.URL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "admin@empresa.com", cfg.Seed.AdminEmail)
	assert.Equal(t, "Administrador", cfg.Seed.AdminName)
}

func TestParseRejectsWeakSecretOutsideDevelopment(t *testing.T) {
	tests := []struct {
		name   string
		secret string
	}{
		{"missing", ""},
		{"default", config.DevSigningKey},
		{"short", "too-short-secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			environment := map[string]string{"APP_ENV": "production"}
			if tt.secret != "" {
				environment["JWT_SECRET"] = tt.secret
			}

			_, err := parse(t, environment)
			assert.Error(t, err)
		})
	}
}

func TestParseUnsetEnvIsProduction(t *testing.T) {
	_, err := parse(t, map[string]string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	cfg, err := parse(t, map[string]string{"JWT_SECRET": strings.Repeat("k", 32)})
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Env)
	assert.False(t, cfg.IsDevelopment())
}

func TestParseAcceptsDefaultSecretInTest(t *testing.T) {
	cfg, err := parse(t, map[string]string{"APP_ENV": "test"})
	require.NoError(t, err)
	assert.True(t, cfg.IsDevelopment())
}

func TestParseInvalidValue(t *testing.T) {
	_, err := parse(t, map[string]string{"APP_ENV": "development", "PORT": "not-a-number"})
	assert.Error(t, err)
}

func TestSanitize(t *testing.T) {
	cfg := config.Config{}
	cfg.Sanitize()

	assert.Equal(t, "production", cfg.Env)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenExpiration)
	assert.Equal(t, 12, cfg.Auth.PasswordCost)
	assert.Equal(t, 100, cfg.HTTP.RateLimitMax)
	assert.Equal(t, 15*time.Minute, cfg.HTTP.RateLimitWindow)
	assert.Equal(t, 10, cfg.HTTP.UserCreateLimitMax)
}
