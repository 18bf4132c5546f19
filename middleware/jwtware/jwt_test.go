package jwtware_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickethub/go-auth-hub/middleware/jwtware"
)

var errRejected = errors.New("rejected")

func newTestApp(cfg jwtware.Config) (*fiber.App, *[]string) {
	seen := &[]string{}
	if cfg.Verify == nil {
		cfg.Verify = func(c *fiber.Ctx, token string) error {
			*seen = append(*seen, token)
			if token == "bad" {
				return errRejected
			}
			c.Locals("token", token)
			return nil
		}
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c *fiber.Ctx, err error) error {
			if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
				return c.Status(fiber.StatusUnauthorized).SendString("missing")
			}
			return c.Status(fiber.StatusUnauthorized).SendString("invalid")
		}
	}

	app := fiber.New()
	app.Get("/protected", jwtware.New(cfg), func(c *fiber.Ctx) error {
		token, _ := c.Locals("token").(string)
		return c.SendString("ok:" + token)
	})
	return app, seen
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (int, string) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestJWTWare_HeaderExtraction(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
		verified   bool
	}{
		{"bearer token", "Bearer abc.def.ghi", http.StatusOK, "ok:abc.def.ghi", true},
		{"lowercase scheme", "bearer abc.def.ghi", http.StatusOK, "ok:abc.def.ghi", true},
		{"uppercase scheme", "BEARER abc.def.ghi", http.StatusOK, "ok:abc.def.ghi", true},
		{"missing header", "", http.StatusUnauthorized, "missing", false},
		{"scheme without token", "Bearer", http.StatusUnauthorized, "missing", false},
		{"scheme with blank token", "Bearer    ", http.StatusUnauthorized, "missing", false},
		{"other scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, "missing", false},
		{"token without scheme", "abc.def.ghi", http.StatusUnauthorized, "missing", false},
		{"rejected by verifier", "Bearer bad", http.StatusUnauthorized, "invalid", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, seen := newTestApp(jwtware.Config{})

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}

			status, body := doRequest(t, app, req)

			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantBody, body)
			if tt.verified {
				assert.Len(t, *seen, 1)
			} else {
				assert.Empty(t, *seen, "verifier must not run without a token")
			}
		})
	}
}

func TestJWTWare_CustomScheme(t *testing.T) {
	app, _ := newTestApp(jwtware.Config{AuthScheme: "Token"})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "token xyz")
	status, body := doRequest(t, app, req)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok:xyz", body)

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer xyz")
	status, _ = doRequest(t, app, req)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestJWTWare_QueryAndCookieLookup(t *testing.T) {
	app, _ := newTestApp(jwtware.Config{
		TokenLookup: "header:Authorization, query:auth_token, cookie:jwt",
	})

	t.Run("query", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected?auth_token=from-query", nil)
		status, body := doRequest(t, app, req)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "ok:from-query", body)
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.AddCookie(&http.Cookie{Name: "jwt", Value: "from-cookie"})
		status, body := doRequest(t, app, req)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "ok:from-cookie", body)
	})

	t.Run("header wins", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected?auth_token=from-query", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer from-header")
		status, body := doRequest(t, app, req)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "ok:from-header", body)
	})
}

func TestJWTWare_Filter(t *testing.T) {
	app, seen := newTestApp(jwtware.Config{
		Filter: func(c *fiber.Ctx) bool { return c.Query("skip") == "1" },
	})

	status, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/protected?skip=1", nil))

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok:", body)
	assert.Empty(t, *seen)
}

func TestJWTWare_DefaultErrorHandler(t *testing.T) {
	app := fiber.New()
	app.Get("/protected", jwtware.New(jwtware.Config{
		Verify: func(*fiber.Ctx, string) error { return errRejected },
	}), func(c *fiber.Ctx) error { return c.SendString("ok") })

	status, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/protected", nil))
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.JSONEq(t, `{"success":false,"message":"access token required"}`, body)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer anything")
	status, body = doRequest(t, app, req)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.JSONEq(t, `{"success":false,"message":"invalid or expired token"}`, body)
}

func TestGetDefaultConfig_RequiresVerify(t *testing.T) {
	assert.Panics(t, func() {
		jwtware.GetDefaultConfig(jwtware.Config{})
	})

	cfg := jwtware.GetDefaultConfig(jwtware.Config{
		Verify: func(*fiber.Ctx, string) error { return nil },
	})
	assert.Equal(t, "header:Authorization", cfg.TokenLookup)
	assert.Equal(t, "Bearer", cfg.AuthScheme)
	assert.NotNil(t, cfg.SuccessHandler)
	assert.NotNil(t, cfg.ErrorHandler)
}

func TestGetExtractors(t *testing.T) {
	assert.Len(t, jwtware.GetExtractors("header:Authorization,query:t,cookie:c"), 3)
	assert.Len(t, jwtware.GetExtractors("header:Authorization,bogus,param:x"), 1)
	assert.Empty(t, jwtware.GetExtractors(""))
}
