package users_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"golang.org/x/crypto/bcrypt"

	auth "github.com/tickethub/go-auth-hub"
	"github.com/tickethub/go-auth-hub/users"
)

type testConfig struct{}

func (testConfig) GetSigningKey() string             { return "users-test-signing-key-0123456789" }
func (testConfig) GetTokenExpiration() time.Duration { return time.Hour }
func (testConfig) GetIssuer() string                 { return "ticket-hub" }
func (testConfig) GetAudience() []string             { return []string{"ticket-hub-users"} }
func (testConfig) GetPasswordCost() int              { return bcrypt.MinCost }
func (testConfig) GetAuthScheme() string             { return "Bearer" }
func (testConfig) GetContextKey() string             { return "user" }

type discardLogger struct{}

func (discardLogger) Debug(string, ...any) {}
func (discardLogger) Info(string, ...any)  {}
func (discardLogger) Warn(string, ...any)  {}
func (discardLogger) Error(string, ...any) {}

type eventLog struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (e *eventLog) Record(_ context.Context, event auth.ActivityEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	return nil
}

func (e *eventLog) Types() []auth.ActivityEventType {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]auth.ActivityEventType, 0, len(e.events))
	for _, ev := range e.events {
		out = append(out, ev.EventType)
	}
	return out
}

type harness struct {
	app      *fiber.App
	accounts auth.Accounts
	auther   *auth.Auther
	hasher   *auth.PasswordHasher
	events   *eventLog
	admin    *auth.Account
	user     *auth.Account
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	sqldb, err := sql.Open(sqliteshim.ShimName, fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	repos := auth.NewRepositoryManager(db)
	require.NoError(t, repos.CreateSchema(ctx))

	h := &harness{
		accounts: repos.Accounts(),
		hasher:   auth.NewPasswordHasher(bcrypt.MinCost),
		events:   &eventLog{},
	}

	h.admin = h.createAccount(t, "admin@empresa.com", "admin123", auth.RoleAdmin)
	h.user = h.createAccount(t, "joao@empresa.com", "user123", auth.RoleUser)

	h.auther = auth.NewAuthenticator(h.accounts, testConfig{}).WithLogger(discardLogger{})
	gates := auth.NewHTTPAuthenticator(h.auther, testConfig{}).WithLogger(discardLogger{})

	controller := users.NewController(h.accounts, h.hasher, gates,
		users.WithLogger(discardLogger{}),
		users.WithActivitySink(h.events),
	)

	h.app = fiber.New()
	users.RegisterRoutes(h.app.Group("/api"), controller, nil)

	return h
}

func (h *harness) createAccount(t *testing.T, email, password string, role auth.Role) *auth.Account {
	t.Helper()
	hash, err := h.hasher.HashPassword(password)
	require.NoError(t, err)

	account, err := h.accounts.Create(context.Background(), &auth.Account{
		Name:         "Conta " + string(role),
		Email:        email,
		PasswordHash: hash,
		Department:   "TI",
		Role:         role,
		IsActive:     true,
	})
	require.NoError(t, err)
	return account
}

func (h *harness) adminToken(t *testing.T) string {
	t.Helper()
	res, err := h.auther.LoginAdmin(context.Background(), "admin@empresa.com", "admin123")
	require.NoError(t, err)
	return res.Token
}

func (h *harness) userToken(t *testing.T) string {
	t.Helper()
	res, err := h.auther.LoginUser(context.Background(), "joao@empresa.com", "user123")
	require.NoError(t, err)
	return res.Token
}

type apiResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	User    map[string]any     `json:"user"`
	Users   []map[string]any   `json:"users"`
	Total   int                `json:"total"`
	Stats   *auth.AccountStats `json:"stats"`
	Errors  map[string]string  `json:"errors"`
}

func (h *harness) do(t *testing.T, method, path, token, body string) (int, apiResponse) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out apiResponse
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}
