package auth_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"golang.org/x/crypto/bcrypt"

	auth "github.com/tickethub/go-auth-hub"
)

const testSigningKey = "test-signing-key-with-enough-entropy"

// testConfig implements auth.Config
type testConfig struct {
	signingKey string
	expiration time.Duration
	issuer     string
	audience   []string
}

func newTestConfig() testConfig {
	return testConfig{
		signingKey: testSigningKey,
		expiration: 24 * time.Hour,
		issuer:     "ticket-hub",
		audience:   []string{"ticket-hub-users"},
	}
}

func (c testConfig) GetSigningKey() string             { return c.signingKey }
func (c testConfig) GetTokenExpiration() time.Duration { return c.expiration }
func (c testConfig) GetIssuer() string                 { return c.issuer }
func (c testConfig) GetAudience() []string             { return c.audience }
func (c testConfig) GetPasswordCost() int              { return bcrypt.MinCost }
func (c testConfig) GetAuthScheme() string             { return "Bearer" }
func (c testConfig) GetContextKey() string             { return "user" }

// MockLogger implements auth.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

// permissiveLogger returns a MockLogger that accepts every call.
func permissiveLogger() *MockLogger {
	logger := &MockLogger{}
	logger.On("Debug", mock.Anything, mock.Anything).Maybe()
	logger.On("Info", mock.Anything, mock.Anything).Maybe()
	logger.On("Warn", mock.Anything, mock.Anything).Maybe()
	logger.On("Error", mock.Anything, mock.Anything).Maybe()
	return logger
}

// MockAccountStore implements auth.AccountStore
type MockAccountStore struct {
	mock.Mock
}

func (m *MockAccountStore) FindActiveByEmail(ctx context.Context, email string) (*auth.Account, error) {
	args := m.Called(ctx, email)
	if account, ok := args.Get(0).(*auth.Account); ok {
		return account, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountStore) FindActiveByID(ctx context.Context, id uuid.UUID) (*auth.Account, error) {
	args := m.Called(ctx, id)
	if account, ok := args.Get(0).(*auth.Account); ok {
		return account, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountStore) TrackSuccessfulLogin(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockAuthenticator implements auth.Authenticator
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) LoginUser(ctx context.Context, email, password string) (*auth.LoginResult, error) {
	args := m.Called(ctx, email, password)
	if res, ok := args.Get(0).(*auth.LoginResult); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthenticator) LoginAdmin(ctx context.Context, email, password string) (*auth.LoginResult, error) {
	args := m.Called(ctx, email, password)
	if res, ok := args.Get(0).(*auth.LoginResult); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthenticator) VerifySession(ctx context.Context, token string) (*auth.Session, error) {
	args := m.Called(ctx, token)
	if session, ok := args.Get(0).(*auth.Session); ok {
		return session, args.Error(1)
	}
	return nil, args.Error(1)
}

// newAccount builds an active account whose password hashes at minimum cost.
func newAccount(t *testing.T, email, password string, role auth.Role) *auth.Account {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	return &auth.Account{
		ID:              uuid.New(),
		Name:            "Test " + string(role),
		Email:           email,
		PasswordHash:    string(hash),
		Department:      "TI",
		Role:            role,
		DefaultPriority: auth.PriorityMedium,
		IsActive:        true,
		CreatedAt:       time.Now().UTC(),
		UpdatedAt:       time.Now().UTC(),
	}
}

// setupTestDB opens an in-memory SQLite database with the users table.
func setupTestDB(t *testing.T) (*bun.DB, auth.RepositoryManager) {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	repos := auth.NewRepositoryManager(db)
	require.NoError(t, repos.CreateSchema(context.Background()))

	t.Cleanup(func() {
		_, _ = db.NewDropTable().Model((*auth.Account)(nil)).IfExists().Exec(context.Background())
		_ = db.Close()
	})

	return db, repos
}

// insertAccount stores account through the repository.
func insertAccount(t *testing.T, repos auth.RepositoryManager, account *auth.Account) *auth.Account {
	t.Helper()
	created, err := repos.Accounts().Create(context.Background(), account)
	require.NoError(t, err)
	return created
}
