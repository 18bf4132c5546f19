package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	LoginUser(ctx context.Context, email, password string) (*LoginResult, error)
	LoginAdmin(ctx context.Context, email, password string) (*LoginResult, error)
	VerifySession(ctx context.Context, token string) (*Session, error)
}

// Identity holds the attributes of an identity that end up in a token
type Identity interface {
	ID() string
	Name() string
	Email() string
	Role() Role
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() time.Duration
	GetIssuer() string
	GetAudience() []string
	GetPasswordCost() int
	GetAuthScheme() string
	GetContextKey() string
}

// AccountStore is the read side of the credential store the core needs.
// Finders return ErrAccountNotFound when no active account matches.
type AccountStore interface {
	FindActiveByEmail(ctx context.Context, email string) (*Account, error)
	FindActiveByID(ctx context.Context, id uuid.UUID) (*Account, error)
	TrackSuccessfulLogin(ctx context.Context, id uuid.UUID) error
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// TokenService issues and validates session tokens
type TokenService interface {
	Generate(identity Identity) (string, error)
	Validate(token string) (AuthClaims, error)
}

// LoginResult is what a successful login hands back to the caller
type LoginResult struct {
	Account *Account
	Token   string
}
