package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AuthClaims represents the claims carried by a session token
type AuthClaims interface {
	Subject() string
	UserID() string
	Email() string
	Name() string
	Role() Role
	TokenID() string
	HasRole(role Role) bool
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims
type JWTClaims struct {
	jwt.RegisteredClaims
	UID       string `json:"id,omitempty"`
	UserEmail string `json:"email,omitempty"`
	UserRole  Role   `json:"role,omitempty"`
	UserName  string `json:"name,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the account id, preferring sub
func (c *JWTClaims) UserID() string {
	if c.RegisteredClaims.Subject != "" {
		return c.RegisteredClaims.Subject
	}
	return c.UID
}

func (c *JWTClaims) Email() string {
	return c.UserEmail
}

func (c *JWTClaims) Name() string {
	return c.UserName
}

// Role returns the role at issuance time. Gates never use it; they use the
// role of the freshly loaded account.
func (c *JWTClaims) Role() Role {
	return c.UserRole
}

func (c *JWTClaims) TokenID() string {
	return c.RegisteredClaims.ID
}

func (c *JWTClaims) HasRole(role Role) bool {
	return c.UserRole.Satisfies(role)
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
