package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

var accountCtxKey = &contextKey{"account"}
var claimsCtxKey = &contextKey{"claims"}

// DefaultContextKey is the fiber locals key holding the authenticated account.
const DefaultContextKey = "user"

// ClaimsLocalsKey is the fiber locals key holding the token claims.
const ClaimsLocalsKey = "claims"

type contextKey struct {
	name string
}

// WithAccountContext sets the Account in the given context
func WithAccountContext(r context.Context, account *Account) context.Context {
	return context.WithValue(r, accountCtxKey, account)
}

// AccountFromContext finds the account from the context.
func AccountFromContext(ctx context.Context) (*Account, bool) {
	raw, ok := ctx.Value(accountCtxKey).(*Account)
	return raw, ok && raw != nil
}

// WithClaimsContext sets the AuthClaims in the given context
func WithClaimsContext(r context.Context, claims AuthClaims) context.Context {
	return context.WithValue(r, claimsCtxKey, claims)
}

// ClaimsFromContext extracts the AuthClaims from the standard context
func ClaimsFromContext(ctx context.Context) (AuthClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(AuthClaims)
	return raw, ok
}

// CurrentAccount returns the account Authenticate attached to the request.
func CurrentAccount(c *fiber.Ctx, key ...string) (*Account, bool) {
	k := DefaultContextKey
	if len(key) > 0 && key[0] != "" {
		k = key[0]
	}
	if account, ok := c.Locals(k).(*Account); ok && account != nil {
		return account, true
	}
	return AccountFromContext(c.UserContext())
}

// CurrentClaims returns the claims of the token presented with the request.
func CurrentClaims(c *fiber.Ctx) (AuthClaims, bool) {
	if claims, ok := c.Locals(ClaimsLocalsKey).(AuthClaims); ok {
		return claims, true
	}
	return ClaimsFromContext(c.UserContext())
}

func attachSession(c *fiber.Ctx, key string, session *Session) {
	c.Locals(key, session.Account)
	c.Locals(ClaimsLocalsKey, session.Claims)

	ctx := WithAccountContext(c.UserContext(), session.Account)
	ctx = WithClaimsContext(ctx, session.Claims)
	c.SetUserContext(ctx)
}
