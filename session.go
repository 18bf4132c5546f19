package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Session is the product of a successful verification: the account as it
// is stored right now plus the claims of the token that was presented.
type Session struct {
	Account *Account
	Claims  AuthClaims
}

// Role is the role of the stored account, not the one in the token.
func (s *Session) Role() Role {
	if s == nil || s.Account == nil {
		return ""
	}
	return s.Account.Role
}

// SessionVerifier turns a presented token into a live Session
type SessionVerifier struct {
	tokens TokenService
	store  AccountStore
	logger Logger
}

func NewSessionVerifier(tokens TokenService, store AccountStore, logger Logger) *SessionVerifier {
	return &SessionVerifier{
		tokens: tokens,
		store:  store,
		logger: resolveLogger(logger),
	}
}

// VerifySession validates token and re-resolves its subject. Bad tokens and
// missing or inactive accounts return ErrSessionInvalid; store failures
// return an internal error.
func (v *SessionVerifier) VerifySession(ctx context.Context, token string) (*Session, error) {
	claims, err := v.tokens.Validate(token)
	if err != nil {
		return nil, ErrSessionInvalid
	}

	id, err := uuid.Parse(claims.UserID())
	if err != nil {
		v.logger.Debug("session rejected", "reason", "subject is not an account id")
		return nil, ErrSessionInvalid
	}

	account, err := v.store.FindActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			v.logger.Info("session rejected", "reason", "account not found", "account_id", id.String())
			return nil, ErrSessionInvalid
		}
		v.logger.Error("session lookup failed", "account_id", id.String(), "error", err)
		return nil, internalError(err, "failed to resolve session account")
	}

	return &Session{Account: account, Claims: claims}, nil
}
