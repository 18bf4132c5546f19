package auth

import (
	"context"
	"time"
)

// Auther implements Authenticator
type Auther struct {
	provider     *UserProvider
	store        AccountStore
	tokenService TokenService
	verifier     *SessionVerifier
	logger       Logger
	activitySink ActivitySink
	now          func() time.Time
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator wires the login and verification flows on top of store.
func NewAuthenticator(store AccountStore, opts Config) *Auther {
	logger := Logger(defLogger{})
	hasher := NewPasswordHasher(opts.GetPasswordCost())
	tokenService := NewTokenService(opts, logger)

	return &Auther{
		provider:     NewUserProvider(store, hasher).WithLogger(logger),
		store:        store,
		tokenService: tokenService,
		verifier:     NewSessionVerifier(tokenService, store, logger),
		logger:       logger,
		activitySink: LoggerActivitySink{Logger: logger},
		now:          time.Now,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = resolveLogger(logger)
	s.provider.WithLogger(s.logger)
	if ts, ok := s.tokenService.(*TokenServiceImpl); ok {
		ts.logger = s.logger
	}
	s.verifier = NewSessionVerifier(s.tokenService, s.store, s.logger)
	if sink, ok := s.activitySink.(LoggerActivitySink); ok {
		sink.Logger = s.logger
		s.activitySink = sink
	}
	return s
}

// WithTokenService replaces the token codec, e.g. to pin the clock in tests.
func (s *Auther) WithTokenService(tokens TokenService) *Auther {
	if tokens == nil {
		return s
	}
	s.tokenService = tokens
	s.verifier = NewSessionVerifier(tokens, s.store, s.logger)
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// LoginUser authenticates accounts with the user role.
func (s *Auther) LoginUser(ctx context.Context, email, password string) (*LoginResult, error) {
	return s.login(ctx, email, password, RoleUser)
}

// LoginAdmin authenticates accounts with the admin role.
func (s *Auther) LoginAdmin(ctx context.Context, email, password string) (*LoginResult, error) {
	return s.login(ctx, email, password, RoleAdmin)
}

// VerifySession delegates to the SessionVerifier.
func (s *Auther) VerifySession(ctx context.Context, token string) (*Session, error) {
	return s.verifier.VerifySession(ctx, token)
}

func (s *Auther) login(ctx context.Context, email, password string, required Role) (*LoginResult, error) {
	email = NormalizeEmail(email)
	entry := string(required)

	account, err := s.provider.VerifyCredentials(ctx, email, password)
	if err != nil {
		if IsInternal(err) {
			s.logger.Error("Login verify credentials error", "entry", entry, "error", err)
			s.emitLoginFailure(ctx, nil, email, entry, "internal")
			return nil, err
		}
		s.emitLoginFailure(ctx, nil, email, entry, "invalid credentials")
		return nil, ErrInvalidCredentials
	}

	if !account.Role.Satisfies(required) {
		s.logger.Info("Login rejected", "entry", entry, "reason", "role mismatch", "account_id", account.ID.String())
		s.emitLoginFailure(ctx, account, email, entry, "role mismatch")
		return nil, ErrInvalidCredentials
	}

	if err := s.store.TrackSuccessfulLogin(ctx, account.ID); err != nil {
		s.logger.Warn("failed to track successful login", "account_id", account.ID.String(), "error", err)
	} else {
		now := s.now()
		account.LastLoginAt = &now
	}

	token, err := s.tokenService.Generate(IdentityFromAccount(account))
	if err != nil {
		s.logger.Error("Login failed to generate token", "account_id", account.ID.String(), "error", err)
		s.emitLoginFailure(ctx, account, email, entry, "token generation")
		return nil, internalError(err, "failed to issue session token")
	}

	RecordActivity(ctx, s.activitySink, s.logger, ActivityEvent{
		EventType:  ActivityEventLoginSuccess,
		Actor:      ActorFromAccount(account),
		UserID:     account.ID.String(),
		Metadata:   map[string]any{"entry": entry},
		OccurredAt: s.now(),
	})

	return &LoginResult{Account: account, Token: token}, nil
}

func (s *Auther) emitLoginFailure(ctx context.Context, account *Account, email, entry, reason string) {
	event := ActivityEvent{
		EventType: ActivityEventLoginFailure,
		Actor:     ActorRef{Type: "unknown"},
		Metadata: map[string]any{
			"identifier": email,
			"entry":      entry,
			"reason":     reason,
		},
		OccurredAt: s.now(),
	}
	if account != nil {
		event.Actor = ActorFromAccount(account)
		event.UserID = account.ID.String()
	}
	RecordActivity(ctx, s.activitySink, s.logger, event)
}
