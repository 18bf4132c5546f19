package auth

import (
	"context"
	"errors"
)

// UserProvider checks email and password against the credential store
type UserProvider struct {
	store     AccountStore
	hasher    *PasswordHasher
	Validator func(*Account) error
	logger    Logger
}

// NewUserProvider will create a new UserProvider
func NewUserProvider(store AccountStore, hasher *PasswordHasher) *UserProvider {
	if hasher == nil {
		hasher = NewPasswordHasher(DefaultPasswordCost)
	}
	return &UserProvider{
		store:     store,
		hasher:    hasher,
		logger:    defLogger{},
		Validator: defaultValidator,
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	u.logger = resolveLogger(l)
	return u
}

func (u *UserProvider) validate(account *Account) error {
	if u.Validator != nil {
		return u.Validator(account)
	}
	return defaultValidator(account)
}

// VerifyCredentials returns the active account matching email and password.
// Unknown email, inactive account and wrong password all return
// ErrInvalidCredentials. A bcrypt comparison runs in every case.
func (u *UserProvider) VerifyCredentials(ctx context.Context, email, password string) (*Account, error) {
	email = NormalizeEmail(email)

	account, err := u.store.FindActiveByEmail(ctx, email)
	if err != nil {
		u.hasher.CompareDummy(password)
		if errors.Is(err, ErrAccountNotFound) {
			u.logger.Debug("credential check failed", "reason", "account not found")
			return nil, ErrInvalidCredentials
		}
		return nil, internalError(err, "failed to retrieve account during verification")
	}

	if err := u.hasher.ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			u.logger.Debug("credential check failed", "reason", "password mismatch", "account_id", account.ID.String())
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := u.validate(account); err != nil {
		u.logger.Warn("credential check failed", "reason", "account rejected", "account_id", account.ID.String(), "error", err)
		return nil, ErrInvalidCredentials
	}

	return account, nil
}

// IdentityFromAccount exposes an account as a token Identity.
func IdentityFromAccount(account *Account) Identity {
	if account == nil {
		return nil
	}
	return authIdentity{
		id:    account.ID.String(),
		name:  account.Name,
		email: account.Email,
		role:  account.Role,
	}
}

type authIdentity struct {
	id    string
	name  string
	email string
	role  Role
}

func (a authIdentity) ID() string {
	return a.id
}

func (a authIdentity) Name() string {
	return a.name
}

func (a authIdentity) Email() string {
	return a.email
}

func (a authIdentity) Role() Role {
	return a.role
}

var _ Identity = authIdentity{}

func defaultValidator(account *Account) error {
	if account == nil {
		return ErrAccountNotFound
	}
	if !account.IsActive {
		return ErrAccountNotFound
	}
	if !account.Role.IsValid() {
		return ErrInvalidRole
	}
	return nil
}
