package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	auth "github.com/tickethub/go-auth-hub"
)

func TestUserProviderVerifyCredentials(t *testing.T) {
	ctx := context.Background()
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)

	active := newAccount(t, "ana@empresa.com", "secret123", auth.RoleUser)
	inactive := newAccount(t, "old@empresa.com", "secret123", auth.RoleUser)
	inactive.IsActive = false
	badRole := newAccount(t, "odd@empresa.com", "secret123", auth.Role("owner"))

	tests := []struct {
		name       string
		setup      func(store *MockAccountStore)
		email      string
		password   string
		wantErr    error
		wantIntern bool
	}{
		{
			name: "valid credentials",
			setup: func(store *MockAccountStore) {
				store.On("FindActiveByEmail", ctx, "ana@empresa.com").Return(active, nil)
			},
			email:    " ANA@empresa.com",
			password: "secret123",
		},
		{
			name: "wrong password",
			setup: func(store *MockAccountStore) {
				store.On("FindActiveByEmail", ctx, "ana@empresa.com").Return(active, nil)
			},
			email:    "ana@empresa.com",
			password: "nope",
			wantErr:  auth.ErrInvalidCredentials,
		},
		{
			name: "unknown email",
			setup: func(store *MockAccountStore) {
				store.On("FindActiveByEmail", ctx, "ghost@empresa.com").Return(nil, auth.ErrAccountNotFound)
			},
			email:    "ghost@empresa.com",
			password: "secret123",
			wantErr:  auth.ErrInvalidCredentials,
		},
		{
			name: "inactive account",
			setup: func(store *MockAccountStore) {
				store.On("FindActiveByEmail", ctx, "old@empresa.com").Return(inactive, nil)
			},
			email:    "old@empresa.com",
			password: "secret123",
			wantErr:  auth.ErrInvalidCredentials,
		},
		{
			name: "unknown role",
			setup: func(store *MockAccountStore) {
				store.On("FindActiveByEmail", ctx, "odd@empresa.com").Return(badRole, nil)
			},
			email:    "odd@empresa.com",
			password: "secret123",
			wantErr:  auth.ErrInvalidCredentials,
		},
		{
			name: "store failure",
			setup: func(store *MockAccountStore) {
				store.On("FindActiveByEmail", ctx, "ana@empresa.com").Return(nil, errors.New("db down"))
			},
			email:      "ana@empresa.com",
			password:   "secret123",
			wantIntern: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &MockAccountStore{}
			tt.setup(store)

			provider := auth.NewUserProvider(store, hasher).WithLogger(permissiveLogger())
			account, err := provider.VerifyCredentials(ctx, tt.email, tt.password)

			switch {
			case tt.wantIntern:
				assert.Nil(t, account)
				assert.True(t, auth.IsInternal(err))
			case tt.wantErr != nil:
				assert.Nil(t, account)
				assert.Same(t, tt.wantErr, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, "ana@empresa.com", account.Email)
			}
			store.AssertExpectations(t)
		})
	}
}

func TestUserProviderCustomValidator(t *testing.T) {
	ctx := context.Background()
	account := newAccount(t, "ana@empresa.com", "secret123", auth.RoleUser)

	store := &MockAccountStore{}
	store.On("FindActiveByEmail", ctx, "ana@empresa.com").Return(account, nil)

	provider := auth.NewUserProvider(store, auth.NewPasswordHasher(bcrypt.MinCost)).WithLogger(permissiveLogger())
	provider.Validator = func(*auth.Account) error {
		return errors.New("department locked")
	}

	_, err := provider.VerifyCredentials(ctx, "ana@empresa.com", "secret123")
	assert.Same(t, auth.ErrInvalidCredentials, err)
}

func TestIdentityFromAccount(t *testing.T) {
	account := newAccount(t, "ana@empresa.com", "secret123", auth.RoleAdmin)

	identity := auth.IdentityFromAccount(account)
	assert.Equal(t, account.ID.String(), identity.ID())
	assert.Equal(t, account.Name, identity.Name())
	assert.Equal(t, account.Email, identity.Email())
	assert.Equal(t, auth.RoleAdmin, identity.Role())

	assert.Nil(t, auth.IdentityFromAccount(nil))
}
