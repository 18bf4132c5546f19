package auth

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "joao@empresa.com", NormalizeEmail("  Joao@Empresa.COM\t"))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestAccountStatus(t *testing.T) {
	assert.Equal(t, "active", (&Account{IsActive: true}).Status())
	assert.Equal(t, "inactive", (&Account{}).Status())
}

func TestAccountView(t *testing.T) {
	created := time.Date(2026, 1, 15, 23, 30, 0, 0, time.FixedZone("BRT", -3*3600))
	lastLogin := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	account := &Account{
		ID:              uuid.MustParse("6f9619ff-8b86-d011-b42d-00cf4fc964ff"),
		Name:            "Maria Silva",
		Email:           "maria@empresa.com",
		PasswordHash:    "$2a$10$secret",
		Phone:           "+5511987654321",
		Department:      "TI",
		Role:            RoleUser,
		DefaultPriority: PriorityHigh,
		IsActive:        true,
		LastLoginAt:     &lastLogin,
		CreatedAt:       created,
	}

	view := account.View()

	assert.Equal(t, "6f9619ff-8b86-d011-b42d-00cf4fc964ff", view.ID)
	assert.Equal(t, "active", view.Status)
	assert.Equal(t, "2026-01-16", view.JoinDate)
	require.NotNil(t, view.LastLogin)
	assert.Equal(t, "2026-02-01T08:00:00Z", *view.LastLogin)
	assert.Equal(t, PriorityHigh, view.DefaultPriority)

	raw, err := json.Marshal(view)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
	assert.NotContains(t, string(raw), "password")

	raw, err = json.Marshal(account)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
}

func TestAccountViewNeverLoggedIn(t *testing.T) {
	view := (&Account{CreatedAt: time.Now()}).View()
	assert.Nil(t, view.LastLogin)
	assert.Equal(t, "inactive", view.Status)

	var nilAccount *Account
	assert.Equal(t, AccountView{}, nilAccount.View())
}
