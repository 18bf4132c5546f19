package database

import (
	"context"
	"errors"
	"strings"

	auth "github.com/tickethub/go-auth-hub"
	"github.com/tickethub/go-auth-hub/config"
)

// SeedAdmin creates the configured admin account when its email is not
// registered yet. It returns the account and whether it was created.
func SeedAdmin(ctx context.Context, accounts auth.Accounts, hasher auth.PasswordAuthenticator, seed config.SeedConfig, logger auth.Logger) (*auth.Account, bool, error) {
	email := auth.NormalizeEmail(seed.AdminEmail)
	if email == "" || seed.AdminPassword == "" {
		return nil, false, nil
	}

	existing, err := accounts.GetByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, auth.ErrAccountNotFound) {
		return nil, false, err
	}

	hash, err := hasher.HashPassword(seed.AdminPassword)
	if err != nil {
		return nil, false, err
	}

	name := strings.TrimSpace(seed.AdminName)
	if name == "" {
		name = "Administrador"
	}

	account, err := accounts.Create(ctx, &auth.Account{
		Name:            name,
		Email:           email,
		PasswordHash:    hash,
		Department:      seed.AdminDepartment,
		Role:            auth.RoleAdmin,
		DefaultPriority: auth.PriorityMedium,
		IsActive:        true,
	})
	if err != nil {
		return nil, false, err
	}

	if logger != nil {
		logger.Info("seeded admin account", "email", account.Email, "account_id", account.ID.String())
	}

	return account, true, nil
}
