package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	auth "github.com/tickethub/go-auth-hub"
	"github.com/tickethub/go-auth-hub/activitymap"
	"github.com/tickethub/go-auth-hub/config"
	"github.com/tickethub/go-auth-hub/database"
)

// Build opens every backing service described by cfg and returns a ready
// Server plus the function that releases those services.
func Build(ctx context.Context, cfg config.Config, logger auth.Logger) (*Server, func() error, error) {
	db, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}

	closers := []func() error{db.Close}
	cleanup := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	repos := auth.NewRepositoryManager(db)
	repos.MustValidate()

	if cfg.Database.CreateSchema || cfg.IsDevelopment() {
		if err := repos.CreateSchema(ctx); err != nil {
			_ = cleanup()
			return nil, nil, fmt.Errorf("create schema: %w", err)
		}
	}

	hasher := auth.NewPasswordHasher(cfg.GetPasswordCost())

	admin, _, err := database.SeedAdmin(ctx, repos.Accounts(), hasher, cfg.Seed, logger)
	if err != nil {
		_ = cleanup()
		return nil, nil, fmt.Errorf("seed admin: %w", err)
	}
	if admin != nil {
		hasher.CalibrateDummy(admin.PasswordHash)
	}

	var storage fiber.Storage
	if cfg.Redis.URL != "" {
		client, err := ConnectRedis(ctx, cfg.Redis.URL)
		if err != nil {
			_ = cleanup()
			return nil, nil, err
		}
		redisStorage := NewRedisStorage(client, cfg.Redis.KeyPrefix)
		closers = append(closers, redisStorage.Close)
		storage = redisStorage
		logger.Info("rate limit storage", "backend", "redis")
	}

	activity := activitymap.NewLogSink(logger)

	auther := auth.NewAuthenticator(repos.Accounts(), cfg).
		WithLogger(logger).
		WithActivitySink(activity)

	srv := New(Deps{
		Config:   cfg,
		Logger:   logger,
		DB:       db,
		Auther:   auther,
		Accounts: repos.Accounts(),
		Hasher:   hasher,
		Activity: activity,
		Storage:  storage,
	})

	return srv, cleanup, nil
}
