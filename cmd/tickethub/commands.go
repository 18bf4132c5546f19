package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	auth "github.com/tickethub/go-auth-hub"
	"github.com/tickethub/go-auth-hub/config"
	"github.com/tickethub/go-auth-hub/database"
	"github.com/tickethub/go-auth-hub/server"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tickethub",
		Short:         "Ticket Hub authentication and user management API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd(), newHashCmd(), newSeedCmd())

	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API until SIGINT or SIGTERM.

Configuration is read from the environment and an optional .env file.
JWT_SECRET must be set to a strong value outside development.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			logger := newLogger(cfg)

			srv, cleanup, err := server.Build(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := cleanup(); err != nil {
					logger.Error("shutdown cleanup failed", "error", err)
				}
			}()

			return srv.Run(cmd.Context())
		},
	}
}

func newHashCmd() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash PASSWORD [PASSWORD...]",
		Short: "Print bcrypt hashes for seed passwords",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hasher := auth.NewPasswordHasher(cost)
			out := cmd.OutOrStdout()
			for i, password := range args {
				hash, err := hasher.HashPassword(password)
				if err != nil {
					return fmt.Errorf("hash argument %d: %w", i+1, err)
				}
				fmt.Fprintf(out, "%s\t%s\n", password, hash)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&cost, "cost", auth.DefaultPasswordCost, "bcrypt cost factor")

	return cmd
}

func newSeedCmd() *cobra.Command {
	var email, password, name string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the schema and the initial admin account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if email != "" {
				cfg.Seed.AdminEmail = email
			}
			if password != "" {
				cfg.Seed.AdminPassword = password
			}
			if name != "" {
				cfg.Seed.AdminName = name
			}
			if strings.TrimSpace(cfg.Seed.AdminEmail) == "" || cfg.Seed.AdminPassword == "" {
				return fmt.Errorf("admin email and password are required (--email/--password or SEED_ADMIN_EMAIL/SEED_ADMIN_PASSWORD)")
			}

			logger := newLogger(cfg)

			db, err := database.Open(cmd.Context(), cfg.Database, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			repos := auth.NewRepositoryManager(db)
			if err := repos.CreateSchema(cmd.Context()); err != nil {
				return fmt.Errorf("create schema: %w", err)
			}

			account, created, err := database.SeedAdmin(cmd.Context(), repos.Accounts(),
				auth.NewPasswordHasher(cfg.GetPasswordCost()), cfg.Seed, logger)
			if err != nil {
				return err
			}

			state := "already present"
			if created {
				state = "created"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s %s (%s)\n", account.Email, state, account.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "admin email (overrides SEED_ADMIN_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "admin password (overrides SEED_ADMIN_PASSWORD)")
	cmd.Flags().StringVar(&name, "name", "", "admin display name")

	return cmd
}

func newLogger(cfg config.Config) *auth.SlogLogger {
	logger := auth.NewLogger(os.Stdout, cfg.Log.Level, !cfg.IsDevelopment())
	return logger.With("service", "tickethub")
}
