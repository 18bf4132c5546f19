// Package server assembles the Ticket Hub HTTP service on fiber.
package server

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/uptrace/bun"

	auth "github.com/tickethub/go-auth-hub"
	"github.com/tickethub/go-auth-hub/config"
	"github.com/tickethub/go-auth-hub/users"
)

// Deps is everything the HTTP surface needs. Storage is optional; when nil
// rate limits use fiber's in-memory storage.
type Deps struct {
	Config   config.Config
	Logger   auth.Logger
	DB       *bun.DB
	Auther   auth.Authenticator
	Accounts auth.Accounts
	Hasher   auth.PasswordAuthenticator
	Activity auth.ActivitySink
	Storage  fiber.Storage
	Now      func() time.Time
}

// Server wraps the fiber app and its lifecycle.
type Server struct {
	app    *fiber.App
	cfg    config.Config
	logger auth.Logger
	db     *bun.DB
	now    func() time.Time
}

func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = auth.NewSlogLogger(nil)
	}

	now := deps.Now
	if now == nil {
		now = time.Now
	}

	s := &Server{
		cfg:    deps.Config,
		logger: logger,
		db:     deps.DB,
		now:    now,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "tickethub",
		DisableStartupMessage: true,
		BodyLimit:             deps.Config.HTTP.BodyLimit,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return auth.WriteError(c, err, logger)
		},
	})

	s.app.Use(recover.New())
	s.app.Use(requestid.New())
	s.app.Use(helmet.New(helmet.Config{
		CrossOriginEmbedderPolicy: "unsafe-none",
		CrossOriginResourcePolicy: "cross-origin",
		ContentSecurityPolicy:     "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data: https:",
	}))
	s.app.Use(cors.New(corsConfig(deps.Config.HTTP.CORSOrigins)))
	s.app.Use(RequestLogger(logger))

	s.app.Get("/health", s.Health).Name("health")

	api := s.app.Group(deps.Config.HTTP.APIPrefix)
	api.Use(limiter.New(limiter.Config{
		Max:          deps.Config.HTTP.RateLimitMax,
		Expiration:   deps.Config.HTTP.RateLimitWindow,
		KeyGenerator: keyByIP("api"),
		LimitReached: limitReached("too many requests from this IP, try again later"),
		Storage:      deps.Storage,
	}))

	gates := auth.NewHTTPAuthenticator(deps.Auther, deps.Config).WithLogger(logger)

	authController := auth.NewAuthController(deps.Auther, gates,
		auth.WithControllerLogger(logger),
		auth.WithControllerDebug(deps.Config.Database.Debug),
	)
	auth.RegisterAuthRoutes(api, authController)

	createLimiter := limiter.New(limiter.Config{
		Max:          deps.Config.HTTP.UserCreateLimitMax,
		Expiration:   deps.Config.HTTP.RateLimitWindow,
		KeyGenerator: keyByIP("users-create"),
		LimitReached: limitReached("too many user creation attempts, try again later"),
		Storage:      deps.Storage,
	})

	usersController := users.NewController(deps.Accounts, deps.Hasher, gates,
		users.WithLogger(logger),
		users.WithActivitySink(deps.Activity),
		users.WithPhoneRegion(deps.Config.HTTP.PhoneRegion),
		users.WithClock(now),
	)
	users.RegisterRoutes(api, usersController, createLimiter)

	s.app.Use(s.NotFound)

	return s
}

// App exposes the fiber app, mostly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run serves on the configured port until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.cfg.Addr(), "env", s.cfg.Env)
		errCh <- s.app.Listen(s.cfg.Addr())
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down")

	timeout := s.cfg.HTTP.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if err := s.app.ShutdownWithTimeout(timeout); err != nil {
		return err
	}

	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Health reports liveness and database reachability.
func (s *Server) Health(c *fiber.Ctx) error {
	body := fiber.Map{
		"success":     true,
		"message":     "Ticket Hub API is running",
		"timestamp":   s.now().UTC().Format(time.RFC3339),
		"environment": s.cfg.Env,
	}

	if s.db != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			s.logger.Error("health check database ping failed", "error", err)
			body["success"] = false
			body["message"] = "database unavailable"
			return c.Status(fiber.StatusServiceUnavailable).JSON(body)
		}
	}

	return c.JSON(body)
}

func (s *Server) NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"success": false,
		"message": "route not found",
		"path":    c.OriginalURL(),
	})
}

func corsConfig(origins []string) cors.Config {
	cleaned := make([]string, 0, len(origins))
	wildcard := false
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			wildcard = true
		}
		cleaned = append(cleaned, origin)
	}

	cfg := cors.Config{
		AllowOrigins:     strings.Join(cleaned, ","),
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: !wildcard,
	}
	if cfg.AllowOrigins == "" {
		cfg.AllowOrigins = "*"
		cfg.AllowCredentials = false
	}
	return cfg
}

func keyByIP(scope string) func(*fiber.Ctx) string {
	return func(c *fiber.Ctx) string {
		return scope + ":" + c.IP()
	}
}

func limitReached(message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"success": false,
			"message": message,
		})
	}
}
