package auth

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"

	"github.com/tickethub/go-auth-hub/middleware/jwtware"
)

// RouteAuthenticator exposes the access control gates as fiber handlers.
type RouteAuthenticator struct {
	auth         Authenticator
	cfg          Config
	contextKey   string
	Logger       Logger
	ErrorHandler func(c *fiber.Ctx, err error) error
}

func NewHTTPAuthenticator(auther Authenticator, cfg Config) *RouteAuthenticator {
	key := cfg.GetContextKey()
	if key == "" {
		key = DefaultContextKey
	}

	a := &RouteAuthenticator{
		auth:       auther,
		cfg:        cfg,
		contextKey: key,
		Logger:     defLogger{},
	}
	a.ErrorHandler = a.defaultErrHandler

	return a
}

func (a *RouteAuthenticator) WithLogger(logger Logger) *RouteAuthenticator {
	a.Logger = resolveLogger(logger)
	return a
}

// ContextKey is the locals key the account is stored under.
func (a *RouteAuthenticator) ContextKey() string {
	return a.contextKey
}

// Authenticate requires a valid bearer token whose account is still active.
// A missing or malformed header is rejected before the store is touched.
func (a *RouteAuthenticator) Authenticate() fiber.Handler {
	return jwtware.New(jwtware.Config{
		AuthScheme: a.cfg.GetAuthScheme(),
		Verify: func(c *fiber.Ctx, token string) error {
			session, err := a.auth.VerifySession(c.UserContext(), token)
			if err != nil {
				return err
			}
			attachSession(c, a.contextKey, session)
			return nil
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
				return a.ErrorHandler(c, ErrTokenRequired)
			}
			return a.ErrorHandler(c, err)
		},
	})
}

// RequireAdmin lets only admin accounts through. Must run after Authenticate.
func (a *RouteAuthenticator) RequireAdmin() fiber.Handler {
	return a.requireRole(RoleAdmin)
}

// RequireUser lets only user accounts through. Admins are rejected.
func (a *RouteAuthenticator) RequireUser() fiber.Handler {
	return a.requireRole(RoleUser)
}

// RequireAuthenticated only checks that Authenticate attached an account.
func (a *RouteAuthenticator) RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CurrentAccount(c, a.contextKey); !ok {
			return a.ErrorHandler(c, ErrAuthenticationRequired)
		}
		return c.Next()
	}
}

func (a *RouteAuthenticator) requireRole(required Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		account, ok := CurrentAccount(c, a.contextKey)
		if !ok {
			return a.ErrorHandler(c, ErrAuthenticationRequired)
		}

		if account.Role.Satisfies(required) {
			return c.Next()
		}

		a.Logger.Info("access denied",
			"required", string(required),
			"role", string(account.Role),
			"account_id", account.ID.String(),
			"path", c.Path(),
		)

		switch required {
		case RoleAdmin:
			return a.ErrorHandler(c, ErrAdminRequired)
		case RoleUser:
			return a.ErrorHandler(c, ErrUserRequired)
		default:
			return a.ErrorHandler(c, ErrForbidden)
		}
	}
}

func (a *RouteAuthenticator) defaultErrHandler(c *fiber.Ctx, err error) error {
	return WriteError(c, err, a.Logger)
}

// WriteError renders err as {success:false,message}. Internal errors are
// logged with their cause and reported with a generic message.
func WriteError(c *fiber.Ctx, err error, logger Logger) error {
	logger = resolveLogger(logger)

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "validation failed",
			"errors":  validationMessages(verrs),
		})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"success": false,
			"message": fiberErr.Message,
		})
	}

	if IsInternal(err) {
		attrs := []any{"error", err, "path", c.Path(), "method", c.Method()}
		var richErr *goerrors.Error
		if errors.As(err, &richErr) && len(richErr.Metadata) > 0 {
			attrs = append(attrs, "details", print.MaybePrettyJSON(richErr.Metadata))
		}
		logger.Error("request failed", attrs...)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": ErrInternal.Message,
		})
	}

	var richErr *goerrors.Error
	errors.As(err, &richErr)

	return c.Status(HTTPStatus(err)).JSON(fiber.Map{
		"success": false,
		"message": richErr.Message,
	})
}

func validationMessages(errs validation.Errors) map[string]string {
	out := make(map[string]string, len(errs))
	for field, err := range errs {
		if err == nil {
			continue
		}
		out[field] = err.Error()
	}
	return out
}
