package auth

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
)

// RegisterAuthRoutes mounts the auth endpoints on router.
func RegisterAuthRoutes(router fiber.Router, controller *AuthController) {
	group := router.Group(controller.Routes.Prefix)

	group.Post(controller.Routes.Login, controller.LoginUser).Name("auth.login")
	group.Post(controller.Routes.LoginAdmin, controller.LoginAdmin).Name("auth.login-admin")
	group.Post(controller.Routes.Verify, controller.Gates.Authenticate(), controller.Verify).Name("auth.verify")
	group.Get(controller.Routes.Me, controller.Gates.Authenticate(), controller.Me).Name("auth.me")
	group.Post(controller.Routes.Logout, controller.Logout).Name("auth.logout")
}

type AuthControllerRoutes struct {
	Prefix     string
	Login      string
	LoginAdmin string
	Verify     string
	Me         string
	Logout     string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Routes       *AuthControllerRoutes
	Auther       Authenticator
	Gates        *RouteAuthenticator
	ErrorHandler func(c *fiber.Ctx, err error) error
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(ac *AuthController) *AuthController {
		ac.Logger = resolveLogger(logger)
		return ac
	}
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(ac *AuthController) *AuthController {
		ac.Debug = debug
		return ac
	}
}

func NewAuthController(auther Authenticator, gates *RouteAuthenticator, opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Auther: auther,
		Gates:  gates,
		Routes: &AuthControllerRoutes{
			Prefix:     "/auth",
			Login:      "/login",
			LoginAdmin: "/login-admin",
			Verify:     "/verify",
			Me:         "/me",
			Logout:     "/logout",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	if c.Gates == nil {
		panic("Missing RouteAuthenticator in auth controller...")
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = func(ctx *fiber.Ctx, err error) error {
			return WriteError(ctx, err, c.Logger)
		}
	}

	return c
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) LoginUser(ctx *fiber.Ctx) error {
	return a.login(ctx, a.Auther.LoginUser)
}

func (a *AuthController) LoginAdmin(ctx *fiber.Ctx) error {
	return a.login(ctx, a.Auther.LoginAdmin)
}

func (a *AuthController) login(ctx *fiber.Ctx, fn func(context.Context, string, string) (*LoginResult, error)) error {
	payload := new(LoginRequest)
	if err := ctx.BodyParser(payload); err != nil {
		return a.ErrorHandler(ctx, fiber.NewError(fiber.StatusBadRequest, "invalid request body"))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if a.Debug {
		a.Logger.Debug("login request", "email", NormalizeEmail(payload.Email), "path", ctx.Path())
	}

	res, err := fn(ctx.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if a.Debug {
		a.Logger.Debug("login response", "user", print.MaybePrettyJSON(res.Account.View()))
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"message": "login successful",
		"user":    res.Account.View(),
		"token":   res.Token,
	})
}

// Verify reports the account behind the presented token.
func (a *AuthController) Verify(ctx *fiber.Ctx) error {
	return a.Me(ctx)
}

func (a *AuthController) Me(ctx *fiber.Ctx) error {
	account, ok := CurrentAccount(ctx, a.Gates.ContextKey())
	if !ok {
		return a.ErrorHandler(ctx, ErrAuthenticationRequired)
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"user":    account.View(),
	})
}

// Logout is a courtesy endpoint: tokens are stateless and the client
// discards its copy.
func (a *AuthController) Logout(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{
		"success": true,
		"message": "logout successful",
	})
}
