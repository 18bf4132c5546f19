package users

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	auth "github.com/tickethub/go-auth-hub"
)

// NewAccountWindow is how far back stats count an account as new.
const NewAccountWindow = 30 * 24 * time.Hour

// Controller serves the admin user management API
type Controller struct {
	Accounts     auth.Accounts
	Hasher       auth.PasswordAuthenticator
	Gates        *auth.RouteAuthenticator
	Logger       auth.Logger
	Activity     auth.ActivitySink
	PhoneRegion  string
	Now          func() time.Time
	ErrorHandler func(c *fiber.Ctx, err error) error
}

type Option func(*Controller)

func WithLogger(logger auth.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

func WithActivitySink(sink auth.ActivitySink) Option {
	return func(c *Controller) {
		c.Activity = sink
	}
}

func WithPhoneRegion(region string) Option {
	return func(c *Controller) {
		if region != "" {
			c.PhoneRegion = strings.ToUpper(region)
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.Now = now
		}
	}
}

func NewController(accounts auth.Accounts, hasher auth.PasswordAuthenticator, gates *auth.RouteAuthenticator, opts ...Option) *Controller {
	c := &Controller{
		Accounts:    accounts,
		Hasher:      hasher,
		Gates:       gates,
		Logger:      auth.NewSlogLogger(nil),
		PhoneRegion: DefaultPhoneRegion,
		Now:         time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if c.Activity == nil {
		c.Activity = auth.LoggerActivitySink{Logger: c.Logger}
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = func(ctx *fiber.Ctx, err error) error {
			return auth.WriteError(ctx, err, c.Logger)
		}
	}

	return c
}

// RegisterRoutes mounts /users on router. createLimiter may be nil.
func RegisterRoutes(router fiber.Router, c *Controller, createLimiter fiber.Handler) {
	group := router.Group("/users", c.Gates.Authenticate())

	group.Get("/", c.Gates.RequireAdmin(), c.List).Name("users.list")
	group.Get("/stats/overview", c.Gates.RequireAdmin(), c.Stats).Name("users.stats")
	group.Get("/:id", c.Gates.RequireAuthenticated(), c.Get).Name("users.get")

	create := []fiber.Handler{c.Gates.RequireAdmin()}
	if createLimiter != nil {
		create = append(create, createLimiter)
	}
	create = append(create, c.Create)
	group.Post("/", create...).Name("users.create")

	group.Put("/:id", c.Gates.RequireAuthenticated(), c.Update).Name("users.update")
	group.Delete("/:id", c.Gates.RequireAdmin(), c.Deactivate).Name("users.deactivate")
	group.Delete("/:id/hard", c.Gates.RequireAdmin(), c.HardDelete).Name("users.delete")
	group.Patch("/:id/reactivate", c.Gates.RequireAdmin(), c.Reactivate).Name("users.reactivate")
}

func (c *Controller) List(ctx *fiber.Ctx) error {
	records, _, err := c.Accounts.List(ctx.UserContext(), auth.NewestFirst())
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	views := make([]auth.AccountView, 0, len(records))
	for _, record := range records {
		views = append(views, record.View())
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"users":   views,
		"total":   len(views),
	})
}

// Get returns an account to an admin or to the account itself.
func (c *Controller) Get(ctx *fiber.Ctx) error {
	actor, _ := auth.CurrentAccount(ctx, c.Gates.ContextKey())

	id, err := parseID(ctx)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	if !canAccess(actor, id) {
		return c.ErrorHandler(ctx, auth.ErrForbidden)
	}

	record, err := c.Accounts.GetByID(ctx.UserContext(), id.String())
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"user":    record.View(),
	})
}

func (c *Controller) Create(ctx *fiber.Ctx) error {
	actor, _ := auth.CurrentAccount(ctx, c.Gates.ContextKey())

	payload := &CreateAccountRequest{}
	if err := ctx.BodyParser(payload); err != nil {
		return c.ErrorHandler(ctx, fiber.NewError(fiber.StatusBadRequest, "invalid request body"))
	}
	payload.phoneRegion = c.PhoneRegion

	if err := payload.Validate(); err != nil {
		return c.ErrorHandler(ctx, err)
	}

	role, err := auth.ParseRole(payload.Role)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	priority := auth.Priority(payload.DefaultPriority)
	if priority == "" {
		priority = auth.PriorityMedium
	}

	phone, err := NormalizePhone(payload.Phone, c.PhoneRegion)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	hash, err := c.Hasher.HashPassword(payload.Password)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	record, err := c.Accounts.Create(ctx.UserContext(), &auth.Account{
		Name:            strings.TrimSpace(payload.Name),
		Email:           auth.NormalizeEmail(payload.Email),
		PasswordHash:    hash,
		Phone:           phone,
		Department:      strings.TrimSpace(payload.Department),
		Role:            role,
		DefaultPriority: priority,
		IsActive:        true,
	})
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	c.record(ctx, auth.ActivityEventAccountCreated, actor, record, map[string]any{
		"role": string(record.Role),
	})

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "user created",
		"user":    record.View(),
	})
}

// Update edits an account. Non admins may only edit themselves and never
// their role or status.
func (c *Controller) Update(ctx *fiber.Ctx) error {
	actor, _ := auth.CurrentAccount(ctx, c.Gates.ContextKey())

	id, err := parseID(ctx)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	if !canAccess(actor, id) {
		return c.ErrorHandler(ctx, auth.ErrForbidden)
	}

	payload := &UpdateAccountRequest{}
	if err := ctx.BodyParser(payload); err != nil {
		return c.ErrorHandler(ctx, fiber.NewError(fiber.StatusBadRequest, "invalid request body"))
	}
	payload.phoneRegion = c.PhoneRegion

	if !actor.Role.IsAdmin() && payload.ChangesRoleOrStatus() {
		return c.ErrorHandler(ctx, ErrRoleChangeDenied)
	}

	if err := payload.Validate(); err != nil {
		return c.ErrorHandler(ctx, err)
	}

	record, err := c.Accounts.GetByID(ctx.UserContext(), id.String())
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	columns, err := c.applyUpdate(record, payload, actor)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	if len(columns) == 0 {
		return c.ErrorHandler(ctx, ErrNothingToUpdate)
	}

	updated := record
	if writes := withoutColumn(columns, "is_active"); len(writes) > 0 {
		updated, err = c.Accounts.Update(ctx.UserContext(), record, auth.UpdateColumns(writes...))
		if err != nil {
			return c.ErrorHandler(ctx, err)
		}
	}

	if payload.Status != nil {
		updated, err = c.Accounts.SetActive(ctx.UserContext(), record.ID, record.IsActive)
		if err != nil {
			return c.ErrorHandler(ctx, err)
		}
	}

	c.record(ctx, auth.ActivityEventAccountUpdated, actor, updated, map[string]any{
		"fields": strings.Join(columns, ","),
	})

	return ctx.JSON(fiber.Map{
		"success": true,
		"message": "user updated",
		"user":    updated.View(),
	})
}

func (c *Controller) applyUpdate(record *auth.Account, payload *UpdateAccountRequest, actor *auth.Account) ([]string, error) {
	columns := []string{}

	if payload.Name != nil {
		record.Name = strings.TrimSpace(*payload.Name)
		columns = append(columns, "name")
	}

	if payload.Email != nil {
		record.Email = auth.NormalizeEmail(*payload.Email)
		columns = append(columns, "email")
	}

	if payload.Phone != nil {
		phone, err := NormalizePhone(*payload.Phone, c.PhoneRegion)
		if err != nil {
			return nil, err
		}
		record.Phone = phone
		columns = append(columns, "phone")
	}

	if payload.Department != nil {
		record.Department = strings.TrimSpace(*payload.Department)
		columns = append(columns, "department")
	}

	if payload.DefaultPriority != nil {
		record.DefaultPriority = auth.Priority(*payload.DefaultPriority)
		columns = append(columns, "default_priority")
	}

	if payload.Password != nil {
		hash, err := c.Hasher.HashPassword(*payload.Password)
		if err != nil {
			return nil, err
		}
		record.PasswordHash = hash
		columns = append(columns, "password_hash")
	}

	if payload.Role != nil {
		role, err := auth.ParseRole(*payload.Role)
		if err != nil {
			return nil, err
		}
		record.Role = role
		columns = append(columns, "role")
	}

	if payload.Status != nil {
		active := *payload.Status == StatusActive
		if !active && actor != nil && actor.ID == record.ID {
			return nil, ErrSelfDelete
		}
		record.IsActive = active
		columns = append(columns, "is_active")
	}

	return columns, nil
}

// Deactivate soft deletes an account. Existing tokens stop working on the
// next request because sessions only resolve active accounts.
func (c *Controller) Deactivate(ctx *fiber.Ctx) error {
	actor, _ := auth.CurrentAccount(ctx, c.Gates.ContextKey())

	id, err := parseID(ctx)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	if actor != nil && actor.ID == id {
		return c.ErrorHandler(ctx, ErrSelfDelete)
	}

	record, err := c.Accounts.SetActive(ctx.UserContext(), id, false)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	c.record(ctx, auth.ActivityEventAccountDeactivated, actor, record, nil)

	return ctx.JSON(fiber.Map{
		"success": true,
		"message": "user deactivated",
	})
}

func (c *Controller) HardDelete(ctx *fiber.Ctx) error {
	actor, _ := auth.CurrentAccount(ctx, c.Gates.ContextKey())

	id, err := parseID(ctx)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	if actor != nil && actor.ID == id {
		return c.ErrorHandler(ctx, ErrSelfDelete)
	}

	record, err := c.Accounts.GetByID(ctx.UserContext(), id.String())
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	if err := c.Accounts.Delete(ctx.UserContext(), record); err != nil {
		return c.ErrorHandler(ctx, err)
	}

	c.record(ctx, auth.ActivityEventAccountDeleted, actor, record, nil)

	return ctx.JSON(fiber.Map{
		"success": true,
		"message": "user permanently deleted",
	})
}

func (c *Controller) Reactivate(ctx *fiber.Ctx) error {
	actor, _ := auth.CurrentAccount(ctx, c.Gates.ContextKey())

	id, err := parseID(ctx)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	record, err := c.Accounts.GetByID(ctx.UserContext(), id.String())
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	if record.IsActive {
		return c.ErrorHandler(ctx, ErrAlreadyActive)
	}

	record, err = c.Accounts.SetActive(ctx.UserContext(), id, true)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	c.record(ctx, auth.ActivityEventAccountReactivated, actor, record, nil)

	return ctx.JSON(fiber.Map{
		"success": true,
		"message": "user reactivated",
		"user":    record.View(),
	})
}

func (c *Controller) Stats(ctx *fiber.Ctx) error {
	stats, err := c.Accounts.Stats(ctx.UserContext(), c.Now().Add(-NewAccountWindow))
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"stats":   stats,
	})
}

func (c *Controller) record(ctx *fiber.Ctx, event auth.ActivityEventType, actor, subject *auth.Account, metadata map[string]any) {
	userID := ""
	if subject != nil {
		userID = subject.ID.String()
	}
	auth.RecordActivity(ctx.UserContext(), c.Activity, c.Logger, auth.ActivityEvent{
		EventType:  event,
		Actor:      auth.ActorFromAccount(actor),
		UserID:     userID,
		Metadata:   metadata,
		OccurredAt: c.Now(),
	})
}

func canAccess(actor *auth.Account, id uuid.UUID) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case auth.RoleAdmin:
		return true
	case auth.RoleUser:
		return actor.ID == id
	default:
		return false
	}
}

// parseID maps a malformed id to not found; no account can have it.
func parseID(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, auth.ErrAccountNotFound
	}
	return id, nil
}

func withoutColumn(columns []string, drop string) []string {
	out := make([]string, 0, len(columns))
	for _, col := range columns {
		if col != drop {
			out = append(out, col)
		}
	}
	return out
}
