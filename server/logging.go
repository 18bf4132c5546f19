package server

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	auth "github.com/tickethub/go-auth-hub"
)

// RequestLogger logs one line per request once the handler chain returns.
func RequestLogger(logger auth.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		args := []any{
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency", time.Since(start).String(),
			"ip", c.IP(),
		}
		if id, ok := c.Locals("requestid").(string); ok && id != "" {
			args = append(args, "request_id", id)
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			logger.Error("http request", args...)
		case status >= fiber.StatusBadRequest:
			logger.Warn("http request", args...)
		default:
			logger.Info("http request", args...)
		}

		return err
	}
}
