package middleware

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// RequestLogger is a Fiber middleware that emits one structured log line per request.
func RequestLogger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		// The app error handler has not run yet, so derive the status from err.
		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}

		attrs := []any{
			"method", c.Method(),
			"path", c.Path(),
			"route", c.Route().Path,
			"status", status,
			"duration_ms", float64(time.Since(start).Microseconds()) / 1000.0,
			"request_id", c.Locals(requestid.ConfigDefault.ContextKey),
			"client_ip", c.IP(),
		}

		if status >= fiber.StatusInternalServerError {
			logger.ErrorContext(c.UserContext(), "http.request", attrs...)
		} else {
			logger.InfoContext(c.UserContext(), "http.request", attrs...)
		}
		return err
	}
}
