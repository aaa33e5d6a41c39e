// Package middleware provides fiber middleware shared by the API server
package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/milescrape/milescrape/internal/logger"
)

// Logger returns a middleware that logs HTTP requests
func Logger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		// Continue chain
		err := c.Next()

		fields := map[string]interface{}{
			"status":  c.Response().StatusCode(),
			"latency": time.Since(start).String(),
			"ip":      c.IP(),
			"method":  c.Method(),
			"path":    c.Path(),
			"handler": c.Route().Name,
		}
		if err != nil {
			fields["error"] = err.Error()
		}
		logger.InfoWithFields("Request", fields)

		return err
	}
}
