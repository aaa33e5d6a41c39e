// Package app assembles the fiber application that serves the v1 API
package app

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/milescrape/milescrape/internal/api/middleware"
	"github.com/milescrape/milescrape/internal/services"
	"github.com/milescrape/milescrape/pkg/api/v1/handlers"
	"github.com/milescrape/milescrape/pkg/api/v1/routes"
	"github.com/milescrape/milescrape/pkg/types"
)

// New creates the fiber app with middleware and all v1 routes registered
func New(orchestrator *services.Orchestrator, leads *services.Leads) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(middleware.Logger())

	// Register versioned routes
	routes.RegisterRoutes(
		app,
		handlers.NewScanHandler(orchestrator, leads),
		handlers.NewLeadHandler(leads),
		handlers.NewHealthHandler(orchestrator),
	)

	return app
}

// ErrorHandler renders errors that escape the handlers, such as unknown routes
// and recovered panics, in the slug envelope
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	var body types.SlugResponse
	switch {
	case code == fiber.StatusNotFound:
		body = types.ErrNotFound(err.Error())
	case code >= fiber.StatusBadRequest && code < fiber.StatusInternalServerError:
		body = types.ErrInvalidInput(err.Error())
	default:
		body = types.ErrServer(err.Error())
	}

	return c.Status(code).JSON(body)
}
