package handlers

import (
	fiber "github.com/gofiber/fiber/v2"

	"github.com/milescrape/milescrape/internal/services"
	"github.com/milescrape/milescrape/pkg/types"
)

// Health statuses
const (
	StatusHealthy      = "healthy"
	StatusShuttingDown = "shutting-down"
)

// HealthHandler reports whether the server can accept scans
type HealthHandler struct {
	orchestrator *services.Orchestrator
}

// NewHealthHandler creates a new health handler instance
func NewHealthHandler(orchestrator *services.Orchestrator) *HealthHandler {
	return &HealthHandler{
		orchestrator: orchestrator,
	}
}

// Check returns the orchestrator load. A stopping orchestrator answers 503.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	health := h.orchestrator.Health()
	if !health.Live {
		return c.Status(fiber.StatusServiceUnavailable).JSON(types.SlugResponse{
			Slug:  types.UnavailableSlug,
			Error: ErrMsgScanServiceStopped,
			Data:  types.HealthResponse{Status: StatusShuttingDown, Scans: health},
		})
	}

	return c.JSON(types.Success(types.HealthResponse{Status: StatusHealthy, Scans: health}))
}
