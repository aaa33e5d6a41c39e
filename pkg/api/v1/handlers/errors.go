// Package handlers provides HTTP request handling
package handlers

import (
	"errors"
	"fmt"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/milescrape/milescrape/internal/services"
	"github.com/milescrape/milescrape/pkg/types"
)

// Common error messages
const (
	ErrMsgInvalidReqBody     = "Invalid request body"
	ErrMsgNegativePagination = "Page must be a positive number from 1"
)

// Scan error messages
const (
	ErrMsgScanIDRequired     = "Scan id is required"
	ErrMsgScanStartFailed    = "Failed to start scan"
	ErrMsgScanCancelFailed   = "Failed to cancel scan"
	ErrMsgScanGetFailed      = "Failed to get scan"
	ErrMsgScanListFailed     = "Failed to list scans"
	ErrMsgInvalidScanStatus  = "Invalid scan status"
	ErrMsgScanServiceStopped = "Scan service is shutting down"
)

// Lead error messages
const (
	ErrMsgLeadIDRequired   = "Lead id is required"
	ErrMsgLeadGetFailed    = "Failed to get lead"
	ErrMsgLeadListFailed   = "Failed to list leads"
	ErrMsgInvalidMilestone = "Invalid milestone type"
	ErrMsgInvalidMinScore  = "min_score must be between 0 and 100"
	ErrMsgInvalidLeadSort  = "sort must be one of: recent, score"
	ErrMsgStatsFailed      = "Failed to compute stats"
)

// respondWithError maps a service error onto a status code and slug envelope.
// msg prefixes errors that do not carry their own meaning for the caller.
func respondWithError(c *fiber.Ctx, err error, msg string) error {
	switch {
	case services.IsValidationError(err):
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInput(err.Error()))
	case services.IsNotFound(err):
		return c.Status(fiber.StatusNotFound).JSON(types.ErrNotFound(err.Error()))
	case errors.Is(err, services.ErrQueueFull), errors.Is(err, services.ErrShuttingDown):
		return c.Status(fiber.StatusServiceUnavailable).JSON(types.ErrUnavailable(err.Error()))
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrServer(fmt.Sprintf("%s: %v", msg, err)))
	}
}
