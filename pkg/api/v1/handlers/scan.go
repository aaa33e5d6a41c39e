package handlers

import (
	"fmt"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/milescrape/milescrape/internal/db/models"
	"github.com/milescrape/milescrape/internal/services"
	"github.com/milescrape/milescrape/pkg/types"
)

// ScanHandler handles HTTP requests for scan operations
type ScanHandler struct {
	orchestrator *services.Orchestrator
	leads        *services.Leads
}

// NewScanHandler creates a new scan handler instance
func NewScanHandler(orchestrator *services.Orchestrator, leads *services.Leads) *ScanHandler {
	return &ScanHandler{
		orchestrator: orchestrator,
		leads:        leads,
	}
}

// StartScan validates the request and queues a new scan. It does not wait for the scan to run.
func (h *ScanHandler) StartScan(c *fiber.Ctx) error {
	var req types.StartScanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(types.ErrInvalidInput(fmt.Sprintf("%s: %v", ErrMsgInvalidReqBody, err)))
	}

	id, err := h.orchestrator.Start(c.Context(), req)
	if err != nil {
		return respondWithError(c, err, ErrMsgScanStartFailed)
	}

	return c.Status(fiber.StatusCreated).JSON(types.Success(types.StartScanResponse{
		ScanID: id,
		Status: models.ScanStatusPending,
	}))
}

// ListScans lists scans newest first, optionally filtered by status
func (h *ScanHandler) ListScans(c *fiber.Ctx) error {
	page, err := pageParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInput(err.Error()))
	}
	opts := getPaginationOptions(page)

	if statusStr := c.Query("status"); statusStr != "" {
		status, err := models.ParseScanStatus(statusStr)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).
				JSON(types.ErrInvalidInput(fmt.Sprintf("%s: %v", ErrMsgInvalidScanStatus, err)))
		}
		opts.ScanStatus = &status
	}

	scans, err := h.leads.ListScans(c.Context(), opts)
	if err != nil {
		return respondWithError(c, err, ErrMsgScanListFailed)
	}

	return c.JSON(types.Success(types.ListResponse[models.Scan]{
		Rows: scans,
		Pagination: types.PaginationResponse{
			Total:  len(scans),
			Page:   page,
			Limit:  opts.Limit,
			Offset: opts.Offset,
		},
	}))
}

// ListActiveScans lists pending and in-progress scans
func (h *ScanHandler) ListActiveScans(c *fiber.Ctx) error {
	scans, err := h.leads.ListActiveScans(c.Context())
	if err != nil {
		return respondWithError(c, err, ErrMsgScanListFailed)
	}

	return c.JSON(types.Success(types.ListResponse[models.Scan]{
		Rows: scans,
		Pagination: types.PaginationResponse{
			Total: len(scans),
			Page:  1,
			Limit: len(scans),
		},
	}))
}

// GetScan returns the status snapshot of a scan including its log
func (h *ScanHandler) GetScan(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInput(ErrMsgScanIDRequired))
	}

	scan, err := h.orchestrator.Status(c.Context(), id)
	if err != nil {
		return respondWithError(c, err, ErrMsgScanGetFailed)
	}

	return c.JSON(types.Success(scan))
}

// CancelScan requests cancellation of a scan. Cancelling a finished scan is a no-op.
func (h *ScanHandler) CancelScan(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInput(ErrMsgScanIDRequired))
	}

	if err := h.orchestrator.Cancel(c.Context(), id); err != nil {
		return respondWithError(c, err, ErrMsgScanCancelFailed)
	}

	scan, err := h.orchestrator.Status(c.Context(), id)
	if err != nil {
		return respondWithError(c, err, ErrMsgScanGetFailed)
	}

	return c.JSON(types.Success(types.CancelScanResponse{
		ScanID: scan.ID,
		Status: scan.Status,
	}))
}
