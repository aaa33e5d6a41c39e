package handlers

import (
	"fmt"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/milescrape/milescrape/internal/db/models"
	"github.com/milescrape/milescrape/internal/services"
	"github.com/milescrape/milescrape/pkg/types"
)

// LeadHandler handles HTTP requests for leads and dashboard stats
type LeadHandler struct {
	leads *services.Leads
}

// NewLeadHandler creates a new lead handler instance
func NewLeadHandler(leads *services.Leads) *LeadHandler {
	return &LeadHandler{
		leads: leads,
	}
}

// ListLeads lists leads matching the query filters
func (h *LeadHandler) ListLeads(c *fiber.Ctx) error {
	page, err := pageParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInput(err.Error()))
	}
	opts := getPaginationOptions(page)
	opts.ScanID = c.Query("scan_id")
	opts.Location = c.Query("location")

	if m := c.Query("milestone_type"); m != "" {
		milestone, err := models.ParseMilestoneType(m)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).
				JSON(types.ErrInvalidInput(fmt.Sprintf("%s: %v", ErrMsgInvalidMilestone, err)))
		}
		opts.MilestoneType = milestone
	}

	opts.MinScore = c.QueryInt("min_score", 0)
	if opts.MinScore < 0 || opts.MinScore > 100 {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInput(ErrMsgInvalidMinScore))
	}

	switch sort := models.LeadSort(c.Query("sort", string(models.LeadSortRecent))); sort {
	case models.LeadSortRecent, models.LeadSortScore:
		opts.Sort = sort
	default:
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInput(ErrMsgInvalidLeadSort))
	}

	leads, err := h.leads.ListLeads(c.Context(), opts)
	if err != nil {
		return respondWithError(c, err, ErrMsgLeadListFailed)
	}

	return c.JSON(types.Success(types.ListResponse[models.Lead]{
		Rows: leads,
		Pagination: types.PaginationResponse{
			Total:  len(leads),
			Page:   page,
			Limit:  opts.Limit,
			Offset: opts.Offset,
		},
	}))
}

// GetLead returns a single lead
func (h *LeadHandler) GetLead(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInput(ErrMsgLeadIDRequired))
	}

	lead, err := h.leads.GetLead(c.Context(), id)
	if err != nil {
		return respondWithError(c, err, ErrMsgLeadGetFailed)
	}

	return c.JSON(types.Success(lead))
}

// GetStats returns the dashboard counters
func (h *LeadHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.leads.Stats(c.Context())
	if err != nil {
		return respondWithError(c, err, ErrMsgStatsFailed)
	}

	return c.JSON(types.Success(stats))
}
