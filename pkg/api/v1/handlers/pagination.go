package handlers

import (
	"errors"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/milescrape/milescrape/internal/db/models"
)

// getPaginationOptions returns a ListOptions struct for the given 1-based page
func getPaginationOptions(page int) *models.ListOptions {
	if page < 1 {
		page = 1
	}

	return &models.ListOptions{
		Limit:  models.DefaultLimit,
		Offset: (page - 1) * models.DefaultLimit,
	}
}

// pageParam reads the page query parameter, defaulting to the first page
func pageParam(c *fiber.Ctx) (int, error) {
	page := c.QueryInt("page", 1)
	if page < 1 {
		return 0, errors.New(ErrMsgNegativePagination)
	}
	return page, nil
}
