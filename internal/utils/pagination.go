package utils

import (
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

const (
	DefaultPage    = 1
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// Pagination holds pagination parameters.
type Pagination struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Offset  int `json:"offset"`
}

// NewPagination clamps page and perPage to usable values and computes the offset.
func NewPagination(page, perPage int) Pagination {
	if page < 1 {
		page = DefaultPage
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	// keep (page-1)*perPage within int
	if maxPage := math.MaxInt / perPage; page > maxPage {
		page = maxPage
	}
	return Pagination{
		Page:    page,
		PerPage: perPage,
		Offset:  (page - 1) * perPage,
	}
}

// GetPagination extracts page and per_page from the query string.
// Unparseable values fall back to the defaults.
func GetPagination(c *fiber.Ctx) Pagination {
	page, err := strconv.Atoi(c.Query("page", strconv.Itoa(DefaultPage)))
	if err != nil {
		page = DefaultPage
	}
	perPage, err := strconv.Atoi(c.Query("per_page", strconv.Itoa(DefaultPerPage)))
	if err != nil {
		perPage = DefaultPerPage
	}
	return NewPagination(page, perPage)
}

// TotalPages calculates the number of pages based on the total items and items per page.
func TotalPages(totalItems int64, perPage int) int {
	if perPage < 1 {
		return 0
	}
	pages := int(totalItems) / perPage
	if int(totalItems)%perPage > 0 {
		pages++
	}
	return pages
}
