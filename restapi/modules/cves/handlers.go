// Package cves implements the REST API handlers for vulnerability records.
package cves

import (
	"context"
	"time"

	"github.com/ettoremessina/CveGuardian/database"
	"github.com/ettoremessina/CveGuardian/model"
	"github.com/gofiber/fiber/v2"
)

// List handles GET requests with optional severity, id-substring,
// description-substring and published-after filters, paginated.
func List(store *database.VulnStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page := c.QueryInt("page", 1)
		if page < 1 {
			page = 1
		}
		limit := c.QueryInt("limit", 10)
		if limit < 1 {
			limit = 10
		}

		filter := model.CVEFilter{
			Severity:    c.Query("severity"),
			IDContains:  c.Query("cveId"),
			Description: c.Query("description"),
			Offset:      (page - 1) * limit,
			Limit:       limit,
		}

		if raw := c.Query("publishedAfter"); raw != "" {
			ts, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				ts, err = time.Parse("2006-01-02", raw)
			}
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "publishedAfter must be an ISO-8601 date",
				})
			}
			filter.PublishedAfter = ts
		}

		results, total, err := store.ListCVEs(context.Background(), filter)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		if results == nil {
			results = []model.CVE{}
		}

		totalPages := total / limit
		if total%limit != 0 {
			totalPages++
		}

		return c.JSON(model.CVEList{
			Data: results,
			Meta: model.ListMeta{
				Total:      total,
				Page:       page,
				Limit:      limit,
				TotalPages: totalPages,
			},
		})
	}
}

// Get handles GET requests for one record by identifier.
func Get(store *database.VulnStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		cve, err := store.GetCVE(context.Background(), id)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		if cve == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Not found",
			})
		}
		return c.JSON(cve)
	}
}
