// Package stats implements the REST API handler for the dashboard summary.
package stats

import (
	"context"

	"github.com/ettoremessina/CveGuardian/database"
	"github.com/gofiber/fiber/v2"
)

// Get handles GET requests for aggregate counts.
func Get(store *database.ProjectStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		summary, err := store.Stats(context.Background())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to fetch stats",
			})
		}
		return c.JSON(summary)
	}
}
