// Package impacted implements the REST API handler for the match list.
package impacted

import (
	"context"

	"github.com/ettoremessina/CveGuardian/database"
	"github.com/ettoremessina/CveGuardian/model"
	"github.com/gofiber/fiber/v2"
)

// List handles GET requests for matches joined with project and CVE
// details, filterable by project key, CVE id substring and severity.
func List(store *database.ProjectStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filter := model.MatchFilter{
			ProjectKey:  c.Query("projectKey"),
			CveContains: c.Query("cveId"),
			Severity:    c.Query("severity"),
		}

		matches, err := store.ListMatches(context.Background(), filter)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		if matches == nil {
			matches = []model.MatchDetail{}
		}
		return c.JSON(matches)
	}
}
