// Package restapi provides the main router and initialization for REST API
// endpoints.
package restapi

import (
	"github.com/ettoremessina/CveGuardian/database"
	"github.com/ettoremessina/CveGuardian/internal/scanner"
	"github.com/ettoremessina/CveGuardian/restapi/modules/cves"
	"github.com/ettoremessina/CveGuardian/restapi/modules/impacted"
	"github.com/ettoremessina/CveGuardian/restapi/modules/projects"
	"github.com/ettoremessina/CveGuardian/restapi/modules/stats"
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
)

// SetupRoutes configures all REST API routes and the GraphQL endpoint.
func SetupRoutes(app *fiber.App, projectStore *database.ProjectStore, vulnStore *database.VulnStore, orch *scanner.Orchestrator, schema graphql.Schema) {
	// API Group /api/v1
	api := app.Group("/api/v1")

	// GraphQL Route
	api.Post("/graphql", GraphQLHandler(schema))

	// Projects
	projectGroup := api.Group("/projects")
	projectGroup.Get("/", projects.List(projectStore))
	projectGroup.Post("/", projects.Create(projectStore))
	projectGroup.Put("/:key", projects.Update(projectStore))
	projectGroup.Delete("/:key", projects.Delete(projectStore))
	projectGroup.Post("/:key/scan", projects.Scan(projectStore, orch))
	projectGroup.Get("/:key/dependencies", projects.Dependencies(projectStore))

	// Vulnerability records
	cveGroup := api.Group("/cves")
	cveGroup.Get("/", cves.List(vulnStore))
	cveGroup.Get("/:id", cves.Get(vulnStore))

	// Matches and dashboard
	api.Get("/impacted", impacted.List(projectStore))
	api.Get("/stats", stats.Get(projectStore))
}
