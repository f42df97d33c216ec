// Package projects implements the REST API handlers for project management
// and scan triggering.
package projects

import (
	"context"
	"errors"

	"github.com/ettoremessina/CveGuardian/database"
	"github.com/ettoremessina/CveGuardian/internal/scanner"
	"github.com/ettoremessina/CveGuardian/model"
	"github.com/ettoremessina/CveGuardian/util"
	"github.com/gofiber/fiber/v2"
)

// List handles GET requests for all projects.
func List(store *database.ProjectStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		projects, err := store.ListProjects(context.Background())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		if projects == nil {
			projects = []model.Project{}
		}
		return c.JSON(projects)
	}
}

// Create handles POST requests to register a new project.
func Create(store *database.ProjectStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req model.ProjectRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body: " + err.Error(),
			})
		}
		if util.IsEmpty(req.Name) || util.IsEmpty(req.RepoURL) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "name and repo_url are required",
			})
		}

		created, err := store.CreateProject(context.Background(), model.Project{
			Name:        req.Name,
			RepoURL:     req.RepoURL,
			Branch:      req.Branch,
			Description: req.Description,
		})
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	}
}

// Update handles PUT requests for project metadata.
func Update(store *database.ProjectStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Params("key")

		var req model.ProjectRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body: " + err.Error(),
			})
		}

		updated, err := store.UpdateProject(context.Background(), key, req)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		if updated == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Project not found",
			})
		}
		return c.JSON(updated)
	}
}

// Delete handles DELETE requests; dependencies and matches go with the
// project.
func Delete(store *database.ProjectStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Params("key")
		if err := store.DeleteProject(context.Background(), key); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"success": true})
	}
}

// Dependencies handles GET requests for a project's current inventory.
func Dependencies(store *database.ProjectStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Params("key")
		deps, err := store.ListDependencies(context.Background(), key)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		if deps == nil {
			deps = []model.Dependency{}
		}
		return c.JSON(deps)
	}
}

// Scan handles POST requests to scan a project synchronously. A scan
// already in flight for the same project is rejected rather than queued.
func Scan(store *database.ProjectStore, orch *scanner.Orchestrator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Params("key")
		ctx := context.Background()

		outcome, err := orch.Scan(ctx, key)
		if errors.Is(err, scanner.ErrScanInProgress) {
			return c.Status(fiber.StatusConflict).JSON(model.ScanResponse{
				Success: false,
				Message: err.Error(),
			})
		}
		if err != nil {
			resp := model.ScanResponse{Success: false, Message: err.Error(), Outcome: outcome}
			return c.Status(fiber.StatusInternalServerError).JSON(resp)
		}

		project, perr := store.GetProject(ctx, key)
		if perr != nil {
			project = nil
		}
		return c.JSON(model.ScanResponse{
			Success: true,
			Outcome: outcome,
			Project: project,
		})
	}
}
