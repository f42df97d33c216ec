package api

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ettoremessina/CveGuardian/database"
	gqlschema "github.com/ettoremessina/CveGuardian/graphql"
	"github.com/ettoremessina/CveGuardian/internal/scanner"
	"github.com/ettoremessina/CveGuardian/restapi"
)

// NewFiberApp creates and configures a Fiber app with REST and GraphQL routes
func NewFiberApp(projectStore *database.ProjectStore, vulnStore *database.VulnStore, orch *scanner.Orchestrator) (*fiber.App, error) {
	schema, err := gqlschema.NewSchema(projectStore, vulnStore)
	if err != nil {
		return nil, fmt.Errorf("create graphql schema: %w", err)
	}

	app := fiber.New(fiber.Config{
		AppName:     "CveGuardian API v1.0",
		BodyLimit:   50 * 1024 * 1024, // 50MB
		ReadTimeout: 60 * time.Second,
	})

	// Middleware
	app.Use(fiberrecover.New())
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))

	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000,http://localhost:4000,http://127.0.0.1:3000,http://127.0.0.1:4000",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		AllowCredentials: true,
		AllowMethods:     "GET, POST, HEAD, PUT, DELETE, PATCH, OPTIONS",
	}))

	app.Use(logger.New())

	// Health check endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	restapi.SetupRoutes(app, projectStore, vulnStore, orch, schema)

	return app, nil
}
