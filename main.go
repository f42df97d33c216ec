package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ettoremessina/CveGuardian/config"
	"github.com/ettoremessina/CveGuardian/database"
	"github.com/ettoremessina/CveGuardian/internal/api"
	"github.com/ettoremessina/CveGuardian/internal/matcher"
	"github.com/ettoremessina/CveGuardian/internal/nvd"
	"github.com/ettoremessina/CveGuardian/internal/scanner"
)

func main() {
	logger := database.InitLogger()
	defer logger.Sync() //nolint:errcheck

	cfg, err := config.Load()
	if err != nil {
		logger.Sugar().Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.InitializeDatabase(cfg, logger)
	if err != nil {
		logger.Sugar().Fatalf("Failed to initialize database: %v", err)
	}

	projectStore := database.NewProjectStore(db)
	vulnStore := database.NewVulnStore(db)

	matchEngine := matcher.New(vulnStore, projectStore, logger)

	orch := scanner.New(scanner.Config{
		Binary:       cfg.Scanner.Binary,
		TempRoot:     cfg.Scanner.TempRoot,
		CloneTimeout: cfg.Scanner.CloneTimeout,
		RunTimeout:   cfg.Scanner.RunTimeout,
	}, projectStore, matchEngine, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	feed := nvd.NewClient(cfg.NVD.BaseURL, cfg.NVD.APIKey, cfg.NVD.PageSize)
	scheduler := nvd.NewScheduler(feed, vulnStore, cfg.NVD.Interval, cfg.NVD.PageDelay, logger)
	go scheduler.Run(ctx)

	app, err := api.NewFiberApp(projectStore, vulnStore, orch)
	if err != nil {
		logger.Sugar().Fatalf("Failed to build API: %v", err)
	}

	go func() {
		<-ctx.Done()
		logger.Sugar().Info("Shutting down")
		_ = app.Shutdown()
	}()

	logger.Sugar().Infof("Starting server on port %s", cfg.HTTPPort)
	logger.Sugar().Infof("GraphQL endpoint available at /api/v1/graphql")
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		logger.Sugar().Fatalf("Failed to start server: %v", err)
	}
}
