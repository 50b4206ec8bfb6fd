package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"salonq/internal/adapters/http/middleware"
	"salonq/internal/adapters/http/routes"
	"salonq/internal/config"
	"salonq/internal/pkg/logger"

	_ "salonq/docs" // Swagger docs
)

// @title salonq API
// @version 1.0
// @description Salon walk-in queue and booking API

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Init(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer config.CloseDatabase()

	if err := config.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	if cfg.IsDev() {
		if err := config.NewSeeder(db, cfg.Queue.DefaultPriorityLimit).Run(); err != nil {
			log.Warn().Err(err).Msg("demo seed failed")
		}
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "salonq API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes (pass db and cfg for dependency injection)
	autoService, err := routes.Setup(app, db, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to setup routes")
	}

	// Start scheduled queue jobs (quota reset, no-show sweep)
	if err := autoService.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start queue automation")
	}
	defer autoService.Stop()

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Info().Str("port", cfg.Port).Str("mode", cfg.AppMode).Msg("server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	if err := app.Shutdown(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("server stopped gracefully")
}
