package routes

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"salonq/internal/adapters/http/handlers"
	"salonq/internal/adapters/http/middleware"
	"salonq/internal/adapters/persistence/repositories"
	"salonq/internal/config"
	"salonq/internal/core/services"
)

// Setup configures all routes for the application and returns the queue
// automation service so the caller can start and stop its jobs
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) (*services.QueueAutoService, error) {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	queueRepo := repositories.NewQueueRepository(db)

	// Initialize services
	policy, err := services.NewPolicy()
	if err != nil {
		return nil, fmt.Errorf("build policy: %w", err)
	}
	ledger := services.NewQueueLedger()
	tokens := services.NewTokenAllocator()
	hub := services.NewSSEHub()
	waitService := services.NewWaitTimeService(queueRepo)
	pushService := services.NewNotificationService(services.PushConfig{
		Endpoint:  cfg.Push.Endpoint,
		ServerKey: cfg.Push.ServerKey,
	})
	notifyService := services.NewQueueNotifyService(hub, pushService, queueRepo, waitService)

	bookingService := services.NewBookingService(queueRepo, ledger, tokens, policy, notifyService)
	priorityService := services.NewPriorityService(queueRepo, ledger, policy, notifyService)
	salonService := services.NewSalonService(queueRepo, ledger, policy, notifyService)
	userService := services.NewUserService(userRepo)
	autoService := services.NewQueueAutoService(queueRepo, bookingService, services.AutoConfig{
		QuotaResetSpec: cfg.Queue.QuotaResetCron,
		NoShowSpec:     cfg.Queue.NoShowCron,
		NoShowGrace:    cfg.Queue.NoShowGrace,
	})

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db, cfg.AppMode, hub, pushService)
	userHandler := handlers.NewUserHandler(userService)
	queueHandler := handlers.NewQueueHandler(bookingService)
	queueAdminHandler := handlers.NewQueueAdminHandler(bookingService, priorityService, salonService)
	displayHandler := handlers.NewQueueDisplayHandler(salonService, waitService, hub, cfg.Queue.SSEHeartbeat)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	setupAPIV1Routes(apiV1, cfg, healthHandler, userHandler, queueHandler, queueAdminHandler, displayHandler)

	return autoService, nil
}

// setupAPIV1Routes configures API v1 routes
func setupAPIV1Routes(
	router fiber.Router,
	cfg *config.Config,
	healthHandler *handlers.HealthHandler,
	userHandler *handlers.UserHandler,
	queueHandler *handlers.QueueHandler,
	queueAdminHandler *handlers.QueueAdminHandler,
	displayHandler *handlers.QueueDisplayHandler,
) {
	// API Info
	router.Get("/", healthHandler.APIInfo)

	// Profile routes (Authenticated users)
	profileRoutes := router.Group("/me")
	profileRoutes.Use(middleware.AuthMiddleware(cfg))
	setupProfileRoutes(profileRoutes, userHandler)

	// Customer queue routes (Authenticated users)
	queueRoutes := router.Group("/queue")
	queueRoutes.Use(middleware.AuthMiddleware(cfg), middleware.NoCacheHeaders())
	setupQueueRoutes(queueRoutes, queueHandler)

	// Salon routes: public reads plus staff operations checked per salon
	salonRoutes := router.Group("/salons")
	setupSalonRoutes(salonRoutes, cfg, displayHandler, queueAdminHandler)
}

// setupProfileRoutes configures the caller's profile routes
func setupProfileRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", middleware.PrivateCacheHeaders(30*time.Second), handler.GetMe)
	router.Put("/device-token", handler.UpdateDeviceToken)
}

// setupQueueRoutes configures customer queue routes
func setupQueueRoutes(router fiber.Router, handler *handlers.QueueHandler) {
	router.Post("/join", handler.JoinQueue)
	router.Post("/schedule", handler.ScheduleBooking)
	router.Get("/my-bookings", handler.GetMyBookings)
	router.Get("/bookings/:id", handler.GetBooking)
	router.Post("/bookings/:id/cancel", handler.CancelBooking)
}

// setupSalonRoutes configures salon routes
func setupSalonRoutes(
	router fiber.Router,
	cfg *config.Config,
	display *handlers.QueueDisplayHandler,
	admin *handlers.QueueAdminHandler,
) {
	optional := middleware.OptionalAuth(cfg)
	auth := middleware.AuthMiddleware(cfg)

	// PUBLIC - token only personalizes the estimate
	router.Get("/", display.ListSalons)
	router.Get("/:id", display.GetSalon)
	router.Get("/:id/wait-time", optional, middleware.NoCacheHeaders(), display.GetWaitTime)
	router.Get("/:id/events", middleware.StreamAuth(cfg), display.SalonEvents)

	// Staff
	router.Get("/:id/queue", auth, middleware.NoCacheHeaders(), admin.GetQueue)
	router.Post("/:id/walk-in", auth, admin.CreateWalkIn)
	router.Post("/:id/reorder", auth, admin.Reorder)
	router.Put("/:id/settings", auth, admin.UpdateSettings)
	router.Get("/:id/priority-logs", auth, admin.GetPriorityLogs)

	bookings := router.Group("/:id/bookings/:bid", auth)
	bookings.Post("/arrive", admin.MarkArrived())
	bookings.Post("/start", admin.StartService())
	bookings.Post("/complete", admin.CompleteBooking())
	bookings.Post("/cancel", admin.CancelBooking())
	bookings.Post("/skip", admin.SkipBooking())
	bookings.Post("/undo-skip", admin.UndoSkip())
	bookings.Post("/priority", admin.StartPriority())
}
