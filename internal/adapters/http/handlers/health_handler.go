package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"salonq/internal/config"
)

// StreamStats reports connected event-stream clients
type StreamStats interface {
	GetClientCount() int
}

// PushStatus reports whether device pushes are delivered
type PushStatus interface {
	IsEnabled() bool
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	db     *gorm.DB
	mode   string
	stream StreamStats
	push   PushStatus
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *gorm.DB, mode string, stream StreamStats, push PushStatus) *HealthHandler {
	return &HealthHandler{db: db, mode: mode, stream: stream, push: push}
}

// Root handles root endpoint
// @Summary Root endpoint
// @Description Returns API status
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "running",
		"message": "salonq API v1 is running",
		"mode":    h.mode,
		"docs":    "/swagger/index.html",
	})
}

// HealthCheck handles health check
// @Summary Health check
// @Description Check API and database health
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	dbStatus := "healthy"
	status := fiber.StatusOK
	if err := config.HealthCheck(h.db); err != nil {
		dbStatus = "unhealthy"
		status = fiber.StatusServiceUnavailable
	}
	pushStatus := "disabled"
	if h.push.IsEnabled() {
		pushStatus = "enabled"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": "ok",
		"checks": fiber.Map{
			"api":      "healthy",
			"database": dbStatus,
			"push":     pushStatus,
		},
		"sse_clients": h.stream.GetClientCount(),
	})
}

// APIInfo handles API v1 info
// @Summary API v1 Info
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1 [get]
func (h *HealthHandler) APIInfo(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "salonq API v1",
		"version": "1.0.0",
	})
}
