package handlers

import (
	"github.com/gofiber/fiber/v2"

	"salonq/internal/adapters/http/middleware"
	"salonq/internal/core/services"
	"salonq/internal/pkg/pagination"
	"salonq/internal/pkg/response"
	"salonq/internal/pkg/validation"
)

// QueueAdminHandler handles salon staff queue endpoints.
// Every route is scoped by :id (salon) and authorized by the service policy.
type QueueAdminHandler struct {
	bookingService  *services.BookingService
	priorityService *services.PriorityService
	salonService    *services.SalonService
}

// NewQueueAdminHandler creates a new queue admin handler
func NewQueueAdminHandler(
	bookingService *services.BookingService,
	priorityService *services.PriorityService,
	salonService *services.SalonService,
) *QueueAdminHandler {
	return &QueueAdminHandler{
		bookingService:  bookingService,
		priorityService: priorityService,
		salonService:    salonService,
	}
}

// bookingAction is a staff operation on one booking of a salon
type bookingAction func(c *fiber.Ctx, salonID, bookingID uint) (interface{}, error)

// withBooking parses :id and :bid, runs action and writes the result
func withBooking(message string, action bookingAction) fiber.Handler {
	return func(c *fiber.Ctx) error {
		salonID, err := paramID(c, "id")
		if err != nil {
			return response.BadRequest(c, "Invalid salon ID")
		}
		bookingID, err := paramID(c, "bid")
		if err != nil {
			return response.BadRequest(c, "Invalid booking ID")
		}
		result, err := action(c, salonID, bookingID)
		if err != nil {
			return response.FromError(c, err)
		}
		return response.Success(c, message, result)
	}
}

// ============================================================
// Queue view
// ============================================================

// GET /api/v1/salons/:id/queue: active and skipped bookings with the salon estimate
func (h *QueueAdminHandler) GetQueue(c *fiber.Ctx) error {
	salonID, err := paramID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid salon ID")
	}
	view, err := h.bookingService.GetSalonQueue(c.UserContext(), middleware.Actor(c), salonID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Queue retrieved", view)
}

// POST /api/v1/salons/:id/reorder: compact positions
func (h *QueueAdminHandler) Reorder(c *fiber.Ctx) error {
	salonID, err := paramID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid salon ID")
	}
	active, err := h.bookingService.Reorder(c.UserContext(), middleware.Actor(c), salonID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Queue reordered", active)
}

// POST /api/v1/salons/:id/walk-in: register a walk-in customer
func (h *QueueAdminHandler) CreateWalkIn(c *fiber.Ctx) error {
	salonID, err := paramID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid salon ID")
	}

	var input services.WalkInInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.Struct(&input); err != nil {
		return response.FromError(c, err)
	}

	booking, err := h.bookingService.CreateWalkIn(c.UserContext(), middleware.Actor(c), salonID, &input)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Walk-in created", booking)
}

// ============================================================
// Booking lifecycle
// ============================================================

// POST /api/v1/salons/:id/bookings/:bid/arrive
func (h *QueueAdminHandler) MarkArrived() fiber.Handler {
	return withBooking("Booking checked in", func(c *fiber.Ctx, salonID, bookingID uint) (interface{}, error) {
		return h.bookingService.MarkArrived(c.UserContext(), middleware.Actor(c), salonID, bookingID)
	})
}

// POST /api/v1/salons/:id/bookings/:bid/start
func (h *QueueAdminHandler) StartService() fiber.Handler {
	return withBooking("Service started", func(c *fiber.Ctx, salonID, bookingID uint) (interface{}, error) {
		input, err := parseOptional[services.StartInput](c)
		if err != nil {
			return nil, err
		}
		return h.bookingService.StartService(c.UserContext(), middleware.Actor(c), salonID, bookingID, input)
	})
}

// POST /api/v1/salons/:id/bookings/:bid/complete
func (h *QueueAdminHandler) CompleteBooking() fiber.Handler {
	return withBooking("Booking completed", func(c *fiber.Ctx, salonID, bookingID uint) (interface{}, error) {
		return h.bookingService.CompleteBooking(c.UserContext(), middleware.Actor(c), salonID, bookingID)
	})
}

// POST /api/v1/salons/:id/bookings/:bid/cancel
func (h *QueueAdminHandler) CancelBooking() fiber.Handler {
	return withBooking("Booking cancelled", func(c *fiber.Ctx, salonID, bookingID uint) (interface{}, error) {
		input, err := parseOptional[services.CancelInput](c)
		if err != nil {
			return nil, err
		}
		return h.bookingService.CancelBooking(c.UserContext(), middleware.Actor(c), salonID, bookingID, input)
	})
}

// POST /api/v1/salons/:id/bookings/:bid/skip
func (h *QueueAdminHandler) SkipBooking() fiber.Handler {
	return withBooking("Booking skipped", func(c *fiber.Ctx, salonID, bookingID uint) (interface{}, error) {
		input, err := parseOptional[services.SkipInput](c)
		if err != nil {
			return nil, err
		}
		return h.bookingService.SkipBooking(c.UserContext(), middleware.Actor(c), salonID, bookingID, input)
	})
}

// POST /api/v1/salons/:id/bookings/:bid/undo-skip
func (h *QueueAdminHandler) UndoSkip() fiber.Handler {
	return withBooking("Booking restored", func(c *fiber.Ctx, salonID, bookingID uint) (interface{}, error) {
		input, err := parseOptional[services.UndoSkipInput](c)
		if err != nil {
			return nil, err
		}
		return h.bookingService.UndoSkip(c.UserContext(), middleware.Actor(c), salonID, bookingID, input)
	})
}

// POST /api/v1/salons/:id/bookings/:bid/priority: serve out of turn
func (h *QueueAdminHandler) StartPriority() fiber.Handler {
	return withBooking("Priority service started", func(c *fiber.Ctx, salonID, bookingID uint) (interface{}, error) {
		input, err := parseOptional[services.PriorityInput](c)
		if err != nil {
			return nil, err
		}
		return h.priorityService.StartPriority(c.UserContext(), middleware.Actor(c), salonID, bookingID, input)
	})
}

// ============================================================
// Salon management
// ============================================================

// PUT /api/v1/salons/:id/settings
func (h *QueueAdminHandler) UpdateSettings(c *fiber.Ctx) error {
	salonID, err := paramID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid salon ID")
	}

	var input services.SettingsInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.Struct(&input); err != nil {
		return response.FromError(c, err)
	}

	salon, err := h.salonService.UpdateSettings(c.UserContext(), middleware.Actor(c), salonID, &input)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Settings updated", salon)
}

// GET /api/v1/salons/:id/priority-logs?page=&limit=
func (h *QueueAdminHandler) GetPriorityLogs(c *fiber.Ctx) error {
	salonID, err := paramID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid salon ID")
	}
	logs, err := h.priorityService.ListPriorityLogs(c.UserContext(), middleware.Actor(c), salonID, pagination.GetParams(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Priority logs retrieved", logs)
}
