package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"salonq/internal/adapters/http/middleware"
	"salonq/internal/core/services"
	"salonq/internal/pkg/response"
	"salonq/internal/pkg/validation"
)

// QueueHandler handles customer-facing queue endpoints
type QueueHandler struct {
	bookingService *services.BookingService
}

// NewQueueHandler creates a new queue handler
func NewQueueHandler(bookingService *services.BookingService) *QueueHandler {
	return &QueueHandler{
		bookingService: bookingService,
	}
}

// JoinQueue godoc
// @Summary Join a salon queue
// @Tags Queue
// @Accept json
// @Produce json
// @Param input body services.JoinQueueInput true "Join input"
// @Success 201 {object} response.Response
// @Failure 409 {object} response.Response
// @Security BearerAuth
// @Router /queue/join [post]
func (h *QueueHandler) JoinQueue(c *fiber.Ctx) error {
	var input services.JoinQueueInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.Struct(&input); err != nil {
		return response.FromError(c, err)
	}

	booking, err := h.bookingService.JoinQueue(c.UserContext(), middleware.Actor(c), &input)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Joined queue", booking)
}

// ScheduleBooking godoc
// @Summary Book an appointment slot
// @Tags Queue
// @Accept json
// @Produce json
// @Param input body services.ScheduleInput true "Schedule input"
// @Success 201 {object} response.Response
// @Security BearerAuth
// @Router /queue/schedule [post]
func (h *QueueHandler) ScheduleBooking(c *fiber.Ctx) error {
	var input services.ScheduleInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.Struct(&input); err != nil {
		return response.FromError(c, err)
	}

	booking, err := h.bookingService.ScheduleBooking(c.UserContext(), middleware.Actor(c), &input)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Appointment booked", booking)
}

// GetMyBookings godoc
// @Summary List the caller's bookings
// @Tags Queue
// @Produce json
// @Param limit query int false "Max bookings" default(20)
// @Success 200 {object} response.Response
// @Security BearerAuth
// @Router /queue/my-bookings [get]
func (h *QueueHandler) GetMyBookings(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	bookings, err := h.bookingService.ListMyBookings(c.UserContext(), middleware.Actor(c), limit)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Bookings retrieved", bookings)
}

// GetBooking godoc
// @Summary Get a booking
// @Tags Queue
// @Produce json
// @Param id path int true "Booking ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Security BearerAuth
// @Router /queue/bookings/{id} [get]
func (h *QueueHandler) GetBooking(c *fiber.Ctx) error {
	bookingID, err := paramID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid booking ID")
	}

	booking, err := h.bookingService.GetBooking(c.UserContext(), middleware.Actor(c), bookingID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Booking retrieved", booking)
}

// CancelBooking godoc
// @Summary Cancel the caller's booking
// @Tags Queue
// @Accept json
// @Produce json
// @Param id path int true "Booking ID"
// @Param input body services.CancelInput false "Cancel input"
// @Success 200 {object} response.Response
// @Security BearerAuth
// @Router /queue/bookings/{id}/cancel [post]
func (h *QueueHandler) CancelBooking(c *fiber.Ctx) error {
	bookingID, err := paramID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid booking ID")
	}
	input, err := parseOptional[services.CancelInput](c)
	if err != nil {
		return response.FromError(c, err)
	}

	booking, err := h.bookingService.CancelBooking(c.UserContext(), middleware.Actor(c), 0, bookingID, input)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Booking cancelled", booking)
}

// paramID parses a positive numeric route parameter
func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, fiber.ErrBadRequest
	}
	return uint(id), nil
}

// parseOptional parses and validates a body that may be omitted entirely
func parseOptional[T any](c *fiber.Ctx) (*T, error) {
	input := new(T)
	if len(c.Body()) > 0 {
		if err := c.BodyParser(input); err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	return input, nil
}
