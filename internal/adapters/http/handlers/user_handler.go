package handlers

import (
	"github.com/gofiber/fiber/v2"

	"salonq/internal/adapters/http/middleware"
	"salonq/internal/core/services"
	"salonq/internal/pkg/response"
	"salonq/internal/pkg/validation"
)

// UserHandler handles the caller's own profile endpoints
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// GetMe handles getting the current user's profile
// @Summary Get my profile
// @Description Get the authenticated user's profile and loyalty balance
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /me [get]
func (h *UserHandler) GetMe(c *fiber.Ctx) error {
	user, err := h.userService.GetProfile(c.UserContext(), middleware.Actor(c).UserID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Profile retrieved successfully", user)
}

// UpdateDeviceToken handles registering the push device
// @Summary Register push device
// @Description Store the device token used for booking notifications. An empty token unregisters.
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body services.DeviceTokenInput true "Device token"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /me/device-token [put]
func (h *UserHandler) UpdateDeviceToken(c *fiber.Ctx) error {
	var input services.DeviceTokenInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.Struct(&input); err != nil {
		return response.FromError(c, err)
	}

	if err := h.userService.UpdateDeviceToken(c.UserContext(), middleware.Actor(c).UserID, &input); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Device token updated", nil)
}
