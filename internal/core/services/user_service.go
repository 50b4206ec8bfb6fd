package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"salonq/internal/adapters/persistence/models"
	"salonq/internal/core/domain"
)

// UserStore is the user persistence used by UserService
type UserStore interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	UpdateDeviceToken(ctx context.Context, id uint, token string) error
}

// UserService handles profile lookups and device registration
type UserService struct {
	userRepo UserStore
}

// NewUserService creates a new user service
func NewUserService(userRepo UserStore) *UserService {
	return &UserService{userRepo: userRepo}
}

// DeviceTokenInput registers the device that receives push notifications
type DeviceTokenInput struct {
	DeviceToken string `json:"device_token" validate:"max=255"`
}

// GetProfile returns the caller's profile
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user.ToResponse(), nil
}

// UpdateDeviceToken stores the caller's device token. An empty token unregisters the device.
func (s *UserService) UpdateDeviceToken(ctx context.Context, userID uint, input *DeviceTokenInput) error {
	if _, err := s.GetProfile(ctx, userID); err != nil {
		return err
	}
	if err := s.userRepo.UpdateDeviceToken(ctx, userID, input.DeviceToken); err != nil {
		return err
	}
	log.Debug().Uint("user_id", userID).Bool("registered", input.DeviceToken != "").Msg("device token updated")
	return nil
}
