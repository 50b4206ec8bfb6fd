package repositories

import (
	"context"

	"salonq/internal/adapters/persistence/models"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	ExistsByPhone(ctx context.Context, phone string) (bool, error)
	UpdateDeviceToken(ctx context.Context, id uint, token string) error
	IncrementLoyalty(ctx context.Context, id uint, points int) error
}
