package models

import (
	"time"

	"salonq/internal/core/domain"

	"gorm.io/gorm"
)

// ============================================================
// Users
// ============================================================

// User represents users table (customers and salon owners)
type User struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Name          string         `gorm:"size:100;not null" json:"name"`
	Phone         *string        `gorm:"size:20;uniqueIndex" json:"phone"`
	Email         *string        `gorm:"size:100;uniqueIndex" json:"email,omitempty"`
	Role          domain.Role    `gorm:"size:20;default:'customer'" json:"role"`
	DeviceToken   string         `gorm:"size:255" json:"-"`
	LoyaltyPoints int            `gorm:"default:0" json:"loyalty_points"`
	TotalBookings int            `gorm:"default:0" json:"total_bookings"`
	IsActive      bool           `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID            uint        `json:"id"`
	Name          string      `json:"name"`
	Role          domain.Role `json:"role"`
	LoyaltyPoints int         `json:"loyalty_points"`
	TotalBookings int         `json:"total_bookings"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:            u.ID,
		Name:          u.Name,
		Role:          u.Role,
		LoyaltyPoints: u.LoyaltyPoints,
		TotalBookings: u.TotalBookings,
	}
}

// AutoMigrate runs auto migration for all salonq tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Salon{},
		&Staff{},
		&SalonService{},
		&Booking{},
		&BookingItem{},
		&PriorityLog{},
	)
}
