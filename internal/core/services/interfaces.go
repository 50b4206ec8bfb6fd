package services

import (
	"context"
	"time"

	"salonq/internal/adapters/persistence/models"
	"salonq/internal/core/domain"
)

// QueueStore is the persistence collaborator used by the queue core.
// Lookups of a single record return a not-found *domain.AppError when missing;
// "find" lookups return nil, nil instead.
type QueueStore interface {
	// WithinSalonLock runs fn inside one transaction holding a row lock on the salon.
	// Every lifecycle operation goes through it so guards and writes see a stable queue.
	WithinSalonLock(ctx context.Context, salonID uint, fn func(tx QueueStore) error) error

	GetSalon(ctx context.Context, salonID uint) (*models.Salon, error)
	ListActiveSalons(ctx context.Context) ([]models.Salon, error)
	UpdateSalon(ctx context.Context, salonID uint, updates map[string]interface{}) error
	ResetPriorityCounter(ctx context.Context, salonID uint, day string) error
	ResetAllPriorityCounters(ctx context.Context, day string) (int64, error)
	IncrementPriorityUsage(ctx context.Context, salonID uint, day string) (bool, error)

	GetStaff(ctx context.Context, staffID uint) (*models.Staff, error)
	FindStaffByUser(ctx context.Context, salonID, userID uint) (*models.Staff, error)
	StaffHasInProgress(ctx context.Context, staffID uint) (bool, error)
	IncrementStaffStats(ctx context.Context, staffID uint, revenue, commission float64) error

	GetUser(ctx context.Context, userID uint) (*models.User, error)
	FindUserByPhone(ctx context.Context, phone string) (*models.User, error)
	IncrementUserLoyalty(ctx context.Context, userID uint, points int) error

	GetServicesByIDs(ctx context.Context, salonID uint, serviceIDs []uint) ([]models.SalonService, error)
	ListSalonServices(ctx context.Context, salonID uint) ([]models.SalonService, error)

	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, bookingID uint) (*models.Booking, error)
	FindOpenBookingByUser(ctx context.Context, salonID, userID uint) (*models.Booking, error)
	ListActiveBookings(ctx context.Context, salonID uint) ([]models.Booking, error)
	ListSkippedBookings(ctx context.Context, salonID uint) ([]models.Booking, error)
	ListUserBookings(ctx context.Context, userID uint, limit int) ([]models.Booking, error)
	ListUnarrivedScheduled(ctx context.Context, onOrBefore time.Time) ([]models.Booking, error)
	TokenInUse(ctx context.Context, salonID uint, token string) (bool, error)
	CountInProgress(ctx context.Context, salonID uint) (int64, error)
	MaxPosition(ctx context.Context, salonID uint, includeSkipped bool) (int, error)
	ShiftPositions(ctx context.Context, salonID uint, fromPosition, delta int) error
	UpdatePosition(ctx context.Context, bookingID uint, position int) error
	UpdateBooking(ctx context.Context, bookingID uint, updates map[string]interface{}) error

	// TransitionBooking applies updates only while the booking is still in one of from.
	// It reports false when no row matched, which callers surface as a conflict.
	TransitionBooking(ctx context.Context, bookingID uint, from []domain.BookingStatus, updates map[string]interface{}) (bool, error)

	CreatePriorityLog(ctx context.Context, entry *models.PriorityLog) error
	ListPriorityLogs(ctx context.Context, salonID uint, offset, limit int) ([]models.PriorityLog, int64, error)
}

// RoomClient is a connected real-time client watching a salon
type RoomClient struct {
	ID     string
	UserID uint // 0 for anonymous viewers
}

// Broadcaster is the real-time transport collaborator
type Broadcaster interface {
	EmitToSalonRoom(salonID uint, event string, payload interface{})
	RoomClients(salonID uint) []RoomClient
	SendToClient(clientID string, event string, payload interface{}) bool
}

// PushMessage is a device notification
type PushMessage struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Notifier delivers push notifications by opaque device token
type Notifier interface {
	SendToDevice(ctx context.Context, deviceToken string, msg PushMessage) error
}
