package models

import (
	"time"

	"salonq/internal/core/domain"

	"gorm.io/gorm"
)

// ============================================================
// Queue System Tables
// ============================================================

type Salon struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	OwnerID             uint           `gorm:"not null;index" json:"owner_id"`
	Name                string         `gorm:"size:100;not null" json:"name"`
	Address             *string        `gorm:"size:255" json:"address"`
	Phone               *string        `gorm:"size:20" json:"phone"`
	IsActive            bool           `gorm:"default:true" json:"is_active"`
	IsOpen              bool           `gorm:"default:false" json:"is_open"`
	ActiveBarbers       int            `gorm:"default:1" json:"active_barbers"`
	TotalBarbers        int            `gorm:"default:1" json:"total_barbers"`
	AvgServiceTime      int            `gorm:"default:20" json:"avg_service_time"`
	BusyMode            bool           `gorm:"default:false" json:"busy_mode"`
	MaxQueueSize        int            `gorm:"default:50" json:"max_queue_size"`
	PriorityUsedToday   int            `gorm:"default:0" json:"priority_used_today"`
	PriorityLimitPerDay int            `gorm:"default:3" json:"priority_limit_per_day"`
	PriorityResetDate   string         `gorm:"size:10" json:"priority_reset_date"`
	CreatedAt           time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Salon) TableName() string {
	return "salons"
}

// QueueCapacity is the active headcount at which the queue counts as full
func (s *Salon) QueueCapacity() int {
	capacity := s.ActiveBarbers + 10
	if s.MaxQueueSize > 0 && s.MaxQueueSize < capacity {
		capacity = s.MaxQueueSize
	}
	return capacity
}

type Staff struct {
	ID                uint                  `gorm:"primaryKey" json:"id"`
	SalonID           uint                  `gorm:"not null;index" json:"salon_id"`
	UserID            *uint                 `gorm:"index" json:"user_id"`
	Name              string                `gorm:"size:100;not null" json:"name"`
	Role              domain.StaffRole      `gorm:"size:20;default:'barber'" json:"role"`
	IsActive          bool                  `gorm:"default:true" json:"is_active"`
	CommissionType    domain.CommissionType `gorm:"size:20;default:'percentage'" json:"commission_type"`
	CommissionValue   float64               `gorm:"type:decimal(10,2);default:0" json:"commission_value"`
	CompletedBookings int                   `gorm:"default:0" json:"completed_bookings"`
	TotalRevenue      float64               `gorm:"type:decimal(12,2);default:0" json:"total_revenue"`
	TotalCommission   float64               `gorm:"type:decimal(12,2);default:0" json:"total_commission"`
	CreatedAt         time.Time             `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time             `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Staff) TableName() string {
	return "staff"
}

type SalonService struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SalonID   uint      `gorm:"not null;index" json:"salon_id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Price     float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	Duration  int       `gorm:"not null" json:"duration"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SalonService) TableName() string {
	return "salon_services"
}

type Booking struct {
	ID                  uint                 `gorm:"primaryKey" json:"id"`
	SalonID             uint                 `gorm:"not null;index" json:"salon_id"`
	UserID              *uint                `gorm:"index" json:"user_id"`
	CustomerName        string               `gorm:"size:100" json:"customer_name"`
	CustomerPhone       string               `gorm:"size:20" json:"customer_phone"`
	Status              domain.BookingStatus `gorm:"size:20;default:'pending';index" json:"status"`
	QueuePosition       int                  `gorm:"default:0;index" json:"queue_position"`
	BookingType         domain.BookingType   `gorm:"size:20;default:'immediate'" json:"booking_type"`
	ScheduledDate       *time.Time           `gorm:"type:date" json:"scheduled_date"`
	ScheduledTime       string               `gorm:"size:10" json:"scheduled_time"`
	Arrived             bool                 `gorm:"default:false" json:"arrived"`
	TotalPrice          float64              `gorm:"type:decimal(10,2);default:0" json:"total_price"`
	TotalDuration       int                  `gorm:"default:0" json:"total_duration"`
	PaymentStatus       domain.PaymentStatus `gorm:"size:20;default:'pending'" json:"payment_status"`
	PaidAmount          float64              `gorm:"type:decimal(10,2);default:0" json:"paid_amount"`
	PaymentDate         *time.Time           `json:"payment_date"`
	JoinedAt            time.Time            `gorm:"not null" json:"joined_at"`
	StartedAt           *time.Time           `json:"started_at"`
	CompletedAt         *time.Time           `json:"completed_at"`
	CancelledAt         *time.Time           `json:"cancelled_at"`
	CancelReason        string               `gorm:"size:255" json:"cancel_reason,omitempty"`
	EstimatedStartTime  *time.Time           `json:"estimated_start_time"`
	EstimatedEndTime    *time.Time           `json:"estimated_end_time"`
	AssignedStaffID     *uint                `gorm:"index" json:"assigned_staff_id"`
	SkippedAt           *time.Time           `json:"skipped_at"`
	OriginalPosition    *int                 `json:"original_position"`
	SkipReason          string               `gorm:"size:255" json:"skip_reason,omitempty"`
	WalkInToken         string               `gorm:"size:3;index" json:"walk_in_token,omitempty"`
	Notes               string               `gorm:"type:text" json:"notes,omitempty"`
	LoyaltyPointsEarned int                  `gorm:"default:0" json:"loyalty_points_earned"`
	IsPriority          bool                 `gorm:"default:false" json:"is_priority"`
	PriorityReason      string               `gorm:"size:50" json:"priority_reason,omitempty"`
	CreatedAt           time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
	Items               []BookingItem        `gorm:"foreignKey:BookingID" json:"items,omitempty"`
	AssignedStaff       *Staff               `gorm:"foreignKey:AssignedStaffID" json:"assigned_staff,omitempty"`
}

func (Booking) TableName() string {
	return "bookings"
}

// IsActive reports whether the booking takes part in the queue ordering.
// A scheduled booking only joins the ordering once it has arrived.
func (b *Booking) IsActive() bool {
	if !b.Status.IsActive() {
		return false
	}
	return b.BookingType != domain.BookingScheduled || b.Arrived
}

type BookingItem struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	BookingID   uint    `gorm:"not null;index" json:"booking_id"`
	ServiceID   uint    `gorm:"not null" json:"service_id"`
	ServiceName string  `gorm:"size:100;not null" json:"service_name"`
	Price       float64 `gorm:"type:decimal(10,2);not null" json:"price"`
	Duration    int     `gorm:"not null" json:"duration"`
	SortOrder   int     `gorm:"default:0" json:"sort_order"`
}

func (BookingItem) TableName() string {
	return "booking_items"
}

// PriorityLog is an insert-only audit record of a priority override
type PriorityLog struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	SalonID         uint      `gorm:"not null;index" json:"salon_id"`
	BookingID       uint      `gorm:"not null;index" json:"booking_id"`
	TriggeredBy     uint      `gorm:"not null" json:"triggered_by"`
	TriggeredByRole string    `gorm:"size:20;not null" json:"triggered_by_role"`
	CustomerUserID  *uint     `json:"customer_user_id"`
	CustomerName    string    `gorm:"size:100" json:"customer_name"`
	Reason          string    `gorm:"size:50;not null" json:"reason"`
	PositionBefore  int       `gorm:"not null" json:"position_before"`
	AssignedStaffID *uint     `json:"assigned_staff_id"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (PriorityLog) TableName() string {
	return "priority_logs"
}
