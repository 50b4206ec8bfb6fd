package domain

import "time"

// Role represents the global role of an authenticated caller
type Role string

const (
	RoleCustomer Role = "customer"
	RoleOwner    Role = "owner"
)

// StaffRole represents a salon-scoped role
type StaffRole string

const (
	StaffRoleManager StaffRole = "manager"
	StaffRoleBarber  StaffRole = "barber"
)

// BookingStatus represents the lifecycle state of a booking
type BookingStatus string

const (
	StatusPending    BookingStatus = "pending"
	StatusInProgress BookingStatus = "in-progress"
	StatusCompleted  BookingStatus = "completed"
	StatusCancelled  BookingStatus = "cancelled"
	StatusNoShow     BookingStatus = "no-show"
	StatusSkipped    BookingStatus = "skipped"
)

// ActiveStatuses are counted toward queue length and position ordering
var ActiveStatuses = []BookingStatus{StatusPending, StatusInProgress}

// IsTerminal reports whether no further transition is possible
func (s BookingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// IsActive reports whether the status belongs to the active set
func (s BookingStatus) IsActive() bool {
	return s == StatusPending || s == StatusInProgress
}

// BookingType distinguishes queue joins from calendar appointments
type BookingType string

const (
	BookingImmediate BookingType = "immediate"
	BookingScheduled BookingType = "scheduled"
)

// PaymentStatus of a booking
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentFailed   PaymentStatus = "failed"
)

// CommissionType decides how a staff member earns per completed booking
type CommissionType string

const (
	CommissionPercentage CommissionType = "percentage"
	CommissionFixed      CommissionType = "fixed"
)

// Priority reasons accepted by the priority override
const (
	PriorityReasonSenior          = "Senior citizen"
	PriorityReasonMedical         = "Medical urgency"
	PriorityReasonChild           = "Child"
	PriorityReasonSystemException = "System exception"
)

var priorityReasons = map[string]bool{
	PriorityReasonSenior:          true,
	PriorityReasonMedical:         true,
	PriorityReasonChild:           true,
	PriorityReasonSystemException: true,
}

// IsValidPriorityReason reports whether reason is one of the allowed override reasons
func IsValidPriorityReason(reason string) bool {
	return priorityReasons[reason]
}

// Wait estimate statuses
const (
	WaitAvailable   = "available"
	WaitBusy        = "busy"
	WaitVeryBusy    = "very-busy"
	WaitFull        = "full"
	WaitClosed      = "closed"
	WaitUnavailable = "unavailable"
	WaitInQueue     = "in-queue"
)

// Actor is the authenticated caller as resolved by the identity collaborator
type Actor struct {
	UserID uint
	Role   Role
}

// IsZero reports whether no caller is attached
func (a Actor) IsZero() bool {
	return a.UserID == 0
}

// DayKey formats t as the calendar day used for the daily priority counter
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// LoyaltyPointsFor returns the points earned for a completed booking of the given price
func LoyaltyPointsFor(totalPrice float64) int {
	if totalPrice <= 0 {
		return 0
	}
	return int(totalPrice / 10)
}

// CommissionFor returns the staff commission for one completed booking
func CommissionFor(kind CommissionType, value, totalPrice float64) float64 {
	switch kind {
	case CommissionFixed:
		return value
	case CommissionPercentage:
		return totalPrice * value / 100
	default:
		return 0
	}
}
