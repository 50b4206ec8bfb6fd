package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salonq/internal/adapters/persistence/models"
	"salonq/internal/core/domain"
	"salonq/internal/core/services"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QueueRepository implements services.QueueStore over gorm
type QueueRepository struct {
	db    *gorm.DB
	users UserRepository
}

// NewQueueRepository creates a new queue repository
func NewQueueRepository(db *gorm.DB) *QueueRepository {
	return &QueueRepository{db: db, users: NewUserRepository(db)}
}

var _ services.QueueStore = (*QueueRepository)(nil)

// notFound maps gorm's missing-row error onto the given domain error
func notFound(err error, missing *domain.AppError) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return missing
	}
	return err
}

// activeScope selects bookings taking part in the queue ordering
func activeScope(salonID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("salon_id = ? AND status IN ? AND (booking_type = ? OR arrived = ?)",
			salonID, domain.ActiveStatuses, domain.BookingImmediate, true)
	}
}

// ============================================================
// Transaction
// ============================================================

// WithinSalonLock runs fn in a transaction that holds the salon row lock
func (r *QueueRepository) WithinSalonLock(ctx context.Context, salonID uint, fn func(tx services.QueueStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Select("id")
		// SQLite serializes writers on its own and has no row locks
		if tx.Dialector.Name() != "sqlite" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var salon models.Salon
		if err := q.First(&salon, salonID).Error; err != nil {
			return notFound(err, domain.ErrSalonNotFound)
		}
		return fn(&QueueRepository{db: tx, users: NewUserRepository(tx)})
	})
}

// ============================================================
// Salon
// ============================================================

// GetSalon returns a salon by ID
func (r *QueueRepository) GetSalon(ctx context.Context, salonID uint) (*models.Salon, error) {
	var salon models.Salon
	if err := r.db.WithContext(ctx).First(&salon, salonID).Error; err != nil {
		return nil, notFound(err, domain.ErrSalonNotFound)
	}
	return &salon, nil
}

// ListActiveSalons returns all active salons
func (r *QueueRepository) ListActiveSalons(ctx context.Context) ([]models.Salon, error) {
	var salons []models.Salon
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("id ASC").Find(&salons).Error
	return salons, err
}

// UpdateSalon updates salon columns
func (r *QueueRepository) UpdateSalon(ctx context.Context, salonID uint, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Salon{}).Where("id = ?", salonID).Updates(updates).Error
}

// ResetPriorityCounter zeroes the salon's counter unless it was already reset for day
func (r *QueueRepository) ResetPriorityCounter(ctx context.Context, salonID uint, day string) error {
	return r.db.WithContext(ctx).Model(&models.Salon{}).
		Where("id = ? AND (priority_reset_date IS NULL OR priority_reset_date <> ?)", salonID, day).
		Updates(map[string]interface{}{
			"priority_used_today": 0,
			"priority_reset_date": day,
		}).Error
}

// ResetAllPriorityCounters zeroes every counter not yet reset for day
func (r *QueueRepository) ResetAllPriorityCounters(ctx context.Context, day string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Salon{}).
		Where("priority_reset_date IS NULL OR priority_reset_date <> ? OR priority_used_today > 0", day).
		Updates(map[string]interface{}{
			"priority_used_today": 0,
			"priority_reset_date": day,
		})
	return result.RowsAffected, result.Error
}

// IncrementPriorityUsage takes one unit of the daily quota; false when none is left
func (r *QueueRepository) IncrementPriorityUsage(ctx context.Context, salonID uint, day string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Salon{}).
		Where("id = ? AND priority_used_today < priority_limit_per_day", salonID).
		Updates(map[string]interface{}{
			"priority_used_today": gorm.Expr("priority_used_today + 1"),
			"priority_reset_date": day,
		})
	if result.Error != nil {
		return false, fmt.Errorf("increment priority usage: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// ============================================================
// Staff
// ============================================================

// GetStaff returns a staff member by ID
func (r *QueueRepository) GetStaff(ctx context.Context, staffID uint) (*models.Staff, error) {
	var staff models.Staff
	if err := r.db.WithContext(ctx).First(&staff, staffID).Error; err != nil {
		return nil, notFound(err, domain.ErrStaffNotFound)
	}
	return &staff, nil
}

// FindStaffByUser returns the user's staff record at the salon, or nil
func (r *QueueRepository) FindStaffByUser(ctx context.Context, salonID, userID uint) (*models.Staff, error) {
	var staff models.Staff
	err := r.db.WithContext(ctx).Where("salon_id = ? AND user_id = ?", salonID, userID).Take(&staff).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &staff, nil
}

// StaffHasInProgress reports whether the staff member is serving a booking
func (r *QueueRepository) StaffHasInProgress(ctx context.Context, staffID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("assigned_staff_id = ? AND status = ?", staffID, domain.StatusInProgress).
		Count(&count).Error
	return count > 0, err
}

// IncrementStaffStats adds one completed booking to the staff member's totals
func (r *QueueRepository) IncrementStaffStats(ctx context.Context, staffID uint, revenue, commission float64) error {
	return r.db.WithContext(ctx).Model(&models.Staff{}).Where("id = ?", staffID).
		Updates(map[string]interface{}{
			"completed_bookings": gorm.Expr("completed_bookings + 1"),
			"total_revenue":      gorm.Expr("total_revenue + ?", revenue),
			"total_commission":   gorm.Expr("total_commission + ?", commission),
		}).Error
}

// ============================================================
// Users
// ============================================================

// GetUser returns a user by ID
func (r *QueueRepository) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}
	return user, nil
}

// FindUserByPhone returns the user registered with phone, or nil
func (r *QueueRepository) FindUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	user, err := r.users.GetByPhone(ctx, phone)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return user, err
}

// IncrementUserLoyalty credits points and one visit
func (r *QueueRepository) IncrementUserLoyalty(ctx context.Context, userID uint, points int) error {
	return r.users.IncrementLoyalty(ctx, userID, points)
}

// ============================================================
// Services catalog
// ============================================================

// GetServicesByIDs returns the salon's catalog entries among serviceIDs
func (r *QueueRepository) GetServicesByIDs(ctx context.Context, salonID uint, serviceIDs []uint) ([]models.SalonService, error) {
	var list []models.SalonService
	err := r.db.WithContext(ctx).Where("salon_id = ? AND id IN ?", salonID, serviceIDs).Find(&list).Error
	return list, err
}

// ListSalonServices returns the salon's active catalog
func (r *QueueRepository) ListSalonServices(ctx context.Context, salonID uint) ([]models.SalonService, error) {
	var list []models.SalonService
	err := r.db.WithContext(ctx).Where("salon_id = ? AND is_active = ?", salonID, true).Order("id ASC").Find(&list).Error
	return list, err
}

// ============================================================
// Bookings
// ============================================================

// CreateBooking inserts a booking with its items
func (r *QueueRepository) CreateBooking(ctx context.Context, booking *models.Booking) error {
	if err := r.db.WithContext(ctx).Create(booking).Error; err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

// GetBooking returns a booking by ID with its items
func (r *QueueRepository) GetBooking(ctx context.Context, bookingID uint) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Preload("AssignedStaff").
		First(&booking, bookingID).Error
	if err != nil {
		return nil, notFound(err, domain.ErrBookingNotFound)
	}
	return &booking, nil
}

// FindOpenBookingByUser returns the user's queued or skipped booking at the salon, or nil
func (r *QueueRepository) FindOpenBookingByUser(ctx context.Context, salonID, userID uint) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Where("salon_id = ? AND user_id = ? AND status IN ? AND (booking_type = ? OR arrived = ?)",
			salonID, userID,
			[]domain.BookingStatus{domain.StatusPending, domain.StatusInProgress, domain.StatusSkipped},
			domain.BookingImmediate, true).
		Take(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// ListActiveBookings returns the salon's active bookings in queue order
func (r *QueueRepository) ListActiveBookings(ctx context.Context, salonID uint) ([]models.Booking, error) {
	var list []models.Booking
	err := r.db.WithContext(ctx).Scopes(activeScope(salonID)).
		Order("queue_position ASC, joined_at ASC, id ASC").
		Find(&list).Error
	return list, err
}

// ListSkippedBookings returns the salon's skipped bookings
func (r *QueueRepository) ListSkippedBookings(ctx context.Context, salonID uint) ([]models.Booking, error) {
	var list []models.Booking
	err := r.db.WithContext(ctx).
		Where("salon_id = ? AND status = ?", salonID, domain.StatusSkipped).
		Order("queue_position ASC, id ASC").
		Find(&list).Error
	return list, err
}

// ListUserBookings returns the user's most recent bookings
func (r *QueueRepository) ListUserBookings(ctx context.Context, userID uint, limit int) ([]models.Booking, error) {
	var list []models.Booking
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

// ListUnarrivedScheduled returns pending scheduled bookings dated on or before the given day
// whose customer has not checked in
func (r *QueueRepository) ListUnarrivedScheduled(ctx context.Context, onOrBefore time.Time) ([]models.Booking, error) {
	endOfDay := time.Date(onOrBefore.Year(), onOrBefore.Month(), onOrBefore.Day(), 23, 59, 59, 0, onOrBefore.Location())
	var list []models.Booking
	err := r.db.WithContext(ctx).
		Where("status = ? AND booking_type = ? AND arrived = ? AND scheduled_date <= ?",
			domain.StatusPending, domain.BookingScheduled, false, endOfDay).
		Order("scheduled_date ASC, id ASC").
		Find(&list).Error
	return list, err
}

// TokenInUse reports whether an active or skipped booking at the salon holds token.
// Skipped bookings keep their token because undo returns them to the queue.
func (r *QueueRepository) TokenInUse(ctx context.Context, salonID uint, token string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("salon_id = ? AND walk_in_token = ? AND status IN ?", salonID, token,
			[]domain.BookingStatus{domain.StatusPending, domain.StatusInProgress, domain.StatusSkipped}).
		Count(&count).Error
	return count > 0, err
}

// CountInProgress counts bookings being served at the salon
func (r *QueueRepository) CountInProgress(ctx context.Context, salonID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("salon_id = ? AND status = ?", salonID, domain.StatusInProgress).
		Count(&count).Error
	return count, err
}

// MaxPosition returns the highest position among active bookings, plus skipped ones when asked
func (r *QueueRepository) MaxPosition(ctx context.Context, salonID uint, includeSkipped bool) (int, error) {
	q := r.db.WithContext(ctx).Model(&models.Booking{})
	if includeSkipped {
		q = q.Where("salon_id = ? AND ((status IN ? AND (booking_type = ? OR arrived = ?)) OR status = ?)",
			salonID, domain.ActiveStatuses, domain.BookingImmediate, true, domain.StatusSkipped)
	} else {
		q = q.Scopes(activeScope(salonID))
	}
	var maxPosition int
	if err := q.Select("COALESCE(MAX(queue_position), 0)").Scan(&maxPosition).Error; err != nil {
		return 0, fmt.Errorf("max position: %w", err)
	}
	return maxPosition, nil
}

// ShiftPositions moves every active booking at or after fromPosition by delta
func (r *QueueRepository) ShiftPositions(ctx context.Context, salonID uint, fromPosition, delta int) error {
	return r.db.WithContext(ctx).Model(&models.Booking{}).Scopes(activeScope(salonID)).
		Where("queue_position >= ?", fromPosition).
		Update("queue_position", gorm.Expr("queue_position + ?", delta)).Error
}

// UpdatePosition sets one booking's queue position
func (r *QueueRepository) UpdatePosition(ctx context.Context, bookingID uint, position int) error {
	return r.db.WithContext(ctx).Model(&models.Booking{}).Where("id = ?", bookingID).
		Update("queue_position", position).Error
}

// UpdateBooking updates booking columns unconditionally
func (r *QueueRepository) UpdateBooking(ctx context.Context, bookingID uint, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Booking{}).Where("id = ?", bookingID).Updates(updates).Error
}

// TransitionBooking updates the booking only while its status is one of from
func (r *QueueRepository) TransitionBooking(ctx context.Context, bookingID uint, from []domain.BookingStatus, updates map[string]interface{}) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ? AND status IN ?", bookingID, from).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("transition booking %d: %w", bookingID, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ============================================================
// Priority log (insert-only)
// ============================================================

// CreatePriorityLog appends an audit record
func (r *QueueRepository) CreatePriorityLog(ctx context.Context, entry *models.PriorityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListPriorityLogs returns a page of the salon's audit records, newest first
func (r *QueueRepository) ListPriorityLogs(ctx context.Context, salonID uint, offset, limit int) ([]models.PriorityLog, int64, error) {
	var logs []models.PriorityLog
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.PriorityLog{}).Where("salon_id = ?", salonID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := r.db.WithContext(ctx).Where("salon_id = ?", salonID).
		Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
