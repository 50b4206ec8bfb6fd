package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"salonq/internal/adapters/persistence/models"
	"salonq/internal/core/domain"
	"salonq/internal/pkg/metrics"
)

// BookingService runs the booking lifecycle: creation, start, completion,
// cancellation, skip and undo, arrival and no-show.
type BookingService struct {
	store  QueueStore
	ledger *QueueLedger
	tokens *TokenAllocator
	policy *Policy
	notify *QueueNotifyService
	now    func() time.Time
	fanout func(func())
}

// NewBookingService creates a new booking service
func NewBookingService(store QueueStore, ledger *QueueLedger, tokens *TokenAllocator, policy *Policy, notify *QueueNotifyService) *BookingService {
	return &BookingService{
		store:  store,
		ledger: ledger,
		tokens: tokens,
		policy: policy,
		notify: notify,
		now:    time.Now,
		fanout: func(fn func()) { go fn() },
	}
}

// ============================================================
// Inputs
// ============================================================

// JoinQueueInput represents a customer joining a salon queue now
type JoinQueueInput struct {
	SalonID    uint   `json:"salon_id" validate:"required"`
	ServiceIDs []uint `json:"service_ids" validate:"required,min=1,dive,required"`
	Notes      string `json:"notes" validate:"max=500"`
}

// ScheduleInput represents a customer booking a calendar slot
type ScheduleInput struct {
	SalonID    uint   `json:"salon_id" validate:"required"`
	ServiceIDs []uint `json:"service_ids" validate:"required,min=1,dive,required"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	Time       string `json:"time" validate:"required,datetime=15:04"`
	Notes      string `json:"notes" validate:"max=500"`
}

// WalkInInput represents a walk-in registered at the counter
type WalkInInput struct {
	ServiceIDs    []uint `json:"service_ids" validate:"required,min=1,dive,required"`
	CustomerName  string `json:"customer_name" validate:"required,max=100"`
	CustomerPhone string `json:"customer_phone" validate:"omitempty,max=20"`
	Notes         string `json:"notes" validate:"max=500"`
}

// StartInput represents starting a service
type StartInput struct {
	StaffID *uint `json:"staff_id"`
}

// CancelInput represents a cancellation
type CancelInput struct {
	Reason string `json:"reason" validate:"max=255"`
}

// SkipInput represents skipping a customer who is not present
type SkipInput struct {
	Reason string `json:"reason" validate:"max=255"`
}

// UndoSkipInput represents returning a skipped customer to the queue
type UndoSkipInput struct {
	RestoreOriginal bool `json:"restore_original"`
}

// QueueView is the staff view of a salon queue
type QueueView struct {
	Salon    *models.Salon    `json:"salon"`
	Active   []models.Booking `json:"active"`
	Skipped  []models.Booking `json:"skipped"`
	Estimate *WaitEstimate    `json:"estimate"`
}

// ============================================================
// CUSTOMER: join / schedule / arrive
// ============================================================

// JoinQueue puts the caller at the end of the salon queue
func (s *BookingService) JoinQueue(ctx context.Context, actor domain.Actor, input *JoinQueueInput) (booking *models.Booking, err error) {
	defer observe("join", &err)

	err = s.store.WithinSalonLock(ctx, input.SalonID, func(tx QueueStore) error {
		salon, err := tx.GetSalon(ctx, input.SalonID)
		if err != nil {
			return err
		}
		if _, err := s.authorize(ctx, tx, actor, PolicyJoinQueue, salon, nil); err != nil {
			return err
		}
		if err := checkAcceptingQueue(salon); err != nil {
			return err
		}
		if salon.BusyMode {
			return domain.ErrSalonBusyMode
		}
		items, price, duration, err := s.buildItems(ctx, tx, salon.ID, input.ServiceIDs)
		if err != nil {
			return err
		}
		existing, err := tx.FindOpenBookingByUser(ctx, salon.ID, actor.UserID)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrDuplicateBooking
		}
		position, err := nextPosition(ctx, tx, salon)
		if err != nil {
			return err
		}

		user, err := tx.GetUser(ctx, actor.UserID)
		if err != nil {
			return err
		}
		userID := actor.UserID
		booking = &models.Booking{
			SalonID:       salon.ID,
			UserID:        &userID,
			CustomerName:  user.Name,
			Status:        domain.StatusPending,
			QueuePosition: position,
			BookingType:   domain.BookingImmediate,
			TotalPrice:    price,
			TotalDuration: duration,
			PaymentStatus: domain.PaymentPending,
			JoinedAt:      s.now(),
			Notes:         input.Notes,
			Items:         items,
		}
		if user.Phone != nil {
			booking.CustomerPhone = *user.Phone
		}
		if err := tx.CreateBooking(ctx, booking); err != nil {
			return err
		}
		_, err = s.ledger.Reorder(ctx, tx, salon.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().Uint("booking_id", booking.ID).Uint("salon_id", booking.SalonID).Uint("user_id", actor.UserID).Msg("customer joined queue")
	s.afterCommit(ctx, booking.SalonID, "booking_created", booking, nil)
	return s.reload(ctx, booking), nil
}

// ScheduleBooking books a calendar slot; the booking enters the queue on arrival
func (s *BookingService) ScheduleBooking(ctx context.Context, actor domain.Actor, input *ScheduleInput) (booking *models.Booking, err error) {
	defer observe("schedule", &err)

	now := s.now()
	slot, err := time.ParseInLocation("2006-01-02 15:04", input.Date+" "+input.Time, now.Location())
	if err != nil {
		return nil, domain.ErrValidation.WithMessage("invalid scheduled date or time")
	}
	if slot.Before(now) {
		return nil, domain.ErrValidation.WithMessage("scheduled slot is in the past")
	}

	err = s.store.WithinSalonLock(ctx, input.SalonID, func(tx QueueStore) error {
		salon, err := tx.GetSalon(ctx, input.SalonID)
		if err != nil {
			return err
		}
		if _, err := s.authorize(ctx, tx, actor, PolicySchedule, salon, nil); err != nil {
			return err
		}
		if !salon.IsActive {
			return domain.ErrSalonInactive
		}
		items, price, duration, err := s.buildItems(ctx, tx, salon.ID, input.ServiceIDs)
		if err != nil {
			return err
		}
		user, err := tx.GetUser(ctx, actor.UserID)
		if err != nil {
			return err
		}

		day := time.Date(slot.Year(), slot.Month(), slot.Day(), 0, 0, 0, 0, slot.Location())
		userID := actor.UserID
		booking = &models.Booking{
			SalonID:       salon.ID,
			UserID:        &userID,
			CustomerName:  user.Name,
			Status:        domain.StatusPending,
			BookingType:   domain.BookingScheduled,
			ScheduledDate: &day,
			ScheduledTime: input.Time,
			TotalPrice:    price,
			TotalDuration: duration,
			PaymentStatus: domain.PaymentPending,
			JoinedAt:      now,
			Notes:         input.Notes,
			Items:         items,
		}
		if user.Phone != nil {
			booking.CustomerPhone = *user.Phone
		}
		return tx.CreateBooking(ctx, booking)
	})
	if err != nil {
		return nil, err
	}

	log.Info().Uint("booking_id", booking.ID).Uint("salon_id", booking.SalonID).Str("slot", slot.Format(time.RFC3339)).Msg("booking scheduled")
	return booking, nil
}

// MarkArrived checks in a scheduled booking; it joins the active queue at the end
func (s *BookingService) MarkArrived(ctx context.Context, actor domain.Actor, salonID, bookingID uint) (booking *models.Booking, err error) {
	defer observe("arrive", &err)

	err = s.store.WithinSalonLock(ctx, salonID, func(tx QueueStore) error {
		salon, b, err := s.loadInSalon(ctx, tx, salonID, bookingID)
		if err != nil {
			return err
		}
		if _, err := s.authorize(ctx, tx, actor, PolicyArrive, salon, b); err != nil {
			return err
		}
		if b.BookingType != domain.BookingScheduled {
			return domain.ErrNotScheduled
		}
		if b.Status != domain.StatusPending {
			return domain.ErrInvalidTransition
		}
		if b.Arrived {
			return domain.ErrAlreadyArrived
		}
		if err := checkAcceptingQueue(salon); err != nil {
			return err
		}
		position, err := nextPosition(ctx, tx, salon)
		if err != nil {
			return err
		}
		ok, err := tx.TransitionBooking(ctx, b.ID, []domain.BookingStatus{domain.StatusPending}, map[string]interface{}{
			"arrived":        true,
			"queue_position": position,
			"joined_at":      s.now(),
		})
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrInvalidTransition
		}
		b.Arrived = true
		booking = b
		_, err = s.ledger.Reorder(ctx, tx, salonID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, salonID, "booking_arrived", booking, nil)
	return s.reload(ctx, booking), nil
}

// ============================================================
// STAFF: walk-in
// ============================================================

// CreateWalkIn registers a customer at the counter. A phone matching a user links
// the booking to that user; otherwise the booking gets a walk-in token.
func (s *BookingService) CreateWalkIn(ctx context.Context, actor domain.Actor, salonID uint, input *WalkInInput) (booking *models.Booking, err error) {
	defer observe("walk-in", &err)

	err = s.store.WithinSalonLock(ctx, salonID, func(tx QueueStore) error {
		salon, err := tx.GetSalon(ctx, salonID)
		if err != nil {
			return err
		}
		if _, err := s.authorize(ctx, tx, actor, PolicyWalkIn, salon, nil); err != nil {
			return err
		}
		if err := checkAcceptingQueue(salon); err != nil {
			return err
		}
		items, price, duration, err := s.buildItems(ctx, tx, salonID, input.ServiceIDs)
		if err != nil {
			return err
		}
		position, err := nextPosition(ctx, tx, salon)
		if err != nil {
			return err
		}

		booking = &models.Booking{
			SalonID:       salonID,
			CustomerName:  input.CustomerName,
			CustomerPhone: input.CustomerPhone,
			Status:        domain.StatusPending,
			QueuePosition: position,
			BookingType:   domain.BookingImmediate,
			TotalPrice:    price,
			TotalDuration: duration,
			PaymentStatus: domain.PaymentPending,
			JoinedAt:      s.now(),
			Notes:         input.Notes,
			Items:         items,
		}
		if input.CustomerPhone != "" {
			user, err := tx.FindUserByPhone(ctx, input.CustomerPhone)
			if err != nil {
				return err
			}
			if user != nil {
				userID := user.ID
				booking.UserID = &userID
			}
		}
		if booking.UserID == nil {
			token, err := s.tokens.Allocate(ctx, tx, salonID)
			if err != nil {
				return err
			}
			booking.WalkInToken = token
		}
		if err := tx.CreateBooking(ctx, booking); err != nil {
			return err
		}
		_, err = s.ledger.Reorder(ctx, tx, salonID)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().Uint("booking_id", booking.ID).Uint("salon_id", salonID).Str("token", booking.WalkInToken).Msg("walk-in created")
	s.afterCommit(ctx, salonID, "walk_in_created", booking, nil)
	return s.reload(ctx, booking), nil
}

// ============================================================
// STAFF: start / complete / cancel / skip
// ============================================================

// StartService moves a pending booking to in-progress, optionally assigning staff
func (s *BookingService) StartService(ctx context.Context, actor domain.Actor, salonID, bookingID uint, input *StartInput) (booking *models.Booking, err error) {
	defer observe(string(domain.ActionStart), &err)

	err = s.store.WithinSalonLock(ctx, salonID, func(tx QueueStore) error {
		salon, b, err := s.loadInSalon(ctx, tx, salonID, bookingID)
		if err != nil {
			return err
		}
		if _, err := s.authorize(ctx, tx, actor, PolicyStart, salon, nil); err != nil {
			return err
		}
		if !domain.ValidTransition(domain.ActionStart, b.Status) || !b.IsActive() {
			return domain.ErrInvalidTransition
		}
		updates := map[string]interface{}{
			"status":     domain.TargetOf(domain.ActionStart),
			"started_at": s.now(),
		}
		if input != nil && input.StaffID != nil {
			if _, err := checkStaff(ctx, tx, salonID, *input.StaffID); err != nil {
				return err
			}
			updates["assigned_staff_id"] = *input.StaffID
		}
		ok, err := tx.TransitionBooking(ctx, b.ID, domain.AllowedFrom(domain.ActionStart), updates)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrInvalidTransition
		}
		b.Status = domain.StatusInProgress
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, salonID, "booking_started", booking, &PushMessage{
		Title: "It's your turn",
		Body:  "Your service has started",
		Data:  bookingPushData(booking, "booking_started"),
	})
	return s.reload(ctx, booking), nil
}

// CompleteBooking finishes an in-progress booking, settles payment and awards points
func (s *BookingService) CompleteBooking(ctx context.Context, actor domain.Actor, salonID, bookingID uint) (booking *models.Booking, err error) {
	defer observe(string(domain.ActionComplete), &err)

	var points int
	err = s.store.WithinSalonLock(ctx, salonID, func(tx QueueStore) error {
		salon, b, err := s.loadInSalon(ctx, tx, salonID, bookingID)
		if err != nil {
			return err
		}
		if _, err := s.authorize(ctx, tx, actor, PolicyComplete, salon, nil); err != nil {
			return err
		}
		if !domain.ValidTransition(domain.ActionComplete, b.Status) {
			return domain.ErrInvalidTransition.WithMessage("cannot complete a %s booking", b.Status)
		}

		now := s.now()
		points = domain.LoyaltyPointsFor(b.TotalPrice)
		ok, err := tx.TransitionBooking(ctx, b.ID, domain.AllowedFrom(domain.ActionComplete), map[string]interface{}{
			"status":                domain.TargetOf(domain.ActionComplete),
			"completed_at":          now,
			"loyalty_points_earned": points,
			"payment_status":        domain.PaymentPaid,
			"paid_amount":           b.TotalPrice,
			"payment_date":          now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrInvalidTransition
		}
		b.Status = domain.StatusCompleted

		if b.UserID != nil {
			if err := tx.IncrementUserLoyalty(ctx, *b.UserID, points); err != nil {
				return err
			}
		}
		if b.AssignedStaffID != nil {
			staff, err := tx.GetStaff(ctx, *b.AssignedStaffID)
			if err != nil {
				return err
			}
			commission := domain.CommissionFor(staff.CommissionType, staff.CommissionValue, b.TotalPrice)
			if err := tx.IncrementStaffStats(ctx, staff.ID, b.TotalPrice, commission); err != nil {
				return err
			}
		}
		booking = b
		_, err = s.ledger.Reorder(ctx, tx, salonID)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().Uint("booking_id", bookingID).Uint("salon_id", salonID).Int("points", points).Msg("booking completed")
	s.afterCommit(ctx, salonID, "booking_completed", booking, &PushMessage{
		Title: "Thanks for visiting",
		Body:  fmt.Sprintf("You earned %d loyalty points", points),
		Data:  bookingPushData(booking, "booking_completed"),
	})
	return s.reload(ctx, booking), nil
}

// CancelBooking cancels a booking. salonID 0 means the caller did not scope the
// request to a salon (customer route).
func (s *BookingService) CancelBooking(ctx context.Context, actor domain.Actor, salonID, bookingID uint, input *CancelInput) (booking *models.Booking, err error) {
	defer observe(string(domain.ActionCancel), &err)

	found, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if salonID != 0 && found.SalonID != salonID {
		return nil, domain.ErrBookingNotFound
	}
	salonID = found.SalonID

	reason := ""
	if input != nil {
		reason = input.Reason
	}

	err = s.store.WithinSalonLock(ctx, salonID, func(tx QueueStore) error {
		salon, b, err := s.loadInSalon(ctx, tx, salonID, bookingID)
		if err != nil {
			return err
		}
		if _, err := s.authorize(ctx, tx, actor, PolicyCancel, salon, b); err != nil {
			return err
		}
		if !domain.ValidTransition(domain.ActionCancel, b.Status) {
			return domain.ErrInvalidTransition.WithMessage("cannot cancel a %s booking", b.Status)
		}
		ok, err := tx.TransitionBooking(ctx, b.ID, domain.AllowedFrom(domain.ActionCancel), map[string]interface{}{
			"status":        domain.TargetOf(domain.ActionCancel),
			"cancelled_at":  s.now(),
			"cancel_reason": reason,
		})
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrInvalidTransition
		}
		b.Status = domain.StatusCancelled
		booking = b
		_, err = s.ledger.Reorder(ctx, tx, salonID)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().Uint("booking_id", bookingID).Uint("salon_id", salonID).Uint("actor", actor.UserID).Str("reason", reason).Msg("booking cancelled")
	var push *PushMessage
	if booking.UserID == nil || *booking.UserID != actor.UserID {
		push = &PushMessage{
			Title: "Booking cancelled",
			Body:  "Your booking was cancelled by the salon",
			Data:  bookingPushData(booking, "booking_cancelled"),
		}
	}
	s.afterCommit(ctx, salonID, "booking_cancelled", booking, push)
	return s.reload(ctx, booking), nil
}

// SkipBooking moves a pending customer who is not present behind everyone else
func (s *BookingService) SkipBooking(ctx context.Context, actor domain.Actor, salonID, bookingID uint, input *SkipInput) (booking *models.Booking, err error) {
	defer observe(string(domain.ActionSkip), &err)

	if input == nil || input.Reason == "" {
		return nil, domain.ErrSkipReasonRequired
	}

	err = s.store.WithinSalonLock(ctx, salonID, func(tx QueueStore) error {
		salon, b, err := s.loadInSalon(ctx, tx, salonID, bookingID)
		if err != nil {
			return err
		}
		if _, err := s.authorize(ctx, tx, actor, PolicySkip, salon, nil); err != nil {
			return err
		}
		if !domain.ValidTransition(domain.ActionSkip, b.Status) || !b.IsActive() {
			return domain.ErrInvalidTransition
		}
		if err := s.ledger.Skip(ctx, tx, b, input.Reason, s.now()); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, salonID, "booking_skipped", booking, &PushMessage{
		Title: "You were skipped",
		Body:  "We called your turn but couldn't find you. Please talk to the staff.",
		Data:  bookingPushData(booking, "booking_skipped"),
	})
	return s.reload(ctx, booking), nil
}

// UndoSkip returns a skipped booking to the queue
func (s *BookingService) UndoSkip(ctx context.Context, actor domain.Actor, salonID, bookingID uint, input *UndoSkipInput) (booking *models.Booking, err error) {
	defer observe(string(domain.ActionUndoSkip), &err)

	restore := input != nil && input.RestoreOriginal
	err = s.store.WithinSalonLock(ctx, salonID, func(tx QueueStore) error {
		salon, b, err := s.loadInSalon(ctx, tx, salonID, bookingID)
		if err != nil {
			return err
		}
		if _, err := s.authorize(ctx, tx, actor, PolicyUndoSkip, salon, nil); err != nil {
			return err
		}
		if !domain.ValidTransition(domain.ActionUndoSkip, b.Status) {
			return domain.ErrInvalidTransition
		}
		if err := s.ledger.UndoSkip(ctx, tx, b, restore); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, salonID, "booking_restored", booking, nil)
	return s.reload(ctx, booking), nil
}

// Reorder renumbers the salon queue on demand
func (s *BookingService) Reorder(ctx context.Context, actor domain.Actor, salonID uint) (active []models.Booking, err error) {
	defer observe("reorder", &err)

	err = s.store.WithinSalonLock(ctx, salonID, func(tx QueueStore) error {
		salon, err := tx.GetSalon(ctx, salonID)
		if err != nil {
			return err
		}
		if _, err := s.authorize(ctx, tx, actor, PolicyReorder, salon, nil); err != nil {
			return err
		}
		active, err = s.ledger.Reorder(ctx, tx, salonID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.afterCommit(ctx, salonID, "queue_reordered", nil, nil)
	return active, nil
}

// MarkNoShow closes a scheduled booking whose customer never arrived.
// It is run by the scheduler, not by a caller.
func (s *BookingService) MarkNoShow(ctx context.Context, bookingID uint) (booking *models.Booking, err error) {
	defer observe(string(domain.ActionNoShow), &err)

	found, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	err = s.store.WithinSalonLock(ctx, found.SalonID, func(tx QueueStore) error {
		b, err := tx.GetBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.BookingType != domain.BookingScheduled || b.Arrived || !domain.ValidTransition(domain.ActionNoShow, b.Status) {
			return domain.ErrInvalidTransition
		}
		ok, err := tx.TransitionBooking(ctx, b.ID, domain.AllowedFrom(domain.ActionNoShow), map[string]interface{}{
			"status":        domain.TargetOf(domain.ActionNoShow),
			"cancelled_at":  s.now(),
			"cancel_reason": "no-show",
		})
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrInvalidTransition
		}
		b.Status = domain.StatusNoShow
		booking = b
		_, err = s.ledger.Reorder(ctx, tx, b.SalonID)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().Uint("booking_id", bookingID).Uint("salon_id", booking.SalonID).Msg("scheduled booking marked no-show")
	s.afterCommit(ctx, booking.SalonID, "booking_no_show", booking, &PushMessage{
		Title: "Appointment missed",
		Body:  "Your appointment was marked as a no-show",
		Data:  bookingPushData(booking, "booking_no_show"),
	})
	return booking, nil
}

// ============================================================
// READ
// ============================================================

// GetBooking returns a booking visible to the caller
func (s *BookingService) GetBooking(ctx context.Context, actor domain.Actor, bookingID uint) (*models.Booking, error) {
	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	salon, err := s.store.GetSalon(ctx, booking.SalonID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorize(ctx, s.store, actor, PolicyViewBooking, salon, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

// ListMyBookings returns the caller's most recent bookings
func (s *BookingService) ListMyBookings(ctx context.Context, actor domain.Actor, limit int) ([]models.Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.store.ListUserBookings(ctx, actor.UserID, limit)
}

// GetSalonQueue returns the staff view of the queue
func (s *BookingService) GetSalonQueue(ctx context.Context, actor domain.Actor, salonID uint) (*QueueView, error) {
	salon, err := s.store.GetSalon(ctx, salonID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorize(ctx, s.store, actor, PolicyViewQueue, salon, nil); err != nil {
		return nil, err
	}
	active, err := s.store.ListActiveBookings(ctx, salonID)
	if err != nil {
		return nil, err
	}
	skipped, err := s.store.ListSkippedBookings(ctx, salonID)
	if err != nil {
		return nil, err
	}
	estimate := EstimateWait(WaitInput{Salon: salon, Active: active, Now: s.now()})
	return &QueueView{
		Salon:    salon,
		Active:   sortedByPosition(active),
		Skipped:  skipped,
		Estimate: &estimate,
	}, nil
}

// ============================================================
// Helpers
// ============================================================

func (s *BookingService) authorize(ctx context.Context, store QueueStore, actor domain.Actor, action PolicyAction, salon *models.Salon, booking *models.Booking) (Decision, error) {
	return authorizeSalon(ctx, store, s.policy, actor, action, salon, booking)
}

// authorizeSalon resolves the actor's staff membership at the salon and evaluates the policy
func authorizeSalon(ctx context.Context, store QueueStore, policy *Policy, actor domain.Actor, action PolicyAction, salon *models.Salon, booking *models.Booking) (Decision, error) {
	target := PolicyTarget{Salon: salon, Booking: booking}
	if !actor.IsZero() && salon != nil {
		membership, err := store.FindStaffByUser(ctx, salon.ID, actor.UserID)
		if err != nil {
			return Decision{}, err
		}
		target.Membership = membership
	}
	decision := policy.Evaluate(actor, action, target)
	return decision, decision.Err()
}

func (s *BookingService) loadInSalon(ctx context.Context, tx QueueStore, salonID, bookingID uint) (*models.Salon, *models.Booking, error) {
	salon, err := tx.GetSalon(ctx, salonID)
	if err != nil {
		return nil, nil, err
	}
	booking, err := tx.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	if booking.SalonID != salonID {
		return nil, nil, domain.ErrBookingNotFound
	}
	return salon, booking, nil
}

func (s *BookingService) buildItems(ctx context.Context, tx QueueStore, salonID uint, serviceIDs []uint) ([]models.BookingItem, float64, int, error) {
	if len(serviceIDs) == 0 {
		return nil, 0, 0, domain.ErrEmptyServices
	}
	catalog, err := tx.GetServicesByIDs(ctx, salonID, serviceIDs)
	if err != nil {
		return nil, 0, 0, err
	}
	byID := make(map[uint]models.SalonService, len(catalog))
	for _, svc := range catalog {
		byID[svc.ID] = svc
	}

	items := make([]models.BookingItem, 0, len(serviceIDs))
	var price float64
	var duration int
	for i, id := range serviceIDs {
		svc, ok := byID[id]
		if !ok || !svc.IsActive {
			return nil, 0, 0, domain.ErrServiceNotFound.WithMessage("service %d is not offered by this salon", id)
		}
		items = append(items, models.BookingItem{
			ServiceID:   svc.ID,
			ServiceName: svc.Name,
			Price:       svc.Price,
			Duration:    svc.Duration,
			SortOrder:   i,
		})
		price += svc.Price
		duration += svc.Duration
	}
	return items, price, duration, nil
}

// reload returns the committed state of booking, falling back to the in-memory copy
func (s *BookingService) reload(ctx context.Context, booking *models.Booking) *models.Booking {
	fresh, err := s.store.GetBooking(ctx, booking.ID)
	if err != nil {
		log.Warn().Err(err).Uint("booking_id", booking.ID).Msg("reload booking after commit")
		return booking
	}
	return fresh
}

// afterCommit runs the best-effort fan-out of a committed queue change
func (s *BookingService) afterCommit(ctx context.Context, salonID uint, event string, booking *models.Booking, push *PushMessage) {
	runFanout(ctx, s.fanout, s.store, s.ledger, s.notify, s.now, salonID, event, booking, push)
}

func runFanout(ctx context.Context, fanout func(func()), store QueueStore, ledger *QueueLedger, notify *QueueNotifyService,
	now func() time.Time, salonID uint, event string, booking *models.Booking, push *PushMessage) {
	ctx = context.WithoutCancel(ctx)
	fanout(func() {
		if err := ledger.ProjectEstimates(ctx, store, salonID, now()); err != nil {
			log.Warn().Err(err).Uint("salon_id", salonID).Msg("project estimates")
		}
		if notify == nil {
			return
		}
		data := map[string]interface{}{}
		if booking != nil {
			data["booking_id"] = booking.ID
			data["status"] = booking.Status
		}
		notify.PublishQueueChange(ctx, salonID, event, data)
		if push != nil && booking != nil {
			notify.NotifyUser(ctx, booking.UserID, *push)
		}
	})
}

func checkAcceptingQueue(salon *models.Salon) error {
	if !salon.IsActive {
		return domain.ErrSalonInactive
	}
	if !salon.IsOpen {
		return domain.ErrSalonClosed
	}
	return nil
}

// nextPosition enforces queue capacity and returns the slot after the last active booking
func nextPosition(ctx context.Context, tx QueueStore, salon *models.Salon) (int, error) {
	active, err := tx.ListActiveBookings(ctx, salon.ID)
	if err != nil {
		return 0, err
	}
	if len(active) >= salon.QueueCapacity() {
		return 0, domain.ErrQueueFull
	}
	maxPosition := 0
	for _, b := range active {
		if b.QueuePosition > maxPosition {
			maxPosition = b.QueuePosition
		}
	}
	return maxPosition + 1, nil
}

func checkStaff(ctx context.Context, tx QueueStore, salonID, staffID uint) (*models.Staff, error) {
	staff, err := tx.GetStaff(ctx, staffID)
	if err != nil {
		return nil, err
	}
	if staff.SalonID != salonID {
		return nil, domain.ErrStaffNotFound
	}
	if !staff.IsActive {
		return nil, domain.ErrStaffInactive
	}
	busy, err := tx.StaffHasInProgress(ctx, staffID)
	if err != nil {
		return nil, err
	}
	if busy {
		return nil, domain.ErrStaffBusy
	}
	return staff, nil
}

func bookingPushData(booking *models.Booking, event string) map[string]string {
	return map[string]string{
		"event":      event,
		"booking_id": fmt.Sprint(booking.ID),
		"salon_id":   fmt.Sprint(booking.SalonID),
	}
}

func observe(action string, err *error) {
	code := ""
	if *err != nil {
		if code = domain.CodeOf(*err); code == "" {
			code = "INTERNAL"
		}
	}
	metrics.ObserveTransition(action, code)
}
