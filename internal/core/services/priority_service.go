package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"salonq/internal/adapters/persistence/models"
	"salonq/internal/core/domain"
	"salonq/internal/pkg/metrics"
	"salonq/internal/pkg/pagination"
)

// PriorityService lets an owner or manager start a booking ahead of its turn,
// within the salon's daily quota. Every override is logged.
type PriorityService struct {
	store  QueueStore
	policy *Policy
	ledger *QueueLedger
	notify *QueueNotifyService
	now    func() time.Time
	fanout func(func())
}

// NewPriorityService creates a new priority service
func NewPriorityService(store QueueStore, ledger *QueueLedger, policy *Policy, notify *QueueNotifyService) *PriorityService {
	return &PriorityService{
		store:  store,
		policy: policy,
		ledger: ledger,
		notify: notify,
		now:    time.Now,
		fanout: func(fn func()) { go fn() },
	}
}

// PriorityInput represents a priority start request
type PriorityInput struct {
	Reason  string `json:"reason"`
	StaffID *uint  `json:"staff_id"`
}

// StartPriority moves a pending booking straight to in-progress
func (s *PriorityService) StartPriority(ctx context.Context, actor domain.Actor, salonID, bookingID uint, input *PriorityInput) (booking *models.Booking, err error) {
	defer observe(string(domain.ActionPriority), &err)

	if input == nil || !domain.IsValidPriorityReason(input.Reason) {
		return nil, domain.ErrInvalidPriorityReason
	}

	now := s.now()
	today := domain.DayKey(now)
	err = s.store.WithinSalonLock(ctx, salonID, func(tx QueueStore) error {
		salon, err := tx.GetSalon(ctx, salonID)
		if err != nil {
			return err
		}

		// role
		decision, err := authorizeSalon(ctx, tx, s.policy, actor, PolicyPriority, salon, nil)
		if err != nil {
			return err
		}

		// quota
		if salon.PriorityResetDate != today {
			if err := tx.ResetPriorityCounter(ctx, salonID, today); err != nil {
				return err
			}
			salon.PriorityUsedToday = 0
			salon.PriorityResetDate = today
		}
		if salon.PriorityUsedToday >= salon.PriorityLimitPerDay {
			return domain.ErrPriorityLimit.WithMessage("daily priority limit of %d reached", salon.PriorityLimitPerDay)
		}

		// booking
		b, err := tx.GetBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.SalonID != salonID {
			return domain.ErrBookingNotFound
		}
		if !domain.ValidTransition(domain.ActionPriority, b.Status) || !b.IsActive() {
			return domain.ErrInvalidTransition
		}

		// idle barber
		inProgress, err := tx.CountInProgress(ctx, salonID)
		if err != nil {
			return err
		}
		if inProgress >= int64(salon.ActiveBarbers) {
			return domain.ErrNoBarbers
		}

		// staff
		updates := map[string]interface{}{
			"status":          domain.TargetOf(domain.ActionPriority),
			"started_at":      now,
			"is_priority":     true,
			"priority_reason": input.Reason,
			"notes":           appendNote(b.Notes, "Priority: "+input.Reason),
		}
		if input.StaffID != nil {
			if _, err := checkStaff(ctx, tx, salonID, *input.StaffID); err != nil {
				return err
			}
			updates["assigned_staff_id"] = *input.StaffID
		}

		ok, err := tx.IncrementPriorityUsage(ctx, salonID, today)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrPriorityLimit
		}
		ok, err = tx.TransitionBooking(ctx, b.ID, domain.AllowedFrom(domain.ActionPriority), updates)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrInvalidTransition
		}

		if err := tx.CreatePriorityLog(ctx, &models.PriorityLog{
			SalonID:         salonID,
			BookingID:       b.ID,
			TriggeredBy:     actor.UserID,
			TriggeredByRole: decision.Role,
			CustomerUserID:  b.UserID,
			CustomerName:    b.CustomerName,
			Reason:          input.Reason,
			PositionBefore:  b.QueuePosition,
			AssignedStaffID: input.StaffID,
		}); err != nil {
			return err
		}
		b.Status = domain.StatusInProgress
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.PriorityOverrides.WithLabelValues(input.Reason).Inc()
	log.Info().Uint("booking_id", bookingID).Uint("salon_id", salonID).Uint("actor", actor.UserID).
		Str("reason", input.Reason).Msg("priority override started")
	runFanout(ctx, s.fanout, s.store, s.ledger, s.notify, s.now, salonID, "priority_started", booking, &PushMessage{
		Title: "It's your turn",
		Body:  "You have been given priority. Your service is starting now.",
		Data:  bookingPushData(booking, "priority_started"),
	})

	if fresh, err := s.store.GetBooking(ctx, booking.ID); err == nil {
		return fresh, nil
	}
	return booking, nil
}

// PriorityLogList is a page of priority audit records
type PriorityLogList struct {
	Logs       []models.PriorityLog `json:"logs"`
	Pagination *pagination.Meta     `json:"pagination"`
}

// ListPriorityLogs returns the salon's override history, newest first
func (s *PriorityService) ListPriorityLogs(ctx context.Context, actor domain.Actor, salonID uint, page *pagination.Params) (*PriorityLogList, error) {
	salon, err := s.store.GetSalon(ctx, salonID)
	if err != nil {
		return nil, err
	}
	if _, err := authorizeSalon(ctx, s.store, s.policy, actor, PolicyViewPriorityLogs, salon, nil); err != nil {
		return nil, err
	}

	logs, total, err := s.store.ListPriorityLogs(ctx, salonID, page.Offset, page.Limit)
	if err != nil {
		return nil, err
	}
	return &PriorityLogList{Logs: logs, Pagination: pagination.GetMeta(page, total)}, nil
}

func appendNote(notes, line string) string {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return line
	}
	return notes + "\n" + line
}
