package services

import (
	"context"
	"fmt"
	"time"

	"salonq/internal/adapters/persistence/models"
	"salonq/internal/core/domain"
)

// QueueLedger owns queue positions of a salon's active bookings
type QueueLedger struct{}

// NewQueueLedger creates a new queue ledger
func NewQueueLedger() *QueueLedger {
	return &QueueLedger{}
}

// Reorder renumbers the active bookings 1..N in their current order.
// Only rows whose position changed are written.
func (l *QueueLedger) Reorder(ctx context.Context, store QueueStore, salonID uint) ([]models.Booking, error) {
	active, err := store.ListActiveBookings(ctx, salonID)
	if err != nil {
		return nil, err
	}
	ordered := sortedByPosition(active)
	for i := range ordered {
		position := i + 1
		if ordered[i].QueuePosition == position {
			continue
		}
		if err := store.UpdatePosition(ctx, ordered[i].ID, position); err != nil {
			return nil, fmt.Errorf("reorder salon %d: %w", salonID, err)
		}
		ordered[i].QueuePosition = position
	}
	return ordered, nil
}

// Skip parks the booking behind every active and skipped entry and remembers where it was
func (l *QueueLedger) Skip(ctx context.Context, store QueueStore, booking *models.Booking, reason string, now time.Time) error {
	maxPosition, err := store.MaxPosition(ctx, booking.SalonID, true)
	if err != nil {
		return err
	}
	original := booking.QueuePosition
	ok, err := store.TransitionBooking(ctx, booking.ID, domain.AllowedFrom(domain.ActionSkip), map[string]interface{}{
		"status":            domain.TargetOf(domain.ActionSkip),
		"queue_position":    maxPosition + 1,
		"original_position": original,
		"skipped_at":        now,
		"skip_reason":       reason,
	})
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInvalidTransition
	}
	booking.Status = domain.StatusSkipped
	booking.QueuePosition = maxPosition + 1
	booking.OriginalPosition = &original
	booking.SkippedAt = &now
	booking.SkipReason = reason

	_, err = l.Reorder(ctx, store, booking.SalonID)
	return err
}

// UndoSkip returns a skipped booking to the active queue, either at its original
// position (later entries move down one slot) or at the end.
func (l *QueueLedger) UndoSkip(ctx context.Context, store QueueStore, booking *models.Booking, restoreOriginal bool) error {
	var position int
	if restoreOriginal && booking.OriginalPosition != nil && *booking.OriginalPosition > 0 {
		position = *booking.OriginalPosition
		if err := store.ShiftPositions(ctx, booking.SalonID, position, 1); err != nil {
			return err
		}
	} else {
		maxPosition, err := store.MaxPosition(ctx, booking.SalonID, false)
		if err != nil {
			return err
		}
		position = maxPosition + 1
	}

	ok, err := store.TransitionBooking(ctx, booking.ID, domain.AllowedFrom(domain.ActionUndoSkip), map[string]interface{}{
		"status":            domain.TargetOf(domain.ActionUndoSkip),
		"queue_position":    position,
		"original_position": nil,
		"skipped_at":        nil,
		"skip_reason":       "",
	})
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInvalidTransition
	}
	booking.Status = domain.StatusPending
	booking.QueuePosition = position
	booking.OriginalPosition = nil
	booking.SkippedAt = nil
	booking.SkipReason = ""

	_, err = l.Reorder(ctx, store, booking.SalonID)
	return err
}

// ProjectEstimates writes advisory start/end projections for every active booking
func (l *QueueLedger) ProjectEstimates(ctx context.Context, store QueueStore, salonID uint, now time.Time) error {
	salon, err := store.GetSalon(ctx, salonID)
	if err != nil {
		return err
	}
	active, err := store.ListActiveBookings(ctx, salonID)
	if err != nil {
		return err
	}

	cursor := now
	for _, b := range sortedByPosition(active) {
		remaining := EntryContribution(&b, salon.AvgServiceTime, now)
		start := cursor
		if b.Status == domain.StatusInProgress && b.StartedAt != nil {
			start = *b.StartedAt
		}
		end := cursor.Add(time.Duration(remaining) * time.Minute)
		if err := store.UpdateBooking(ctx, b.ID, map[string]interface{}{
			"estimated_start_time": start,
			"estimated_end_time":   end,
		}); err != nil {
			return err
		}
		cursor = end
	}
	return nil
}
