package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"salonq/internal/adapters/persistence/models"
	"salonq/internal/core/domain"
	"salonq/internal/pkg/metrics"
)

// WaitInput is everything the estimator needs; it performs no I/O
type WaitInput struct {
	Salon  *models.Salon
	Active []models.Booking // pending and in-progress bookings in ledger order
	UserID *uint
	Now    time.Time
}

// WaitEstimate is the wait-time result sent to clients
type WaitEstimate struct {
	WaitMinutes        *int       `json:"waitMinutes"`
	DisplayText        string     `json:"displayText"`
	QueueLength        int        `json:"queueLength"`
	Status             string     `json:"status"`
	EstimatedStartTime *time.Time `json:"estimatedStartTime"`
	IsInQueue          bool       `json:"isInQueue"`
	Position           *int       `json:"position,omitempty"`
	BookingID          *uint      `json:"bookingId,omitempty"`
}

// EstimateWait computes either the caller's personal wait (they hold a pending entry)
// or the time a new arrival would wait if they joined now.
func EstimateWait(in WaitInput) WaitEstimate {
	salon := in.Salon
	queueLength := len(in.Active)

	if !salon.IsOpen {
		return WaitEstimate{DisplayText: "Closed", QueueLength: queueLength, Status: domain.WaitClosed}
	}
	if salon.ActiveBarbers <= 0 {
		return WaitEstimate{DisplayText: "No barbers available", QueueLength: queueLength, Status: domain.WaitUnavailable}
	}

	if queueLength == 0 {
		return newEstimate(0, domain.WaitAvailable, 0, in.Now)
	}

	entries := sortedByPosition(in.Active)

	// CASE 1: caller is waiting in this queue
	if in.UserID != nil {
		for i := range entries {
			b := &entries[i]
			if b.UserID == nil || *b.UserID != *in.UserID || b.Status != domain.StatusPending {
				continue
			}
			wait := 0
			for j := 0; j < i; j++ {
				wait += EntryContribution(&entries[j], salon.AvgServiceTime, in.Now)
			}
			result := newEstimate(wait, domain.WaitInQueue, queueLength, in.Now)
			result.IsInQueue = true
			position := i + 1
			result.Position = &position
			bookingID := b.ID
			result.BookingID = &bookingID
			return result
		}
	}

	// CASE 2: joining now
	wait := 0
	for i := range entries {
		wait += EntryContribution(&entries[i], salon.AvgServiceTime, in.Now)
	}
	result := newEstimate(wait, waitStatus(wait), queueLength, in.Now)
	switch {
	case salon.BusyMode:
		result.Status = domain.WaitBusy
		result.DisplayText = "Walk-ins only"
	case queueLength >= salon.QueueCapacity():
		result.Status = domain.WaitFull
		result.DisplayText = "Queue full"
	}
	return result
}

// EntryContribution is the number of minutes a booking still occupies a chair
func EntryContribution(b *models.Booking, fallbackDuration int, now time.Time) int {
	duration := b.TotalDuration
	if duration <= 0 {
		duration = fallbackDuration
	}
	if b.Status != domain.StatusInProgress || b.StartedAt == nil {
		return duration
	}
	elapsed := int(now.Sub(*b.StartedAt) / time.Minute)
	if elapsed < 0 {
		elapsed = 0
	}
	if remaining := duration - elapsed; remaining > 0 {
		return remaining
	}
	return 0
}

// FormatWait renders minutes into the bucketed display string
func FormatWait(minutes int) string {
	switch {
	case minutes <= 0:
		return "No wait"
	case minutes <= 5:
		return "~0-5 min"
	case minutes < 60:
		return fmt.Sprintf("~%d min wait", minutes)
	}
	hours, rest := minutes/60, minutes%60
	if rest == 0 {
		return fmt.Sprintf("~%dh wait", hours)
	}
	return fmt.Sprintf("~%dh %dm wait", hours, rest)
}

func waitStatus(minutes int) string {
	switch {
	case minutes > 45:
		return domain.WaitVeryBusy
	case minutes > 15:
		return domain.WaitBusy
	default:
		return domain.WaitAvailable
	}
}

func newEstimate(wait int, status string, queueLength int, now time.Time) WaitEstimate {
	start := now.Add(time.Duration(wait) * time.Minute)
	return WaitEstimate{
		WaitMinutes:        &wait,
		DisplayText:        FormatWait(wait),
		QueueLength:        queueLength,
		Status:             status,
		EstimatedStartTime: &start,
	}
}

func sortedByPosition(bookings []models.Booking) []models.Booking {
	out := make([]models.Booking, len(bookings))
	copy(out, bookings)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].QueuePosition != out[j].QueuePosition {
			return out[i].QueuePosition < out[j].QueuePosition
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out
}

// ============================================================
// WaitTimeService: loads queue state and runs the estimator
// ============================================================

// WaitTimeService answers wait-time queries for a salon
type WaitTimeService struct {
	store QueueStore
	now   func() time.Time
}

// NewWaitTimeService creates a new wait-time service
func NewWaitTimeService(store QueueStore) *WaitTimeService {
	return &WaitTimeService{store: store, now: time.Now}
}

// Estimate returns the wait estimate for salonID, personalized when userID is set
func (s *WaitTimeService) Estimate(ctx context.Context, salonID uint, userID *uint) (*WaitEstimate, error) {
	salon, err := s.store.GetSalon(ctx, salonID)
	if err != nil {
		return nil, err
	}
	active, err := s.store.ListActiveBookings(ctx, salonID)
	if err != nil {
		return nil, err
	}
	return s.estimateFrom(salon, active, userID), nil
}

func (s *WaitTimeService) estimateFrom(salon *models.Salon, active []models.Booking, userID *uint) *WaitEstimate {
	result := EstimateWait(WaitInput{Salon: salon, Active: active, UserID: userID, Now: s.now()})
	if result.WaitMinutes != nil {
		metrics.WaitEstimateMinutes.Observe(float64(*result.WaitMinutes))
	}
	return &result
}
