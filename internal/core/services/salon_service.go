package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"salonq/internal/adapters/persistence/models"
	"salonq/internal/core/domain"
)

// SalonService manages the salon's queue settings
type SalonService struct {
	store  QueueStore
	policy *Policy
	ledger *QueueLedger
	notify *QueueNotifyService
	now    func() time.Time
	fanout func(func())
}

// NewSalonService creates a new salon service
func NewSalonService(store QueueStore, ledger *QueueLedger, policy *Policy, notify *QueueNotifyService) *SalonService {
	return &SalonService{
		store:  store,
		policy: policy,
		ledger: ledger,
		notify: notify,
		now:    time.Now,
		fanout: func(fn func()) { go fn() },
	}
}

// SettingsInput represents a partial settings update; nil fields are left unchanged
type SettingsInput struct {
	IsOpen              *bool `json:"is_open"`
	BusyMode            *bool `json:"busy_mode"`
	ActiveBarbers       *int  `json:"active_barbers" validate:"omitempty,min=0,max=100"`
	AvgServiceTime      *int  `json:"avg_service_time" validate:"omitempty,min=1,max=480"`
	MaxQueueSize        *int  `json:"max_queue_size" validate:"omitempty,min=1,max=500"`
	PriorityLimitPerDay *int  `json:"priority_limit_per_day" validate:"omitempty,min=0,max=50"`
}

// UpdateSettings applies a settings change. Closing the salon notifies everyone still waiting.
func (s *SalonService) UpdateSettings(ctx context.Context, actor domain.Actor, salonID uint, input *SettingsInput) (salon *models.Salon, err error) {
	defer observe("settings", &err)

	var closing bool
	err = s.store.WithinSalonLock(ctx, salonID, func(tx QueueStore) error {
		current, err := tx.GetSalon(ctx, salonID)
		if err != nil {
			return err
		}
		if _, err := authorizeSalon(ctx, tx, s.policy, actor, PolicySalonSettings, current, nil); err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if input.IsOpen != nil {
			updates["is_open"] = *input.IsOpen
			closing = current.IsOpen && !*input.IsOpen
		}
		if input.BusyMode != nil {
			updates["busy_mode"] = *input.BusyMode
		}
		if input.ActiveBarbers != nil {
			if current.TotalBarbers > 0 && *input.ActiveBarbers > current.TotalBarbers {
				return domain.ErrValidation.WithMessage("active barbers cannot exceed total barbers (%d)", current.TotalBarbers)
			}
			updates["active_barbers"] = *input.ActiveBarbers
		}
		if input.AvgServiceTime != nil {
			updates["avg_service_time"] = *input.AvgServiceTime
		}
		if input.MaxQueueSize != nil {
			updates["max_queue_size"] = *input.MaxQueueSize
		}
		if input.PriorityLimitPerDay != nil {
			updates["priority_limit_per_day"] = *input.PriorityLimitPerDay
		}
		if len(updates) == 0 {
			salon = current
			return nil
		}
		if err := tx.UpdateSalon(ctx, salonID, updates); err != nil {
			return err
		}
		salon, err = tx.GetSalon(ctx, salonID)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().Uint("salon_id", salonID).Uint("actor", actor.UserID).Bool("open", salon.IsOpen).
		Bool("busy_mode", salon.BusyMode).Int("active_barbers", salon.ActiveBarbers).Msg("salon settings updated")

	ctx = context.WithoutCancel(ctx)
	s.fanout(func() {
		if s.notify == nil {
			return
		}
		s.notify.EmitSalonStatus(salonID, map[string]interface{}{
			"is_open":        salon.IsOpen,
			"busy_mode":      salon.BusyMode,
			"active_barbers": salon.ActiveBarbers,
		})
		s.notify.PushWaitTimes(ctx, salonID)
		if closing {
			s.notifySalonClosed(ctx, salon)
		}
	})
	return salon, nil
}

// GetSalon returns a salon
func (s *SalonService) GetSalon(ctx context.Context, salonID uint) (*models.Salon, error) {
	return s.store.GetSalon(ctx, salonID)
}

// SalonDetail is a salon together with its bookable services
type SalonDetail struct {
	*models.Salon
	Services []models.SalonService `json:"services"`
}

// ListSalons returns every active salon
func (s *SalonService) ListSalons(ctx context.Context) ([]models.Salon, error) {
	return s.store.ListActiveSalons(ctx)
}

// GetSalonDetail returns a salon and its active service catalog
func (s *SalonService) GetSalonDetail(ctx context.Context, salonID uint) (*SalonDetail, error) {
	salon, err := s.store.GetSalon(ctx, salonID)
	if err != nil {
		return nil, err
	}
	catalog, err := s.store.ListSalonServices(ctx, salonID)
	if err != nil {
		return nil, err
	}
	return &SalonDetail{Salon: salon, Services: catalog}, nil
}

func (s *SalonService) notifySalonClosed(ctx context.Context, salon *models.Salon) {
	active, err := s.store.ListActiveBookings(ctx, salon.ID)
	if err != nil {
		log.Warn().Err(err).Uint("salon_id", salon.ID).Msg("salon closed: load queue")
		return
	}
	for i := range active {
		b := &active[i]
		if b.Status != domain.StatusPending {
			continue
		}
		s.notify.NotifyUser(ctx, b.UserID, PushMessage{
			Title: salon.Name + " has closed",
			Body:  "The salon closed before your turn. Your booking is still held.",
			Data:  bookingPushData(b, "salon_closed"),
		})
	}
}
