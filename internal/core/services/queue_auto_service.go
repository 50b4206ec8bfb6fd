package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"salonq/internal/core/domain"
)

// ============================================================
// Scheduled jobs: daily priority quota reset + no-show sweep
// ============================================================

// AutoConfig configures the background jobs
type AutoConfig struct {
	QuotaResetSpec string        // cron spec, default midnight
	NoShowSpec     string        // cron spec, default every 5 minutes
	NoShowGrace    time.Duration // how long after the slot a booking may still arrive
}

// QueueAutoService runs scheduled queue automation
type QueueAutoService struct {
	store    QueueStore
	bookings *BookingService
	cfg      AutoConfig
	cron     *cron.Cron
	now      func() time.Time
}

// NewQueueAutoService creates a new auto service
func NewQueueAutoService(store QueueStore, bookings *BookingService, cfg AutoConfig) *QueueAutoService {
	if cfg.QuotaResetSpec == "" {
		cfg.QuotaResetSpec = "0 0 * * *"
	}
	if cfg.NoShowSpec == "" {
		cfg.NoShowSpec = "*/5 * * * *"
	}
	if cfg.NoShowGrace <= 0 {
		cfg.NoShowGrace = 30 * time.Minute
	}
	return &QueueAutoService{
		store:    store,
		bookings: bookings,
		cfg:      cfg,
		cron:     cron.New(),
		now:      time.Now,
	}
}

// Start registers and launches all jobs
func (s *QueueAutoService) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.QuotaResetSpec, func() {
		s.ResetPriorityQuotas(context.Background())
	}); err != nil {
		return fmt.Errorf("quota reset schedule %q: %w", s.cfg.QuotaResetSpec, err)
	}
	if _, err := s.cron.AddFunc(s.cfg.NoShowSpec, func() {
		s.SweepNoShows(context.Background())
	}); err != nil {
		return fmt.Errorf("no-show schedule %q: %w", s.cfg.NoShowSpec, err)
	}
	s.cron.Start()
	log.Info().Str("quota_reset", s.cfg.QuotaResetSpec).Str("no_show", s.cfg.NoShowSpec).Msg("queue automation started")
	return nil
}

// Stop waits for running jobs to finish
func (s *QueueAutoService) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("queue automation stopped")
}

// ResetPriorityQuotas zeroes every salon's daily priority counter
func (s *QueueAutoService) ResetPriorityQuotas(ctx context.Context) {
	n, err := s.store.ResetAllPriorityCounters(ctx, domain.DayKey(s.now()))
	if err != nil {
		log.Error().Err(err).Msg("priority quota reset failed")
		return
	}
	log.Info().Int64("salons", n).Msg("priority quotas reset")
}

// SweepNoShows marks scheduled bookings whose customer did not arrive within the grace period
func (s *QueueAutoService) SweepNoShows(ctx context.Context) int {
	now := s.now()
	candidates, err := s.store.ListUnarrivedScheduled(ctx, now)
	if err != nil {
		log.Error().Err(err).Msg("no-show sweep query failed")
		return 0
	}

	marked := 0
	for _, b := range candidates {
		slot, ok := scheduledSlot(b.ScheduledDate, b.ScheduledTime, now.Location())
		if !ok || now.Before(slot.Add(s.cfg.NoShowGrace)) {
			continue
		}
		if _, err := s.bookings.MarkNoShow(ctx, b.ID); err != nil {
			log.Warn().Err(err).Uint("booking_id", b.ID).Msg("mark no-show failed")
			continue
		}
		marked++
	}
	if marked > 0 {
		log.Info().Int("bookings", marked).Msg("no-show sweep")
	}
	return marked
}

func scheduledSlot(date *time.Time, clock string, loc *time.Location) (time.Time, bool) {
	if date == nil {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("15:04", clock, loc)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc), true
}
