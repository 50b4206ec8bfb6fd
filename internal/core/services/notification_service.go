package services

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	gobreaker "github.com/sony/gobreaker/v2"

	"salonq/internal/pkg/metrics"
)

// PushConfig configures the device push client
type PushConfig struct {
	Endpoint  string
	ServerKey string
	Timeout   time.Duration
}

type pushRequest struct {
	ID           string            `json:"message_id"`
	To           string            `json:"to"`
	Notification PushMessage       `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

// NotificationService delivers device pushes over HTTP behind a circuit breaker
type NotificationService struct {
	endpoint  string
	serverKey string
	enabled   bool
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker[struct{}]
}

// NewNotificationService creates a new push client; without a server key it only logs
func NewNotificationService(cfg PushConfig) *NotificationService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	enabled := cfg.ServerKey != "" && cfg.Endpoint != ""
	if !enabled {
		log.Warn().Msg("PUSH_SERVER_KEY not set, device push disabled")
	}
	return &NotificationService{
		endpoint:  cfg.Endpoint,
		serverKey: cfg.ServerKey,
		enabled:   enabled,
		client:    &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:        "device-push",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			},
		}),
	}
}

// IsEnabled reports whether pushes are actually sent
func (s *NotificationService) IsEnabled() bool {
	return s.enabled
}

// SendToDevice posts one notification to the push gateway
func (s *NotificationService) SendToDevice(ctx context.Context, deviceToken string, msg PushMessage) error {
	if !s.enabled {
		log.Debug().Str("title", msg.Title).Msg("push skipped (disabled)")
		metrics.PushNotifications.WithLabelValues("disabled").Inc()
		return nil
	}

	_, err := s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, s.post(ctx, deviceToken, msg)
	})
	if err != nil {
		metrics.PushNotifications.WithLabelValues("failed").Inc()
		return fmt.Errorf("push to device: %w", err)
	}
	metrics.PushNotifications.WithLabelValues("sent").Inc()
	return nil
}

func (s *NotificationService) post(ctx context.Context, deviceToken string, msg PushMessage) error {
	body, err := json.Marshal(pushRequest{
		ID:           uuid.NewString(),
		To:           deviceToken,
		Notification: msg,
		Data:         msg.Data,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+s.serverKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("push gateway returned %d", resp.StatusCode)
	}
	return nil
}
