package services

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"salonq/internal/pkg/metrics"
)

// ============================================================
// SSE Hub: salon rooms
// ============================================================

// SSEEvent represents a server-sent event
type SSEEvent struct {
	Event   string      `json:"event"`
	SalonID uint        `json:"salon_id"`
	Data    interface{} `json:"data"`
}

// SSEClient represents a connected SSE client
type SSEClient struct {
	ID      string
	UserID  uint // 0 for anonymous viewers (e.g. the salon TV)
	SalonID uint
	Channel chan SSEEvent
}

// SSEHub manages all SSE connections, grouped by salon room
type SSEHub struct {
	mu      sync.RWMutex
	clients map[string]*SSEClient
}

// NewSSEHub creates a new SSE hub
func NewSSEHub() *SSEHub {
	return &SSEHub{
		clients: make(map[string]*SSEClient),
	}
}

// Register adds a new SSE client
func (h *SSEHub) Register(client *SSEClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	metrics.SSEClients.Set(float64(len(h.clients)))
	log.Debug().Str("client_id", client.ID).Uint("user_id", client.UserID).Uint("salon_id", client.SalonID).
		Int("total", len(h.clients)).Msg("sse client registered")
}

// Unregister removes an SSE client
func (h *SSEHub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Channel)
		delete(h.clients, clientID)
		metrics.SSEClients.Set(float64(len(h.clients)))
		log.Debug().Str("client_id", clientID).Int("total", len(h.clients)).Msg("sse client unregistered")
	}
}

// EmitToSalonRoom sends an event to every client watching the salon
func (h *SSEHub) EmitToSalonRoom(salonID uint, event string, payload interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for _, client := range h.clients {
		if client.SalonID != salonID {
			continue
		}
		select {
		case client.Channel <- SSEEvent{Event: event, SalonID: salonID, Data: payload}:
			sent++
		default:
			log.Warn().Str("client_id", client.ID).Msg("sse channel full, skipping")
		}
	}
	if sent > 0 {
		log.Debug().Str("event", event).Uint("salon_id", salonID).Int("clients", sent).Msg("sse broadcast")
	}
}

// RoomClients lists the clients watching the salon
func (h *SSEHub) RoomClients(salonID uint) []RoomClient {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []RoomClient
	for _, client := range h.clients {
		if client.SalonID == salonID {
			out = append(out, RoomClient{ID: client.ID, UserID: client.UserID})
		}
	}
	return out
}

// SendToClient sends an event to one client; false when the client is gone or saturated
func (h *SSEHub) SendToClient(clientID string, event string, payload interface{}) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[clientID]
	if !ok {
		return false
	}
	select {
	case client.Channel <- SSEEvent{Event: event, SalonID: client.SalonID, Data: payload}:
		return true
	default:
		log.Warn().Str("client_id", clientID).Msg("sse channel full, skipping")
		return false
	}
}

// GetClientCount returns the number of connected clients
func (h *SSEHub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ============================================================
// QueueNotifyService: room broadcast, personalized waits, device push
// ============================================================

// Event names sent to salon rooms
const (
	EventQueueUpdate    = "queue_update"
	EventWaitTimeUpdate = "wait_time_update"
	EventSalonStatus    = "salon_status"
)

// QueueNotifyService fans queue changes out to connected clients and devices.
// Every method is best-effort: failures are logged, never returned.
type QueueNotifyService struct {
	broadcaster Broadcaster
	notifier    Notifier
	store       QueueStore
	waits       *WaitTimeService
}

// NewQueueNotifyService creates a new notification service
func NewQueueNotifyService(broadcaster Broadcaster, notifier Notifier, store QueueStore, waits *WaitTimeService) *QueueNotifyService {
	return &QueueNotifyService{
		broadcaster: broadcaster,
		notifier:    notifier,
		store:       store,
		waits:       waits,
	}
}

// PublishQueueChange broadcasts a queue event to the salon room and then pushes
// each connected client its own wait estimate.
func (n *QueueNotifyService) PublishQueueChange(ctx context.Context, salonID uint, event string, data map[string]interface{}) {
	payload := map[string]interface{}{"type": event}
	for k, v := range data {
		payload[k] = v
	}
	n.broadcaster.EmitToSalonRoom(salonID, EventQueueUpdate, payload)
	n.PushWaitTimes(ctx, salonID)
}

// PushWaitTimes computes one estimate per connected client and routes it only to that client
func (n *QueueNotifyService) PushWaitTimes(ctx context.Context, salonID uint) {
	clients := n.broadcaster.RoomClients(salonID)
	if len(clients) == 0 {
		return
	}
	salon, err := n.store.GetSalon(ctx, salonID)
	if err != nil {
		log.Error().Err(err).Uint("salon_id", salonID).Msg("wait push: load salon")
		return
	}
	active, err := n.store.ListActiveBookings(ctx, salonID)
	if err != nil {
		log.Error().Err(err).Uint("salon_id", salonID).Msg("wait push: load queue")
		return
	}
	for _, client := range clients {
		var userID *uint
		if client.UserID != 0 {
			id := client.UserID
			userID = &id
		}
		n.broadcaster.SendToClient(client.ID, EventWaitTimeUpdate, n.waits.estimateFrom(salon, active, userID))
	}
}

// EmitSalonStatus tells the room the salon's open/busy state changed
func (n *QueueNotifyService) EmitSalonStatus(salonID uint, data map[string]interface{}) {
	n.broadcaster.EmitToSalonRoom(salonID, EventSalonStatus, data)
}

// NotifyUser sends a device push to the user's registered device, if any
func (n *QueueNotifyService) NotifyUser(ctx context.Context, userID *uint, msg PushMessage) {
	if userID == nil || n.notifier == nil {
		return
	}
	user, err := n.store.GetUser(ctx, *userID)
	if err != nil {
		log.Warn().Err(err).Uint("user_id", *userID).Msg("push: load user")
		return
	}
	if user.DeviceToken == "" {
		return
	}
	if err := n.notifier.SendToDevice(ctx, user.DeviceToken, msg); err != nil {
		log.Warn().Err(err).Uint("user_id", *userID).Str("title", msg.Title).Msg("push delivery failed")
	}
}
