package handlers

import (
	"bufio"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"salonq/internal/adapters/http/middleware"
	"salonq/internal/core/services"
	"salonq/internal/pkg/response"
)

// QueueDisplayHandler handles public salon endpoints: catalog, wait time and the live event stream.
// A valid token personalizes the wait estimate but is never required.
type QueueDisplayHandler struct {
	salonService *services.SalonService
	waitService  *services.WaitTimeService
	hub          *services.SSEHub
	heartbeat    time.Duration
}

// NewQueueDisplayHandler creates a new display handler
func NewQueueDisplayHandler(
	salonService *services.SalonService,
	waitService *services.WaitTimeService,
	hub *services.SSEHub,
	heartbeat time.Duration,
) *QueueDisplayHandler {
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	return &QueueDisplayHandler{
		salonService: salonService,
		waitService:  waitService,
		hub:          hub,
		heartbeat:    heartbeat,
	}
}

// ============================================================
// GET /api/v1/salons: active salons
// ============================================================
func (h *QueueDisplayHandler) ListSalons(c *fiber.Ctx) error {
	salons, err := h.salonService.ListSalons(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Salons retrieved", salons)
}

// ============================================================
// GET /api/v1/salons/:id: salon with its service catalog
// ============================================================
func (h *QueueDisplayHandler) GetSalon(c *fiber.Ctx) error {
	salonID, err := paramID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid salon ID")
	}
	detail, err := h.salonService.GetSalonDetail(c.UserContext(), salonID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Salon retrieved", detail)
}

// ============================================================
// GET /api/v1/salons/:id/wait-time
// ============================================================
func (h *QueueDisplayHandler) GetWaitTime(c *fiber.Ctx) error {
	salonID, err := paramID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid salon ID")
	}
	estimate, err := h.waitService.Estimate(c.UserContext(), salonID, middleware.UserIDPtr(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Wait time retrieved", estimate)
}

// ============================================================
// GET /api/v1/salons/:id/events: SSE room for the salon
// ============================================================
func (h *QueueDisplayHandler) SalonEvents(c *fiber.Ctx) error {
	salonID, err := paramID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid salon ID")
	}

	// the first estimate doubles as the existence check
	userID := middleware.UserIDPtr(c)
	initial, err := h.waitService.Estimate(c.UserContext(), salonID, userID)
	if err != nil {
		return response.FromError(c, err)
	}

	client := &services.SSEClient{
		ID:      uuid.NewString(),
		SalonID: salonID,
		Channel: make(chan services.SSEEvent, 50),
	}
	if userID != nil {
		client.UserID = *userID
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Transfer-Encoding", "chunked")
	c.Set("X-Accel-Buffering", "no")

	heartbeatEvery := h.heartbeat
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		h.hub.Register(client)
		defer h.hub.Unregister(client.ID)

		writeSSEEvent(w, services.SSEEvent{
			Event:   "connected",
			SalonID: salonID,
			Data:    fiber.Map{"client_id": client.ID, "salon_id": salonID},
		})
		writeSSEEvent(w, services.SSEEvent{Event: services.EventWaitTimeUpdate, SalonID: salonID, Data: initial})
		if err := w.Flush(); err != nil {
			return
		}

		heartbeat := time.NewTicker(heartbeatEvery)
		defer heartbeat.Stop()

		for {
			select {
			case event, ok := <-client.Channel:
				if !ok {
					return
				}
				writeSSEEvent(w, event)
				if err := w.Flush(); err != nil {
					log.Debug().Str("client_id", client.ID).Msg("sse client disconnected")
					return
				}

			case <-heartbeat.C:
				fmt.Fprintf(w, ": heartbeat\n\n")
				if err := w.Flush(); err != nil {
					log.Debug().Str("client_id", client.ID).Msg("sse client disconnected")
					return
				}
			}
		}
	})

	return nil
}

// writeSSEEvent writes one event frame; payloads that fail to encode are dropped
func writeSSEEvent(w *bufio.Writer, event services.SSEEvent) {
	data, err := json.Marshal(event.Data)
	if err != nil {
		log.Warn().Err(err).Str("event", event.Event).Msg("sse payload encode failed")
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data)
}
