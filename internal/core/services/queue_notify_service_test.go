package services_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salonq/internal/core/domain"
	"salonq/internal/core/services"
)

func TestQueueChangesArePersonalized(t *testing.T) {
	f := newFixture(t)
	f.join(f.bob)

	aliceCh := f.watch("alice-phone", f.alice.ID)
	tvCh := f.watch("tv", 0)

	a := f.join(f.alice)

	aliceEvents := drain(aliceCh)
	tvEvents := drain(tvCh)

	require.Len(t, eventsNamed(aliceEvents, services.EventQueueUpdate), 1)
	require.Len(t, eventsNamed(tvEvents, services.EventQueueUpdate), 1)
	update := eventsNamed(tvEvents, services.EventQueueUpdate)[0].Data.(map[string]interface{})
	assert.Equal(t, "booking_created", update["type"])
	assert.Equal(t, a.ID, update["booking_id"])

	aliceWait := eventsNamed(aliceEvents, services.EventWaitTimeUpdate)
	require.Len(t, aliceWait, 1)
	personal := aliceWait[0].Data.(*services.WaitEstimate)
	assert.True(t, personal.IsInQueue)
	require.NotNil(t, personal.Position)
	assert.Equal(t, 2, *personal.Position)
	require.NotNil(t, personal.WaitMinutes)
	assert.Equal(t, 30, *personal.WaitMinutes)

	tvWait := eventsNamed(tvEvents, services.EventWaitTimeUpdate)
	require.Len(t, tvWait, 1)
	generic := tvWait[0].Data.(*services.WaitEstimate)
	assert.False(t, generic.IsInQueue)
	assert.Equal(t, 60, *generic.WaitMinutes)
	assert.Equal(t, domain.WaitVeryBusy, generic.Status)
}

func TestSSEHub(t *testing.T) {
	hub := services.NewSSEHub()
	full := make(chan services.SSEEvent)
	ok := make(chan services.SSEEvent, 1)
	hub.Register(&services.SSEClient{ID: "full", SalonID: 1, Channel: full})
	hub.Register(&services.SSEClient{ID: "ok", UserID: 7, SalonID: 1, Channel: ok})
	hub.Register(&services.SSEClient{ID: "other", SalonID: 2, Channel: make(chan services.SSEEvent, 1)})
	assert.Equal(t, 3, hub.GetClientCount())
	assert.Len(t, hub.RoomClients(1), 2)

	// a saturated client never blocks the room
	hub.EmitToSalonRoom(1, services.EventQueueUpdate, "x")
	ev := <-ok
	assert.Equal(t, uint(1), ev.SalonID)

	assert.False(t, hub.SendToClient("full", "e", nil))
	assert.True(t, hub.SendToClient("ok", "e", nil))
	assert.False(t, hub.SendToClient("missing", "e", nil))

	hub.Unregister("ok")
	_, open := <-ok
	assert.True(t, open, "buffered event is still readable")
	_, open = <-ok
	assert.False(t, open)
	hub.Unregister("ok")
	assert.Equal(t, 2, hub.GetClientCount())
}

func TestNotificationService(t *testing.T) {
	var hits atomic.Int32
	var status atomic.Int32
	status.Store(http.StatusOK)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "key=secret", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		var payload map[string]interface{}
		assert.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, "device-1", payload["to"])
		assert.NotEmpty(t, payload["message_id"])
		w.WriteHeader(int(status.Load()))
	}))
	defer srv.Close()

	ctx := context.Background()
	msg := services.PushMessage{Title: "t", Body: "b", Data: map[string]string{"event": "x"}}

	disabled := services.NewNotificationService(services.PushConfig{Endpoint: srv.URL})
	assert.False(t, disabled.IsEnabled())
	assert.NoError(t, disabled.SendToDevice(ctx, "device-1", msg))
	assert.Equal(t, int32(0), hits.Load())

	push := services.NewNotificationService(services.PushConfig{Endpoint: srv.URL, ServerKey: "secret", Timeout: time.Second})
	require.True(t, push.IsEnabled())
	assert.NoError(t, push.SendToDevice(ctx, "device-1", msg))
	assert.Equal(t, int32(1), hits.Load())

	status.Store(http.StatusInternalServerError)
	for i := 0; i < 5; i++ {
		assert.Error(t, push.SendToDevice(ctx, "device-1", msg))
	}
	assert.Equal(t, int32(6), hits.Load())

	// breaker is open: the gateway is not called
	assert.Error(t, push.SendToDevice(ctx, "device-1", msg))
	assert.Equal(t, int32(6), hits.Load())
}
