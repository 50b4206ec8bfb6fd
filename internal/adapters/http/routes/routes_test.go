package routes_test

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"salonq/internal/adapters/http/middleware"
	"salonq/internal/adapters/http/routes"
	"salonq/internal/config"
	"salonq/internal/core/domain"
	"salonq/internal/pkg/jwt"
)

const testSecret = "routes-test-secret"

// seeded demo data: see config.Seeder
const (
	ownerID    = 1
	managerID  = 2
	barberID   = 3
	customerID = 4
	salonID    = 1
	haircutID  = 1
)

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

type testAPI struct {
	t   *testing.T
	app *fiber.App
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	cfg := &config.Config{
		AppMode: "dev",
		JWT:     config.JWTConfig{Secret: testSecret},
		Queue:   config.QueueConfig{NoShowGrace: 30 * time.Minute, SSEHeartbeat: time.Second, DefaultPriorityLimit: 3},
	}
	require.NoError(t, config.Migrate(db))
	require.NoError(t, config.NewSeeder(db, cfg.Queue.DefaultPriorityLimit).Run())

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.CustomErrorHandler,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})
	_, err = routes.Setup(app, db, cfg)
	require.NoError(t, err)
	return &testAPI{t: t, app: app}
}

func token(t *testing.T, userID uint, role domain.Role) string {
	t.Helper()
	tok, err := jwt.GenerateAccessToken(userID, string(role), testSecret, 60)
	require.NoError(t, err)
	return tok
}

func (a *testAPI) do(method, path, bearer string, body interface{}) (int, apiResponse) {
	a.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+bearer)
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	var out apiResponse
	raw, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(a.t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

type bookingBody struct {
	ID            uint   `json:"id"`
	Status        string `json:"status"`
	QueuePosition int    `json:"queue_position"`
	IsPriority    bool   `json:"is_priority"`
}

func TestHealthAndInfo(t *testing.T) {
	api := newTestAPI(t)

	resp, err := api.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var health struct {
		Checks     map[string]string `json:"checks"`
		SSEClients int               `json:"sse_clients"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "healthy", health.Checks["database"])
	assert.Equal(t, "disabled", health.Checks["push"], "no push server key configured")
	assert.Equal(t, 0, health.SSEClients)

	status, _ := api.do(http.MethodGet, "/api/v1/", "", nil)
	assert.Equal(t, http.StatusOK, status)

	metricsResp, err := api.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	assert.Equal(t, http.StatusOK, metricsResp.StatusCode)
}

func TestCustomerQueueFlow(t *testing.T) {
	api := newTestAPI(t)
	customer := token(t, customerID, domain.RoleCustomer)

	status, _ := api.do(http.MethodPost, "/api/v1/queue/join", "", map[string]interface{}{
		"salon_id": salonID, "service_ids": []uint{haircutID},
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := api.do(http.MethodPost, "/api/v1/queue/join", customer, map[string]interface{}{
		"salon_id": salonID,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", body.Code)

	status, body = api.do(http.MethodPost, "/api/v1/queue/join", customer, map[string]interface{}{
		"salon_id": salonID, "service_ids": []uint{haircutID},
	})
	require.Equal(t, http.StatusCreated, status, body.Error)
	booking := decode[bookingBody](t, body.Data)
	assert.Equal(t, 1, booking.QueuePosition)
	assert.Equal(t, "pending", booking.Status)

	status, body = api.do(http.MethodPost, "/api/v1/queue/join", customer, map[string]interface{}{
		"salon_id": salonID, "service_ids": []uint{haircutID},
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "DUPLICATE_BOOKING", body.Code)

	status, body = api.do(http.MethodGet, fmt.Sprintf("/api/v1/salons/%d/wait-time", salonID), customer, nil)
	require.Equal(t, http.StatusOK, status)
	wait := decode[map[string]interface{}](t, body.Data)
	assert.Equal(t, true, wait["isInQueue"])
	assert.EqualValues(t, 1, wait["position"])

	status, body = api.do(http.MethodGet, fmt.Sprintf("/api/v1/salons/%d/wait-time", salonID), "", nil)
	require.Equal(t, http.StatusOK, status)
	wait = decode[map[string]interface{}](t, body.Data)
	assert.Equal(t, false, wait["isInQueue"])
	assert.EqualValues(t, 30, wait["waitMinutes"])

	status, body = api.do(http.MethodGet, "/api/v1/queue/my-bookings", customer, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]bookingBody](t, body.Data), 1)

	status, _ = api.do(http.MethodGet, "/api/v1/queue/bookings/abc", customer, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = api.do(http.MethodPost, fmt.Sprintf("/api/v1/queue/bookings/%d/cancel", booking.ID), customer, nil)
	require.Equal(t, http.StatusOK, status, body.Error)
	assert.Equal(t, "cancelled", decode[bookingBody](t, body.Data).Status)
}

func TestStaffOperations(t *testing.T) {
	api := newTestAPI(t)
	customer := token(t, customerID, domain.RoleCustomer)
	barber := token(t, barberID, domain.RoleCustomer)
	manager := token(t, managerID, domain.RoleCustomer)
	owner := token(t, ownerID, domain.RoleOwner)

	status, body := api.do(http.MethodPost, "/api/v1/queue/join", customer, map[string]interface{}{
		"salon_id": salonID, "service_ids": []uint{haircutID},
	})
	require.Equal(t, http.StatusCreated, status, body.Error)
	booking := decode[bookingBody](t, body.Data)
	priorityPath := fmt.Sprintf("/api/v1/salons/%d/bookings/%d/priority", salonID, booking.ID)

	status, body = api.do(http.MethodPost, priorityPath, customer, map[string]interface{}{"reason": domain.PriorityReasonSenior})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "INSUFFICIENT_PERMISSIONS", body.Code)

	status, body = api.do(http.MethodPost, priorityPath, owner, map[string]interface{}{"reason": "VIP"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_PRIORITY_REASON", body.Code)

	status, body = api.do(http.MethodPost, fmt.Sprintf("/api/v1/salons/%d/bookings/%d/skip", salonID, booking.ID), barber, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "SKIP_REASON_REQUIRED", body.Code)

	status, body = api.do(http.MethodPost, fmt.Sprintf("/api/v1/salons/%d/walk-in", salonID), barber, map[string]interface{}{
		"service_ids": []uint{haircutID}, "customer_name": "Walk In",
	})
	require.Equal(t, http.StatusCreated, status, body.Error)

	status, body = api.do(http.MethodPost, priorityPath, manager, map[string]interface{}{"reason": domain.PriorityReasonSenior})
	require.Equal(t, http.StatusOK, status, body.Error)
	got := decode[bookingBody](t, body.Data)
	assert.Equal(t, "in-progress", got.Status)
	assert.True(t, got.IsPriority)

	status, body = api.do(http.MethodPost, fmt.Sprintf("/api/v1/salons/%d/bookings/%d/complete", salonID, booking.ID), barber, nil)
	require.Equal(t, http.StatusOK, status, body.Error)
	assert.Equal(t, "completed", decode[bookingBody](t, body.Data).Status)

	status, body = api.do(http.MethodGet, fmt.Sprintf("/api/v1/salons/%d/queue", salonID), barber, nil)
	require.Equal(t, http.StatusOK, status, body.Error)

	status, _ = api.do(http.MethodGet, fmt.Sprintf("/api/v1/salons/%d/queue", salonID), customer, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = api.do(http.MethodGet, fmt.Sprintf("/api/v1/salons/%d/priority-logs?limit=5", salonID), owner, nil)
	require.Equal(t, http.StatusOK, status, body.Error)

	status, body = api.do(http.MethodPut, fmt.Sprintf("/api/v1/salons/%d/settings", salonID), manager, map[string]interface{}{"active_barbers": 9})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", body.Code)

	status, body = api.do(http.MethodPut, fmt.Sprintf("/api/v1/salons/%d/settings", salonID), manager, map[string]interface{}{"busy_mode": true})
	require.Equal(t, http.StatusOK, status, body.Error)
}

func TestProfileAndSalonReads(t *testing.T) {
	api := newTestAPI(t)
	customer := token(t, customerID, domain.RoleCustomer)

	status, body := api.do(http.MethodGet, "/api/v1/me/", customer, nil)
	require.Equal(t, http.StatusOK, status, body.Error)

	status, _ = api.do(http.MethodPut, "/api/v1/me/device-token", customer, map[string]interface{}{"device_token": "abc"})
	assert.Equal(t, http.StatusOK, status)

	status, _ = api.do(http.MethodGet, "/api/v1/me/", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = api.do(http.MethodGet, "/api/v1/salons", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]map[string]interface{}](t, body.Data), 1)

	status, body = api.do(http.MethodGet, fmt.Sprintf("/api/v1/salons/%d", salonID), "", nil)
	require.Equal(t, http.StatusOK, status)
	detail := decode[map[string]interface{}](t, body.Data)
	assert.Len(t, detail["services"], 3)

	status, body = api.do(http.MethodGet, "/api/v1/salons/99", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "SALON_NOT_FOUND", body.Code)
}
