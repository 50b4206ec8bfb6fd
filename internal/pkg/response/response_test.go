package response

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salonq/internal/core/domain"
)

func TestStatusFor(t *testing.T) {
	assert.Equal(t, fiber.StatusNotFound, StatusFor(domain.KindNotFound))
	assert.Equal(t, fiber.StatusConflict, StatusFor(domain.KindConflict))
	assert.Equal(t, fiber.StatusForbidden, StatusFor(domain.KindForbidden))
	assert.Equal(t, fiber.StatusServiceUnavailable, StatusFor(domain.KindExhausted))
	assert.Equal(t, fiber.StatusBadRequest, StatusFor(domain.KindInvalid))
	assert.Equal(t, fiber.StatusInternalServerError, StatusFor(domain.KindInfra))
}

func TestFromError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"app error", fmt.Errorf("wrapped: %w", domain.ErrQueueFull), fiber.StatusConflict, "QUEUE_FULL"},
		{"fiber error", fiber.ErrBadRequest, fiber.StatusBadRequest, ""},
		{"unknown", errors.New("db down"), fiber.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return FromError(c, tc.err) })

			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil), -1)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tc.status, resp.StatusCode)

			raw, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			var body Response
			require.NoError(t, json.Unmarshal(raw, &body))
			assert.False(t, body.Success)
			assert.Equal(t, tc.code, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}
