package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"salonq/internal/core/domain"
)

type sample struct {
	Name  string `json:"customer_name" validate:"required,max=5"`
	Date  string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Items []uint `json:"service_ids" validate:"required,min=1"`
}

func TestStruct(t *testing.T) {
	assert.NoError(t, Struct(&sample{Name: "Ann", Items: []uint{1}}))

	err := Struct(&sample{Name: "Too long a name", Date: "09/03/2026"})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	var appErr *domain.AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Message, "customer_name must be at most 5")
	assert.Contains(t, appErr.Message, "date must match 2006-01-02")
	assert.Contains(t, appErr.Message, "service_ids is required")
}
