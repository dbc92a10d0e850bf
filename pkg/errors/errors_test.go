package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus_MapsAppErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NotFound("inventory level", "var-1@loc-1"), http.StatusNotFound},
		{"already exists", AlreadyExists("location", "code", "WH-MAIN"), http.StatusConflict},
		{"invalid input", InvalidInput("name is required"), http.StatusBadRequest},
		{"invalid quantity", InvalidQuantity("quantity must be positive"), http.StatusBadRequest},
		{"invalid state", InvalidState("adjustment already approved"), http.StatusUnprocessableEntity},
		{"insufficient stock", InsufficientStock(10, 3), http.StatusConflict},
		{"conflict", Conflict("serialization failure"), http.StatusConflict},
		{"internal", Internal(errors.New("boom")), http.StatusInternalServerError},
		{"unknown", errors.New("unclassified"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestHTTPStatus_WrappedSentinel(t *testing.T) {
	err := fmt.Errorf("release reservation: %w", NotFound("reservation", "res-1"))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))
}

func TestSentinels_SurviveWrapping(t *testing.T) {
	err := fmt.Errorf("approve adjustment: %w", InvalidState("adjustment adj-1 is already approved"))

	assert.ErrorIs(t, err, ErrInvalidState)
	assert.NotErrorIs(t, err, ErrNotFound)

	var appErr *AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, "INVALID_STATE", appErr.Code)
}

func TestInsufficientStock_Message(t *testing.T) {
	err := InsufficientStock(30, 10)

	assert.Contains(t, err.Message, "requested 30, available 10")
	assert.Contains(t, err.Message, "short 20")
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(Conflict("lock timeout")))
	assert.True(t, IsRetryable(fmt.Errorf("wrapped: %w", Conflict("deadlock"))))
	assert.False(t, IsRetryable(NotFound("location", "loc-1")))
	assert.False(t, IsRetryable(nil))
}
