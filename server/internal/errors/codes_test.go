package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  *AIError
		want int
	}{
		{Unauthorized("x"), http.StatusUnauthorized},
		{InvalidSignature(), http.StatusUnauthorized},
		{RateLimitExceeded("x"), http.StatusTooManyRequests},
		{InvalidArgument("x"), http.StatusBadRequest},
		{NotFound("x"), http.StatusNotFound},
		{ServiceUnavailable("x"), http.StatusServiceUnavailable},
		{Internal("x", nil), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestCodeHelpers(t *testing.T) {
	cause := fmt.Errorf("db down")
	err := fmt.Errorf("handler: %w", Wrap(cause, ErrCodeServiceUnavailable, "store unavailable"))

	assert.True(t, IsCode(err, ErrCodeServiceUnavailable))
	assert.False(t, IsCode(err, ErrCodeNotFound))
	assert.Equal(t, ErrCodeServiceUnavailable, GetCodeFromError(err, ErrCodeInternal))
	assert.Equal(t, ErrCodeInternal, GetCodeFromError(cause, ErrCodeInternal))
	assert.ErrorIs(t, err, cause)

	body := NotFound("session not found").WithContext("phone_number", "1").Body()
	assert.Equal(t, Body{Code: ErrCodeNotFound, Message: "session not found", Details: map[string]interface{}{"phone_number": "1"}}, body)
}
