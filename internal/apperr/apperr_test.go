package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/higortorres2001-commits/site-casamento-sub001/internal/apperr"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", apperr.Validation("email is required"), http.StatusBadRequest},
		{"products not found", fmt.Errorf("%w: p1", apperr.ErrProductsNotFound), http.StatusBadRequest},
		{"coupon", apperr.ErrInvalidCoupon, http.StatusBadRequest},
		{"conflict", fmt.Errorf("resolve customer: %w", apperr.ErrIdentityConflict), http.StatusConflict},
		{"unauthorized", apperr.ErrUnauthorized, http.StatusUnauthorized},
		{"gateway", &apperr.GatewayError{StatusCode: 400, Payload: `{"errors":[]}`}, http.StatusBadGateway},
		{"not configured", apperr.ErrGatewayNotConfigured, http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperr.HTTPStatus(tt.err))
		})
	}
}

func TestGatewayErrorUnwrap(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("create charge: %w", &apperr.GatewayError{StatusCode: 401, Payload: "invalid key"})

	var gwErr *apperr.GatewayError
	assert.True(t, errors.As(err, &gwErr))
	assert.Equal(t, 401, gwErr.StatusCode)
	assert.ErrorIs(t, err, apperr.ErrPaymentGateway)
	assert.False(t, apperr.Public(errors.New("db down")))
}
