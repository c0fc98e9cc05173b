// Package apperr holds the error taxonomy shared by the checkout and webhook
// flows and its mapping onto HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation           = errors.New("validation failed")
	ErrProductsNotFound     = errors.New("products not found")
	ErrProductsUnavailable  = errors.New("products unavailable")
	ErrInvalidCoupon        = errors.New("invalid coupon")
	ErrIdentityConflict     = errors.New("identity conflict")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrNotFound             = errors.New("not found")
	ErrPaymentGateway       = errors.New("payment gateway error")
	ErrGatewayNotConfigured = fmt.Errorf("%w: gateway credentials not configured", ErrPaymentGateway)
)

// GatewayError carries the processor's response for a failed call.
// StatusCode is zero when the request never got an answer (timeout, DNS...).
type GatewayError struct {
	StatusCode int
	Payload    string
}

func (e *GatewayError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("payment gateway error: %s", e.Payload)
	}
	return fmt.Sprintf("payment gateway error %d: %s", e.StatusCode, e.Payload)
}

func (e *GatewayError) Unwrap() error {
	return ErrPaymentGateway
}

func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// HTTPStatus maps an error from the pipeline onto the status code the caller sees.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrProductsNotFound),
		errors.Is(err, ErrProductsUnavailable),
		errors.Is(err, ErrInvalidCoupon):
		return http.StatusBadRequest
	case errors.Is(err, ErrIdentityConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrPaymentGateway):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Public reports whether err is safe to show to the caller as-is.
func Public(err error) bool {
	return HTTPStatus(err) != http.StatusInternalServerError
}
