package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/higortorres2001-commits/site-casamento-sub001/internal/apperr"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/dto"
	"github.com/labstack/echo/v4"
)

const internalErrorMessage = "internal server error"

// ErrorBody builds the {error, details?} answer and its status for err.
// Internal failures get a generic message.
func ErrorBody(err error) (int, dto.ErrorResponse) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, dto.ErrorResponse{Error: fmt.Sprint(he.Message)}
	}

	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		return status, dto.ErrorResponse{Error: internalErrorMessage}
	}

	body := dto.ErrorResponse{Error: err.Error()}
	var gwErr *apperr.GatewayError
	if errors.As(err, &gwErr) {
		body.Error = apperr.ErrPaymentGateway.Error()
		body.Details = gwErr.Payload
	}
	return status, body
}

// ErrorHandler replaces echo's default so every failure uses ErrorBody.
func ErrorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := ErrorBody(err)
		if status >= http.StatusInternalServerError {
			e.Logger.Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			e.Logger.Error(err)
		}
	}
}
