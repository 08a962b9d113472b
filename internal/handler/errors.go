package handler

import (
	"errors"
	"net/http"

	"checkout-service/internal/apperr"

	"github.com/labstack/echo/v4"
)

// httpError maps the service error taxonomy onto HTTP status codes.
// Anything unrecognized bubbles up to Echo's default 500 handling.
func httpError(err error) error {
	var (
		validationErr *apperr.ValidationError
		notFoundErr   *apperr.NotFoundError
		gatewayErr    *apperr.GatewayError
		conflictErr   *apperr.StateConflictError
	)

	switch {
	case errors.As(err, &validationErr):
		return echo.NewHTTPError(http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &notFoundErr):
		return echo.NewHTTPError(http.StatusNotFound, notFoundErr.Error())
	case errors.As(err, &conflictErr):
		return echo.NewHTTPError(http.StatusConflict, map[string]string{
			"error":         "conflicting state",
			"orderId":       conflictErr.OrderID,
			"status":        conflictErr.Status,
			"paymentStatus": conflictErr.PaymentStatus,
		})
	case errors.As(err, &gatewayErr):
		return echo.NewHTTPError(http.StatusBadGateway, "payment gateway unavailable, retry later")
	default:
		return err
	}
}
