// Package apperr holds the error taxonomy shared by the service and handler
// layers. Handlers map these types to HTTP status codes; everything else is
// treated as an internal error.
package apperr

import (
	"errors"
	"fmt"
)

// ErrSignature marks a webhook whose signature header could not be verified.
// It is the only webhook error the gateway is asked to retry.
var ErrSignature = errors.New("webhook signature verification failed")

// ValidationError reports a malformed or missing request field.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Detail)
}

// NotFoundError reports an unknown order, product or discount.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// GatewayError wraps a failure talking to the payment gateway. Callers may
// retry the operation; the order is never left looking paid.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway: %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// StateConflictError reports an attempted illegal order transition, carrying
// the authoritative state so admin callers can show it.
type StateConflictError struct {
	OrderID       string
	Status        string
	PaymentStatus string
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("order %s: transition conflicts with current state %s/%s",
		e.OrderID, e.Status, e.PaymentStatus)
}
