package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart       = &ClientInputError{Message: "Cart is empty."}
	ErrInvalidJSON     = &ClientInputError{Message: "Invalid JSON body."}
	ErrBodyTooLarge    = &ClientInputError{Message: "Request body too large.", TooLarge: true}
	ErrProviderTimeout = errors.New("payment provider timed out")

	ErrIdempotencyKeyReused = &ClientInputError{Message: "Idempotency-Key was already used for a different cart."}
)

// ClientInputError is a problem with the request itself. Its message is safe
// to return to the caller.
type ClientInputError struct {
	Message  string
	TooLarge bool
}

func (e *ClientInputError) Error() string {
	return e.Message
}

// InvalidItemError rejects a cart item. The whole cart fails with it.
type InvalidItemError struct {
	Field string
	Name  string
}

func (e *InvalidItemError) Error() string {
	return fmt.Sprintf("Invalid %s for item: %s", e.Field, e.Name)
}

// UpstreamError wraps any failure returned by the payment provider.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
