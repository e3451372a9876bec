package store

import (
	"errors"

	"github.com/amonks/taskboard/api"
)

// OpError is returned by a failed store operation.
type OpError struct {
	// Op names the operation, e.g. "create user".
	Op string

	// Message is the server message, or the fallback for the operation
	// when the server gave none.
	Message string

	Err error
}

func (e *OpError) Error() string {
	return e.Message
}

func (e *OpError) Unwrap() error {
	return e.Err
}

func newOpError(op, fallback string, err error) *OpError {
	message := fallback
	if server, ok := api.ServerMessage(err); ok {
		message = server
	} else if errors.Is(err, api.ErrInvalidInput) {
		message = err.Error()
	}
	return &OpError{Op: op, Message: message, Err: err}
}

// Notified reports whether err was already shown to the user by the
// gateway notifier.
func Notified(err error) bool {
	var apiErr *api.Error
	return errors.As(err, &apiErr)
}
