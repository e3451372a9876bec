package api

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput indicates a payload failed client-side validation.
	// Requests carrying invalid input are never issued.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidStatus indicates a task status outside ValidStatuses.
	ErrInvalidStatus = fmt.Errorf("%w: invalid status", ErrInvalidInput)
)

// UnexpectedMessage is shown for failures that are neither reported by the
// server nor raised by the transport.
const UnexpectedMessage = "An unexpected error occurred"

// Kind classifies a gateway failure.
type Kind int

const (
	// KindUnclassified covers failures outside the request/response
	// exchange, such as an undecodable success body.
	KindUnclassified Kind = iota

	// KindServer means the server answered with a message in its error
	// envelope.
	KindServer

	// KindTransport means no usable response was received, or the server
	// failed without explaining why.
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindServer:
		return "server"
	case KindTransport:
		return "transport"
	default:
		return "unclassified"
	}
}

// Error is returned for every failed gateway call.
type Error struct {
	Kind Kind

	// Message is the text shown to the user. For KindServer it is the
	// server message verbatim.
	Message string

	// Status is the HTTP status code, or zero when no response arrived.
	Status int

	Method string
	Path   string

	Err error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ServerMessage returns the message the server reported for err, if any.
func ServerMessage(err error) (string, bool) {
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Kind != KindServer {
		return "", false
	}
	return apiErr.Message, true
}

// envelope is the body the server sends with a failed request.
type envelope struct {
	Message string `json:"message"`
}

func serverError(status int, message string) *Error {
	return &Error{Kind: KindServer, Message: message, Status: status}
}

func transportError(err error) *Error {
	return &Error{Kind: KindTransport, Message: "Error: " + err.Error(), Err: err}
}

func statusError(status int) *Error {
	message := fmt.Sprintf("request failed with status code %d", status)
	return &Error{Kind: KindTransport, Message: "Error: " + message, Status: status, Err: errors.New(message)}
}

func unexpectedError(err error) *Error {
	return &Error{Kind: KindUnclassified, Message: UnexpectedMessage, Err: err}
}
