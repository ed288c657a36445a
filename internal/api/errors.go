package api

import (
	"errors"
	"fmt"
)

// Kind categorizes client errors.
type Kind int

const (
	// Unknown represents an unclassified error.
	Unknown Kind = iota
	// Transport indicates the request never produced a response.
	Transport
	// HTTPStatus indicates the service answered with a non-2xx status.
	HTTPStatus
	// Decode indicates the response body could not be understood.
	Decode
	// InvalidInput indicates the call was rejected before any request was made.
	InvalidInput
)

func (k Kind) String() string {
	switch k {
	case Transport:
		return "transport"
	case HTTPStatus:
		return "http_status"
	case Decode:
		return "decode"
	case InvalidInput:
		return "invalid_input"
	default:
		return "unknown"
	}
}

// Error carries a category, the upstream status and the original cause.
type Error struct {
	Kind       Kind
	Op         string
	StatusCode int // set for HTTPStatus errors
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsNotFound reports whether err is a 404 from the service, which it uses for
// unknown ids and for jobs whose artifacts are not ready yet.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == HTTPStatus && apiErr.StatusCode == 404
}

// KindOf returns the Kind of err, or Unknown when err is not an *Error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return Unknown
}
