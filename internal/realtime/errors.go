package realtime

import "errors"

// Error codes carried on wire-level error events.
const (
	ErrCodeJoinDenied   = "join_denied"
	ErrCodeAuthRequired = "auth_required"
	ErrCodeNotInRoom    = "not_in_room"
	ErrCodeBadRequest   = "bad_request"
)

var (
	// ErrConnClosed is returned by a Sender whose underlying transport is gone.
	ErrConnClosed = errors.New("connection closed")
)

// Error wraps a code and human-readable message sent back to one client.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

func routeError(code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}
