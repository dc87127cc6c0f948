package chatstore

import "fmt"

// Store-level error codes, alongside the transport codes in chatservice.
const (
	CodeNoActiveSession = "NO_ACTIVE_SESSION"
	CodeSendInFlight    = "SEND_IN_FLIGHT"
)

// StoreError is an error raised by the store itself rather than by the
// transport. Code is a stable symbolic name UI layers can switch on.
type StoreError struct {
	Code    string
	Message string
}

// Error implements the error interface
func (e *StoreError) Error() string {
	return fmt.Sprintf("chat store error (%s): %s", e.Code, e.Message)
}

// ErrNoActiveSession is returned when a message operation runs with no
// current session. Fatal to that call, not to the store.
var ErrNoActiveSession = &StoreError{
	Code:    CodeNoActiveSession,
	Message: "no active session",
}

// ErrSendInFlight is returned when a second send starts while one is
// already streaming on this store. Concurrent sends are rejected rather
// than queued.
var ErrSendInFlight = &StoreError{
	Code:    CodeSendInFlight,
	Message: "a message is already being sent",
}
