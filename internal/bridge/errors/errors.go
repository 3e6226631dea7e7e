package errors

import (
	sterrors "errors"
	"fmt"
)

var (
	ErrCapacityExceeded = sterrors.New("tunegate: concurrent search limit reached")
	ErrQueryRequired    = sterrors.New("tunegate: query is required")
	ErrQueryTooShort    = sterrors.New("tunegate: query is too short")
	ErrEngineRequired   = sterrors.New("tunegate: engine is required")
	ErrLoggerRequired   = sterrors.New("tunegate: logger is required")
	ErrConfigRequired   = sterrors.New("tunegate: config is required")
)

// SendError reports that the outbound query could not be handed to the chat
// connector. It is terminal for the one search that triggered it.
type SendError struct {
	Query string
	Err   error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("tunegate: failed to send query %q: %v", e.Query, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }
