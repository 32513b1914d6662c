package battle

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrInvalidMode        = errors.New("invalid_mode")
	ErrRoomCodeRequired   = errors.New("room_code_required")
	ErrUnexpectedResponse = errors.New("unexpected_response")
	ErrSuperseded         = errors.New("session_superseded")
	ErrNoConflict         = errors.New("no_conflict")
	ErrNotWaiting         = errors.New("room_not_waiting")
	ErrNothingToEnter     = errors.New("nothing_to_enter")
	ErrClosed             = errors.New("coordinator_closed")
)

// ActionError is a failed remote call made on behalf of an explicit user
// action. Poll failures never become ActionErrors.
type ActionError struct {
	Op  string
	Err error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

func actionErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &ActionError{Op: op, Err: err}
}

// ErrorCode is the stable snake_case code reported to the view for err.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidMode):
		return ErrInvalidMode.Error()
	case errors.Is(err, ErrRoomCodeRequired):
		return ErrRoomCodeRequired.Error()
	case errors.Is(err, ErrNoConflict):
		return ErrNoConflict.Error()
	case errors.Is(err, ErrNotWaiting):
		return ErrNotWaiting.Error()
	case errors.Is(err, ErrNothingToEnter):
		return ErrNothingToEnter.Error()
	case errors.Is(err, ErrSuperseded):
		return ErrSuperseded.Error()
	case errors.Is(err, ErrClosed):
		return ErrClosed.Error()
	case errors.Is(err, ErrUnexpectedResponse):
		return ErrUnexpectedResponse.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return "remote_timeout"
	}
	var actErr *ActionError
	if errors.As(err, &actErr) {
		return "remote_error"
	}
	return "internal_error"
}
