package session

import "errors"

var (
	// ErrNotFound is returned for unknown session, player or question ids.
	ErrNotFound = errors.New("not found")
	// ErrValidation is returned for malformed input.
	ErrValidation = errors.New("invalid input")
	// ErrState is returned when the operation is not valid in the session's
	// current state.
	ErrState = errors.New("not allowed in current session state")
	// ErrInvalidAction is returned when a known action is not permitted from
	// the current state.
	ErrInvalidAction = errors.New("action not allowed in current state")
	// ErrUnknownAction is returned for action names outside the enumerated set.
	ErrUnknownAction = errors.New("unknown action")
	// ErrNameTaken is returned when a requested player name is already used
	// in the session.
	ErrNameTaken = errors.New("name already in use")
	// ErrLimit is returned when the quiz already has the maximum number of
	// sessions that are not in END state.
	ErrLimit = errors.New("active session limit reached")
)
