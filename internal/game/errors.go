package game

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden")
	ErrUnprocessable = errors.New("game already ended")
	ErrConflict      = errors.New("conflict")
	ErrInvalid       = errors.New("invalid request")
)

// Result reports how a write was handled. ResultAlreadyEnded is the normal
// steady-state answer once a game is over and is not an error.
type Result int

const (
	ResultApplied Result = iota
	ResultAlreadyEnded
)

func (r Result) String() string {
	switch r {
	case ResultApplied:
		return "ok"
	case ResultAlreadyEnded:
		return "already_ended"
	default:
		return "unknown"
	}
}
