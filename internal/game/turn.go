package game

import "fmt"

// IsEnded reports whether turn is the terminal sentinel.
func IsEnded(turn int) bool {
	return turn == TurnEnded
}

type transition int

const (
	transitionAdvance transition = iota
	transitionEnd
	transitionRepeat
)

// gate decides what a write proposing next may do to a session whose
// persisted turn is current. An ended session only ever self-loops.
func gate(current, next int) (transition, error) {
	if IsEnded(current) {
		return transitionRepeat, nil
	}
	if next < TurnEnded {
		return 0, fmt.Errorf("%w: turn %d", ErrInvalid, next)
	}
	if IsEnded(next) {
		return transitionEnd, nil
	}
	return transitionAdvance, nil
}
