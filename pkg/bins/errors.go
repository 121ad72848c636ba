package bins

import "errors"

var (
	// ErrBinNotFound is returned when an identifier has no live bin.
	ErrBinNotFound = errors.New("bins: no such bin")
	// ErrPoisoned is returned by every operation once a store has been left
	// in an unknown state by a panic raised while its lock was held.
	ErrPoisoned = errors.New("bins: store lock poisoned")
)
