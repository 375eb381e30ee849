package repository

import "errors"

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrCapacityConflict is returned when a commit-time slot re-check
// fails because another reservation claimed the window first. Callers
// should rerun the suggestion flow, not retry the same slot.
var ErrCapacityConflict = errors.New("slot no longer available")

// ErrInvalidTransition is returned when a compare-and-swap status
// update matches no row, meaning the record is not in the expected
// state. Transitions are one-directional and never regress.
var ErrInvalidTransition = errors.New("invalid status transition")
