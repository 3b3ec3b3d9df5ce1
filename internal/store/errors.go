package store

import "errors"

// ErrConflict is returned when an operation is rejected because of the
// entity's current state (picking an already-picked package, checking out
// an unavailable key). No mutation happens.
var ErrConflict = errors.New("conflict with current state")

// ErrShelfCapacity is returned when every shelf suffix under a letter
// prefix is occupied. This is a structural limit, not a transient failure.
var ErrShelfCapacity = errors.New("no free shelf for letter prefix")
