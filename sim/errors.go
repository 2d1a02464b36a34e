package sim

import "errors"

// ErrInvalidType is returned when a guest or console kind name is not part of
// the catalogue. Construction never falls back to a default kind.
var ErrInvalidType = errors.New("invalid type")

// ErrIllegalState is returned when an operation is attempted from a state
// that does not allow it (using a broken console, repairing a working one,
// seating a guest that is not seeking). Callers recover by re-seeking or
// retargeting on a later tick.
var ErrIllegalState = errors.New("illegal state")

// ErrInsufficientFunds is returned when a purchase or upgrade costs more than
// the venue's balance.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrBlocked is returned when a console would be placed off the floor or on
// top of a wall or another console.
var ErrBlocked = errors.New("position blocked")
