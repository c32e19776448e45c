package trade

import "errors"

var (
	// ErrInvalidState is returned when a resolution action targets a trade
	// that is not pending, or a draft that does not allow trading.
	ErrInvalidState = errors.New("trade not in a valid state for this action")
	// ErrExpired is returned when a resolution action targets a trade past
	// its expiry deadline.
	ErrExpired = errors.New("trade proposal expired")
	// ErrStalePieces is returned when execution finds a traded piece no
	// longer owned by the team the trade claims.
	ErrStalePieces = errors.New("trade pieces no longer owned as claimed")
	// ErrUnauthorized is returned when the caller is not the party allowed
	// to perform the action.
	ErrUnauthorized = errors.New("caller not authorized for this trade action")
)
