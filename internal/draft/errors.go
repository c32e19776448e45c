package draft

import "errors"

var (
	// ErrInvalidState indicates the operation is not allowed in the
	// draft's current lifecycle state.
	ErrInvalidState = errors.New("draft is in an invalid state for this operation")

	// ErrNotFound indicates the draft does not exist.
	ErrNotFound = errors.New("draft not found")

	// ErrAlreadyPicked indicates the player has already been drafted.
	ErrAlreadyPicked = errors.New("player already picked")

	// ErrOutOfPicks indicates the draft has no current slot left.
	ErrOutOfPicks = errors.New("draft has no picks remaining")

	// ErrNoAvailablePlayers indicates the draftable pool is exhausted.
	ErrNoAvailablePlayers = errors.New("no available players")

	// ErrUnauthorized indicates the user does not control the slot or
	// draft they tried to act on.
	ErrUnauthorized = errors.New("user not authorized for this action")
)
