package game

import "errors"

var (
	// ErrInvalidActionForState rejects an action that the current phase or
	// turn does not allow.
	ErrInvalidActionForState = errors.New("invalid action for state")
	// ErrActionNotPermitted rejects an action the table rules or the
	// participant's balance do not allow.
	ErrActionNotPermitted = errors.New("action not permitted")
	ErrInvalidBet         = errors.New("invalid bet")
	ErrBetOutOfLimits     = errors.New("bet outside table limits")
	ErrTableFull          = errors.New("table full")
	ErrTableClosed        = errors.New("table closed")
	ErrUnknownParticipant = errors.New("unknown participant")
	ErrAlreadySeated      = errors.New("participant already seated")
)
