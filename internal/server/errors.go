package server

import (
	"errors"

	"github.com/lox/tablegames/internal/game"
	"github.com/lox/tablegames/internal/ledger"
	"github.com/lox/tablegames/internal/randutil"
)

// Stable error codes sent to clients.
const (
	CodeInvalidActionForState = "invalid_action_for_state"
	CodeActionNotPermitted    = "action_not_permitted"
	CodeInsufficientFunds     = "insufficient_funds"
	CodeTableFull             = "table_full"
	CodeTableNotFound         = "table_not_found"
	CodeTableClosed           = "table_closed"
	CodeRandomnessUnavailable = "randomness_unavailable"
	CodeInvalidBet            = "invalid_bet"
	CodeBetOutOfLimits        = "bet_out_of_limits"
	CodeUnknownParticipant    = "unknown_participant"
	CodeAlreadySeated         = "already_seated"
	CodeInvalidMessage        = "invalid_message"
	CodeUnknownMessageType    = "unknown_message_type"
	CodeInternal              = "internal_error"
)

var codes = []struct {
	err  error
	code string
}{
	{randutil.ErrRandomnessUnavailable, CodeRandomnessUnavailable},
	{ledger.ErrInsufficientFunds, CodeInsufficientFunds},
	{game.ErrInvalidActionForState, CodeInvalidActionForState},
	{game.ErrActionNotPermitted, CodeActionNotPermitted},
	{game.ErrInvalidBet, CodeInvalidBet},
	{game.ErrBetOutOfLimits, CodeBetOutOfLimits},
	{game.ErrTableFull, CodeTableFull},
	{game.ErrTableClosed, CodeTableClosed},
	{game.ErrUnknownParticipant, CodeUnknownParticipant},
	{game.ErrAlreadySeated, CodeAlreadySeated},
	{ErrTableNotFound, CodeTableNotFound},
}

// ErrorCode maps err to the code clients see. The most specific cause wins,
// so a double down refused for lack of funds reports insufficient_funds.
func ErrorCode(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}
