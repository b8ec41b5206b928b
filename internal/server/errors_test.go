package server

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lox/tablegames/internal/game"
	"github.com/lox/tablegames/internal/ledger"
	"github.com/lox/tablegames/internal/randutil"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("act: %w", game.ErrInvalidActionForState), CodeInvalidActionForState},
		{game.ErrActionNotPermitted, CodeActionNotPermitted},
		{fmt.Errorf("%w: %w", game.ErrActionNotPermitted, ledger.ErrInsufficientFunds), CodeInsufficientFunds},
		{ledger.ErrInsufficientFunds, CodeInsufficientFunds},
		{game.ErrTableFull, CodeTableFull},
		{fmt.Errorf("%w: x", ErrTableNotFound), CodeTableNotFound},
		{fmt.Errorf("spin: %w", randutil.ErrRandomnessUnavailable), CodeRandomnessUnavailable},
		{game.ErrBetOutOfLimits, CodeBetOutOfLimits},
		{game.ErrTableClosed, CodeTableClosed},
		{errors.New("boom"), CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}
}
