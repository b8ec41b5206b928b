// Package payout converts evaluated outcomes into ledger settlements.
//
// Every function is pure: it reads a bet and an outcome and returns the
// settlement to apply, never touching balances itself. Amounts are exact
// decimals; winnings are truncated to Precision places and the remainder of
// a fractional payout stays with the house.
package payout

import (
	"github.com/shopspring/decimal"

	"github.com/lox/tablegames/internal/evaluator"
	"github.com/lox/tablegames/internal/ledger"
)

// Precision is the number of decimal places a chip amount carries.
const Precision = 2

var (
	one     = decimal.NewFromInt(1)
	oneHalf = decimal.NewFromFloat(0.5)
)

// Win pays stake × multiplier in winnings and returns the stake.
func Win(b ledger.Bet, multiplier decimal.Decimal) ledger.Settlement {
	winnings := b.Amount.Mul(multiplier).Truncate(Precision)
	return ledger.Settlement{Bet: b, Result: ledger.Win, Winnings: winnings, Payout: b.Amount.Add(winnings)}
}

// Lose forfeits the whole stake.
func Lose(b ledger.Bet) ledger.Settlement {
	return ledger.Settlement{Bet: b, Result: ledger.Lose, Winnings: decimal.Zero, Payout: decimal.Zero}
}

// Push returns the stake.
func Push(b ledger.Bet) ledger.Settlement {
	return ledger.Settlement{Bet: b, Result: ledger.Push, Winnings: decimal.Zero, Payout: b.Amount}
}

// Surrender returns half the stake.
func Surrender(b ledger.Bet) ledger.Settlement {
	back := b.Amount.Mul(oneHalf).Truncate(Precision)
	return ledger.Settlement{Bet: b, Result: ledger.Surrender, Winnings: decimal.Zero, Payout: back}
}

// Void refunds the stake of a cancelled round.
func Void(b ledger.Bet) ledger.Settlement {
	return ledger.Settlement{Bet: b, Result: ledger.Void, Winnings: decimal.Zero, Payout: b.Amount}
}

// Resolve maps a generic resolution onto a settlement using the bet's own
// multiplier. Unresolved bets report false.
func Resolve(b ledger.Bet, r evaluator.Resolution) (ledger.Settlement, bool) {
	switch r {
	case evaluator.Win:
		return Win(b, b.Multiplier), true
	case evaluator.Lose:
		return Lose(b), true
	case evaluator.Push:
		return Push(b), true
	}
	return ledger.Settlement{}, false
}

// WithCommission pays even money less a fraction of the winnings.
func WithCommission(b ledger.Bet, commission decimal.Decimal) ledger.Settlement {
	return Win(b, b.Multiplier.Mul(one.Sub(commission)))
}
