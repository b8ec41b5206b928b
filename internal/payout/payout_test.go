package payout

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/tablegames/internal/deck"
	"github.com/lox/tablegames/internal/evaluator"
	"github.com/lox/tablegames/internal/ledger"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func wager(t ledger.BetType, amount string, mult string, sel ...int) ledger.Bet {
	return ledger.Bet{ID: "b1", ParticipantID: "p1", RoundID: "r1", Type: t, Selection: sel, Amount: d(amount), Multiplier: d(mult)}
}

func TestRouletteStraightPaysThirtyFive(t *testing.T) {
	mult, err := RouletteMultiplier(evaluator.Straight)
	require.NoError(t, err)
	b := wager(ledger.BetType(evaluator.Straight), "10", mult.String(), 17)

	s := Roulette(b, 17)
	assert.Equal(t, ledger.Win, s.Result)
	assert.True(t, s.Winnings.Equal(d("350")), s.Winnings.String())
	assert.True(t, s.Payout.Equal(d("360")))

	s = Roulette(b, 18)
	assert.Equal(t, ledger.Lose, s.Result)
	assert.True(t, s.Payout.IsZero())
}

func TestRouletteZeroLosesOutsideBets(t *testing.T) {
	b := wager(ledger.BetType(evaluator.Red), "20", "1")
	s := Roulette(b, 0)
	assert.Equal(t, ledger.Lose, s.Result)
}

func TestBlackjackNaturalPaysThreeToTwo(t *testing.T) {
	rules := DefaultBlackjackRules()
	b := wager(BlackjackMain, "25", "1")

	s := Blackjack(b, evaluator.PlayerNatural, rules)
	assert.True(t, s.Winnings.Equal(d("37.5")))
	assert.True(t, s.Payout.Equal(d("62.5")))

	s = Blackjack(b, evaluator.PlayerWins, rules)
	assert.True(t, s.Payout.Equal(d("50")))

	s = Blackjack(b, evaluator.PlayerPushes, rules)
	assert.Equal(t, ledger.Push, s.Result)
	assert.True(t, s.Payout.Equal(d("25")))

	s = Blackjack(b, evaluator.PlayerLoses, rules)
	assert.True(t, s.Payout.IsZero())
}

func TestNaturalPayoutTruncatesToChipPrecision(t *testing.T) {
	b := wager(BlackjackMain, "0.05", "1")
	s := Blackjack(b, evaluator.PlayerNatural, DefaultBlackjackRules())
	// 0.075 truncates to 0.07; the house keeps the fraction.
	assert.True(t, s.Winnings.Equal(d("0.07")), s.Winnings.String())
}

func TestSurrenderReturnsHalf(t *testing.T) {
	s := Surrender(wager(BlackjackMain, "15", "1"))
	assert.Equal(t, ledger.Surrender, s.Result)
	assert.True(t, s.Payout.Equal(d("7.5")))
}

func TestBaccaratBankerCommission(t *testing.T) {
	rules := DefaultBaccaratRules()
	coup := evaluator.BaccaratCoup{
		Player: deck.MustParseCards("2h 3d"),
		Banker: deck.MustParseCards("4s 3c"),
	}
	require.Equal(t, evaluator.SideBanker, coup.Winner())

	s := Baccarat(wager(BaccaratBanker, "100", "1"), coup, rules)
	assert.Equal(t, ledger.Win, s.Result)
	assert.True(t, s.Winnings.Equal(d("95")), s.Winnings.String())
	assert.True(t, s.Payout.Equal(d("195")))

	s = Baccarat(wager(BaccaratPlayer, "100", "1"), coup, rules)
	assert.Equal(t, ledger.Lose, s.Result)
}

func TestBaccaratTiePushesSides(t *testing.T) {
	rules := DefaultBaccaratRules()
	coup := evaluator.BaccaratCoup{
		Player: deck.MustParseCards("9h 9d"),
		Banker: deck.MustParseCards("4s 4c"),
	}
	require.Equal(t, evaluator.SideTie, coup.Winner())

	tieMult, err := BaccaratMultiplier(BaccaratTie, rules)
	require.NoError(t, err)
	s := Baccarat(wager(BaccaratTie, "10", tieMult.String()), coup, rules)
	assert.True(t, s.Winnings.Equal(d("80")))

	assert.Equal(t, ledger.Push, Baccarat(wager(BaccaratPlayer, "10", "1"), coup, rules).Result)
	assert.Equal(t, ledger.Push, Baccarat(wager(BaccaratBanker, "10", "1"), coup, rules).Result)
	assert.Equal(t, ledger.Win, Baccarat(wager(BaccaratPlayerPair, "10", "11"), coup, rules).Result)
	assert.Equal(t, ledger.Win, Baccarat(wager(BaccaratBankerPair, "10", "11"), coup, rules).Result)
}

func TestCrapsFieldUsesRollOdds(t *testing.T) {
	b := wager(ledger.BetType(evaluator.Field), "10", "1")

	s, done := Craps(b, evaluator.ComeOut, 0, deck.Dice{6, 6})
	require.True(t, done)
	assert.True(t, s.Winnings.Equal(d("30")))

	s, done = Craps(b, evaluator.ComeOut, 0, deck.Dice{1, 1})
	require.True(t, done)
	assert.True(t, s.Winnings.Equal(d("20")))

	s, done = Craps(b, evaluator.ComeOut, 0, deck.Dice{2, 2})
	require.True(t, done)
	assert.True(t, s.Winnings.Equal(d("10")))

	s, done = Craps(b, evaluator.ComeOut, 0, deck.Dice{3, 3})
	require.True(t, done)
	assert.Equal(t, ledger.Lose, s.Result)
}

func TestCrapsPassLineStaysWorking(t *testing.T) {
	b := wager(ledger.BetType(evaluator.PassLine), "10", "1")
	_, done := Craps(b, evaluator.PointOn, 4, deck.Dice{3, 5})
	assert.False(t, done)

	s, done := Craps(b, evaluator.PointOn, 4, deck.Dice{1, 3})
	require.True(t, done)
	assert.Equal(t, ledger.Win, s.Result)
}

func TestCrapsHardwayMultipliers(t *testing.T) {
	m, err := CrapsMultiplier(evaluator.Hardway, 8)
	require.NoError(t, err)
	assert.True(t, m.Equal(d("9")))

	_, err = CrapsMultiplier(evaluator.Hardway, 5)
	assert.Error(t, err)

	b := wager(ledger.BetType(evaluator.Hardway), "5", m.String(), 8)
	s, done := Craps(b, evaluator.PointOn, 6, deck.Dice{4, 4})
	require.True(t, done)
	assert.True(t, s.Winnings.Equal(d("45")))
}

func TestUnknownBetTypes(t *testing.T) {
	_, err := RouletteMultiplier("basket")
	assert.Error(t, err)
	_, err = BaccaratMultiplier("dragon", DefaultBaccaratRules())
	assert.Error(t, err)
	_, err = BlackjackMultiplier("insurance", DefaultBlackjackRules())
	assert.Error(t, err)
}
