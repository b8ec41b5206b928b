package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/tablegames/internal/deck"
	"github.com/lox/tablegames/internal/evaluator"
	"github.com/lox/tablegames/internal/ledger"
	"github.com/lox/tablegames/internal/randutil"
)

func rouletteBet(kind evaluator.RouletteKind, amount string, sel ...int) BetSpec {
	return BetSpec{Type: ledger.BetType(kind), Selection: sel, Amount: d(amount)}
}

func TestRouletteStraightUpPaysThirtyFive(t *testing.T) {
	h := newHarness(t, Roulette, &deck.Stacked{Pockets: []deck.Pocket{17}})
	h.join("p1", "100")
	h.bet("p1", rouletteBet(evaluator.Straight, "10", 17))
	h.bet("p1", rouletteBet(evaluator.Red, "10"))

	h.tick()
	res := h.lastResult()
	require.NotNil(t, res.Outcome.Pocket)
	assert.Equal(t, deck.Pocket(17), *res.Outcome.Pocket)
	assert.Equal(t, "black", res.Outcome.Color)
	require.Len(t, res.Settled, 2)
	assert.True(t, res.Settled[0].Winnings.Equal(d("350")))
	assert.Equal(t, ledger.Lose, res.Settled[1].Result)
	assert.True(t, h.balance("p1").Equal(d("440")))

	snap := h.table.Snapshot()
	assert.Equal(t, PhaseBetting, snap.Phase)
	assert.Equal(t, []deck.Pocket{17}, snap.Roulette.History)
}

func TestRouletteRejectsBadBets(t *testing.T) {
	h := newHarness(t, Roulette, &deck.Stacked{})
	h.join("p1", "50")

	_, err := h.table.PlaceBet(h.ctx, "p1", rouletteBet(evaluator.Split, "5", 1, 5))
	assert.ErrorIs(t, err, ErrInvalidBet)

	_, err = h.table.PlaceBet(h.ctx, "p1", rouletteBet(evaluator.TopLine, "5", 0, 1, 2, 3, 37))
	assert.ErrorIs(t, err, ErrInvalidBet, "top line needs the american wheel")

	_, err = h.table.PlaceBet(h.ctx, "p1", rouletteBet(evaluator.Straight, "1000", 3))
	assert.ErrorIs(t, err, ErrBetOutOfLimits)

	_, err = h.table.PlaceBet(h.ctx, "p1", rouletteBet(evaluator.Straight, "0.5", 3))
	assert.ErrorIs(t, err, ErrBetOutOfLimits)

	_, err = h.table.PlaceBet(h.ctx, "p1", rouletteBet(evaluator.Straight, "60", 3))
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	_, err = h.table.PlaceBet(h.ctx, "ghost", rouletteBet(evaluator.Straight, "5", 3))
	assert.ErrorIs(t, err, ErrUnknownParticipant)

	assert.True(t, h.balance("p1").Equal(d("50")))
	assert.Empty(t, h.table.Snapshot().Bets)
}

func TestRouletteAmericanTopLine(t *testing.T) {
	h := newHarness(t, Roulette, &deck.Stacked{Pockets: []deck.Pocket{deck.DoubleZero}}, func(r *Rules) {
		r.Wheel = deck.American
	})
	h.join("p1", "100")
	h.bet("p1", rouletteBet(evaluator.TopLine, "10", 0, 37, 1, 2, 3))
	h.bet("p1", rouletteBet(evaluator.Even, "10"))
	h.tick()

	res := h.lastResult()
	assert.True(t, res.Settled[0].Winnings.Equal(d("60")))
	assert.Equal(t, ledger.Lose, res.Settled[1].Result, "00 loses outside bets")
}

func TestRouletteVoidsWhenRandomnessFails(t *testing.T) {
	h := newHarness(t, Roulette, &deck.Stacked{Fail: true})
	h.join("p1", "100")
	h.bet("p1", rouletteBet(evaluator.Dozen, "10", 2))
	h.bet("p1", rouletteBet(evaluator.Odd, "5"))

	h.tick()
	res := h.lastResult()
	assert.True(t, res.Voided)
	assert.Contains(t, res.Reason, randutil.ErrRandomnessUnavailable.Error())
	require.Len(t, res.Settled, 2)
	for _, s := range res.Settled {
		assert.Equal(t, ledger.Void, s.Result)
	}
	assert.True(t, h.balance("p1").Equal(d("100")))
	assert.Equal(t, PhaseBetting, h.table.Snapshot().Phase)
	assert.True(t, h.table.Ledger().HouseNet().IsZero())
}

func TestRouletteHistoryKeepsLastTwenty(t *testing.T) {
	pockets := make([]deck.Pocket, 25)
	for i := range pockets {
		pockets[i] = deck.Pocket(i)
	}
	h := newHarness(t, Roulette, &deck.Stacked{Pockets: pockets})
	h.join("p1", "1000")
	for range pockets {
		h.bet("p1", rouletteBet(evaluator.High, "1"))
		h.tick()
	}

	hist := h.table.Snapshot().Roulette.History
	require.Len(t, hist, 20)
	assert.Equal(t, deck.Pocket(24), hist[0])
	assert.Equal(t, deck.Pocket(5), hist[19])
	assert.Equal(t, deck.Pocket(24), *h.table.Snapshot().Roulette.Last)
}
