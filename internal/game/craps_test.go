package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/tablegames/internal/deck"
	"github.com/lox/tablegames/internal/evaluator"
	"github.com/lox/tablegames/internal/ledger"
)

func crapsBet(kind evaluator.CrapsKind, amount string, sel ...int) BetSpec {
	return BetSpec{Type: ledger.BetType(kind), Selection: sel, Amount: d(amount)}
}

func dice(rolls ...deck.Dice) *deck.Stacked {
	return &deck.Stacked{Dice: rolls}
}

func TestCrapsComeOutSevenWins(t *testing.T) {
	h := newHarness(t, Craps, dice(deck.Dice{3, 4}))
	h.join("p1", "100")
	h.bet("p1", crapsBet(evaluator.PassLine, "10"))

	require.NoError(t, h.table.Act(h.ctx, "p1", Roll, 0))
	res := h.lastResult()
	assert.Equal(t, "natural", res.Outcome.Decision)
	assert.Equal(t, ledger.Win, res.Settled[0].Result)
	assert.True(t, h.balance("p1").Equal(d("110")))
	assert.Equal(t, PhaseComeOut, h.table.Snapshot().Phase)
	assert.Equal(t, 1, h.events.count(EventRoll))
}

func TestCrapsPointThenSevenOutRotatesShooter(t *testing.T) {
	h := newHarness(t, Craps, dice(deck.Dice{2, 2}, deck.Dice{3, 4}))
	h.join("p1", "100")
	h.join("p2", "100")
	h.bet("p1", crapsBet(evaluator.PassLine, "10"))
	h.bet("p2", crapsBet(evaluator.DontPass, "10"))
	require.Equal(t, "p1", h.table.Snapshot().Craps.Shooter)

	assert.ErrorIs(t, h.table.Act(h.ctx, "p2", Roll, 0), ErrInvalidActionForState)

	require.NoError(t, h.table.Act(h.ctx, "p1", Roll, 0))
	snap := h.table.Snapshot()
	assert.Equal(t, PhasePoint, snap.Phase)
	assert.Equal(t, 4, snap.Craps.Point)
	assert.Empty(t, h.events.results())

	_, err := h.table.PlaceBet(h.ctx, "p2", crapsBet(evaluator.PassLine, "10"))
	assert.ErrorIs(t, err, ErrInvalidActionForState, "contract bets only on the come out")

	require.NoError(t, h.table.Act(h.ctx, "p1", Roll, 0))
	res := h.lastResult()
	assert.Equal(t, "seven_out", res.Outcome.Decision)
	assert.Equal(t, 4, res.Outcome.Point)
	assert.Len(t, res.Outcome.Rolls, 2)
	assert.True(t, h.balance("p1").Equal(d("90")))
	assert.True(t, h.balance("p2").Equal(d("110")))

	snap = h.table.Snapshot()
	assert.Equal(t, PhaseComeOut, snap.Phase)
	assert.Equal(t, "p2", snap.Craps.Shooter)
	assert.Equal(t, []string{"Dice pass to p2"}, h.events.messages())
}

func TestCrapsPointMadeKeepsShooter(t *testing.T) {
	h := newHarness(t, Craps, dice(deck.Dice{5, 5}, deck.Dice{6, 4}))
	h.join("p1", "100")
	h.join("p2", "100")
	h.bet("p1", crapsBet(evaluator.PassLine, "10"))

	require.NoError(t, h.table.Act(h.ctx, "p1", Roll, 0))
	require.NoError(t, h.table.Act(h.ctx, "p1", Roll, 0))
	assert.Equal(t, "point_made", h.lastResult().Outcome.Decision)
	assert.Equal(t, "p1", h.table.Snapshot().Craps.Shooter)
}

func TestCrapsSingleRollBetsResolveEachRoll(t *testing.T) {
	h := newHarness(t, Craps, dice(deck.Dice{4, 5}, deck.Dice{5, 6}, deck.Dice{1, 6}))
	h.join("p1", "100")
	h.bet("p1", crapsBet(evaluator.PassLine, "10"))

	require.NoError(t, h.table.Act(h.ctx, "p1", Roll, 0))
	// Point is 9; field and yo settle on the next roll while the pass line
	// keeps working.
	h.bet("p1", crapsBet(evaluator.Field, "5"))
	h.bet("p1", crapsBet(evaluator.Yo, "5"))
	require.NoError(t, h.table.Act(h.ctx, "p1", Roll, 0))
	assert.True(t, h.balance("p1").Equal(d("170")), "field 1:1 and yo 15:1 on eleven")
	require.Len(t, h.table.Snapshot().Bets, 1)

	require.NoError(t, h.table.Act(h.ctx, "p1", Roll, 0))
	res := h.lastResult()
	assert.Equal(t, "seven_out", res.Outcome.Decision)
	assert.Len(t, res.Settled, 3, "round result carries every settlement of the round")
}

func TestCrapsHardwayStillWorkingIsReturned(t *testing.T) {
	h := newHarness(t, Craps, dice(deck.Dice{1, 3}, deck.Dice{2, 2}))
	h.join("p1", "100")
	h.bet("p1", crapsBet(evaluator.PassLine, "10"))
	require.NoError(t, h.table.Act(h.ctx, "p1", Roll, 0))

	h.bet("p1", crapsBet(evaluator.Hardway, "5", 6))
	require.NoError(t, h.table.Act(h.ctx, "p1", Roll, 0))

	res := h.lastResult()
	assert.Equal(t, "point_made", res.Outcome.Decision)
	results := make(map[ledger.BetType]ledger.Result)
	for _, s := range res.Settled {
		results[s.Bet.Type] = s.Result
	}
	assert.Equal(t, ledger.Win, results[ledger.BetType(evaluator.PassLine)])
	assert.Equal(t, ledger.Push, results[ledger.BetType(evaluator.Hardway)])
	assert.True(t, h.balance("p1").Equal(d("110")))
	assert.Empty(t, h.table.Snapshot().Bets)
}

func TestCrapsRejectsBadHardway(t *testing.T) {
	h := newHarness(t, Craps, dice())
	h.join("p1", "100")
	_, err := h.table.PlaceBet(h.ctx, "p1", crapsBet(evaluator.Hardway, "5", 5))
	assert.ErrorIs(t, err, ErrInvalidBet)
	_, err = h.table.PlaceBet(h.ctx, "p1", crapsBet(evaluator.Field, "5", 5))
	assert.ErrorIs(t, err, ErrInvalidBet)
	assert.ErrorIs(t, h.table.Act(h.ctx, "p1", Hit, 0), ErrActionNotPermitted)
}

func TestCrapsShooterTimeoutRolls(t *testing.T) {
	h := newHarness(t, Craps, dice(deck.Dice{5, 6}))
	h.join("p1", "100")
	h.bet("p1", crapsBet(evaluator.PassLine, "10"))

	assert.Equal(t, DefaultTimeToAct, h.tick())
	res := h.lastResult()
	assert.Equal(t, "natural", res.Outcome.Decision)
	assert.True(t, h.balance("p1").Equal(d("110")))
}

func TestCrapsRollFailureVoidsRound(t *testing.T) {
	h := newHarness(t, Craps, dice(deck.Dice{3, 3}))
	h.join("p1", "100")
	h.bet("p1", crapsBet(evaluator.PassLine, "10"))
	require.NoError(t, h.table.Act(h.ctx, "p1", Roll, 0))
	h.bet("p1", crapsBet(evaluator.AnySeven, "5"))

	// The stacked dice are exhausted, which reads as lost entropy.
	err := h.table.Act(h.ctx, "p1", Roll, 0)
	require.Error(t, err)
	res := h.lastResult()
	assert.True(t, res.Voided)
	assert.Len(t, res.Settled, 2)
	assert.True(t, h.balance("p1").Equal(d("100")))
	assert.Equal(t, PhaseComeOut, h.table.Snapshot().Phase)
	assert.Zero(t, h.table.Snapshot().Craps.Point)
}

func TestCrapsShooterLeavingPassesDice(t *testing.T) {
	h := newHarness(t, Craps, dice())
	h.join("p1", "100")
	h.join("p2", "100")
	require.Equal(t, "p1", h.table.Snapshot().Craps.Shooter)

	co, err := h.table.Leave(h.ctx, "p1")
	require.NoError(t, err)
	assert.True(t, co.Amount.Equal(d("100")))
	assert.Equal(t, "p2", h.table.Snapshot().Craps.Shooter)
}
