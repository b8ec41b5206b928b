package simulator

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/tablegames/internal/deck"
	"github.com/lox/tablegames/internal/game"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.WarnLevel})
}

func TestNew(t *testing.T) {
	sim := New(Config{Logger: testLogger()})

	assert.Equal(t, game.Kinds, sim.config.Kinds)
	assert.Equal(t, DefaultRounds, sim.config.Rounds)
	assert.Equal(t, DefaultBettors, sim.config.Bettors)
	assert.True(t, sim.config.Stake.Equal(decimal.NewFromInt(10)))
	assert.True(t, sim.config.BuyIn.Equal(decimal.NewFromInt(4000)), "buy-in covers four stakes a round")
	assert.Equal(t, DefaultPace, sim.config.Pace)
	assert.NotNil(t, sim.config.Clock)
}

func TestRun_AllGames(t *testing.T) {
	sim := New(Config{
		Rounds:  15,
		Bettors: 3,
		Seed:    12345,
		Pace:    time.Millisecond,
		Timeout: 30 * time.Second,
		Logger:  testLogger(),
	})

	reports, err := sim.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, len(game.Kinds))

	for i, r := range reports {
		t.Run(string(r.Kind), func(t *testing.T) {
			assert.Equal(t, game.Kinds[i], r.Kind)
			assert.Equal(t, 15, r.Stats.Rounds)
			assert.NoError(t, r.Stats.Validate())
			assert.True(t, r.Stats.Bets >= r.Stats.Rounds, "every round carries a bet")
			assert.True(t, r.Deposits.Equal(decimal.NewFromInt(3*600)))
			assert.True(t, r.CashedOut.Add(r.HouseNet).Equal(r.Deposits),
				"cashed out %s + house %s != deposits %s", r.CashedOut, r.HouseNet, r.Deposits)
		})
	}
}

func TestRun_UnknownKind(t *testing.T) {
	sim := New(Config{Kinds: []game.Kind{"poker"}, Logger: testLogger()})
	_, err := sim.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown game kind")
}

func TestRun_Timeout(t *testing.T) {
	sim := New(Config{
		Kinds:   []game.Kind{game.Roulette},
		Rounds:  1_000_000,
		Pace:    time.Millisecond,
		Timeout: 50 * time.Millisecond,
		Logger:  testLogger(),
	})
	_, err := sim.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "timed out")
}

func TestSummary(t *testing.T) {
	sim := New(Config{
		Kinds:   []game.Kind{game.Baccarat},
		Rounds:  5,
		Pace:    time.Millisecond,
		Timeout: 10 * time.Second,
		Logger:  testLogger(),
	})
	reports, err := sim.Run(context.Background())
	require.NoError(t, err)

	out := Summary(reports)
	assert.Contains(t, out, "BACCARAT")
	assert.Contains(t, out, "Rounds: 5")
	assert.Contains(t, out, "banker")
	assert.Contains(t, out, "deposits 600.00")
}

func TestBlackjackAction(t *testing.T) {
	card := func(s string) deck.Card {
		c, err := deck.ParseCard(s)
		require.NoError(t, err)
		return c
	}
	view := func(total int, soft bool, cards ...string) *game.BlackjackView {
		h := game.HandView{ParticipantID: "p1", Total: total, Soft: soft}
		for _, c := range cards {
			h.Cards = append(h.Cards, card(c))
		}
		return &game.BlackjackView{Turn: "p1", Hands: []game.HandView{h}}
	}

	tests := []struct {
		name string
		view *game.BlackjackView
		want game.Action
	}{
		{"hard eleven doubles", view(11, false, "6h", "5d"), game.DoubleDown},
		{"soft sixteen hits", view(16, true, "Ah", "5d"), game.Hit},
		{"three card eleven hits", view(11, false, "2h", "4d", "5c"), game.Hit},
		{"seventeen stands", view(17, false, "Th", "7d"), game.Stand},
		{"other player's turn stands", &game.BlackjackView{Turn: "p2"}, game.Stand},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, blackjackAction(tt.view))
		})
	}
}

func TestDriverBets(t *testing.T) {
	d := &driver{kind: game.Craps, stake: decimal.NewFromInt(5)}
	specs := d.bets(2)
	require.Len(t, specs, 2)
	assert.Equal(t, "pass_line", string(specs[0].Type))
	assert.Equal(t, "field", string(specs[1].Type))
	for _, s := range specs {
		assert.True(t, s.Amount.Equal(d.stake))
	}

	d.kind = game.Blackjack
	assert.Len(t, d.bets(5), 1)
}
