package store

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/lox/tablegames/internal/game"
	"github.com/lox/tablegames/internal/ledger"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

type memBackend struct {
	mu        sync.Mutex
	rounds    []*game.RoundResult
	snapshots []*game.Snapshot
	fail      bool
	closed    bool
	block     chan struct{}
}

func (m *memBackend) RecordRound(_ context.Context, res *game.RoundResult) error {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("disk full")
	}
	m.rounds = append(m.rounds, res)
	return nil
}

func (m *memBackend) RecordSnapshot(_ context.Context, snap *game.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, snap)
	return nil
}

func (m *memBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func sampleResult(id string) *game.RoundResult {
	at := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	bet := ledger.Bet{
		ID:            id + "-bet",
		ParticipantID: "p1",
		RoundID:       id,
		Type:          "straight",
		Selection:     []int{17},
		Amount:        decimal.NewFromInt(10),
		Multiplier:    decimal.NewFromInt(35),
		PlacedAt:      at,
	}
	return &game.RoundResult{
		RoundID: id,
		TableID: "wheel",
		Kind:    game.Roulette,
		Outcome: game.Outcome{Color: "black"},
		Settled: []ledger.Settlement{{
			Bet:      bet,
			Result:   ledger.Win,
			Winnings: decimal.NewFromInt(350),
			Payout:   decimal.NewFromInt(360),
		}},
		StartedAt: at,
		SettledAt: at.Add(15 * time.Second),
	}
}
