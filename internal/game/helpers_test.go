package game

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/lox/tablegames/internal/deck"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// eventLog records every event a table publishes.
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) Publish(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) results() []*RoundResult {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*RoundResult
	for _, e := range l.events {
		if e.Type == EventRoundResult {
			out = append(out, e.Result)
		}
	}
	return out
}

// phases lists the phase of every published snapshot, collapsing repeats.
func (l *eventLog) phases() []Phase {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Phase
	for _, e := range l.events {
		if e.Type != EventSnapshot {
			continue
		}
		if n := len(out); n == 0 || out[n-1] != e.Snapshot.Phase {
			out = append(out, e.Snapshot.Phase)
		}
	}
	return out
}

func (l *eventLog) messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, e := range l.events {
		if e.Type == EventSystem {
			out = append(out, e.Message)
		}
	}
	return out
}

func (l *eventLog) count(t EventType) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

type harness struct {
	t      *testing.T
	ctx    context.Context
	table  *Table
	clock  *quartz.Mock
	events *eventLog
}

func newHarness(t *testing.T, kind Kind, shuffler deck.Shuffler, tweak ...func(*Rules)) *harness {
	t.Helper()
	rules := DefaultRules(kind)
	rules.Shuffler = shuffler
	for _, f := range tweak {
		f(&rules)
	}
	h := &harness{
		t:      t,
		ctx:    context.Background(),
		clock:  quartz.NewMock(t),
		events: &eventLog{},
	}
	tbl, err := NewTable(Config{
		ID:     "t1",
		Kind:   kind,
		Stakes: Stakes{Min: d("1"), Max: d("500")},
		Seats:  3,
		Rules:  rules,
		Clock:  h.clock,
		Logger: log.NewWithOptions(io.Discard, log.Options{}),
		Sink:   h.events,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = tbl.Close(context.Background()) })
	h.table = tbl
	return h
}

func (h *harness) join(id string, buyIn string) {
	h.t.Helper()
	_, err := h.table.Join(h.ctx, Participant{ID: id, DisplayName: id, Balance: d(buyIn)})
	require.NoError(h.t, err)
}

func (h *harness) bet(id string, spec BetSpec) {
	h.t.Helper()
	_, err := h.table.PlaceBet(h.ctx, id, spec)
	require.NoError(h.t, err)
}

// tick fires the next pending timer and waits for the table to apply it.
func (h *harness) tick() time.Duration {
	h.t.Helper()
	dur, w := h.clock.AdvanceNext()
	w.MustWait(h.ctx)
	require.NoError(h.t, h.table.Flush(h.ctx))
	return dur
}

func (h *harness) balance(id string) decimal.Decimal {
	h.t.Helper()
	p, ok := h.table.Snapshot().Participant(id)
	require.True(h.t, ok, "participant %s not seated", id)
	return p.Balance
}

func (h *harness) lastResult() *RoundResult {
	h.t.Helper()
	res := h.events.results()
	require.NotEmpty(h.t, res)
	return res[len(res)-1]
}

func stack(cards string) *deck.Stacked {
	return &deck.Stacked{Cards: deck.MustParseCards(cards)}
}
