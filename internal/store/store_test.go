package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/tablegames/internal/game"
)

func TestRecorderWritesRoundsAndSnapshots(t *testing.T) {
	b := &memBackend{}
	r := NewRecorder(b, 8, testLogger())

	r.Publish(game.Event{Type: game.EventRoundResult, TableID: "wheel", Result: sampleResult("r1")})
	r.Publish(game.Event{Type: game.EventSnapshot, TableID: "wheel", Snapshot: &game.Snapshot{TableID: "wheel", Version: 3}})
	r.Publish(game.Event{Type: game.EventSystem, TableID: "wheel", Message: "ignored"})
	require.NoError(t, r.Close())

	require.Len(t, b.rounds, 1)
	assert.Equal(t, "r1", b.rounds[0].RoundID)
	require.Len(t, b.snapshots, 1)
	assert.EqualValues(t, 3, b.snapshots[0].Version)
	assert.True(t, b.closed)
	assert.Zero(t, r.Dropped())
}

func TestRecorderDropsWhenFull(t *testing.T) {
	b := &memBackend{block: make(chan struct{})}
	r := NewRecorder(b, 1, testLogger())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			r.Publish(game.Event{Type: game.EventRoundResult, Result: sampleResult("r")})
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a stalled backend")
	}
	assert.Positive(t, r.Dropped())

	close(b.block)
	require.NoError(t, r.Close())
	assert.ErrorIs(t, r.Close(), ErrRecorderClosed)

	before := r.Dropped()
	r.Publish(game.Event{Type: game.EventRoundResult, Result: sampleResult("late")})
	assert.Equal(t, before+1, r.Dropped())
}

func TestRecorderCountsBackendFailures(t *testing.T) {
	b := &memBackend{fail: true}
	r := NewRecorder(b, 4, testLogger())
	r.Publish(game.Event{Type: game.EventRoundResult, Result: sampleResult("r1")})
	r.Publish(game.Event{Type: game.EventRoundResult, Result: sampleResult("r2")})
	require.NoError(t, r.Close())
	assert.EqualValues(t, 2, r.Failed())
}
