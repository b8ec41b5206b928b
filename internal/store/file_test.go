package store

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/tablegames/internal/game"
	"github.com/lox/tablegames/internal/ledger"
)

func TestFileRecorderAppendsRounds(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	f, err := NewFileRecorder(dir)
	require.NoError(t, err)
	require.NoError(t, f.RecordRound(ctx, sampleResult("r1")))
	require.NoError(t, f.RecordRound(ctx, sampleResult("r2")))
	require.NoError(t, f.Close())

	// Reopening appends rather than truncating.
	f, err = NewFileRecorder(dir)
	require.NoError(t, err)
	require.NoError(t, f.RecordRound(ctx, sampleResult("r3")))
	require.NoError(t, f.Close())

	file, err := os.Open(f.RoundsPath())
	require.NoError(t, err)
	defer file.Close()
	rounds, err := ReadRounds(file)
	require.NoError(t, err)
	require.Len(t, rounds, 3)
	assert.Equal(t, "r3", rounds[2].RoundID)
	require.Len(t, rounds[0].Settled, 1)
	assert.Equal(t, ledger.Win, rounds[0].Settled[0].Result)
	assert.True(t, rounds[0].Settled[0].Payout.Equal(sampleResult("x").Settled[0].Payout))
	assert.True(t, rounds[0].Hold().Equal(sampleResult("x").Hold()))
}

func TestFileRecorderOverwritesSnapshot(t *testing.T) {
	f, err := NewFileRecorder(t.TempDir())
	require.NoError(t, err)
	defer f.Close()
	ctx := context.Background()

	require.NoError(t, f.RecordSnapshot(ctx, &game.Snapshot{TableID: "bj/1", Kind: game.Blackjack, Version: 1}))
	require.NoError(t, f.RecordSnapshot(ctx, &game.Snapshot{TableID: "bj/1", Kind: game.Blackjack, Version: 2}))

	data, err := os.ReadFile(f.SnapshotPath("bj/1"))
	require.NoError(t, err)
	var snap game.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.EqualValues(t, 2, snap.Version)
	assert.Equal(t, game.Blackjack, snap.Kind)
}

func TestReadRoundsReportsBadLine(t *testing.T) {
	path := t.TempDir() + "/rounds.jsonl"
	require.NoError(t, os.WriteFile(path, []byte("{\"roundId\":\"a\"}\n\nnot json\n"), 0o644))
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	_, err = ReadRounds(file)
	assert.ErrorContains(t, err, "line 3")
}
