package store

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lox/tablegames/internal/game"
)

const (
	roundsFile   = "rounds.jsonl"
	snapshotsDir = "snapshots"
)

// FileRecorder appends round results to rounds.jsonl and keeps the latest
// snapshot of each table in snapshots/<table>.json.
type FileRecorder struct {
	dir string

	mu     sync.Mutex
	rounds *os.File
	enc    *json.Encoder
}

var _ Backend = (*FileRecorder)(nil)

// NewFileRecorder creates dir if needed and opens its round log for append.
func NewFileRecorder(dir string) (*FileRecorder, error) {
	if err := os.MkdirAll(filepath.Join(dir, snapshotsDir), 0o755); err != nil {
		return nil, fmt.Errorf("create record dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, roundsFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open round log: %w", err)
	}
	return &FileRecorder{dir: dir, rounds: f, enc: json.NewEncoder(f)}, nil
}

// RoundsPath returns the path of the round log.
func (f *FileRecorder) RoundsPath() string { return filepath.Join(f.dir, roundsFile) }

// SnapshotPath returns where the snapshot of tableID is kept.
func (f *FileRecorder) SnapshotPath(tableID string) string {
	name := strings.NewReplacer("/", "_", string(filepath.Separator), "_").Replace(tableID)
	return filepath.Join(f.dir, snapshotsDir, name+".json")
}

func (f *FileRecorder) RecordRound(_ context.Context, res *game.RoundResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enc.Encode(res); err != nil {
		return fmt.Errorf("append round %s: %w", res.RoundID, err)
	}
	return nil
}

func (f *FileRecorder) RecordSnapshot(_ context.Context, snap *game.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return writeFileAtomic(f.SnapshotPath(snap.TableID), data, 0o644)
}

func (f *FileRecorder) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.rounds.Sync(); err != nil {
		f.rounds.Close()
		return err
	}
	return f.rounds.Close()
}

// ReadRounds decodes a round log.
func ReadRounds(r io.Reader) ([]game.RoundResult, error) {
	var out []game.RoundResult
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for line := 1; sc.Scan(); line++ {
		if len(strings.TrimSpace(sc.Text())) == 0 {
			continue
		}
		var res game.RoundResult
		if err := json.Unmarshal(sc.Bytes(), &res); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, res)
	}
	return out, sc.Err()
}
