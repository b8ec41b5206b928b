// Package store records settled rounds and table snapshots outside the
// table loops.
package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/tablegames/internal/game"
)

// Backend persists records. Calls come from a single goroutine.
type Backend interface {
	RecordRound(ctx context.Context, res *game.RoundResult) error
	RecordSnapshot(ctx context.Context, snap *game.Snapshot) error
	Close() error
}

const (
	// DefaultQueue is the number of events a Recorder buffers.
	DefaultQueue = 4096

	writeTimeout = 5 * time.Second
)

var ErrRecorderClosed = errors.New("recorder closed")

// Recorder is a game.EventSink that hands round results and snapshots to a
// Backend on its own goroutine. Publish never blocks: when the queue is full
// the event is dropped and counted. Backend failures are logged.
type Recorder struct {
	backend Backend
	logger  *log.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan game.Event
	done   chan struct{}

	dropped atomic.Uint64
	failed  atomic.Uint64
}

// NewRecorder starts a recorder over b. size <= 0 uses DefaultQueue.
func NewRecorder(b Backend, size int, logger *log.Logger) *Recorder {
	if size <= 0 {
		size = DefaultQueue
	}
	r := &Recorder{
		backend: b,
		logger:  logger.WithPrefix("recorder"),
		queue:   make(chan game.Event, size),
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *Recorder) Publish(e game.Event) {
	if e.Type != game.EventRoundResult && e.Type != game.EventSnapshot {
		return
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.dropped.Add(1)
		return
	}
	select {
	case r.queue <- e:
	default:
		if r.dropped.Add(1) == 1 {
			r.logger.Warn("Recorder queue full, dropping events", "table", e.TableID)
		}
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for e := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		var err error
		switch e.Type {
		case game.EventRoundResult:
			err = r.backend.RecordRound(ctx, e.Result)
		case game.EventSnapshot:
			err = r.backend.RecordSnapshot(ctx, e.Snapshot)
		}
		cancel()
		if err != nil {
			r.failed.Add(1)
			r.logger.Error("Failed to record event", "type", e.Type, "table", e.TableID, "error", err)
		}
	}
}

// Close stops accepting events, writes what is queued and closes the
// backend.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrRecorderClosed
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	<-r.done
	return r.backend.Close()
}

// Dropped reports events lost to a full queue or a closed recorder.
func (r *Recorder) Dropped() uint64 { return r.dropped.Load() }

// Failed reports events the backend refused.
func (r *Recorder) Failed() uint64 { return r.failed.Load() }
