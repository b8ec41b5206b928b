package server

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/lox/tablegames/internal/game"
)

// DefaultBuffer is the number of events a SimulatedTransport keeps.
const DefaultBuffer = 1024

// SimulatedTransport keeps the most recent events in memory and logs them.
// Local drivers such as tests and the simulator send commands through Send.
type SimulatedTransport struct {
	logger  *log.Logger
	handler handler

	mu      sync.Mutex
	buf     []game.Event
	next    int
	full    bool
	dropped uint64
}

var _ Transport = (*SimulatedTransport)(nil)

// NewSimulatedTransport keeps up to size events; size <= 0 uses
// DefaultBuffer.
func NewSimulatedTransport(size int, logger *log.Logger) *SimulatedTransport {
	if size <= 0 {
		size = DefaultBuffer
	}
	l := logger.WithPrefix("simulated")
	return &SimulatedTransport{
		logger:  l,
		handler: handler{logger: l},
		buf:     make([]game.Event, size),
	}
}

func (s *SimulatedTransport) Name() string { return "simulated" }

func (s *SimulatedTransport) Attach(r *Registry) {
	s.handler.registry = r
}

// Serve has nothing to accept; it blocks until ctx is done.
func (s *SimulatedTransport) Serve(ctx context.Context) error {
	s.logger.Info("Simulated transport running", "buffer", len(s.buf))
	<-ctx.Done()
	return nil
}

// Publish records e, overwriting the oldest event when the buffer is full.
func (s *SimulatedTransport) Publish(e game.Event) {
	s.mu.Lock()
	if s.full {
		s.dropped++
	}
	s.buf[s.next] = e
	s.next = (s.next + 1) % len(s.buf)
	if s.next == 0 {
		s.full = true
	}
	s.mu.Unlock()

	switch e.Type {
	case game.EventRoundResult:
		s.logger.Info("Round result", "table", e.TableID, "round", e.Result.RoundID, "voided", e.Result.Voided, "hold", e.Result.Hold())
	case game.EventSystem:
		s.logger.Info("System message", "table", e.TableID, "message", e.Message)
	default:
		s.logger.Debug("Event", "table", e.TableID, "type", e.Type)
	}
}

// Events returns the buffered events, oldest first.
func (s *SimulatedTransport) Events() []game.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.full {
		return append([]game.Event(nil), s.buf[:s.next]...)
	}
	out := make([]game.Event, 0, len(s.buf))
	out = append(out, s.buf[s.next:]...)
	return append(out, s.buf[:s.next]...)
}

// Dropped reports how many events were overwritten.
func (s *SimulatedTransport) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Send applies msg as the client bound to sess and returns the reply.
func (s *SimulatedTransport) Send(ctx context.Context, sess *LocalSession, msg *Message) *Message {
	return s.handler.handle(ctx, sess, msg)
}

// LocalSession is the client state of a SimulatedTransport sender.
type LocalSession struct {
	mu       sync.Mutex
	playerID string
	tableID  string
}

func (ls *LocalSession) GetPlayer() string {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.playerID
}

func (ls *LocalSession) SetPlayer(playerID string) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.playerID = playerID
}

func (ls *LocalSession) GetTable() string {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.tableID
}

func (ls *LocalSession) SetTable(tableID string) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.tableID = tableID
}
