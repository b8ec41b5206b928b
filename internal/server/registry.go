package server

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/lox/tablegames/internal/game"
	"github.com/lox/tablegames/internal/ledger"
	"github.com/lox/tablegames/internal/roundid"
)

var (
	ErrTableNotFound = errors.New("table not found")
	ErrTableExists   = errors.New("table already exists")
)

// Options configures a Registry. Templates describe the tables JoinAny
// opens when every table of a kind is full.
type Options struct {
	Clock     quartz.Clock
	Logger    *log.Logger
	Sink      game.EventSink
	IDs       *roundid.Generator
	Templates map[game.Kind]game.Config
}

// DefaultTemplate is the table JoinAny opens for kind when no template is
// configured.
func DefaultTemplate(kind game.Kind) game.Config {
	return game.Config{
		Kind:   kind,
		Stakes: game.Stakes{Min: decimal.NewFromInt(1), Max: decimal.NewFromInt(1000)},
		Seats:  game.DefaultSeats,
		Rules:  game.DefaultRules(kind),
	}
}

// Registry tracks open tables and routes calls to them by id.
type Registry struct {
	clock     quartz.Clock
	base      *log.Logger
	logger    *log.Logger
	sink      game.EventSink
	ids       *roundid.Generator
	templates map[game.Kind]game.Config

	mu     sync.RWMutex
	tables map[string]*game.Table
	serial map[game.Kind]int

	// joinMu serializes JoinAny so callers racing for the last seat do not
	// each open a new table.
	joinMu sync.Mutex
}

// NewRegistry constructs an empty registry.
func NewRegistry(opts Options) *Registry {
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.IDs == nil {
		opts.IDs = roundid.New()
	}
	return &Registry{
		clock:     opts.Clock,
		base:      opts.Logger,
		logger:    opts.Logger.WithPrefix("registry"),
		sink:      opts.Sink,
		ids:       opts.IDs,
		templates: opts.Templates,
		tables:    make(map[string]*game.Table),
		serial:    make(map[game.Kind]int),
	}
}

// Create opens a table. Clock, logger, sink and id source default to the
// registry's own.
func (r *Registry) Create(cfg game.Config) (*game.Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createLocked(cfg)
}

func (r *Registry) createLocked(cfg game.Config) (*game.Table, error) {
	if _, ok := r.tables[cfg.ID]; ok {
		return nil, fmt.Errorf("%w: %s", ErrTableExists, cfg.ID)
	}
	if cfg.Clock == nil {
		cfg.Clock = r.clock
	}
	if cfg.Logger == nil {
		cfg.Logger = r.base
	}
	if cfg.Sink == nil {
		cfg.Sink = r.sink
	}
	if cfg.IDs == nil {
		cfg.IDs = r.ids
	}
	t, err := game.NewTable(cfg)
	if err != nil {
		return nil, err
	}
	r.tables[t.ID()] = t
	r.logger.Info("Table registered", "table", t.ID(), "kind", t.Kind(), "total", len(r.tables))
	return t, nil
}

// Get returns the table with id.
func (r *Registry) Get(id string) (*game.Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tables[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, id)
	}
	return t, nil
}

// Close closes the table with id, refunding its open round and cashing out
// its participants, and forgets it.
func (r *Registry) Close(ctx context.Context, id string) error {
	r.mu.Lock()
	t, ok := r.tables[id]
	delete(r.tables, id)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, id)
	}
	if err := t.Announce(ctx, "Table closing"); err != nil {
		r.logger.Debug("Could not announce close", "table", id, "error", err)
	}
	if err := t.Close(ctx); err != nil && !errors.Is(err, game.ErrTableClosed) {
		return fmt.Errorf("close table %s: %w", id, err)
	}
	r.logger.Info("Table closed", "table", id)
	return nil
}

// CloseAll closes every table concurrently.
func (r *Registry) CloseAll(ctx context.Context) error {
	r.mu.RLock()
	ids := make([]string, 0, len(r.tables))
	for id := range r.tables {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		g.Go(func() error { return r.Close(ctx, id) })
	}
	return g.Wait()
}

// List returns the latest snapshot of every table, ordered by id.
func (r *Registry) List() []*game.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*game.Snapshot, 0, len(r.tables))
	for _, t := range r.tables {
		out = append(out, t.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TableID < out[j].TableID })
	return out
}

// Join seats p at the table with id.
func (r *Registry) Join(ctx context.Context, tableID string, p game.Participant) (game.Participant, error) {
	t, err := r.Get(tableID)
	if err != nil {
		return game.Participant{}, err
	}
	return t.Join(ctx, p)
}

// JoinAny seats p at the first table of kind with a free seat, opening a new
// table from the kind's template when all of them are full.
func (r *Registry) JoinAny(ctx context.Context, kind game.Kind, p game.Participant) (*game.Table, game.Participant, error) {
	if !kind.Valid() {
		return nil, game.Participant{}, fmt.Errorf("unknown game kind %q", kind)
	}
	r.joinMu.Lock()
	defer r.joinMu.Unlock()

	for _, snap := range r.List() {
		if snap.Kind != kind || snap.Closed || snap.Full() {
			continue
		}
		t, err := r.Get(snap.TableID)
		if err != nil {
			continue
		}
		seated, err := t.Join(ctx, p)
		switch {
		case err == nil:
			return t, seated, nil
		case errors.Is(err, game.ErrTableFull), errors.Is(err, game.ErrTableClosed):
			continue
		default:
			return nil, game.Participant{}, err
		}
	}

	t, err := r.synthesize(kind)
	if err != nil {
		return nil, game.Participant{}, err
	}
	seated, err := t.Join(ctx, p)
	if err != nil {
		return nil, game.Participant{}, err
	}
	return t, seated, nil
}

func (r *Registry) synthesize(kind game.Kind) (*game.Table, error) {
	cfg, ok := r.templates[kind]
	if !ok {
		cfg = DefaultTemplate(kind)
	}
	cfg.Kind = kind

	r.mu.Lock()
	defer r.mu.Unlock()
	for {
		r.serial[kind]++
		cfg.ID = fmt.Sprintf("%s-%d", kind, r.serial[kind])
		if _, taken := r.tables[cfg.ID]; !taken {
			break
		}
	}
	r.logger.Info("All tables full, opening another", "kind", kind, "table", cfg.ID)
	return r.createLocked(cfg)
}

// Leave stands the participant up from the table with id.
func (r *Registry) Leave(ctx context.Context, tableID, participantID string) (game.CashOut, error) {
	t, err := r.Get(tableID)
	if err != nil {
		return game.CashOut{}, err
	}
	return t.Leave(ctx, participantID)
}

// PlaceBet routes a bet to the table with id.
func (r *Registry) PlaceBet(ctx context.Context, tableID, participantID string, spec game.BetSpec) (ledger.Bet, error) {
	t, err := r.Get(tableID)
	if err != nil {
		return ledger.Bet{}, err
	}
	return t.PlaceBet(ctx, participantID, spec)
}

// Act routes a player decision to the table with id.
func (r *Registry) Act(ctx context.Context, tableID, participantID string, a game.Action, hand int) error {
	t, err := r.Get(tableID)
	if err != nil {
		return err
	}
	return t.Act(ctx, participantID, a, hand)
}
