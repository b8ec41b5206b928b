package game

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/shopspring/decimal"

	"github.com/lox/tablegames/internal/evaluator"
	"github.com/lox/tablegames/internal/ledger"
	"github.com/lox/tablegames/internal/roundid"
)

// Config describes a table to open.
type Config struct {
	ID     string
	Kind   Kind
	Stakes Stakes
	Seats  int
	Rules  Rules
	Clock  quartz.Clock
	Logger *log.Logger
	Sink   EventSink
	IDs    *roundid.Generator
}

const (
	windowTimer = iota
	turnTimer
	timerCount
)

type command struct {
	run   func() error
	reply chan error
}

type expiry struct {
	which int
	token uint64
}

// errIdle marks a command that changed nothing, so no snapshot is published.
var errIdle = errors.New("idle")

// Table owns one game. All state is confined to its loop goroutine; the
// exported methods submit commands and wait for the reply.
type Table struct {
	id     string
	kind   Kind
	stakes Stakes
	seats  int
	rules  Rules
	clock  quartz.Clock
	logger *log.Logger
	sink   EventSink

	ledger *ledger.Ledger
	roster *roster
	m      machine

	cmds     chan command
	expiries chan expiry
	done     chan struct{}
	closed   bool
	dirty    bool
	version  uint64
	snap     atomic.Pointer[Snapshot]

	timers  [timerCount]*quartz.Timer
	tokens  [timerCount]uint64
	turnKey string
}

// NewTable validates cfg and starts the table loop.
func NewTable(cfg Config) (*Table, error) {
	if cfg.ID == "" {
		return nil, errors.New("table id is required")
	}
	if !cfg.Kind.Valid() {
		return nil, fmt.Errorf("unknown game kind %q", cfg.Kind)
	}
	if cfg.Stakes.Min.IsNegative() || (!cfg.Stakes.Max.IsZero() && cfg.Stakes.Max.LessThan(cfg.Stakes.Min)) {
		return nil, fmt.Errorf("invalid stakes %s-%s", cfg.Stakes.Min, cfg.Stakes.Max)
	}
	if err := cfg.Rules.Validate(); err != nil {
		return nil, fmt.Errorf("table %s: %w", cfg.ID, err)
	}
	if cfg.Seats <= 0 {
		cfg.Seats = DefaultSeats
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Sink == nil {
		cfg.Sink = nopSink{}
	}
	if cfg.IDs == nil {
		cfg.IDs = roundid.New()
	}

	t := &Table{
		id:       cfg.ID,
		kind:     cfg.Kind,
		stakes:   cfg.Stakes,
		seats:    cfg.Seats,
		rules:    cfg.Rules.withDefaults(cfg.Kind),
		clock:    cfg.Clock,
		logger:   cfg.Logger.WithPrefix("table").With("id", cfg.ID, "kind", cfg.Kind),
		sink:     cfg.Sink,
		ledger:   ledger.New(),
		roster:   newRoster(cfg.Seats),
		cmds:     make(chan command),
		expiries: make(chan expiry, 8),
		done:     make(chan struct{}),
	}

	b := base{
		tableID:  t.id,
		kind:     t.kind,
		rules:    t.rules,
		stakes:   t.stakes,
		ledger:   t.ledger,
		roster:   t.roster,
		ids:      cfg.IDs,
		clock:    t.clock,
		logger:   t.logger,
		onPhase:  t.phaseChanged,
		onRoll:   t.rolled,
		onNotice: t.announce,
	}
	switch t.kind {
	case Blackjack:
		t.m = newBlackjack(b)
	case Roulette:
		t.m = newRoulette(b)
	case Baccarat:
		t.m = newBaccarat(b)
	case Craps:
		t.m = newCraps(b)
	}

	t.publish()
	go t.loop()
	t.logger.Info("Table opened", "seats", t.seats, "min", t.stakes.Min, "max", t.stakes.Max)
	return t, nil
}

// ID returns the table id.
func (t *Table) ID() string { return t.id }

// Kind returns the game the table deals.
func (t *Table) Kind() Kind { return t.kind }

// Snapshot returns the latest published view of the table.
func (t *Table) Snapshot() *Snapshot { return t.snap.Load() }

// Ledger exposes the table's ledger for audits. Mutate it only through the
// table.
func (t *Table) Ledger() *ledger.Ledger { return t.ledger }

// Done is closed when the table loop has stopped.
func (t *Table) Done() <-chan struct{} { return t.done }

// Join seats a participant with p.Balance as the buy-in.
func (t *Table) Join(ctx context.Context, p Participant) (Participant, error) {
	var out Participant
	err := t.submit(ctx, func() error {
		if p.ID == "" {
			return fmt.Errorf("%w: participant id is required", ErrUnknownParticipant)
		}
		if p.Balance.IsNegative() {
			return fmt.Errorf("%w: negative buy-in", ErrActionNotPermitted)
		}
		seated, err := t.roster.seat(p)
		if err != nil {
			return err
		}
		if err := t.ledger.Open(p.ID, p.Balance); err != nil {
			t.roster.remove(p.ID)
			return err
		}
		out = *seated
		t.logger.Info("Participant joined", "participant", p.ID, "seat", seated.Seat, "buyIn", p.Balance)
		return nil
	})
	return out, err
}

// Leave stands a participant up. Participants with bets in play stay seated,
// inactive, until those bets settle; the cash out is then published as an
// event.
func (t *Table) Leave(ctx context.Context, participantID string) (CashOut, error) {
	var out CashOut
	err := t.submit(ctx, func() error {
		p := t.roster.get(participantID)
		if p == nil {
			return fmt.Errorf("%w: %s", ErrUnknownParticipant, participantID)
		}
		out = CashOut{ParticipantID: p.ID, Pending: true}
		if !p.Active {
			return nil
		}
		p.Active = false
		t.dirty = true
		res, err := t.m.departed(p)
		t.roundOver(res)
		if err != nil {
			t.logger.Error("Round failed after departure", "participant", p.ID, "error", err)
		}
		if co, ok := t.cashOut(p); ok {
			out = co
		}
		return nil
	})
	return out, err
}

// PlaceBet escrows a bet for the current round.
func (t *Table) PlaceBet(ctx context.Context, participantID string, spec BetSpec) (ledger.Bet, error) {
	var out ledger.Bet
	err := t.submit(ctx, func() error {
		p := t.roster.get(participantID)
		if p == nil {
			return fmt.Errorf("%w: %s", ErrUnknownParticipant, participantID)
		}
		bet, err := t.m.placeBet(p, spec)
		if err != nil {
			return err
		}
		out = bet
		t.logger.Debug("Bet placed", "participant", p.ID, "type", bet.Type, "amount", bet.Amount, "round", bet.RoundID)
		return nil
	})
	return out, err
}

// Act applies a player decision. hand selects among a participant's split
// blackjack hands; pass -1 for the hand in play.
func (t *Table) Act(ctx context.Context, participantID string, a Action, hand int) error {
	return t.submit(ctx, func() error {
		p := t.roster.get(participantID)
		if p == nil {
			return fmt.Errorf("%w: %s", ErrUnknownParticipant, participantID)
		}
		if !p.Active {
			return fmt.Errorf("%w: %s has left the table", ErrActionNotPermitted, p.ID)
		}
		res, err := t.m.act(p, a, hand)
		t.roundOver(res)
		if err == nil {
			t.logger.Debug("Action applied", "participant", p.ID, "action", a, "hand", hand)
		}
		return err
	})
}

// Close refunds the open round, cashes everyone out and stops the loop.
func (t *Table) Close(ctx context.Context) error {
	return t.submit(ctx, func() error {
		if t.m.round() != "" {
			t.roundOver(t.m.abort(ErrTableClosed))
		}
		for _, p := range append([]*Participant(nil), t.roster.list...) {
			p.Active = false
			if _, ok := t.cashOut(p); !ok {
				t.logger.Error("Participant could not be cashed out", "participant", p.ID)
			}
		}
		for i := range t.timers {
			t.disarm(i)
		}
		t.closed = true
		t.dirty = true
		t.logger.Info("Table closed", "houseNet", t.ledger.HouseNet())
		return nil
	})
}

// Flush waits until every command and timer expiry queued before it has
// been applied.
func (t *Table) Flush(ctx context.Context) error {
	err := t.submit(ctx, func() error { return errIdle })
	if errors.Is(err, errIdle) {
		return nil
	}
	return err
}

// Announce publishes a system message to the table's observers.
func (t *Table) Announce(ctx context.Context, message string) error {
	err := t.submit(ctx, func() error {
		t.announce(message)
		return errIdle
	})
	if errors.Is(err, errIdle) {
		return nil
	}
	return err
}

func (t *Table) announce(message string) {
	t.emit(Event{Type: EventSystem, Message: message})
}

func (t *Table) submit(ctx context.Context, run func() error) error {
	cmd := command{run: run, reply: make(chan error, 1)}
	select {
	case t.cmds <- cmd:
	case <-t.done:
		return ErrTableClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-t.done:
		select {
		case err := <-cmd.reply:
			return err
		default:
			return ErrTableClosed
		}
	}
}

// loop applies commands one at a time. Expired timers are drained before
// each command so an expiry fired before a call is applied before it.
func (t *Table) loop() {
	defer close(t.done)
	for !t.closed {
		select {
		case e := <-t.expiries:
			t.fire(e)
			continue
		default:
		}
		select {
		case e := <-t.expiries:
			t.fire(e)
		case cmd := <-t.cmds:
			cmd.reply <- t.apply(cmd)
		}
	}
}

func (t *Table) fire(e expiry) {
	_ = t.apply(command{run: func() error {
		if t.tokens[e.which] != e.token {
			return errIdle
		}
		t.timers[e.which] = nil
		return t.expire(e.which)
	}})
}

func (t *Table) apply(cmd command) (err error) {
	t.dirty = false
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("table %s: invariant violated: %v", t.id, r)
			t.logger.Error("Command panicked, voiding round", "panic", r)
			if t.m.round() != "" {
				t.roundOver(t.m.abort(err))
			}
			t.reconcile()
			t.publish()
		}
	}()

	err = cmd.run()
	if !t.closed {
		t.reconcile()
	}
	if err == nil || t.dirty {
		t.publish()
	}
	return err
}

// reconcile cashes out departed participants and arms the timers the
// machine's state calls for.
func (t *Table) reconcile() {
	for _, p := range append([]*Participant(nil), t.roster.list...) {
		if !p.Active {
			t.cashOut(p)
		}
	}

	// A round with bets in escrow must close even after its bettors leave.
	want := t.m.window() && (len(t.roster.active()) > 0 || t.escrowed())
	switch {
	case want && t.timers[windowTimer] == nil:
		t.arm(windowTimer, t.rules.BettingWindow)
	case !want:
		t.disarm(windowTimer)
	}

	if key := t.m.turn(); key != t.turnKey {
		t.turnKey = key
		t.disarm(turnTimer)
		if key != "" {
			t.arm(turnTimer, t.rules.TimeToAct)
		}
	}
}

func (t *Table) escrowed() bool {
	id := t.m.round()
	return id != "" && len(t.ledger.OpenBets(id)) > 0
}

// cashOut closes the participant's account if no stake is in escrow.
func (t *Table) cashOut(p *Participant) (CashOut, bool) {
	amount, err := t.ledger.Close(p.ID)
	if errors.Is(err, ledger.ErrOpenBets) {
		return CashOut{}, false
	}
	if err != nil {
		t.logger.Error("Cash out failed", "participant", p.ID, "error", err)
		return CashOut{}, false
	}
	t.roster.remove(p.ID)
	t.dirty = true
	co := CashOut{ParticipantID: p.ID, Amount: amount}
	t.emit(Event{Type: EventCashOut, CashOut: &co})
	t.logger.Info("Participant left", "participant", p.ID, "cashOut", amount)
	return co, true
}

func (t *Table) arm(which int, d time.Duration) {
	t.disarm(which)
	e := expiry{which: which, token: t.tokens[which]}
	t.timers[which] = t.clock.AfterFunc(d, func() {
		select {
		case t.expiries <- e:
		case <-t.done:
		}
	}, "table", t.id)
}

func (t *Table) disarm(which int) {
	if t.timers[which] != nil {
		t.timers[which].Stop()
		t.timers[which] = nil
	}
	t.tokens[which]++
}

func (t *Table) expire(which int) error {
	var (
		res *RoundResult
		err error
	)
	if which == windowTimer {
		res, err = t.m.closeBetting()
	} else {
		t.turnKey = ""
		res, err = t.m.timeout()
	}
	t.roundOver(res)
	if err != nil {
		t.logger.Error("Timed transition failed", "timer", which, "error", err)
		return err
	}
	if res == nil && !t.dirty {
		return errIdle
	}
	return nil
}

func (t *Table) roundOver(res *RoundResult) {
	if res == nil {
		return
	}
	t.dirty = true
	if res.Voided {
		t.logger.Warn("Round voided", "round", res.RoundID, "reason", res.Reason, "refunds", len(res.Settled))
	} else {
		t.logger.Info("Round settled", "round", res.RoundID, "bets", len(res.Settled), "hold", res.Hold())
	}
	t.emit(Event{Type: EventRoundResult, Result: res})
}

func (t *Table) phaseChanged() {
	t.dirty = true
	t.publish()
}

func (t *Table) rolled(info evaluator.RollInfo) {
	t.emit(Event{Type: EventRoll, Roll: &info})
}

func (t *Table) publish() {
	t.version++
	s := &Snapshot{
		TableID:   t.id,
		Kind:      t.kind,
		Stakes:    t.stakes,
		Seats:     t.seats,
		Closed:    t.closed,
		Version:   t.version,
		UpdatedAt: t.clock.Now(),
	}
	for _, p := range t.roster.list {
		q := *p
		if bal, err := t.ledger.Balance(p.ID); err == nil {
			q.Balance = bal
		} else {
			q.Balance = decimal.Zero
		}
		s.Participants = append(s.Participants, q)
	}
	t.m.view(s)
	t.snap.Store(s)
	t.emit(Event{Type: EventSnapshot, Snapshot: s})
}

func (t *Table) emit(e Event) {
	e.TableID = t.id
	e.Timestamp = t.clock.Now()
	t.sink.Publish(e)
}
