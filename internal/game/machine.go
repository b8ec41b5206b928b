package game

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/shopspring/decimal"

	"github.com/lox/tablegames/internal/evaluator"
	"github.com/lox/tablegames/internal/ledger"
	"github.com/lox/tablegames/internal/roundid"
)

// machine is a game's state machine. It is driven only from the table loop,
// so none of its methods lock.
type machine interface {
	phase() Phase
	round() string
	// window reports whether a betting window timer should be running.
	window() bool
	// turn identifies the pending decision; it changes after every action
	// and is empty when nobody is on the clock.
	turn() string
	placeBet(p *Participant, spec BetSpec) (ledger.Bet, error)
	act(p *Participant, a Action, hand int) (*RoundResult, error)
	closeBetting() (*RoundResult, error)
	timeout() (*RoundResult, error)
	departed(p *Participant) (*RoundResult, error)
	abort(reason error) *RoundResult
	view(s *Snapshot)
}

// base carries what every machine shares: the round, its escrow and the
// phase notifier.
type base struct {
	tableID string
	kind    Kind
	rules   Rules
	stakes  Stakes
	ledger  *ledger.Ledger
	roster  *roster
	ids     *roundid.Generator
	clock   quartz.Clock
	logger  *log.Logger

	cur       Phase
	roundID   string
	startedAt time.Time
	settled   []ledger.Settlement
	onPhase   func()
	onRoll    func(evaluator.RollInfo)
	onNotice  func(string)
}

func (b *base) phase() Phase { return b.cur }

func (b *base) enter(p Phase) {
	if b.cur == p {
		return
	}
	b.logger.Debug("Phase change", "from", b.cur, "to", p, "round", b.roundID)
	b.cur = p
	if b.onPhase != nil {
		b.onPhase()
	}
}

func (b *base) announce(msg string) {
	if b.onNotice != nil {
		b.onNotice(msg)
	}
}

// ensureRound assigns a round id if none is open.
func (b *base) ensureRound() error {
	if b.roundID != "" {
		return nil
	}
	id, err := b.ids.WithPrefix("rnd")
	if err != nil {
		return fmt.Errorf("open round: %w", err)
	}
	b.roundID = id
	b.startedAt = b.clock.Now()
	b.settled = nil
	return nil
}

// stake validates and escrows a bet. Nothing changes when it fails.
func (b *base) stake(p *Participant, t ledger.BetType, sel []int, amount, mult decimal.Decimal) (ledger.Bet, error) {
	if !p.Active {
		return ledger.Bet{}, fmt.Errorf("%w: %s has left the table", ErrActionNotPermitted, p.ID)
	}
	if !amount.IsPositive() {
		return ledger.Bet{}, fmt.Errorf("%w: amount must be positive", ErrInvalidBet)
	}
	if !b.stakes.Allows(amount) {
		return ledger.Bet{}, fmt.Errorf("%w: %s not in [%s, %s]", ErrBetOutOfLimits, amount, b.stakes.Min, b.stakes.Max)
	}
	fresh := b.roundID == ""
	if err := b.ensureRound(); err != nil {
		return ledger.Bet{}, err
	}
	id, err := b.ids.WithPrefix("bet")
	if err != nil {
		b.dropEmptyRound(fresh)
		return ledger.Bet{}, fmt.Errorf("place bet: %w", err)
	}
	bet := ledger.Bet{
		ID:            id,
		ParticipantID: p.ID,
		RoundID:       b.roundID,
		Type:          t,
		Selection:     append([]int(nil), sel...),
		Amount:        amount,
		Multiplier:    mult,
		PlacedAt:      b.clock.Now(),
	}
	if err := b.ledger.Place(bet); err != nil {
		b.dropEmptyRound(fresh)
		return ledger.Bet{}, err
	}
	return bet, nil
}

func (b *base) dropEmptyRound(fresh bool) {
	if fresh {
		b.roundID = ""
	}
}

func (b *base) openBets() []ledger.Bet {
	if b.roundID == "" {
		return nil
	}
	return b.ledger.OpenBets(b.roundID)
}

// apply settles part of the round, as craps does roll by roll.
func (b *base) apply(records []ledger.Settlement) error {
	if len(records) == 0 {
		return nil
	}
	if err := b.ledger.Settle(b.roundID, records); err != nil {
		return fmt.Errorf("settle round %s: %w", b.roundID, err)
	}
	b.settled = append(b.settled, records...)
	return nil
}

// finish settles the last records, closes the round and returns its result.
func (b *base) finish(records []ledger.Settlement, outcome Outcome) (*RoundResult, error) {
	if err := b.apply(records); err != nil {
		return nil, err
	}
	if err := b.ledger.CloseRound(b.roundID); err != nil {
		return nil, fmt.Errorf("close round %s: %w", b.roundID, err)
	}
	res := &RoundResult{
		RoundID:   b.roundID,
		TableID:   b.tableID,
		Kind:      b.kind,
		Outcome:   outcome,
		Settled:   b.settled,
		StartedAt: b.startedAt,
		SettledAt: b.clock.Now(),
	}
	b.roundID = ""
	b.settled = nil
	return res, nil
}

// void refunds every open bet of the current round. Bets already settled in
// earlier rolls keep their results.
func (b *base) void(reason error, outcome Outcome) *RoundResult {
	res := &RoundResult{
		RoundID:   b.roundID,
		TableID:   b.tableID,
		Kind:      b.kind,
		Outcome:   outcome,
		Voided:    true,
		Reason:    reason.Error(),
		StartedAt: b.startedAt,
		SettledAt: b.clock.Now(),
	}
	if b.roundID != "" {
		refunds, err := b.ledger.Void(b.roundID)
		if err != nil {
			b.logger.Error("Failed to refund round", "round", b.roundID, "error", err)
		}
		res.Settled = append(b.settled, refunds...)
		if err := b.ledger.CloseRound(b.roundID); err != nil {
			b.logger.Error("Voided round left open bets", "round", b.roundID, "error", err)
		}
	}
	b.logger.Warn("Round voided", "round", b.roundID, "reason", reason)
	b.roundID = ""
	b.settled = nil
	return res
}

// baseView fills the fields every snapshot carries.
func (b *base) baseView(s *Snapshot) {
	s.Phase = b.cur
	s.RoundID = b.roundID
	s.Bets = b.openBets()
}

func (b *base) round() string { return b.roundID }
