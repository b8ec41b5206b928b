// Package ledger holds participant balances and the escrow of every open
// bet at a table.
//
// A placement debits the participant and moves the stake into the escrow of
// its round. Settlement releases each escrowed bet exactly once, crediting
// the payout and leaving the remainder with the house. Every mutation is
// recorded in an append-only journal.
package ledger

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnknownAccount    = errors.New("unknown account")
	ErrAccountExists     = errors.New("account already open")
	ErrUnknownBet        = errors.New("unknown bet")
	ErrDuplicateBet      = errors.New("duplicate bet id")
	ErrAlreadySettled    = errors.New("bet already settled")
	ErrOpenBets          = errors.New("round has unsettled bets")
	ErrInvalidAmount     = errors.New("amount must be positive")
)

// BetType names a wager on a game's layout.
type BetType string

// Bet is a stake held in escrow for one round.
type Bet struct {
	ID            string          `json:"id"`
	ParticipantID string          `json:"participantId"`
	RoundID       string          `json:"roundId"`
	Type          BetType         `json:"type"`
	Selection     []int           `json:"selection,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Multiplier    decimal.Decimal `json:"multiplier"`
	PlacedAt      time.Time       `json:"placedAt"`
}

// Result is how a bet was settled.
type Result string

const (
	Win       Result = "win"
	Lose      Result = "lose"
	Push      Result = "push"
	Surrender Result = "surrender"
	Void      Result = "void"
)

// Settlement releases one bet from escrow. Payout is the amount credited
// back to the participant, stake included; Winnings is Payout minus stake on
// a win and zero otherwise.
type Settlement struct {
	Bet      Bet             `json:"bet"`
	Result   Result          `json:"result"`
	Winnings decimal.Decimal `json:"winnings"`
	Payout   decimal.Decimal `json:"payout"`
}

// EntryKind classifies journal entries.
type EntryKind string

const (
	EntryDeposit  EntryKind = "deposit"
	EntryWithdraw EntryKind = "withdraw"
	EntryStake    EntryKind = "stake"
	EntryCredit   EntryKind = "credit"
)

// Entry is one balance movement.
type Entry struct {
	Kind          EntryKind       `json:"kind"`
	ParticipantID string          `json:"participantId"`
	RoundID       string          `json:"roundId,omitempty"`
	BetID         string          `json:"betId,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Balance       decimal.Decimal `json:"balance"`
}

type escrowed struct {
	bet     Bet
	settled bool
}

// Ledger is safe for concurrent use; each call is applied atomically.
type Ledger struct {
	mu       sync.Mutex
	accounts map[string]decimal.Decimal
	rounds   map[string]map[string]*escrowed
	journal  []Entry
	house    decimal.Decimal
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{
		accounts: make(map[string]decimal.Decimal),
		rounds:   make(map[string]map[string]*escrowed),
	}
}

// Open creates an account with an opening deposit.
func (l *Ledger) Open(participantID string, deposit decimal.Decimal) error {
	if deposit.IsNegative() {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.accounts[participantID]; ok {
		return fmt.Errorf("%w: %s", ErrAccountExists, participantID)
	}
	l.accounts[participantID] = deposit
	l.record(Entry{Kind: EntryDeposit, ParticipantID: participantID, Amount: deposit, Balance: deposit})
	return nil
}

// Close removes an account and returns its balance. Accounts with stakes in
// escrow cannot be closed.
func (l *Ledger) Close(participantID string) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	bal, ok := l.accounts[participantID]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownAccount, participantID)
	}
	for roundID, bets := range l.rounds {
		for _, e := range bets {
			if !e.settled && e.bet.ParticipantID == participantID {
				return decimal.Zero, fmt.Errorf("%w: %s holds stakes in round %s", ErrOpenBets, participantID, roundID)
			}
		}
	}
	delete(l.accounts, participantID)
	l.record(Entry{Kind: EntryWithdraw, ParticipantID: participantID, Amount: bal.Neg(), Balance: decimal.Zero})
	return bal, nil
}

// Balance returns a participant's spendable balance.
func (l *Ledger) Balance(participantID string) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	bal, ok := l.accounts[participantID]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownAccount, participantID)
	}
	return bal, nil
}

// CanAfford reports whether the participant could stake amount now.
func (l *Ledger) CanAfford(participantID string, amount decimal.Decimal) bool {
	bal, err := l.Balance(participantID)
	return err == nil && bal.GreaterThanOrEqual(amount)
}

// Place debits the stake and holds the bet in escrow. On any error nothing
// is debited.
func (l *Ledger) Place(bet Bet) error {
	if !bet.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	bal, ok := l.accounts[bet.ParticipantID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAccount, bet.ParticipantID)
	}
	if bal.LessThan(bet.Amount) {
		return fmt.Errorf("%w: balance %s, stake %s", ErrInsufficientFunds, bal, bet.Amount)
	}
	bets := l.rounds[bet.RoundID]
	if bets == nil {
		bets = make(map[string]*escrowed)
		l.rounds[bet.RoundID] = bets
	}
	if _, dup := bets[bet.ID]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateBet, bet.ID)
	}

	bal = bal.Sub(bet.Amount)
	l.accounts[bet.ParticipantID] = bal
	bets[bet.ID] = &escrowed{bet: bet}
	l.record(Entry{Kind: EntryStake, ParticipantID: bet.ParticipantID, RoundID: bet.RoundID, BetID: bet.ID, Amount: bet.Amount.Neg(), Balance: bal})
	return nil
}

// Raise adds extra stake to an escrowed bet, as a double down does.
func (l *Ledger) Raise(roundID, betID string, extra decimal.Decimal) (Bet, error) {
	if !extra.IsPositive() {
		return Bet{}, ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	e, err := l.lookup(roundID, betID)
	if err != nil {
		return Bet{}, err
	}
	if e.settled {
		return Bet{}, fmt.Errorf("%w: %s", ErrAlreadySettled, betID)
	}
	pid := e.bet.ParticipantID
	bal := l.accounts[pid]
	if bal.LessThan(extra) {
		return Bet{}, fmt.Errorf("%w: balance %s, extra stake %s", ErrInsufficientFunds, bal, extra)
	}
	bal = bal.Sub(extra)
	l.accounts[pid] = bal
	e.bet.Amount = e.bet.Amount.Add(extra)
	l.record(Entry{Kind: EntryStake, ParticipantID: pid, RoundID: roundID, BetID: betID, Amount: extra.Neg(), Balance: bal})
	return e.bet, nil
}

// Settle applies a batch of settlements atomically. Either every record is
// applied or, on any validation failure, none is.
func (l *Ledger) Settle(roundID string, records []Settlement) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.settleLocked(roundID, records)
}

// Void refunds every unsettled bet in the round and returns the settlements
// it applied.
func (l *Ledger) Void(roundID string) ([]Settlement, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	open := l.openLocked(roundID)
	records := make([]Settlement, 0, len(open))
	for _, b := range open {
		records = append(records, Settlement{Bet: b, Result: Void, Winnings: decimal.Zero, Payout: b.Amount})
	}
	if err := l.settleLocked(roundID, records); err != nil {
		return nil, err
	}
	return records, nil
}

func (l *Ledger) settleLocked(roundID string, records []Settlement) error {
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		e, err := l.lookup(roundID, r.Bet.ID)
		if err != nil {
			return err
		}
		if e.settled || seen[r.Bet.ID] {
			return fmt.Errorf("%w: %s", ErrAlreadySettled, r.Bet.ID)
		}
		if r.Payout.IsNegative() {
			return fmt.Errorf("negative payout %s for bet %s", r.Payout, r.Bet.ID)
		}
		if _, ok := l.accounts[e.bet.ParticipantID]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownAccount, e.bet.ParticipantID)
		}
		seen[r.Bet.ID] = true
	}

	for _, r := range records {
		e := l.rounds[roundID][r.Bet.ID]
		e.settled = true
		pid := e.bet.ParticipantID
		l.house = l.house.Add(e.bet.Amount).Sub(r.Payout)
		if r.Payout.IsPositive() {
			bal := l.accounts[pid].Add(r.Payout)
			l.accounts[pid] = bal
			l.record(Entry{Kind: EntryCredit, ParticipantID: pid, RoundID: roundID, BetID: r.Bet.ID, Amount: r.Payout, Balance: bal})
		}
	}
	return nil
}

// CloseRound forgets a round once every bet in it is settled.
func (l *Ledger) CloseRound(roundID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if open := l.openLocked(roundID); len(open) > 0 {
		return fmt.Errorf("%w: %d in round %s", ErrOpenBets, len(open), roundID)
	}
	delete(l.rounds, roundID)
	return nil
}

// OpenBets returns the unsettled bets of a round ordered by placement.
func (l *Ledger) OpenBets(roundID string) []Bet {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.openLocked(roundID)
}

// Escrow returns the total stake currently held for a round.
func (l *Ledger) Escrow(roundID string) decimal.Decimal {
	total := decimal.Zero
	for _, b := range l.OpenBets(roundID) {
		total = total.Add(b.Amount)
	}
	return total
}

// HouseNet returns everything the house has kept minus everything it paid
// beyond returned stakes.
func (l *Ledger) HouseNet() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.house
}

// Total returns the sum of all balances plus all escrow.
func (l *Ledger) Total() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := decimal.Zero
	for _, bal := range l.accounts {
		total = total.Add(bal)
	}
	for _, bets := range l.rounds {
		for _, e := range bets {
			if !e.settled {
				total = total.Add(e.bet.Amount)
			}
		}
	}
	return total
}

// Journal returns a copy of every entry recorded so far.
func (l *Ledger) Journal() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.journal...)
}

func (l *Ledger) lookup(roundID, betID string) (*escrowed, error) {
	e, ok := l.rounds[roundID][betID]
	if !ok {
		return nil, fmt.Errorf("%w: %s in round %s", ErrUnknownBet, betID, roundID)
	}
	return e, nil
}

func (l *Ledger) openLocked(roundID string) []Bet {
	var open []Bet
	for _, e := range l.rounds[roundID] {
		if !e.settled {
			open = append(open, e.bet)
		}
	}
	sort.Slice(open, func(i, j int) bool {
		if open[i].PlacedAt.Equal(open[j].PlacedAt) {
			return open[i].ID < open[j].ID
		}
		return open[i].PlacedAt.Before(open[j].PlacedAt)
	})
	return open
}

func (l *Ledger) record(e Entry) {
	l.journal = append(l.journal, e)
}
