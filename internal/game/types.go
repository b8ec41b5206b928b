package game

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/lox/tablegames/internal/deck"
	"github.com/lox/tablegames/internal/evaluator"
	"github.com/lox/tablegames/internal/ledger"
)

// Kind identifies the game a table deals.
type Kind string

const (
	Blackjack Kind = "blackjack"
	Roulette  Kind = "roulette"
	Baccarat  Kind = "baccarat"
	Craps     Kind = "craps"
)

// Kinds lists every supported game.
var Kinds = []Kind{Blackjack, Roulette, Baccarat, Craps}

// Valid reports whether k names a supported game.
func (k Kind) Valid() bool {
	switch k {
	case Blackjack, Roulette, Baccarat, Craps:
		return true
	}
	return false
}

// Phase is the state of a table's machine.
type Phase string

const (
	PhaseBetting     Phase = "betting"
	PhaseDealing     Phase = "dealing"
	PhasePlayerTurns Phase = "player_turns"
	PhaseDealerTurn  Phase = "dealer_turn"
	PhaseSpinning    Phase = "spinning"
	PhaseDrawing     Phase = "drawing"
	PhaseSettlement  Phase = "settlement"
	PhaseComeOut     Phase = "come_out"
	PhasePoint       Phase = "point"
)

// Action is a player decision routed to a machine.
type Action string

const (
	Hit        Action = "hit"
	Stand      Action = "stand"
	DoubleDown Action = "double_down"
	Split      Action = "split"
	Surrender  Action = "surrender"
	Roll       Action = "roll"
)

// Stakes bounds the size of a single bet.
type Stakes struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// Allows reports whether amount is within the limits. A zero Max means no
// upper limit.
func (s Stakes) Allows(amount decimal.Decimal) bool {
	if amount.LessThan(s.Min) {
		return false
	}
	return s.Max.IsZero() || amount.LessThanOrEqual(s.Max)
}

// Participant is a seated player. Balance is a projection of the table
// ledger and is only meaningful in snapshots; on Join it carries the buy-in.
type Participant struct {
	ID          string          `json:"id"`
	DisplayName string          `json:"displayName"`
	Balance     decimal.Decimal `json:"balance"`
	Seat        int             `json:"seat"`
	Active      bool            `json:"active"`
}

// BetSpec is an inbound bet before it is escrowed.
type BetSpec struct {
	Type      ledger.BetType  `json:"type"`
	Selection []int           `json:"selection,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
}

// CashOut is the balance returned to a participant who left the table.
// Pending is set when open bets delay the cash out until they settle.
type CashOut struct {
	ParticipantID string          `json:"participantId"`
	Amount        decimal.Decimal `json:"amount"`
	Pending       bool            `json:"pending"`
}

// HandOutcome is one finished blackjack hand.
type HandOutcome struct {
	ParticipantID string      `json:"participantId"`
	Cards         []deck.Card `json:"cards"`
	Total         int         `json:"total"`
	Result        string      `json:"result"`
}

// Outcome is the game-specific summary of a finished round.
type Outcome struct {
	Dealer      []deck.Card   `json:"dealer,omitempty"`
	Hands       []HandOutcome `json:"hands,omitempty"`
	Pocket      *deck.Pocket  `json:"pocket,omitempty"`
	Color       string        `json:"color,omitempty"`
	Player      []deck.Card   `json:"player,omitempty"`
	Banker      []deck.Card   `json:"banker,omitempty"`
	PlayerScore int           `json:"playerScore,omitempty"`
	BankerScore int           `json:"bankerScore,omitempty"`
	Winner      string        `json:"winner,omitempty"`
	Rolls       []deck.Dice   `json:"rolls,omitempty"`
	Point       int           `json:"point,omitempty"`
	Decision    string        `json:"decision,omitempty"`
}

// RoundResult is the append-only record of one settled or voided round.
type RoundResult struct {
	RoundID   string              `json:"roundId"`
	TableID   string              `json:"tableId"`
	Kind      Kind                `json:"kind"`
	Outcome   Outcome             `json:"outcome"`
	Settled   []ledger.Settlement `json:"settled"`
	Voided    bool                `json:"voided"`
	Reason    string              `json:"reason,omitempty"`
	StartedAt time.Time           `json:"startedAt"`
	SettledAt time.Time           `json:"settledAt"`
}

// Hold sums stakes minus payouts, the house's take for the round.
func (r RoundResult) Hold() decimal.Decimal {
	hold := decimal.Zero
	for _, s := range r.Settled {
		hold = hold.Add(s.Bet.Amount).Sub(s.Payout)
	}
	return hold
}

// HandView is a blackjack hand as seen by observers.
type HandView struct {
	ParticipantID string          `json:"participantId"`
	Index         int             `json:"index"`
	Cards         []deck.Card     `json:"cards"`
	Total         int             `json:"total"`
	Soft          bool            `json:"soft"`
	Bust          bool            `json:"bust"`
	Natural       bool            `json:"natural"`
	Stake         decimal.Decimal `json:"stake"`
	Doubled       bool            `json:"doubled,omitempty"`
	Surrendered   bool            `json:"surrendered,omitempty"`
	Done          bool            `json:"done"`
}

// BlackjackView is the blackjack part of a snapshot. The dealer's hole card
// is omitted until it is revealed.
type BlackjackView struct {
	Dealer     []deck.Card `json:"dealer"`
	HoleHidden bool        `json:"holeHidden"`
	Hands      []HandView  `json:"hands"`
	Turn       string      `json:"turn,omitempty"`
	TurnHand   int         `json:"turnHand"`
	ShoeLeft   int         `json:"shoeLeft"`
}

// RouletteView is the roulette part of a snapshot.
type RouletteView struct {
	Wheel   string        `json:"wheel"`
	Last    *deck.Pocket  `json:"last,omitempty"`
	History []deck.Pocket `json:"history"`
}

// BaccaratView is the baccarat part of a snapshot.
type BaccaratView struct {
	Player   []deck.Card `json:"player"`
	Banker   []deck.Card `json:"banker"`
	ShoeLeft int         `json:"shoeLeft"`
}

// CrapsView is the craps part of a snapshot.
type CrapsView struct {
	Shooter  string              `json:"shooter,omitempty"`
	Point    int                 `json:"point,omitempty"`
	LastRoll *evaluator.RollInfo `json:"lastRoll,omitempty"`
	Rolls    int                 `json:"rolls"`
}

// Snapshot is an immutable view of a table, safe to share between
// goroutines.
type Snapshot struct {
	TableID      string         `json:"tableId"`
	Kind         Kind           `json:"kind"`
	Stakes       Stakes         `json:"stakes"`
	Phase        Phase          `json:"phase"`
	RoundID      string         `json:"roundId,omitempty"`
	Seats        int            `json:"seats"`
	Participants []Participant  `json:"participants"`
	Bets         []ledger.Bet   `json:"bets"`
	Blackjack    *BlackjackView `json:"blackjack,omitempty"`
	Roulette     *RouletteView  `json:"roulette,omitempty"`
	Baccarat     *BaccaratView  `json:"baccarat,omitempty"`
	Craps        *CrapsView     `json:"craps,omitempty"`
	Closed       bool           `json:"closed,omitempty"`
	Version      uint64         `json:"version"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// Full reports whether every seat is taken.
func (s *Snapshot) Full() bool {
	return len(s.Participants) >= s.Seats
}

// Participant returns the seated participant with id.
func (s *Snapshot) Participant(id string) (Participant, bool) {
	for _, p := range s.Participants {
		if p.ID == id {
			return p, true
		}
	}
	return Participant{}, false
}
