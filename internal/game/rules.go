package game

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lox/tablegames/internal/deck"
	"github.com/lox/tablegames/internal/payout"
	"github.com/lox/tablegames/internal/randutil"
)

const (
	DefaultBettingWindow = 15 * time.Second
	DefaultTimeToAct     = 20 * time.Second
	DefaultSeats         = 7
)

// Rules configures a table's machine. Use DefaultRules and override fields;
// the zero value disables options such as DealerPeek.
type Rules struct {
	// Shuffler produces every card, roll and spin. Nil means crypto/rand.
	Shuffler deck.Shuffler

	BettingWindow time.Duration
	TimeToAct     time.Duration

	Decks       int
	Penetration float64
	Wheel       deck.Wheel

	DealerPeek       bool
	DealerHitsSoft17 bool
	DoubleAfterSplit bool
	MaxSplits        int
	SplitAcesOneCard bool
	SurrenderAllowed bool

	BlackjackPays payout.BlackjackRules
	BaccaratPays  payout.BaccaratRules
}

// DefaultRules returns the house defaults for kind.
func DefaultRules(kind Kind) Rules {
	r := Rules{
		BettingWindow:    DefaultBettingWindow,
		TimeToAct:        DefaultTimeToAct,
		Penetration:      deck.DefaultPenetration,
		Wheel:            deck.European,
		DealerPeek:       true,
		DoubleAfterSplit: true,
		MaxSplits:        3,
		SplitAcesOneCard: true,
		SurrenderAllowed: true,
		BlackjackPays:    payout.DefaultBlackjackRules(),
		BaccaratPays:     payout.DefaultBaccaratRules(),
	}
	switch kind {
	case Blackjack:
		r.Decks = 6
	case Baccarat:
		r.Decks = 8
	}
	return r
}

func (r Rules) withDefaults(kind Kind) Rules {
	def := DefaultRules(kind)
	if r.Shuffler == nil {
		r.Shuffler = deck.NewShuffler(randutil.Crypto())
	}
	if r.BettingWindow <= 0 {
		r.BettingWindow = def.BettingWindow
	}
	if r.TimeToAct <= 0 {
		r.TimeToAct = def.TimeToAct
	}
	if r.Decks <= 0 {
		r.Decks = def.Decks
	}
	if r.Penetration <= 0 || r.Penetration > 1 {
		r.Penetration = def.Penetration
	}
	if r.BlackjackPays.BlackjackPays.IsZero() {
		r.BlackjackPays = def.BlackjackPays
	}
	if r.BaccaratPays.TiePays.IsZero() {
		r.BaccaratPays = def.BaccaratPays
	}
	return r
}

// Validate checks rule values that cannot be defaulted.
func (r Rules) Validate() error {
	if r.BettingWindow < 0 || r.TimeToAct < 0 {
		return fmt.Errorf("timers must not be negative")
	}
	if r.Decks < 0 {
		return fmt.Errorf("decks must not be negative")
	}
	if r.MaxSplits < 0 {
		return fmt.Errorf("max splits must not be negative")
	}
	if r.Wheel != deck.European && r.Wheel != deck.American {
		return fmt.Errorf("unknown wheel %d", r.Wheel)
	}
	if r.BaccaratPays.Commission.IsNegative() || r.BaccaratPays.Commission.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("commission must be in [0, 1)")
	}
	return nil
}
