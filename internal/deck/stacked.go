package deck

import (
	"fmt"

	"github.com/lox/tablegames/internal/randutil"
)

// Stacked is a scripted Shuffler for test harnesses and replays. Shuffle
// returns Cards followed by a seeded filler so a shoe never runs dry; dice
// and pockets are consumed in order.
type Stacked struct {
	Cards   []Card
	Dice    []Dice
	Pockets []Pocket
	// Fail makes every call report randomness as unavailable.
	Fail bool

	filler Shuffler
}

func (s *Stacked) Shuffle(decks int) ([]Card, error) {
	if s.Fail {
		return nil, randutil.ErrRandomnessUnavailable
	}
	if s.filler == nil {
		s.filler = NewShuffler(randutil.Seeded(1))
	}
	rest, err := s.filler.Shuffle(decks)
	if err != nil {
		return nil, err
	}
	out := append([]Card(nil), s.Cards...)
	s.Cards = nil
	return append(out, rest...), nil
}

func (s *Stacked) RollDice() (Dice, error) {
	if s.Fail {
		return Dice{}, randutil.ErrRandomnessUnavailable
	}
	if len(s.Dice) == 0 {
		return Dice{}, fmt.Errorf("stacked dice exhausted: %w", randutil.ErrRandomnessUnavailable)
	}
	d := s.Dice[0]
	s.Dice = s.Dice[1:]
	return d, nil
}

func (s *Stacked) SpinWheel(Wheel) (Pocket, error) {
	if s.Fail {
		return 0, randutil.ErrRandomnessUnavailable
	}
	if len(s.Pockets) == 0 {
		return 0, fmt.Errorf("stacked pockets exhausted: %w", randutil.ErrRandomnessUnavailable)
	}
	p := s.Pockets[0]
	s.Pockets = s.Pockets[1:]
	return p, nil
}
