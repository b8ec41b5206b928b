package deck

import (
	"fmt"

	"github.com/lox/tablegames/internal/randutil"
)

// Dice is the result of one craps roll.
type Dice [2]int

// Total returns the sum of both dice.
func (d Dice) Total() int { return d[0] + d[1] }

// IsHard reports a pair on 4, 6, 8 or 10.
func (d Dice) IsHard() bool {
	t := d.Total()
	return d[0] == d[1] && (t == 4 || t == 6 || t == 8 || t == 10)
}

func (d Dice) String() string { return fmt.Sprintf("%d-%d", d[0], d[1]) }

// Wheel selects the roulette layout.
type Wheel int

const (
	European Wheel = iota // single zero, 37 pockets
	American              // 0 and 00, 38 pockets
)

func (w Wheel) String() string {
	if w == American {
		return "american"
	}
	return "european"
}

// Pockets returns the number of pockets on the wheel.
func (w Wheel) Pockets() int {
	if w == American {
		return 38
	}
	return 37
}

// Pocket is a roulette result. 0-36 are themselves, DoubleZero is 00.
type Pocket int

const DoubleZero Pocket = 37

func (p Pocket) String() string {
	if p == DoubleZero {
		return "00"
	}
	return fmt.Sprintf("%d", int(p))
}

// Shuffler produces every random outcome the tables consume. It keeps no
// state of its own beyond the entropy source.
type Shuffler interface {
	Shuffle(decks int) ([]Card, error)
	RollDice() (Dice, error)
	SpinWheel(w Wheel) (Pocket, error)
}

type sourceShuffler struct {
	src randutil.Source
}

// NewShuffler returns a Shuffler drawing from src.
func NewShuffler(src randutil.Source) Shuffler {
	return &sourceShuffler{src: src}
}

// Shuffle returns a Fisher-Yates shuffled shoe of decks*52 cards.
func (s *sourceShuffler) Shuffle(decks int) ([]Card, error) {
	if decks < 1 {
		return nil, fmt.Errorf("deck count must be positive, got %d", decks)
	}
	cards := make([]Card, 0, decks*52)
	for i := 0; i < decks; i++ {
		cards = append(cards, NewDeck()...)
	}
	for i := len(cards) - 1; i > 0; i-- {
		j, err := s.src.IntN(i + 1)
		if err != nil {
			return nil, err
		}
		cards[i], cards[j] = cards[j], cards[i]
	}
	return cards, nil
}

func (s *sourceShuffler) RollDice() (Dice, error) {
	var d Dice
	for i := range d {
		v, err := s.src.IntN(6)
		if err != nil {
			return Dice{}, err
		}
		d[i] = v + 1
	}
	return d, nil
}

func (s *sourceShuffler) SpinWheel(w Wheel) (Pocket, error) {
	v, err := s.src.IntN(w.Pockets())
	if err != nil {
		return 0, err
	}
	return Pocket(v), nil
}
