package deck

import (
	"errors"
	"fmt"
)

// ErrShoeExhausted means a round tried to draw past the last card, which the
// cut card is meant to prevent.
var ErrShoeExhausted = errors.New("shoe exhausted")

// DefaultPenetration is the fraction of the shoe dealt before reshuffling.
const DefaultPenetration = 0.75

// Shoe is a multi-deck stack of cards dealt across rounds until the cut
// card is reached.
type Shoe struct {
	shuffler    Shuffler
	decks       int
	penetration float64
	cards       []Card
	next        int
}

// NewShoe creates an empty shoe; call Reshuffle before dealing.
func NewShoe(shuffler Shuffler, decks int, penetration float64) *Shoe {
	if penetration <= 0 || penetration > 1 {
		penetration = DefaultPenetration
	}
	return &Shoe{shuffler: shuffler, decks: decks, penetration: penetration}
}

// Reshuffle replaces the shoe with a freshly shuffled one.
func (s *Shoe) Reshuffle() error {
	cards, err := s.shuffler.Shuffle(s.decks)
	if err != nil {
		return fmt.Errorf("reshuffle shoe: %w", err)
	}
	s.cards = cards
	s.next = 0
	return nil
}

// NeedsShuffle reports whether the cut card has been passed.
func (s *Shoe) NeedsShuffle() bool {
	if len(s.cards) == 0 {
		return true
	}
	return float64(s.next) >= float64(len(s.cards))*s.penetration
}

// Draw removes and returns the top card.
func (s *Shoe) Draw() (Card, error) {
	if s.next >= len(s.cards) {
		return Card{}, ErrShoeExhausted
	}
	c := s.cards[s.next]
	s.next++
	return c, nil
}

// Remaining returns the number of undealt cards.
func (s *Shoe) Remaining() int {
	return len(s.cards) - s.next
}
