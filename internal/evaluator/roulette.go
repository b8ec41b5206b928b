package evaluator

import (
	"fmt"
	"slices"

	"github.com/lox/tablegames/internal/deck"
)

// RouletteKind identifies a roulette wager on the layout.
type RouletteKind string

const (
	Straight RouletteKind = "straight"
	Split    RouletteKind = "split"
	Street   RouletteKind = "street" // a row of three, or a trio with zero
	Corner   RouletteKind = "corner" // four numbers, or first four with zero
	SixLine  RouletteKind = "six_line"
	TopLine  RouletteKind = "top_line" // 0, 00, 1, 2, 3 on the american wheel
	Column   RouletteKind = "column"
	Dozen    RouletteKind = "dozen"
	Red      RouletteKind = "red"
	Black    RouletteKind = "black"
	Odd      RouletteKind = "odd"
	Even     RouletteKind = "even"
	Low      RouletteKind = "low"  // 1-18
	High     RouletteKind = "high" // 19-36
)

// Color is the colour of a roulette pocket.
type Color int

const (
	Green Color = iota
	RedColor
	BlackColor
)

func (c Color) String() string {
	switch c {
	case RedColor:
		return "red"
	case BlackColor:
		return "black"
	default:
		return "green"
	}
}

var redPockets = map[deck.Pocket]bool{
	1: true, 3: true, 5: true, 7: true, 9: true, 12: true, 14: true, 16: true, 18: true,
	19: true, 21: true, 23: true, 25: true, 27: true, 30: true, 32: true, 34: true, 36: true,
}

// PocketColor returns the colour of p.
func PocketColor(p deck.Pocket) Color {
	if isZero(p) {
		return Green
	}
	if redPockets[p] {
		return RedColor
	}
	return BlackColor
}

func isZero(p deck.Pocket) bool {
	return p == 0 || p == deck.DoubleZero
}

func onWheel(p deck.Pocket, w deck.Wheel) bool {
	return p >= 0 && int(p) < w.Pockets()
}

// ValidateRoulette checks that selection is a legal placement of kind on the
// wheel's layout. Outside bets on colours and halves take no selection;
// column and dozen take a single index 1-3.
func ValidateRoulette(kind RouletteKind, selection []deck.Pocket, w deck.Wheel) error {
	for _, p := range selection {
		if !onWheel(p, w) {
			return fmt.Errorf("pocket %s is not on the %s wheel", p, w)
		}
	}
	sorted := slices.Clone(selection)
	slices.Sort(sorted)
	if len(slices.Compact(slices.Clone(sorted))) != len(sorted) {
		return fmt.Errorf("%s selection repeats a number", kind)
	}

	switch kind {
	case Straight:
		if len(sorted) != 1 {
			return fmt.Errorf("straight takes one number, got %d", len(sorted))
		}
	case Split:
		if len(sorted) != 2 || !isSplit(sorted, w) {
			return fmt.Errorf("%v is not a split", selection)
		}
	case Street:
		if len(sorted) != 3 || !(isRow(sorted) || isTrio(sorted, w)) {
			return fmt.Errorf("%v is not a street", selection)
		}
	case Corner:
		if len(sorted) != 4 || !(isCorner(sorted) || (w == deck.European && slices.Equal(sorted, []deck.Pocket{0, 1, 2, 3}))) {
			return fmt.Errorf("%v is not a corner", selection)
		}
	case SixLine:
		if len(sorted) != 6 || !isSixLine(sorted) {
			return fmt.Errorf("%v is not a six line", selection)
		}
	case TopLine:
		if w != deck.American || !slices.Equal(sorted, []deck.Pocket{0, 1, 2, 3, deck.DoubleZero}) {
			return fmt.Errorf("top line is 0-00-1-2-3 on the american wheel")
		}
	case Column, Dozen:
		if len(selection) != 1 || selection[0] < 1 || selection[0] > 3 {
			return fmt.Errorf("%s takes a single index 1-3", kind)
		}
	case Red, Black, Odd, Even, Low, High:
		if len(selection) != 0 {
			return fmt.Errorf("%s takes no selection", kind)
		}
	default:
		return fmt.Errorf("unknown roulette bet %q", kind)
	}
	return nil
}

// CoversPocket reports whether a bet of kind on selection wins when the ball
// lands on p. Zero and double zero lose every outside bet.
func CoversPocket(kind RouletteKind, selection []deck.Pocket, p deck.Pocket) bool {
	switch kind {
	case Straight, Split, Street, Corner, SixLine, TopLine:
		return slices.Contains(selection, p)
	}
	if isZero(p) {
		return false
	}
	n := int(p)
	switch kind {
	case Column:
		return len(selection) == 1 && (n-1)%3+1 == int(selection[0])
	case Dozen:
		return len(selection) == 1 && (n-1)/12+1 == int(selection[0])
	case Red:
		return PocketColor(p) == RedColor
	case Black:
		return PocketColor(p) == BlackColor
	case Odd:
		return n%2 == 1
	case Even:
		return n%2 == 0
	case Low:
		return n <= 18
	case High:
		return n >= 19
	}
	return false
}

func row(p deck.Pocket) int { return (int(p) - 1) / 3 }

func isSplit(s []deck.Pocket, w deck.Wheel) bool {
	a, b := s[0], s[1]
	if isZero(a) || isZero(b) {
		pair := [2]deck.Pocket{a, b}
		zeroSplits := [][2]deck.Pocket{{0, 1}, {0, 2}, {0, 3}}
		if w == deck.American {
			zeroSplits = [][2]deck.Pocket{{0, 1}, {0, 2}, {2, deck.DoubleZero}, {3, deck.DoubleZero}, {0, deck.DoubleZero}}
		}
		return slices.Contains(zeroSplits, pair)
	}
	if b-a == 3 {
		return true
	}
	return b-a == 1 && row(a) == row(b)
}

func isRow(s []deck.Pocket) bool {
	return s[0] >= 1 && s[0]%3 == 1 && s[1] == s[0]+1 && s[2] == s[0]+2
}

func isTrio(s []deck.Pocket, w deck.Wheel) bool {
	if w == deck.American {
		return slices.Equal(s, []deck.Pocket{0, 1, 2}) ||
			slices.Equal(s, []deck.Pocket{2, 3, deck.DoubleZero})
	}
	return slices.Equal(s, []deck.Pocket{0, 1, 2}) || slices.Equal(s, []deck.Pocket{0, 2, 3})
}

func isCorner(s []deck.Pocket) bool {
	n := s[0]
	return n >= 1 && n%3 != 0 && n <= 32 &&
		s[1] == n+1 && s[2] == n+3 && s[3] == n+4
}

func isSixLine(s []deck.Pocket) bool {
	n := s[0]
	if n < 1 || n%3 != 1 || n > 31 {
		return false
	}
	for i, p := range s {
		if p != n+deck.Pocket(i) {
			return false
		}
	}
	return true
}
