package evaluator

import "github.com/lox/tablegames/internal/deck"

// CrapsPhase is the pass line state of a craps table.
type CrapsPhase int

const (
	ComeOut CrapsPhase = iota
	PointOn
)

func (p CrapsPhase) String() string {
	if p == PointOn {
		return "point"
	}
	return "come_out"
}

// CrapsKind identifies a craps wager.
type CrapsKind string

const (
	PassLine CrapsKind = "pass_line"
	DontPass CrapsKind = "dont_pass"
	Field    CrapsKind = "field"
	AnySeven CrapsKind = "any_seven"
	AnyCraps CrapsKind = "any_craps"
	Yo       CrapsKind = "yo"
	Hardway  CrapsKind = "hardway" // selection is the hard number
)

// IsContract reports bets that may only be placed on the come-out roll.
func (k CrapsKind) IsContract() bool {
	return k == PassLine || k == DontPass
}

// RollInfo is per-roll metadata. It never feeds back into table state.
type RollInfo struct {
	Dice    deck.Dice `json:"dice"`
	Total   int       `json:"total"`
	Hard    bool      `json:"hard"`
	Yo      bool      `json:"yo"`
	Natural bool      `json:"natural"`
	Craps   bool      `json:"craps"`
}

// DescribeRoll derives the metadata flags for a roll.
func DescribeRoll(d deck.Dice) RollInfo {
	t := d.Total()
	return RollInfo{
		Dice:    d,
		Total:   t,
		Hard:    d.IsHard(),
		Yo:      t == 11,
		Natural: t == 7 || t == 11,
		Craps:   t == 2 || t == 3 || t == 12,
	}
}

// PointEvent is what a roll did to the pass line.
type PointEvent int

const (
	NoDecision PointEvent = iota
	ComeOutNatural
	ComeOutCraps
	PointEstablished
	PointMade
	SevenOut
)

func (e PointEvent) String() string {
	switch e {
	case ComeOutNatural:
		return "natural"
	case ComeOutCraps:
		return "craps"
	case PointEstablished:
		return "point_established"
	case PointMade:
		return "point_made"
	case SevenOut:
		return "seven_out"
	default:
		return "no_decision"
	}
}

// Ends reports whether the event closes the pass line round.
func (e PointEvent) Ends() bool {
	return e == ComeOutNatural || e == ComeOutCraps || e == PointMade || e == SevenOut
}

// AdvancePoint returns the pass line event for a roll and the phase and point
// that follow it.
func AdvancePoint(phase CrapsPhase, point int, d deck.Dice) (PointEvent, CrapsPhase, int) {
	t := d.Total()
	if phase == ComeOut {
		switch t {
		case 7, 11:
			return ComeOutNatural, ComeOut, 0
		case 2, 3, 12:
			return ComeOutCraps, ComeOut, 0
		default:
			return PointEstablished, PointOn, t
		}
	}
	switch t {
	case point:
		return PointMade, ComeOut, 0
	case 7:
		return SevenOut, ComeOut, 0
	default:
		return NoDecision, PointOn, point
	}
}

// ResolveCraps decides a bet against one roll made in the given phase.
// number is the hardway target and is ignored for other kinds. The second
// return value is the multiplier to apply on a win when it depends on the
// roll (field); it is zero when the paytable default applies.
func ResolveCraps(kind CrapsKind, number int, phase CrapsPhase, point int, d deck.Dice) (Resolution, int) {
	t := d.Total()
	event, _, _ := AdvancePoint(phase, point, d)

	switch kind {
	case PassLine:
		switch event {
		case ComeOutNatural, PointMade:
			return Win, 0
		case ComeOutCraps, SevenOut:
			return Lose, 0
		}
		return Unresolved, 0
	case DontPass:
		switch event {
		case ComeOutCraps:
			if t == 12 {
				return Push, 0
			}
			return Win, 0
		case SevenOut:
			return Win, 0
		case ComeOutNatural, PointMade:
			return Lose, 0
		}
		return Unresolved, 0
	case Field:
		switch t {
		case 2:
			return Win, 2
		case 12:
			return Win, 3
		case 3, 4, 9, 10, 11:
			return Win, 1
		}
		return Lose, 0
	case AnySeven:
		if t == 7 {
			return Win, 0
		}
		return Lose, 0
	case AnyCraps:
		if t == 2 || t == 3 || t == 12 {
			return Win, 0
		}
		return Lose, 0
	case Yo:
		if t == 11 {
			return Win, 0
		}
		return Lose, 0
	case Hardway:
		switch {
		case t == number && d.IsHard():
			return Win, 0
		case t == number || t == 7:
			return Lose, 0
		}
		return Unresolved, 0
	}
	return Unresolved, 0
}
