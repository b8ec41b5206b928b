// Package evaluator scores hands and outcomes for the table games.
//
// Everything here is a pure function of its inputs. Hand totals are always
// recomputed from the card sequence; nothing is cached between calls.
package evaluator

// Resolution is the fate of a wager against one outcome.
type Resolution int

const (
	// Unresolved means the outcome did not decide the bet (craps only).
	Unresolved Resolution = iota
	Win
	Lose
	Push
)

func (r Resolution) String() string {
	switch r {
	case Win:
		return "win"
	case Lose:
		return "lose"
	case Push:
		return "push"
	default:
		return "unresolved"
	}
}
