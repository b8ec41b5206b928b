package evaluator

import "github.com/lox/tablegames/internal/deck"

// ScoreBaccarat returns the sum of card values modulo ten.
func ScoreBaccarat(cards []deck.Card) int {
	sum := 0
	for _, c := range cards {
		sum += c.BaccaratValue()
	}
	return sum % 10
}

// IsBaccaratNatural reports an 8 or 9 on the first two cards.
func IsBaccaratNatural(cards []deck.Card) bool {
	return len(cards) == 2 && ScoreBaccarat(cards) >= 8
}

// PlayerDraws applies the player's third card rule. It assumes neither side
// holds a natural.
func PlayerDraws(playerScore int) bool {
	return playerScore <= 5
}

// BankerDraws applies the standard tableau. playerThird is nil when the
// player stood on two cards.
func BankerDraws(bankerScore int, playerThird *deck.Card) bool {
	if playerThird == nil {
		return bankerScore <= 5
	}
	third := playerThird.BaccaratValue()
	switch bankerScore {
	case 0, 1, 2:
		return true
	case 3:
		return third != 8
	case 4:
		return third >= 2 && third <= 7
	case 5:
		return third >= 4 && third <= 7
	case 6:
		return third == 6 || third == 7
	default:
		return false
	}
}

// BaccaratSide names the winning hand of a coup.
type BaccaratSide int

const (
	SidePlayer BaccaratSide = iota
	SideBanker
	SideTie
)

func (s BaccaratSide) String() string {
	switch s {
	case SidePlayer:
		return "player"
	case SideBanker:
		return "banker"
	default:
		return "tie"
	}
}

// BaccaratWinner compares final scores.
func BaccaratWinner(playerScore, bankerScore int) BaccaratSide {
	switch {
	case playerScore > bankerScore:
		return SidePlayer
	case bankerScore > playerScore:
		return SideBanker
	default:
		return SideTie
	}
}

// BaccaratCoup is a fully dealt pair of baccarat hands.
type BaccaratCoup struct {
	Player []deck.Card `json:"player"`
	Banker []deck.Card `json:"banker"`
}

// PlayerScore returns the final player score.
func (c BaccaratCoup) PlayerScore() int { return ScoreBaccarat(c.Player) }

// BankerScore returns the final banker score.
func (c BaccaratCoup) BankerScore() int { return ScoreBaccarat(c.Banker) }

// Winner returns the winning side.
func (c BaccaratCoup) Winner() BaccaratSide {
	return BaccaratWinner(c.PlayerScore(), c.BankerScore())
}

// PlayerPair reports a pair on the player's first two cards.
func (c BaccaratCoup) PlayerPair() bool { return IsPair(c.Player) }

// BankerPair reports a pair on the banker's first two cards.
func (c BaccaratCoup) BankerPair() bool { return IsPair(c.Banker) }
