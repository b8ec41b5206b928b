package evaluator

import "github.com/lox/tablegames/internal/deck"

// BlackjackTotal is the derived score of a blackjack hand.
type BlackjackTotal struct {
	Value int
	// Soft is set when an ace is being counted as 11.
	Soft    bool
	Bust    bool
	Natural bool
}

// ScoreBlackjack totals cards, counting one ace as 11 whenever that does not
// bust the hand. The order of cards never changes the result.
func ScoreBlackjack(cards []deck.Card) BlackjackTotal {
	sum := 0
	aces := 0
	for _, c := range cards {
		sum += c.BlackjackValue()
		if c.IsAce() {
			aces++
		}
	}

	t := BlackjackTotal{Value: sum}
	if aces > 0 && sum+10 <= 21 {
		t.Value = sum + 10
		t.Soft = true
	}
	t.Bust = t.Value > 21
	t.Natural = len(cards) == 2 && t.Value == 21
	return t
}

// DealerShouldHit applies the house drawing rule: hit below 17, and on soft
// 17 only when hitSoft17 is set.
func DealerShouldHit(cards []deck.Card, hitSoft17 bool) bool {
	t := ScoreBlackjack(cards)
	if t.Value < 17 {
		return true
	}
	return t.Value == 17 && t.Soft && hitSoft17
}

// BlackjackOutcome compares a finished player hand with the dealer.
type BlackjackOutcome int

const (
	PlayerLoses BlackjackOutcome = iota
	PlayerWins
	PlayerNatural
	PlayerPushes
)

func (o BlackjackOutcome) String() string {
	switch o {
	case PlayerWins:
		return "win"
	case PlayerNatural:
		return "blackjack"
	case PlayerPushes:
		return "push"
	default:
		return "lose"
	}
}

// CompareBlackjack decides a player hand against the dealer. naturalEligible
// is false for hands created by a split, whose two-card 21 is an ordinary 21.
func CompareBlackjack(player []deck.Card, dealer []deck.Card, naturalEligible bool) BlackjackOutcome {
	p := ScoreBlackjack(player)
	d := ScoreBlackjack(dealer)
	playerNatural := p.Natural && naturalEligible

	switch {
	case p.Bust:
		return PlayerLoses
	case playerNatural && d.Natural:
		return PlayerPushes
	case playerNatural:
		return PlayerNatural
	case d.Natural:
		return PlayerLoses
	case d.Bust:
		return PlayerWins
	case p.Value > d.Value:
		return PlayerWins
	case p.Value == d.Value:
		return PlayerPushes
	default:
		return PlayerLoses
	}
}

// IsPair reports whether the first two cards share a rank.
func IsPair(cards []deck.Card) bool {
	return len(cards) >= 2 && cards[0].Rank == cards[1].Rank
}

// CanSplit reports whether a hand is a two-card pair of equal rank.
func CanSplit(cards []deck.Card) bool {
	return len(cards) == 2 && cards[0].Rank == cards[1].Rank
}
