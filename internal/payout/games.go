package payout

import (
	"github.com/shopspring/decimal"

	"github.com/lox/tablegames/internal/deck"
	"github.com/lox/tablegames/internal/evaluator"
	"github.com/lox/tablegames/internal/ledger"
)

// Blackjack settles a main bet for a finished hand. Surrenders are settled
// with Surrender before the dealer plays.
func Blackjack(b ledger.Bet, outcome evaluator.BlackjackOutcome, rules BlackjackRules) ledger.Settlement {
	switch outcome {
	case evaluator.PlayerNatural:
		return Win(b, rules.BlackjackPays)
	case evaluator.PlayerWins:
		return Win(b, b.Multiplier)
	case evaluator.PlayerPushes:
		return Push(b)
	default:
		return Lose(b)
	}
}

// BlackjackPairs settles a perfect pairs side bet on the first two cards.
func BlackjackPairs(b ledger.Bet, cards []deck.Card) ledger.Settlement {
	if evaluator.IsPair(cards) {
		return Win(b, b.Multiplier)
	}
	return Lose(b)
}

// Roulette settles a roulette bet against the winning pocket.
func Roulette(b ledger.Bet, pocket deck.Pocket) ledger.Settlement {
	sel := make([]deck.Pocket, len(b.Selection))
	for i, n := range b.Selection {
		sel[i] = deck.Pocket(n)
	}
	if evaluator.CoversPocket(evaluator.RouletteKind(b.Type), sel, pocket) {
		return Win(b, b.Multiplier)
	}
	return Lose(b)
}

// Baccarat settles a baccarat bet against a finished coup.
func Baccarat(b ledger.Bet, coup evaluator.BaccaratCoup, rules BaccaratRules) ledger.Settlement {
	winner := coup.Winner()
	switch b.Type {
	case BaccaratPlayer:
		switch winner {
		case evaluator.SidePlayer:
			return Win(b, b.Multiplier)
		case evaluator.SideTie:
			return Push(b)
		}
		return Lose(b)
	case BaccaratBanker:
		switch winner {
		case evaluator.SideBanker:
			return WithCommission(b, rules.Commission)
		case evaluator.SideTie:
			return Push(b)
		}
		return Lose(b)
	case BaccaratTie:
		if winner == evaluator.SideTie {
			return Win(b, b.Multiplier)
		}
		return Lose(b)
	case BaccaratPlayerPair:
		if coup.PlayerPair() {
			return Win(b, b.Multiplier)
		}
		return Lose(b)
	case BaccaratBankerPair:
		if coup.BankerPair() {
			return Win(b, b.Multiplier)
		}
		return Lose(b)
	}
	return Void(b)
}

// Craps settles a craps bet against one roll. It reports false when the
// roll leaves the bet working.
func Craps(b ledger.Bet, phase evaluator.CrapsPhase, point int, dice deck.Dice) (ledger.Settlement, bool) {
	number := 0
	if len(b.Selection) > 0 {
		number = b.Selection[0]
	}
	res, rollOdds := evaluator.ResolveCraps(evaluator.CrapsKind(b.Type), number, phase, point, dice)
	if res == evaluator.Win && rollOdds > 0 {
		return Win(b, decimal.NewFromInt(int64(rollOdds))), true
	}
	return Resolve(b, res)
}
