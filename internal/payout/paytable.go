package payout

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/lox/tablegames/internal/evaluator"
	"github.com/lox/tablegames/internal/ledger"
)

// Blackjack bet types.
const (
	BlackjackMain ledger.BetType = "main"
	PerfectPairs  ledger.BetType = "perfect_pairs"
)

// Baccarat bet types.
const (
	BaccaratPlayer     ledger.BetType = "player"
	BaccaratBanker     ledger.BetType = "banker"
	BaccaratTie        ledger.BetType = "tie"
	BaccaratPlayerPair ledger.BetType = "player_pair"
	BaccaratBankerPair ledger.BetType = "banker_pair"
)

// BlackjackRules holds the blackjack paytable. Side bet odds are house
// defaults and are meant to be overridden per jurisdiction.
type BlackjackRules struct {
	BlackjackPays    decimal.Decimal
	PerfectPairsPays decimal.Decimal
}

// DefaultBlackjackRules pays 3:2 naturals and 11:1 pairs.
func DefaultBlackjackRules() BlackjackRules {
	return BlackjackRules{
		BlackjackPays:    decimal.NewFromFloat(1.5),
		PerfectPairsPays: decimal.NewFromInt(11),
	}
}

// BaccaratRules holds the baccarat paytable.
type BaccaratRules struct {
	Commission decimal.Decimal
	TiePays    decimal.Decimal
	PairPays   decimal.Decimal
}

// DefaultBaccaratRules charges 5% on banker wins and pays ties 8:1.
func DefaultBaccaratRules() BaccaratRules {
	return BaccaratRules{
		Commission: decimal.NewFromFloat(0.05),
		TiePays:    decimal.NewFromInt(8),
		PairPays:   decimal.NewFromInt(11),
	}
}

var rouletteOdds = map[evaluator.RouletteKind]int64{
	evaluator.Straight: 35,
	evaluator.Split:    17,
	evaluator.Street:   11,
	evaluator.Corner:   8,
	evaluator.SixLine:  5,
	evaluator.TopLine:  6,
	evaluator.Column:   2,
	evaluator.Dozen:    2,
	evaluator.Red:      1,
	evaluator.Black:    1,
	evaluator.Odd:      1,
	evaluator.Even:     1,
	evaluator.Low:      1,
	evaluator.High:     1,
}

// RouletteMultiplier returns the fixed odds of a roulette bet.
func RouletteMultiplier(kind evaluator.RouletteKind) (decimal.Decimal, error) {
	odds, ok := rouletteOdds[kind]
	if !ok {
		return decimal.Zero, fmt.Errorf("unknown roulette bet %q", kind)
	}
	return decimal.NewFromInt(odds), nil
}

// CrapsMultiplier returns the odds of a craps bet. Field is listed at its
// base 1:1; the roll decides when it pays more.
func CrapsMultiplier(kind evaluator.CrapsKind, number int) (decimal.Decimal, error) {
	switch kind {
	case evaluator.PassLine, evaluator.DontPass, evaluator.Field:
		return one, nil
	case evaluator.AnySeven:
		return decimal.NewFromInt(4), nil
	case evaluator.AnyCraps:
		return decimal.NewFromInt(7), nil
	case evaluator.Yo:
		return decimal.NewFromInt(15), nil
	case evaluator.Hardway:
		switch number {
		case 4, 10:
			return decimal.NewFromInt(7), nil
		case 6, 8:
			return decimal.NewFromInt(9), nil
		}
		return decimal.Zero, fmt.Errorf("no hardway on %d", number)
	}
	return decimal.Zero, fmt.Errorf("unknown craps bet %q", kind)
}

// BaccaratMultiplier returns the odds of a baccarat bet under rules.
func BaccaratMultiplier(t ledger.BetType, rules BaccaratRules) (decimal.Decimal, error) {
	switch t {
	case BaccaratPlayer, BaccaratBanker:
		return one, nil
	case BaccaratTie:
		return rules.TiePays, nil
	case BaccaratPlayerPair, BaccaratBankerPair:
		return rules.PairPays, nil
	}
	return decimal.Zero, fmt.Errorf("unknown baccarat bet %q", t)
}

// BlackjackMultiplier returns the base odds of a blackjack bet.
func BlackjackMultiplier(t ledger.BetType, rules BlackjackRules) (decimal.Decimal, error) {
	switch t {
	case BlackjackMain:
		return one, nil
	case PerfectPairs:
		return rules.PerfectPairsPays, nil
	}
	return decimal.Zero, fmt.Errorf("unknown blackjack bet %q", t)
}
