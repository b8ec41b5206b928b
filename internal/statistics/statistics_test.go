package statistics

import (
	"math"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/lox/tablegames/internal/game"
	"github.com/lox/tablegames/internal/ledger"
)

func settle(typ ledger.BetType, amount, payout int64, result ledger.Result) ledger.Settlement {
	return ledger.Settlement{
		Bet:    ledger.Bet{Type: typ, Amount: decimal.NewFromInt(amount)},
		Result: result,
		Payout: decimal.NewFromInt(payout),
	}
}

// round builds a result whose hold is stake minus payout.
func round(stake, payout int64) *game.RoundResult {
	result := ledger.Lose
	if payout > stake {
		result = ledger.Win
	} else if payout == stake {
		result = ledger.Push
	}
	return &game.RoundResult{Settled: []ledger.Settlement{settle("main", stake, payout, result)}}
}

func TestStatistics_Empty(t *testing.T) {
	stats := &Statistics{}

	if stats.Mean() != 0 {
		t.Errorf("Expected mean of 0 for empty stats, got %f", stats.Mean())
	}
	if stats.Variance() != 0 {
		t.Errorf("Expected variance of 0 for empty stats, got %f", stats.Variance())
	}
	if stats.StdError() != 0 {
		t.Errorf("Expected stderr of 0 for empty stats, got %f", stats.StdError())
	}
	if stats.Median() != 0 {
		t.Errorf("Expected median of 0 for empty stats, got %f", stats.Median())
	}
	if stats.Percentile(0.5) != 0 {
		t.Errorf("Expected percentile of 0 for empty stats, got %f", stats.Percentile(0.5))
	}
	if stats.HoldPercent() != 0 {
		t.Errorf("Expected hold of 0 for empty stats, got %f", stats.HoldPercent())
	}
}

func TestStatistics_SingleRound(t *testing.T) {
	stats := &Statistics{}
	stats.Add(&game.RoundResult{Settled: []ledger.Settlement{
		settle("straight", 10, 0, ledger.Lose),
		settle("red", 20, 40, ledger.Win),
	}})

	if stats.Rounds != 1 || stats.Bets != 2 {
		t.Errorf("Expected 1 round with 2 bets, got %d rounds %d bets", stats.Rounds, stats.Bets)
	}
	if stats.Mean() != -10 {
		t.Errorf("Expected mean hold of -10, got %f", stats.Mean())
	}
	if stats.Variance() != 0 {
		t.Errorf("Expected variance of 0 for single value, got %f", stats.Variance())
	}
	if !stats.Wagered.Equal(decimal.NewFromInt(30)) || !stats.Paid.Equal(decimal.NewFromInt(40)) {
		t.Errorf("Expected 30 wagered and 40 paid, got %s and %s", stats.Wagered, stats.Paid)
	}
	if stats.Results[ledger.Win] != 1 || stats.Results[ledger.Lose] != 1 {
		t.Errorf("Unexpected results tally: %v", stats.Results)
	}
	if err := stats.Validate(); err != nil {
		t.Errorf("Expected valid stats, got %v", err)
	}
}

func TestStatistics_MultipleRounds(t *testing.T) {
	stats := &Statistics{}
	// Holds: 10, -10, 0, 10, 10
	for _, r := range []*game.RoundResult{round(10, 0), round(10, 20), round(10, 10), round(10, 0), round(10, 0)} {
		stats.Add(r)
	}

	if stats.Mean() != 4 {
		t.Errorf("Expected mean of 4, got %f", stats.Mean())
	}
	// Squared deviations 36+196+16+36+36 over 4
	if math.Abs(stats.Variance()-80) > 1e-9 {
		t.Errorf("Expected variance of 80, got %f", stats.Variance())
	}
	if stats.Median() != 10 {
		t.Errorf("Expected median of 10, got %f", stats.Median())
	}
	if !stats.Hold().Equal(decimal.NewFromInt(20)) {
		t.Errorf("Expected hold of 20, got %s", stats.Hold())
	}
	if math.Abs(stats.HoldPercent()-40) > 1e-9 {
		t.Errorf("Expected hold of 40%%, got %f", stats.HoldPercent())
	}
}

func TestStatistics_Percentiles(t *testing.T) {
	stats := &Statistics{}
	for i := int64(1); i <= 5; i++ {
		stats.Add(round(i, 0))
	}

	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{0.25, 2},
		{0.5, 3},
		{0.9, 4.6},
		{1, 5},
	}
	for _, tt := range tests {
		if got := stats.Percentile(tt.p); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Percentile(%v) = %f, want %f", tt.p, got, tt.want)
		}
	}
}

func TestStatistics_ConfidenceInterval(t *testing.T) {
	stats := &Statistics{}
	for _, stake := range []int64{2, 4, 6, 8} {
		stats.Add(round(stake, 0))
	}

	lower, upper := stats.ConfidenceInterval95()
	mean := stats.Mean()
	if lower >= mean || upper <= mean {
		t.Errorf("Expected mean %f inside CI [%f, %f]", mean, lower, upper)
	}
	if math.Abs((upper-mean)-(mean-lower)) > 1e-9 {
		t.Errorf("Expected symmetric CI, got [%f, %f]", lower, upper)
	}
}

func TestStatistics_TypeBreakdown(t *testing.T) {
	stats := &Statistics{}
	stats.Add(&game.RoundResult{Settled: []ledger.Settlement{
		settle("pass", 10, 20, ledger.Win),
		settle("field", 5, 0, ledger.Lose),
	}})
	stats.Add(&game.RoundResult{Settled: []ledger.Settlement{
		settle("pass", 10, 0, ledger.Lose),
	}})

	names := stats.TypeNames()
	if len(names) != 2 || names[0] != "field" || names[1] != "pass" {
		t.Fatalf("Expected sorted [field pass], got %v", names)
	}
	pass := stats.Types["pass"]
	if pass.Bets != 2 || !pass.Hold().IsZero() {
		t.Errorf("Expected pass to break even over 2 bets, got %d bets hold %s", pass.Bets, pass.Hold())
	}
	if !stats.Types["field"].Hold().Equal(decimal.NewFromInt(5)) {
		t.Errorf("Expected field hold of 5, got %s", stats.Types["field"].Hold())
	}
}

func TestStatistics_VoidedRounds(t *testing.T) {
	stats := &Statistics{}
	stats.Add(&game.RoundResult{Voided: true, Settled: []ledger.Settlement{
		settle("banker", 10, 10, ledger.Void),
	}})

	if stats.Voided != 1 {
		t.Errorf("Expected 1 voided round, got %d", stats.Voided)
	}
	if stats.Mean() != 0 {
		t.Errorf("Expected voided round to hold nothing, got %f", stats.Mean())
	}
	if err := stats.Validate(); err != nil {
		t.Errorf("Expected valid stats, got %v", err)
	}
}

func TestStatistics_Validate_InvalidRoundsCount(t *testing.T) {
	stats := &Statistics{}
	err := stats.Validate()
	if err == nil || !strings.Contains(err.Error(), "invalid rounds count") {
		t.Errorf("Expected invalid rounds error, got %v", err)
	}
}

func TestStatistics_Validate_ValuesMismatch(t *testing.T) {
	stats := &Statistics{}
	stats.Add(round(10, 0))
	stats.Values = append(stats.Values, 1)

	err := stats.Validate()
	if err == nil || !strings.Contains(err.Error(), "values array length") {
		t.Errorf("Expected values mismatch error, got %v", err)
	}
}

func TestStatistics_Validate_LedgerMismatch(t *testing.T) {
	stats := &Statistics{}
	stats.Add(round(10, 0))
	stats.Paid = stats.Paid.Add(decimal.NewFromInt(3))

	err := stats.Validate()
	if err == nil || !strings.Contains(err.Error(), "ledger mismatch") {
		t.Errorf("Expected ledger mismatch error, got %v", err)
	}
}

func TestStatistics_Validate_HoldMismatch(t *testing.T) {
	stats := &Statistics{}
	stats.Add(round(10, 0))
	stats.SumHold += 5

	err := stats.Validate()
	if err == nil || !strings.Contains(err.Error(), "round holds sum") {
		t.Errorf("Expected hold mismatch error, got %v", err)
	}
}
