// Package statistics summarises simulated rounds from the house's side.
package statistics

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/lox/tablegames/internal/game"
	"github.com/lox/tablegames/internal/ledger"
)

// TypeStats tracks money through one bet type.
type TypeStats struct {
	Bets    int
	Wagered decimal.Decimal
	Paid    decimal.Decimal
}

// Hold returns wagered minus paid.
func (ts TypeStats) Hold() decimal.Decimal {
	return ts.Wagered.Sub(ts.Paid)
}

// Statistics tracks the house result of a run of rounds
type Statistics struct {
	Rounds int
	Voided int
	Bets   int

	Wagered decimal.Decimal
	Paid    decimal.Decimal

	SumHold  float64
	SumHold2 float64   // Sum of squares for variance calculation
	Values   []float64 // Per-round hold for median/percentile calculation

	Results map[ledger.Result]int
	Types   map[ledger.BetType]*TypeStats
}

// Add incorporates a round. Voided rounds are counted but carry no hold.
func (s *Statistics) Add(res *game.RoundResult) {
	if s.Results == nil {
		s.Results = make(map[ledger.Result]int)
		s.Types = make(map[ledger.BetType]*TypeStats)
	}
	s.Rounds++
	if res.Voided {
		s.Voided++
	}

	for _, st := range res.Settled {
		s.Bets++
		s.Results[st.Result]++
		s.Wagered = s.Wagered.Add(st.Bet.Amount)
		s.Paid = s.Paid.Add(st.Payout)

		ts := s.Types[st.Bet.Type]
		if ts == nil {
			ts = &TypeStats{}
			s.Types[st.Bet.Type] = ts
		}
		ts.Bets++
		ts.Wagered = ts.Wagered.Add(st.Bet.Amount)
		ts.Paid = ts.Paid.Add(st.Payout)
	}

	hold := res.Hold().InexactFloat64()
	s.SumHold += hold
	s.SumHold2 += hold * hold
	s.Values = append(s.Values, hold)
}

// Hold returns everything wagered minus everything paid back.
func (s *Statistics) Hold() decimal.Decimal {
	return s.Wagered.Sub(s.Paid)
}

// HoldPercent returns the hold as a percentage of the amount wagered.
func (s *Statistics) HoldPercent() float64 {
	if s.Wagered.IsZero() {
		return 0
	}
	return s.Hold().Div(s.Wagered).InexactFloat64() * 100
}

// Mean returns the mean hold per round
func (s *Statistics) Mean() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return s.SumHold / float64(s.Rounds)
}

// Variance returns the sample variance of the per-round hold
func (s *Statistics) Variance() float64 {
	if s.Rounds < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumHold2 - float64(s.Rounds)*mean*mean) / float64(s.Rounds-1)
}

// StdDev returns the sample standard deviation of the per-round hold
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(math.Max(s.Variance(), 0))
}

// StdError returns the standard error of the mean
func (s *Statistics) StdError() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Rounds))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// Median returns the median per-round hold
func (s *Statistics) Median() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// Percentile returns the value at the given percentile (0.0 to 1.0)
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// TypeNames returns the bet types seen, sorted.
func (s *Statistics) TypeNames() []ledger.BetType {
	names := make([]ledger.BetType, 0, len(s.Types))
	for t := range s.Types {
		names = append(names, t)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Validate checks that the per-type and per-round figures add up to the
// totals.
func (s *Statistics) Validate() error {
	if s.Rounds <= 0 {
		return fmt.Errorf("invalid rounds count: %d", s.Rounds)
	}
	if len(s.Values) != s.Rounds {
		return fmt.Errorf("values array length (%d) does not match rounds count (%d)", len(s.Values), s.Rounds)
	}
	if s.Voided > s.Rounds {
		return fmt.Errorf("voided rounds (%d) exceed total rounds (%d)", s.Voided, s.Rounds)
	}

	bets := 0
	wagered, paid := decimal.Zero, decimal.Zero
	for _, ts := range s.Types {
		bets += ts.Bets
		wagered = wagered.Add(ts.Wagered)
		paid = paid.Add(ts.Paid)
	}
	if bets != s.Bets || !wagered.Equal(s.Wagered) || !paid.Equal(s.Paid) {
		return fmt.Errorf("ledger mismatch: types hold %s on %d bets, totals %s on %d bets",
			wagered.Sub(paid), bets, s.Hold(), s.Bets)
	}
	if math.Abs(s.SumHold-s.Hold().InexactFloat64()) > 1e-6*math.Max(1, math.Abs(s.SumHold)) {
		return fmt.Errorf("round holds sum to %.4f, totals hold %s", s.SumHold, s.Hold())
	}
	return nil
}
