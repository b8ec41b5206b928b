package game

import (
	"fmt"

	"github.com/lox/tablegames/internal/deck"
	"github.com/lox/tablegames/internal/evaluator"
	"github.com/lox/tablegames/internal/ledger"
	"github.com/lox/tablegames/internal/payout"
)

const rouletteHistory = 20

type rouletteMachine struct {
	base
	history [rouletteHistory]deck.Pocket
	spins   int
}

func newRoulette(b base) *rouletteMachine {
	m := &rouletteMachine{base: b}
	m.cur = PhaseBetting
	return m
}

func (m *rouletteMachine) window() bool { return m.cur == PhaseBetting }

func (m *rouletteMachine) turn() string { return "" }

func (m *rouletteMachine) placeBet(p *Participant, spec BetSpec) (ledger.Bet, error) {
	if m.cur != PhaseBetting {
		return ledger.Bet{}, fmt.Errorf("%w: betting is closed", ErrInvalidActionForState)
	}
	kind := evaluator.RouletteKind(spec.Type)
	mult, err := payout.RouletteMultiplier(kind)
	if err != nil {
		return ledger.Bet{}, fmt.Errorf("%w: %v", ErrInvalidBet, err)
	}
	sel := make([]deck.Pocket, len(spec.Selection))
	for i, n := range spec.Selection {
		sel[i] = deck.Pocket(n)
	}
	if err := evaluator.ValidateRoulette(kind, sel, m.rules.Wheel); err != nil {
		return ledger.Bet{}, fmt.Errorf("%w: %v", ErrInvalidBet, err)
	}
	return m.stake(p, spec.Type, spec.Selection, spec.Amount, mult)
}

func (m *rouletteMachine) act(*Participant, Action, int) (*RoundResult, error) {
	return nil, fmt.Errorf("%w: roulette takes no player actions", ErrActionNotPermitted)
}

func (m *rouletteMachine) closeBetting() (*RoundResult, error) {
	bets := m.openBets()
	if m.cur != PhaseBetting || len(bets) == 0 {
		return nil, nil
	}
	m.enter(PhaseSpinning)
	pocket, err := m.rules.Shuffler.SpinWheel(m.rules.Wheel)
	if err != nil {
		return m.abort(err), err
	}
	m.history[m.spins%rouletteHistory] = pocket
	m.spins++

	m.enter(PhaseSettlement)
	records := make([]ledger.Settlement, 0, len(bets))
	for _, b := range bets {
		records = append(records, payout.Roulette(b, pocket))
	}
	res, err := m.finish(records, Outcome{Pocket: &pocket, Color: evaluator.PocketColor(pocket).String()})
	if err != nil {
		return m.abort(err), err
	}
	m.enter(PhaseBetting)
	return res, nil
}

func (m *rouletteMachine) timeout() (*RoundResult, error) { return m.closeBetting() }

func (m *rouletteMachine) departed(*Participant) (*RoundResult, error) { return nil, nil }

func (m *rouletteMachine) abort(reason error) *RoundResult {
	res := m.void(reason, Outcome{})
	m.enter(PhaseBetting)
	return res
}

// recent returns up to the last 20 pockets, newest first.
func (m *rouletteMachine) recent() []deck.Pocket {
	n := min(m.spins, rouletteHistory)
	out := make([]deck.Pocket, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, m.history[(m.spins-i)%rouletteHistory])
	}
	return out
}

func (m *rouletteMachine) view(s *Snapshot) {
	m.baseView(s)
	v := &RouletteView{Wheel: m.rules.Wheel.String(), History: m.recent()}
	if len(v.History) > 0 {
		last := v.History[0]
		v.Last = &last
	}
	s.Roulette = v
}
