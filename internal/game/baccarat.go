package game

import (
	"fmt"

	"github.com/lox/tablegames/internal/deck"
	"github.com/lox/tablegames/internal/evaluator"
	"github.com/lox/tablegames/internal/ledger"
	"github.com/lox/tablegames/internal/payout"
)

type baccaratMachine struct {
	base
	shoe *deck.Shoe
	coup evaluator.BaccaratCoup
}

func newBaccarat(b base) *baccaratMachine {
	m := &baccaratMachine{base: b}
	m.shoe = deck.NewShoe(b.rules.Shuffler, b.rules.Decks, b.rules.Penetration)
	m.cur = PhaseBetting
	return m
}

func (m *baccaratMachine) window() bool { return m.cur == PhaseBetting }

func (m *baccaratMachine) turn() string { return "" }

func (m *baccaratMachine) placeBet(p *Participant, spec BetSpec) (ledger.Bet, error) {
	if m.cur != PhaseBetting {
		return ledger.Bet{}, fmt.Errorf("%w: betting is closed", ErrInvalidActionForState)
	}
	mult, err := payout.BaccaratMultiplier(spec.Type, m.rules.BaccaratPays)
	if err != nil {
		return ledger.Bet{}, fmt.Errorf("%w: %v", ErrInvalidBet, err)
	}
	return m.stake(p, spec.Type, nil, spec.Amount, mult)
}

func (m *baccaratMachine) act(*Participant, Action, int) (*RoundResult, error) {
	return nil, fmt.Errorf("%w: baccarat takes no player actions", ErrActionNotPermitted)
}

func (m *baccaratMachine) closeBetting() (*RoundResult, error) {
	bets := m.openBets()
	if m.cur != PhaseBetting || len(bets) == 0 {
		return nil, nil
	}
	m.enter(PhaseDealing)
	if m.shoe.NeedsShuffle() {
		if err := m.shoe.Reshuffle(); err != nil {
			return m.abort(err), err
		}
	}
	m.coup = evaluator.BaccaratCoup{}
	for i := 0; i < 2; i++ {
		if err := m.deal(&m.coup.Player); err != nil {
			return m.abort(err), err
		}
		if err := m.deal(&m.coup.Banker); err != nil {
			return m.abort(err), err
		}
	}

	m.enter(PhaseDrawing)
	if !evaluator.IsBaccaratNatural(m.coup.Player) && !evaluator.IsBaccaratNatural(m.coup.Banker) {
		var third *deck.Card
		if evaluator.PlayerDraws(m.coup.PlayerScore()) {
			if err := m.deal(&m.coup.Player); err != nil {
				return m.abort(err), err
			}
			third = &m.coup.Player[2]
		}
		if evaluator.BankerDraws(m.coup.BankerScore(), third) {
			if err := m.deal(&m.coup.Banker); err != nil {
				return m.abort(err), err
			}
		}
	}

	m.enter(PhaseSettlement)
	records := make([]ledger.Settlement, 0, len(bets))
	for _, b := range bets {
		records = append(records, payout.Baccarat(b, m.coup, m.rules.BaccaratPays))
	}
	res, err := m.finish(records, Outcome{
		Player:      append([]deck.Card(nil), m.coup.Player...),
		Banker:      append([]deck.Card(nil), m.coup.Banker...),
		PlayerScore: m.coup.PlayerScore(),
		BankerScore: m.coup.BankerScore(),
		Winner:      m.coup.Winner().String(),
	})
	if err != nil {
		return m.abort(err), err
	}
	m.enter(PhaseBetting)
	return res, nil
}

func (m *baccaratMachine) deal(hand *[]deck.Card) error {
	c, err := m.shoe.Draw()
	if err != nil {
		return err
	}
	*hand = append(*hand, c)
	return nil
}

func (m *baccaratMachine) timeout() (*RoundResult, error) { return m.closeBetting() }

func (m *baccaratMachine) departed(*Participant) (*RoundResult, error) { return nil, nil }

func (m *baccaratMachine) abort(reason error) *RoundResult {
	res := m.void(reason, Outcome{Player: m.coup.Player, Banker: m.coup.Banker})
	m.coup = evaluator.BaccaratCoup{}
	m.enter(PhaseBetting)
	return res
}

func (m *baccaratMachine) view(s *Snapshot) {
	m.baseView(s)
	s.Baccarat = &BaccaratView{
		Player:   append([]deck.Card(nil), m.coup.Player...),
		Banker:   append([]deck.Card(nil), m.coup.Banker...),
		ShoeLeft: m.shoe.Remaining(),
	}
}
