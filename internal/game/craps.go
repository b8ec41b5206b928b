package game

import (
	"fmt"

	"github.com/lox/tablegames/internal/deck"
	"github.com/lox/tablegames/internal/evaluator"
	"github.com/lox/tablegames/internal/ledger"
	"github.com/lox/tablegames/internal/payout"
)

const houseShooter = "house"

type crapsMachine struct {
	base
	point   int
	shooter string
	rolls   []deck.Dice
	last    *evaluator.RollInfo
	total   int
}

func newCraps(b base) *crapsMachine {
	m := &crapsMachine{base: b}
	m.cur = PhaseComeOut
	return m
}

func (m *crapsMachine) crapsPhase() evaluator.CrapsPhase {
	if m.cur == PhasePoint {
		return evaluator.PointOn
	}
	return evaluator.ComeOut
}

// Craps has no betting window; the shooter's clock runs while bets work.
func (m *crapsMachine) window() bool { return false }

// turn puts the house on the clock when bets are working and nobody is left
// to shoot.
func (m *crapsMachine) turn() string {
	if len(m.openBets()) == 0 {
		return ""
	}
	shooter := houseShooter
	if p := m.shooterSeat(); p != nil {
		shooter = p.ID
	}
	return fmt.Sprintf("%s/%s/%d", m.roundID, shooter, len(m.rolls))
}

// shooterSeat fixes the shooter up against the roster and returns it.
func (m *crapsMachine) shooterSeat() *Participant {
	if p := m.roster.get(m.shooter); p != nil && p.Active {
		return p
	}
	next := m.roster.after(m.shooter)
	if next == nil {
		m.shooter = ""
		return nil
	}
	m.shooter = next.ID
	return next
}

func (m *crapsMachine) placeBet(p *Participant, spec BetSpec) (ledger.Bet, error) {
	kind := evaluator.CrapsKind(spec.Type)
	if kind.IsContract() && m.cur != PhaseComeOut {
		return ledger.Bet{}, fmt.Errorf("%w: %s only on the come out", ErrInvalidActionForState, kind)
	}
	number := 0
	if kind == evaluator.Hardway {
		if len(spec.Selection) != 1 {
			return ledger.Bet{}, fmt.Errorf("%w: hardway takes one number", ErrInvalidBet)
		}
		number = spec.Selection[0]
	} else if len(spec.Selection) != 0 {
		return ledger.Bet{}, fmt.Errorf("%w: %s takes no selection", ErrInvalidBet, kind)
	}
	mult, err := payout.CrapsMultiplier(kind, number)
	if err != nil {
		return ledger.Bet{}, fmt.Errorf("%w: %v", ErrInvalidBet, err)
	}
	return m.stake(p, spec.Type, spec.Selection, spec.Amount, mult)
}

func (m *crapsMachine) act(p *Participant, a Action, _ int) (*RoundResult, error) {
	if a != Roll {
		return nil, fmt.Errorf("%w: %s at craps", ErrActionNotPermitted, a)
	}
	if s := m.shooterSeat(); s == nil || s.ID != p.ID {
		return nil, fmt.Errorf("%w: %s is not the shooter", ErrInvalidActionForState, p.ID)
	}
	return m.roll()
}

func (m *crapsMachine) roll() (*RoundResult, error) {
	if err := m.ensureRound(); err != nil {
		return nil, err
	}
	dice, err := m.rules.Shuffler.RollDice()
	if err != nil {
		return m.abort(err), err
	}
	info := evaluator.DescribeRoll(dice)
	m.last = &info
	m.rolls = append(m.rolls, dice)
	m.total++

	phase := m.crapsPhase()
	var resolved, working []ledger.Settlement
	for _, b := range m.openBets() {
		if s, ok := payout.Craps(b, phase, m.point, dice); ok {
			resolved = append(resolved, s)
		} else {
			working = append(working, payout.Push(b))
		}
	}

	event, next, point := evaluator.AdvancePoint(phase, m.point, dice)
	shooter := m.shooter
	if shooter == "" {
		shooter = houseShooter
	}
	m.logger.Info("Dice rolled", "shooter", shooter, "dice", dice, "event", event)
	if m.onRoll != nil {
		m.onRoll(info)
	}
	if !event.Ends() {
		if err := m.apply(resolved); err != nil {
			return m.abort(err), err
		}
		m.point = point
		if next == evaluator.PointOn {
			m.enter(PhasePoint)
		}
		return nil, nil
	}

	// Bets still working when the decision lands are returned.
	outcome := Outcome{Rolls: m.rolls, Point: m.point, Decision: event.String()}
	res, err := m.finish(append(resolved, working...), outcome)
	if err != nil {
		return m.abort(err), err
	}
	if event == evaluator.SevenOut {
		m.rotate()
	}
	m.point = 0
	m.rolls = nil
	m.enter(PhaseComeOut)
	return res, nil
}

func (m *crapsMachine) rotate() {
	next := m.roster.after(m.shooter)
	if next == nil || next.ID == m.shooter {
		return
	}
	m.logger.Info("Dice pass", "from", m.shooter, "to", next.ID)
	m.shooter = next.ID
	m.announce(fmt.Sprintf("Dice pass to %s", next.ID))
}

func (m *crapsMachine) closeBetting() (*RoundResult, error) { return nil, nil }

// timeout rolls for a shooter who let the clock run out, or for the house
// when bets are working with no shooter seated.
func (m *crapsMachine) timeout() (*RoundResult, error) {
	if len(m.openBets()) == 0 {
		return nil, nil
	}
	if m.shooterSeat() == nil {
		m.logger.Info("No shooter, house rolls", "round", m.roundID)
	} else {
		m.logger.Info("Shooter timed out, rolling", "shooter", m.shooter)
	}
	return m.roll()
}

func (m *crapsMachine) departed(p *Participant) (*RoundResult, error) {
	if m.shooter == p.ID {
		m.rotate()
		if m.shooter == p.ID {
			m.shooter = ""
		}
	}
	return nil, nil
}

func (m *crapsMachine) abort(reason error) *RoundResult {
	res := m.void(reason, Outcome{Rolls: m.rolls, Point: m.point})
	m.point = 0
	m.rolls = nil
	m.enter(PhaseComeOut)
	return res
}

func (m *crapsMachine) view(s *Snapshot) {
	m.baseView(s)
	m.shooterSeat()
	s.Craps = &CrapsView{
		Shooter:  m.shooter,
		Point:    m.point,
		LastRoll: m.last,
		Rolls:    m.total,
	}
}
