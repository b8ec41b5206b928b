package game

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/lox/tablegames/internal/deck"
	"github.com/lox/tablegames/internal/evaluator"
	"github.com/lox/tablegames/internal/ledger"
	"github.com/lox/tablegames/internal/payout"
)

type bjHand struct {
	owner       string
	betID       string
	cards       []deck.Card
	split       bool
	doubled     bool
	surrendered bool
	done        bool
	actions     int
}

func (h *bjHand) total() evaluator.BlackjackTotal {
	return evaluator.ScoreBlackjack(h.cards)
}

type blackjackMachine struct {
	base
	shoe     *deck.Shoe
	dealer   []deck.Card
	revealed bool
	hands    []*bjHand
	current  int
	moves    int
	mains    map[string]string // participant -> main bet id
	sides    map[string]string // participant -> perfect pairs bet id
	initial  map[string][]deck.Card
}

func newBlackjack(b base) *blackjackMachine {
	m := &blackjackMachine{base: b}
	m.shoe = deck.NewShoe(b.rules.Shuffler, b.rules.Decks, b.rules.Penetration)
	m.cur = PhaseBetting
	m.reset()
	return m
}

func (m *blackjackMachine) reset() {
	m.hands = nil
	m.dealer = nil
	m.revealed = false
	m.current = 0
	m.moves = 0
	m.mains = make(map[string]string)
	m.sides = make(map[string]string)
	m.initial = make(map[string][]deck.Card)
}

func (m *blackjackMachine) window() bool { return m.cur == PhaseBetting }

func (m *blackjackMachine) turn() string {
	if m.cur != PhasePlayerTurns {
		return ""
	}
	return fmt.Sprintf("%s/%d/%d", m.roundID, m.current, m.moves)
}

func (m *blackjackMachine) placeBet(p *Participant, spec BetSpec) (ledger.Bet, error) {
	if m.cur != PhaseBetting {
		return ledger.Bet{}, fmt.Errorf("%w: betting is closed", ErrInvalidActionForState)
	}
	mult, err := payout.BlackjackMultiplier(spec.Type, m.rules.BlackjackPays)
	if err != nil {
		return ledger.Bet{}, fmt.Errorf("%w: %v", ErrInvalidBet, err)
	}
	switch spec.Type {
	case payout.BlackjackMain:
		if _, ok := m.mains[p.ID]; ok {
			return ledger.Bet{}, fmt.Errorf("%w: one main bet per round", ErrActionNotPermitted)
		}
	case payout.PerfectPairs:
		if _, ok := m.mains[p.ID]; !ok {
			return ledger.Bet{}, fmt.Errorf("%w: perfect pairs needs a main bet", ErrActionNotPermitted)
		}
		if _, ok := m.sides[p.ID]; ok {
			return ledger.Bet{}, fmt.Errorf("%w: one perfect pairs bet per round", ErrActionNotPermitted)
		}
	}
	bet, err := m.stake(p, spec.Type, nil, spec.Amount, mult)
	if err != nil {
		return ledger.Bet{}, err
	}
	if spec.Type == payout.BlackjackMain {
		m.mains[p.ID] = bet.ID
	} else {
		m.sides[p.ID] = bet.ID
	}
	return bet, nil
}

// closeBetting deals the round. With no main bets the window simply
// reopens.
func (m *blackjackMachine) closeBetting() (*RoundResult, error) {
	if m.cur != PhaseBetting || len(m.mains) == 0 {
		return nil, nil
	}
	m.enter(PhaseDealing)
	if m.shoe.NeedsShuffle() {
		if err := m.shoe.Reshuffle(); err != nil {
			return m.abort(err), err
		}
	}

	for _, p := range m.roster.list {
		if id, ok := m.mains[p.ID]; ok {
			m.hands = append(m.hands, &bjHand{owner: p.ID, betID: id})
		}
	}
	for round := 0; round < 2; round++ {
		for _, h := range m.hands {
			c, err := m.shoe.Draw()
			if err != nil {
				return m.abort(err), err
			}
			h.cards = append(h.cards, c)
		}
		c, err := m.shoe.Draw()
		if err != nil {
			return m.abort(err), err
		}
		m.dealer = append(m.dealer, c)
	}
	for _, h := range m.hands {
		m.initial[h.owner] = append([]deck.Card(nil), h.cards...)
		if h.total().Natural {
			h.done = true
		}
	}

	if m.rules.DealerPeek && evaluator.ScoreBlackjack(m.dealer).Natural {
		m.enter(PhaseDealerTurn)
		m.revealed = true
		return m.settle()
	}
	m.current = -1
	return m.advance()
}

func (m *blackjackMachine) act(p *Participant, a Action, index int) (*RoundResult, error) {
	if m.cur != PhasePlayerTurns {
		return nil, fmt.Errorf("%w: no hand is in play", ErrInvalidActionForState)
	}
	h := m.hands[m.current]
	if h.owner != p.ID {
		return nil, fmt.Errorf("%w: not %s's turn", ErrInvalidActionForState, p.ID)
	}
	if index >= 0 && index != m.ordinal(m.current) {
		return nil, fmt.Errorf("%w: hand %d is not in play", ErrInvalidActionForState, index)
	}

	switch a {
	case Hit:
		if err := m.draw(h); err != nil {
			return m.abort(err), err
		}
		if t := h.total(); t.Bust || t.Value == 21 {
			h.done = true
		}
	case Stand:
		h.done = true
	case DoubleDown:
		if err := m.double(h); err != nil {
			return nil, err
		}
		if err := m.draw(h); err != nil {
			return m.abort(err), err
		}
		h.done = true
	case Split:
		twin, err := m.split(h)
		if err != nil {
			return nil, err
		}
		if err := m.dealSplit(h, twin); err != nil {
			return m.abort(err), err
		}
		// Both halves start fresh; split aces may already be done.
		m.moves++
		if !h.done {
			return nil, nil
		}
		return m.advance()
	case Surrender:
		if !m.rules.SurrenderAllowed || h.actions > 0 || h.split {
			return nil, fmt.Errorf("%w: surrender", ErrActionNotPermitted)
		}
		h.surrendered = true
		h.done = true
	default:
		return nil, fmt.Errorf("%w: %s at blackjack", ErrActionNotPermitted, a)
	}
	h.actions++
	m.moves++
	if !h.done {
		return nil, nil
	}
	return m.advance()
}

// ordinal is the position of hand i among its owner's hands.
func (m *blackjackMachine) ordinal(i int) int {
	n := 0
	for j := 0; j < i; j++ {
		if m.hands[j].owner == m.hands[i].owner {
			n++
		}
	}
	return n
}

func (m *blackjackMachine) draw(h *bjHand) error {
	c, err := m.shoe.Draw()
	if err != nil {
		return err
	}
	h.cards = append(h.cards, c)
	return nil
}

func (m *blackjackMachine) bet(id string) (ledger.Bet, bool) {
	for _, b := range m.openBets() {
		if b.ID == id {
			return b, true
		}
	}
	return ledger.Bet{}, false
}

func (m *blackjackMachine) double(h *bjHand) error {
	if h.actions > 0 || len(h.cards) != 2 {
		return fmt.Errorf("%w: double down only as the first action", ErrActionNotPermitted)
	}
	if h.split && !m.rules.DoubleAfterSplit {
		return fmt.Errorf("%w: no double after split", ErrActionNotPermitted)
	}
	b, ok := m.bet(h.betID)
	if !ok {
		return fmt.Errorf("hand bet %s not in escrow", h.betID)
	}
	if _, err := m.ledger.Raise(m.roundID, h.betID, b.Amount); err != nil {
		return fmt.Errorf("%w: %w", ErrActionNotPermitted, err)
	}
	h.doubled = true
	return nil
}

// split checks the pair and escrows the second hand's stake. Nothing is
// dealt yet.
func (m *blackjackMachine) split(h *bjHand) (*bjHand, error) {
	if h.actions > 0 || !evaluator.CanSplit(h.cards) {
		return nil, fmt.Errorf("%w: split needs an untouched pair", ErrActionNotPermitted)
	}
	splits := 0
	for _, o := range m.hands {
		if o.owner == h.owner {
			splits++
		}
	}
	if splits-1 >= m.rules.MaxSplits {
		return nil, fmt.Errorf("%w: at most %d splits", ErrActionNotPermitted, m.rules.MaxSplits)
	}
	orig, ok := m.bet(h.betID)
	if !ok {
		return nil, fmt.Errorf("hand bet %s not in escrow", h.betID)
	}
	p := m.roster.get(h.owner)
	if p == nil || !m.ledger.CanAfford(p.ID, orig.Amount) {
		return nil, fmt.Errorf("%w: %w", ErrActionNotPermitted, ledger.ErrInsufficientFunds)
	}
	// Both hands take a card.
	if m.shoe.Remaining() < 2 {
		return nil, deck.ErrShoeExhausted
	}
	bet, err := m.stake(p, payout.BlackjackMain, nil, orig.Amount, orig.Multiplier)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrActionNotPermitted, err)
	}
	return &bjHand{owner: h.owner, betID: bet.ID, cards: []deck.Card{h.cards[1]}, split: true}, nil
}

func (m *blackjackMachine) dealSplit(h, twin *bjHand) error {
	aces := h.cards[0].IsAce()
	h.cards = h.cards[:1]
	h.split = true

	m.hands = append(m.hands, nil)
	copy(m.hands[m.current+2:], m.hands[m.current+1:])
	m.hands[m.current+1] = twin

	for _, x := range []*bjHand{h, twin} {
		if err := m.draw(x); err != nil {
			return fmt.Errorf("deal split: %w", err)
		}
	}
	for _, x := range []*bjHand{h, twin} {
		if (aces && m.rules.SplitAcesOneCard) || x.total().Value == 21 {
			x.done = true
		}
	}
	return nil
}

// advance moves the turn to the next live hand, auto-standing hands whose
// owner has left, and plays the dealer once none remain.
func (m *blackjackMachine) advance() (*RoundResult, error) {
	for m.current+1 < len(m.hands) {
		m.current++
		h := m.hands[m.current]
		if h.done {
			continue
		}
		if p := m.roster.get(h.owner); p == nil || !p.Active {
			h.done = true
			continue
		}
		m.enter(PhasePlayerTurns)
		return nil, nil
	}
	return m.playDealer()
}

func (m *blackjackMachine) playDealer() (*RoundResult, error) {
	m.enter(PhaseDealerTurn)
	m.revealed = true
	live := false
	for _, h := range m.hands {
		t := h.total()
		if !h.surrendered && !t.Bust && !(t.Natural && !h.split) {
			live = true
			break
		}
	}
	for live && evaluator.DealerShouldHit(m.dealer, m.rules.DealerHitsSoft17) {
		c, err := m.shoe.Draw()
		if err != nil {
			return m.abort(err), err
		}
		m.dealer = append(m.dealer, c)
	}
	return m.settle()
}

func (m *blackjackMachine) settle() (*RoundResult, error) {
	m.enter(PhaseSettlement)
	open := make(map[string]ledger.Bet)
	for _, b := range m.openBets() {
		open[b.ID] = b
	}

	var records []ledger.Settlement
	outcome := Outcome{Dealer: append([]deck.Card(nil), m.dealer...)}
	for _, h := range m.hands {
		b := open[h.betID]
		var s ledger.Settlement
		if h.surrendered {
			s = payout.Surrender(b)
		} else {
			s = payout.Blackjack(b, evaluator.CompareBlackjack(h.cards, m.dealer, !h.split), m.rules.BlackjackPays)
		}
		records = append(records, s)
		outcome.Hands = append(outcome.Hands, HandOutcome{
			ParticipantID: h.owner,
			Cards:         append([]deck.Card(nil), h.cards...),
			Total:         h.total().Value,
			Result:        string(s.Result),
		})
	}
	// Side bets settle in seat order, after the hands.
	for _, p := range m.roster.list {
		if id, ok := m.sides[p.ID]; ok {
			records = append(records, payout.BlackjackPairs(open[id], m.initial[p.ID]))
		}
	}

	res, err := m.finish(records, outcome)
	if err != nil {
		return m.abort(err), err
	}
	m.reset()
	m.enter(PhaseBetting)
	return res, nil
}

func (m *blackjackMachine) timeout() (*RoundResult, error) {
	switch m.cur {
	case PhaseBetting:
		return m.closeBetting()
	case PhasePlayerTurns:
		m.logger.Info("Turn timed out, standing", "participant", m.hands[m.current].owner)
		m.hands[m.current].done = true
		return m.advance()
	}
	return nil, nil
}

func (m *blackjackMachine) departed(p *Participant) (*RoundResult, error) {
	if m.cur == PhasePlayerTurns && m.hands[m.current].owner == p.ID {
		m.hands[m.current].done = true
		return m.advance()
	}
	return nil, nil
}

func (m *blackjackMachine) abort(reason error) *RoundResult {
	res := m.void(reason, Outcome{Dealer: append([]deck.Card(nil), m.dealer...)})
	m.reset()
	m.enter(PhaseBetting)
	return res
}

func (m *blackjackMachine) view(s *Snapshot) {
	m.baseView(s)
	v := &BlackjackView{ShoeLeft: m.shoe.Remaining(), TurnHand: -1}
	switch {
	case m.revealed || len(m.dealer) < 2:
		v.Dealer = append([]deck.Card(nil), m.dealer...)
	default:
		v.Dealer = []deck.Card{m.dealer[0]}
		v.HoleHidden = true
	}
	stakes := make(map[string]decimal.Decimal)
	for _, b := range s.Bets {
		stakes[b.ID] = b.Amount
	}
	for i, h := range m.hands {
		t := h.total()
		v.Hands = append(v.Hands, HandView{
			ParticipantID: h.owner,
			Index:         m.ordinal(i),
			Cards:         append([]deck.Card(nil), h.cards...),
			Total:         t.Value,
			Soft:          t.Soft,
			Bust:          t.Bust,
			Natural:       t.Natural && !h.split,
			Stake:         stakes[h.betID],
			Doubled:       h.doubled,
			Surrendered:   h.surrendered,
			Done:          h.done,
		})
	}
	if m.cur == PhasePlayerTurns {
		v.Turn = m.hands[m.current].owner
		v.TurnHand = m.ordinal(m.current)
	}
	s.Blackjack = v
}
