// Package simulator plays scripted bettors against live tables to measure
// the house hold of each game and to check that no money is created or lost.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/lox/tablegames/internal/deck"
	"github.com/lox/tablegames/internal/game"
	"github.com/lox/tablegames/internal/ledger"
	"github.com/lox/tablegames/internal/payout"
	"github.com/lox/tablegames/internal/randutil"
	"github.com/lox/tablegames/internal/statistics"
)

// Defaults applied to a zero Config.
const (
	DefaultRounds  = 100
	DefaultBettors = 3
	DefaultPace    = 2 * time.Millisecond
	DefaultTimeout = 2 * time.Minute
)

// ErrConservation reports money appearing or vanishing at a table.
var ErrConservation = errors.New("ledger conservation violated")

// Config holds configuration for running simulations
type Config struct {
	Kinds   []game.Kind
	Rounds  int
	Bettors int
	Seed    int64
	BuyIn   decimal.Decimal
	Stake   decimal.Decimal
	// Pace is the betting window; players get four times as long to act.
	Pace    time.Duration
	Timeout time.Duration
	Clock   quartz.Clock
	Logger  *log.Logger
}

// Report is the outcome of one simulated table.
type Report struct {
	Kind      game.Kind
	TableID   string
	Stats     *statistics.Statistics
	Deposits  decimal.Decimal
	CashedOut decimal.Decimal
	HouseNet  decimal.Decimal
	Elapsed   time.Duration
}

// Simulator runs one table per kind concurrently.
type Simulator struct {
	config Config
}

// New creates a new simulator with the given configuration
func New(config Config) *Simulator {
	if len(config.Kinds) == 0 {
		config.Kinds = game.Kinds
	}
	if config.Rounds <= 0 {
		config.Rounds = DefaultRounds
	}
	if config.Bettors <= 0 {
		config.Bettors = DefaultBettors
	}
	if config.Stake.IsZero() {
		config.Stake = decimal.NewFromInt(10)
	}
	if config.BuyIn.IsZero() {
		config.BuyIn = config.Stake.Mul(decimal.NewFromInt(int64(config.Rounds) * 4))
	}
	if config.Pace <= 0 {
		config.Pace = DefaultPace
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Clock == nil {
		config.Clock = quartz.NewReal()
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}
	return &Simulator{config: config}
}

// Run plays every configured table to completion. Reports are returned in
// the order of Config.Kinds.
func (s *Simulator) Run(ctx context.Context) ([]*Report, error) {
	for _, kind := range s.config.Kinds {
		if !kind.Valid() {
			return nil, fmt.Errorf("unknown game kind %q", kind)
		}
	}

	reports := make([]*Report, len(s.config.Kinds))
	g, ctx := errgroup.WithContext(ctx)
	for i, kind := range s.config.Kinds {
		g.Go(func() error {
			r, err := s.runTable(ctx, kind, s.config.Seed+int64(i))
			if err != nil {
				return fmt.Errorf("%s: %w", kind, err)
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// tally is the table's sink. It runs on the table loop, where the ledger is
// quiescent, so conservation can be checked exactly.
type tally struct {
	mu        sync.Mutex
	stats     statistics.Statistics
	cashedOut decimal.Decimal
	target    int
	deposits  decimal.Decimal
	table     atomic.Pointer[game.Table]
	violation error
	settled   chan struct{}
}

func (ty *tally) Publish(e game.Event) {
	switch e.Type {
	case game.EventRoundResult:
		ty.mu.Lock()
		if ty.stats.Rounds < ty.target {
			ty.stats.Add(e.Result)
		}
		ty.checkLocked()
		ty.mu.Unlock()
		select {
		case ty.settled <- struct{}{}:
		default:
		}
	case game.EventCashOut:
		ty.mu.Lock()
		ty.cashedOut = ty.cashedOut.Add(e.CashOut.Amount)
		ty.mu.Unlock()
	}
}

func (ty *tally) checkLocked() {
	t := ty.table.Load()
	if t == nil || ty.violation != nil {
		return
	}
	l := t.Ledger()
	got := l.Total().Add(l.HouseNet()).Add(ty.cashedOut)
	if !got.Equal(ty.deposits) {
		ty.violation = fmt.Errorf("%w: holdings %s, deposits %s", ErrConservation, got, ty.deposits)
	}
}

func (ty *tally) rounds() int {
	ty.mu.Lock()
	defer ty.mu.Unlock()
	return ty.stats.Rounds
}

func (s *Simulator) runTable(ctx context.Context, kind game.Kind, seed int64) (*Report, error) {
	start := s.config.Clock.Now()
	id := fmt.Sprintf("sim-%s", kind)
	logger := s.config.Logger.WithPrefix("simulator").With("table", id)

	ty := &tally{
		target:   s.config.Rounds,
		deposits: s.config.BuyIn.Mul(decimal.NewFromInt(int64(s.config.Bettors))),
		settled:  make(chan struct{}, 1),
	}

	rules := game.DefaultRules(kind)
	rules.Shuffler = deck.NewShuffler(randutil.Seeded(seed))
	rules.BettingWindow = s.config.Pace
	rules.TimeToAct = 4 * s.config.Pace
	table, err := game.NewTable(game.Config{
		ID:     id,
		Kind:   kind,
		Stakes: game.Stakes{Min: s.config.Stake, Max: s.config.Stake.Mul(decimal.NewFromInt(10))},
		Seats:  max(s.config.Bettors, 1),
		Rules:  rules,
		Clock:  s.config.Clock,
		Logger: s.config.Logger,
		Sink:   ty,
	})
	if err != nil {
		return nil, err
	}
	ty.table.Store(table)

	bettors := make([]string, s.config.Bettors)
	for i := range bettors {
		bettors[i] = fmt.Sprintf("bettor-%d", i+1)
		if _, err := table.Join(ctx, game.Participant{ID: bettors[i], DisplayName: bettors[i], Balance: s.config.BuyIn}); err != nil {
			_ = table.Close(context.Background())
			return nil, fmt.Errorf("join %s: %w", bettors[i], err)
		}
	}

	d := &driver{table: table, kind: kind, bettors: bettors, stake: s.config.Stake, logger: logger}
	runErr := s.drive(ctx, d, ty)

	if err := table.Close(context.Background()); err != nil && !errors.Is(err, game.ErrTableClosed) {
		logger.Error("Failed to close table", "error", err)
	}
	if runErr != nil {
		return nil, runErr
	}

	ty.mu.Lock()
	defer ty.mu.Unlock()
	ty.checkLocked()
	if ty.violation != nil {
		return nil, ty.violation
	}
	if ty.stats.Rounds > 0 {
		if err := ty.stats.Validate(); err != nil {
			return nil, fmt.Errorf("statistics validation failed: %w", err)
		}
	}
	stats := ty.stats

	logger.Info("Simulation finished", "rounds", stats.Rounds, "hold", stats.Hold())
	return &Report{
		Kind:      kind,
		TableID:   id,
		Stats:     &stats,
		Deposits:  ty.deposits,
		CashedOut: ty.cashedOut,
		HouseNet:  table.Ledger().HouseNet(),
		Elapsed:   s.config.Clock.Since(start),
	}, nil
}

// drive steps the bettors until enough rounds settle, every bettor is broke
// or the timeout passes.
func (s *Simulator) drive(ctx context.Context, d *driver, ty *tally) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	ticker := s.config.Clock.NewTicker(s.config.Pace/2+time.Millisecond, "simulator", "poll")
	defer ticker.Stop()

	for {
		if ty.rounds() >= s.config.Rounds {
			return nil
		}
		ty.mu.Lock()
		violation := ty.violation
		ty.mu.Unlock()
		if violation != nil {
			return violation
		}

		snap := d.table.Snapshot()
		if d.broke(snap) && len(snap.Bets) == 0 {
			d.logger.Warn("Every bettor is broke, stopping early", "rounds", ty.rounds())
			return nil
		}
		if err := d.step(ctx, snap); err != nil {
			// A step cut short by the deadline is a timeout, not a table fault.
			if ctx.Err() != nil {
				return s.timedOut(ctx, ty)
			}
			return err
		}

		select {
		case <-ty.settled:
			d.placed = false
		case <-ticker.C:
		case <-ctx.Done():
			return s.timedOut(ctx, ty)
		}
	}
}

func (s *Simulator) timedOut(ctx context.Context, ty *tally) error {
	return fmt.Errorf("timed out after %d of %d rounds: %w", ty.rounds(), s.config.Rounds, ctx.Err())
}

// driver plays a fixed strategy for each bettor.
type driver struct {
	table   *game.Table
	kind    game.Kind
	bettors []string
	stake   decimal.Decimal
	logger  *log.Logger
	placed  bool // bets are down for the current round
	count   int
}

func (d *driver) broke(snap *game.Snapshot) bool {
	for _, p := range snap.Participants {
		if p.Balance.GreaterThanOrEqual(d.stake) {
			return false
		}
	}
	return true
}

func (d *driver) step(ctx context.Context, snap *game.Snapshot) error {
	switch {
	case d.bettingOpen(snap) && !d.placed:
		d.count++
		for i, id := range d.bettors {
			for _, spec := range d.bets(i) {
				if _, err := d.table.PlaceBet(ctx, id, spec); err != nil && !ignorable(err) {
					return fmt.Errorf("place bet for %s: %w", id, err)
				}
			}
		}
		d.placed = true
	case d.kind == game.Craps && snap.Craps != nil && snap.Craps.Shooter != "" && len(snap.Bets) > 0:
		if err := d.table.Act(ctx, snap.Craps.Shooter, game.Roll, 0); err != nil && !ignorable(err) {
			return fmt.Errorf("roll: %w", err)
		}
	case d.kind == game.Blackjack && snap.Phase == game.PhasePlayerTurns && snap.Blackjack.Turn != "":
		bj := snap.Blackjack
		action := blackjackAction(bj)
		err := d.table.Act(ctx, bj.Turn, action, bj.TurnHand)
		if err != nil && action == game.DoubleDown {
			action = game.Hit
			err = d.table.Act(ctx, bj.Turn, action, bj.TurnHand)
		}
		if err != nil && !ignorable(err) {
			return fmt.Errorf("%s for %s: %w", action, bj.Turn, err)
		}
	}
	return nil
}

func (d *driver) bettingOpen(snap *game.Snapshot) bool {
	switch d.kind {
	case game.Craps:
		return snap.Phase == game.PhaseComeOut && len(snap.Bets) == 0
	default:
		return snap.Phase == game.PhaseBetting
	}
}

// bets returns the wagers bettor i makes this round. Each bettor keeps to
// one line so the report shows every bet type the table offers.
func (d *driver) bets(i int) []game.BetSpec {
	bet := func(t ledger.BetType, sel ...int) game.BetSpec {
		return game.BetSpec{Type: t, Selection: sel, Amount: d.stake}
	}
	switch d.kind {
	case game.Roulette:
		lines := [][]game.BetSpec{
			{bet("red")},
			{bet("straight", 1+(d.count*7)%36)},
			{bet("dozen", 1+d.count%3), bet("odd")},
		}
		return lines[i%len(lines)]
	case game.Baccarat:
		lines := [][]game.BetSpec{
			{bet(payout.BaccaratBanker)},
			{bet(payout.BaccaratPlayer)},
			{bet(payout.BaccaratTie)},
		}
		return lines[i%len(lines)]
	case game.Craps:
		lines := [][]game.BetSpec{
			{bet("pass_line")},
			{bet("dont_pass")},
			{bet("pass_line"), bet("field")},
		}
		return lines[i%len(lines)]
	default:
		return []game.BetSpec{bet(payout.BlackjackMain)}
	}
}

// blackjackAction doubles on hard 10 and 11, otherwise hits below 17.
func blackjackAction(bj *game.BlackjackView) game.Action {
	for _, h := range bj.Hands {
		if h.ParticipantID != bj.Turn || h.Index != bj.TurnHand {
			continue
		}
		switch {
		case len(h.Cards) == 2 && !h.Soft && (h.Total == 10 || h.Total == 11):
			return game.DoubleDown
		case h.Total < 17:
			return game.Hit
		}
		return game.Stand
	}
	return game.Stand
}

// ignorable reports errors a polling driver expects: its snapshot was stale,
// a bettor ran short, or the table refused an optional play.
func ignorable(err error) bool {
	return errors.Is(err, game.ErrInvalidActionForState) ||
		errors.Is(err, game.ErrActionNotPermitted) ||
		errors.Is(err, ledger.ErrInsufficientFunds) ||
		errors.Is(err, game.ErrUnknownParticipant)
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	holdStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Summary renders the reports as a table per game.
func Summary(reports []*Report) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("=== SIMULATION RESULTS ===") + "\n")
	for _, r := range reports {
		st := r.Stats
		b.WriteString("\n" + headerStyle.Render(strings.ToUpper(string(r.Kind))) + "\n")
		fmt.Fprintf(&b, "Rounds: %d (%d voided), bets: %d, elapsed %s\n", st.Rounds, st.Voided, st.Bets, r.Elapsed.Round(time.Millisecond))
		fmt.Fprintf(&b, "Wagered: %s  Paid: %s  Hold: %s\n", st.Wagered.StringFixed(2), st.Paid.StringFixed(2), styleHold(st.Hold()))
		fmt.Fprintf(&b, "Hold: %.2f%%  Mean/round: %.3f  StdDev: %.3f\n", st.HoldPercent(), st.Mean(), st.StdDev())
		low, high := st.ConfidenceInterval95()
		fmt.Fprintf(&b, "95%% CI: [%.3f, %.3f]  Median: %.3f  P5=%.2f P95=%.2f\n", low, high, st.Median(), st.Percentile(0.05), st.Percentile(0.95))
		for _, t := range st.TypeNames() {
			ts := st.Types[t]
			pct := 0.0
			if !ts.Wagered.IsZero() {
				pct = ts.Hold().Div(ts.Wagered).InexactFloat64() * 100
			}
			fmt.Fprintf(&b, "  %-12s %5d bets  wagered %10s  hold %s (%.2f%%)\n", t, ts.Bets, ts.Wagered.StringFixed(2), styleHold(ts.Hold()), pct)
		}
		fmt.Fprintf(&b, "Ledger: deposits %s = cashed out %s + house %s\n", r.Deposits.StringFixed(2), r.CashedOut.StringFixed(2), r.HouseNet.StringFixed(2))
	}
	return b.String()
}

func styleHold(h decimal.Decimal) string {
	if h.IsNegative() {
		return lossStyle.Render(h.StringFixed(2))
	}
	return holdStyle.Render(h.StringFixed(2))
}
