package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lox/tablegames/internal/game"
	"github.com/lox/tablegames/internal/simulator"
)

// SimulateCmd plays scripted bettors against one table of each game.
type SimulateCmd struct {
	Games   []string      `help:"Games to simulate: blackjack, roulette, baccarat, craps (default: all)"`
	Rounds  int           `default:"200" help:"Rounds to settle per table"`
	Bettors int           `default:"3" help:"Bettors seated at each table"`
	Stake   string        `default:"10" help:"Stake per bet"`
	Seed    int64         `default:"0" help:"RNG seed (0 for time based)"`
	Pace    time.Duration `default:"2ms" help:"Betting window; players get four times as long to act"`
	Timeout time.Duration `default:"2m" help:"Give up on a table after this long"`
	Verbose bool          `help:"Verbose logging"`
}

func (c *SimulateCmd) Run() error {
	level := "warn"
	if c.Verbose {
		level = "debug"
	}
	logger := newLogger(level)

	stake, err := decimal.NewFromString(c.Stake)
	if err != nil || !stake.IsPositive() {
		return fmt.Errorf("invalid stake %q", c.Stake)
	}
	seed := c.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	kinds := make([]game.Kind, 0, len(c.Games))
	for _, g := range c.Games {
		kinds = append(kinds, game.Kind(strings.ToLower(g)))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("Starting simulation", "rounds", c.Rounds, "bettors", c.Bettors, "seed", seed)
	reports, err := simulator.New(simulator.Config{
		Kinds:   kinds,
		Rounds:  c.Rounds,
		Bettors: c.Bettors,
		Seed:    seed,
		Stake:   stake,
		Pace:    c.Pace,
		Timeout: c.Timeout,
		Logger:  logger,
	}).Run(ctx)
	if err != nil {
		return err
	}

	fmt.Print(simulator.Summary(reports))
	fmt.Printf("\nSeed: %d\n", seed)
	return nil
}
