// Package game implements the casino table state machines and the actor
// that owns each table.
//
// A Table runs one goroutine. Every inbound call (Join, Leave, PlaceBet, Act)
// is submitted to that goroutine as a command and answered synchronously, and
// timer expirations are enqueued as commands too, so betting windows and turn
// budgets are ordered with player actions. After each command the table
// publishes an immutable Snapshot that other goroutines can read without
// entering the loop.
//
// # Basic Usage
//
//	t, err := game.NewTable(game.Config{
//		ID:     "bj-1",
//		Kind:   game.Blackjack,
//		Stakes: game.Stakes{Min: decimal.NewFromInt(5), Max: decimal.NewFromInt(500)},
//		Rules:  game.DefaultRules(game.Blackjack),
//		Clock:  quartz.NewReal(),
//		Logger: logger,
//	})
//	_, err = t.Join(ctx, game.Participant{ID: "p1", DisplayName: "Alice", Balance: decimal.NewFromInt(200)})
//	_, err = t.PlaceBet(ctx, "p1", game.BetSpec{Type: payout.BlackjackMain, Amount: decimal.NewFromInt(10)})
//
// # Deterministic Testing
//
// Rules.Shuffler accepts any deck.Shuffler. Tests pass a *deck.Stacked to
// script the exact cards, dice and pockets, and a quartz.Mock clock to fire
// betting windows and turn timeouts on demand.
//
// # Machines
//
//   - blackjack: Betting, Dealing, PlayerTurns, DealerTurn, Settlement
//   - roulette: Betting, Spinning, Settlement
//   - baccarat: Betting, Dealing, Drawing, Settlement
//   - craps: ComeOut and Point, one round per come-out-to-decision cycle
package game
