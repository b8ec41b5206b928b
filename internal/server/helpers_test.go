package server

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/lox/tablegames/internal/game"
)

// testLogger creates a logger that discards output for tests
func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestRegistry(t *testing.T, sink game.EventSink, templates map[game.Kind]game.Config) *Registry {
	t.Helper()
	r := NewRegistry(Options{
		Clock:     quartz.NewMock(t),
		Logger:    testLogger(),
		Sink:      sink,
		Templates: templates,
	})
	t.Cleanup(func() { require.NoError(t, r.CloseAll(context.Background())) })
	return r
}

func tableConfig(id string, kind game.Kind, seats int) game.Config {
	cfg := DefaultTemplate(kind)
	cfg.ID = id
	cfg.Seats = seats
	return cfg
}
