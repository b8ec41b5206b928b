package server

import (
	"context"
	"net"

	"github.com/charmbracelet/log"

	"github.com/lox/tablegames/internal/game"
)

// Transport carries table events out to observers and, for transports that
// accept clients, commands in. Publish is called from table loops and never
// blocks.
type Transport interface {
	game.EventSink
	// Attach routes inbound commands to r. It must be called before Serve.
	Attach(r *Registry)
	// Serve runs the transport until ctx is cancelled.
	Serve(ctx context.Context) error
	Name() string
}

// TransportConfig selects a transport. An empty Addr means no listener is
// configured.
type TransportConfig struct {
	Addr string
	// Buffer bounds the simulated transport's event log.
	Buffer int
}

// NewTransport returns a live websocket transport listening on cfg.Addr, or
// a simulated transport when no address is configured or the listener
// cannot be opened.
func NewTransport(cfg TransportConfig, logger *log.Logger) Transport {
	if cfg.Addr == "" {
		logger.Info("No listener configured, using simulated transport")
		return NewSimulatedTransport(cfg.Buffer, logger)
	}
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		logger.Warn("Live listener failed, falling back to simulated transport", "addr", cfg.Addr, "error", err)
		return NewSimulatedTransport(cfg.Buffer, logger)
	}
	return NewLiveTransport(ln, logger)
}
