package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/tablegames/internal/config"
	"github.com/lox/tablegames/internal/game"
	"github.com/lox/tablegames/internal/server"
	"github.com/lox/tablegames/internal/store"
)

// ServeCmd runs the configured tables behind a transport.
type ServeCmd struct {
	Config   string   `short:"c" default:"tablegames.hcl" help:"Path to HCL configuration file"`
	Addr     string   `short:"a" help:"Listen address (overrides config)"`
	LogLevel string   `short:"l" help:"Log level (overrides config)"`
	EnvFile  []string `name:"env-file" default:".env" help:"Environment files to load before reading the config"`
}

func (c *ServeCmd) Run() error {
	if err := config.LoadEnv(c.EnvFile...); err != nil {
		return err
	}
	cfg, err := config.Load(c.Config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if c.Addr != "" {
		cfg.Server.Listen = c.Addr
	}
	if c.LogLevel != "" {
		cfg.Server.LogLevel = c.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(cfg.Server.LogLevel)

	recorder, err := openRecorder(cfg.Recorder, cfg.Server.EventBuffer, logger)
	if err != nil {
		return err
	}

	transport := server.NewTransport(server.TransportConfig{
		Addr:   cfg.Server.Listen,
		Buffer: cfg.Server.EventBuffer,
	}, logger)

	sinks := game.MultiSink{transport}
	if recorder != nil {
		sinks = append(sinks, recorder)
	}

	tables := make([]game.Config, 0, len(cfg.Tables))
	templates := make(map[game.Kind]game.Config)
	for _, tc := range cfg.Tables {
		gc, err := tc.GameConfig()
		if err != nil {
			return err
		}
		tables = append(tables, gc)
		if _, ok := templates[gc.Kind]; !ok {
			tmpl := gc
			tmpl.ID = ""
			templates[gc.Kind] = tmpl
		}
	}

	registry := server.NewRegistry(server.Options{
		Logger:    logger,
		Sink:      sinks,
		Templates: templates,
	})
	transport.Attach(registry)

	for _, gc := range tables {
		if _, err := registry.Create(gc); err != nil {
			_ = registry.CloseAll(context.Background())
			return fmt.Errorf("creating table %s: %w", gc.ID, err)
		}
		logger.Info("Created table",
			"id", gc.ID,
			"kind", gc.Kind,
			"stakes", fmt.Sprintf("%s-%s", gc.Stakes.Min, gc.Stakes.Max),
			"seats", gc.Seats)
	}

	logger.Info("Starting table server",
		"transport", transport.Name(),
		"tables", len(tables),
		"recorder", cfg.Recorder.Kind)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return transport.Serve(ctx) })
	if live, ok := transport.(*server.LiveTransport); ok {
		g.Go(func() error {
			awaitReady(ctx, logger, baseURL(live.Addr()), len(tables))
			return nil
		})
	}
	serveErr := g.Wait()

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	closeErr := registry.CloseAll(shutdownCtx)

	if recorder != nil {
		if err := recorder.Close(); err != nil {
			logger.Error("Failed to close recorder", "error", err)
		}
		if n := recorder.Dropped(); n > 0 {
			logger.Warn("Recorder dropped events", "count", n)
		}
	}
	return errors.Join(serveErr, closeErr)
}

func openRecorder(rs *config.RecorderSettings, buffer int, logger *log.Logger) (*store.Recorder, error) {
	var backend store.Backend
	switch rs.Kind {
	case config.RecorderFile:
		fr, err := store.NewFileRecorder(rs.Dir)
		if err != nil {
			return nil, err
		}
		backend = fr
	case config.RecorderPostgres:
		dsn := rs.DSN()
		if dsn == "" {
			return nil, fmt.Errorf("recorder: %s is not set", rs.DSNEnv)
		}
		db, err := store.OpenPostgres(dsn)
		if err != nil {
			return nil, err
		}
		gr := store.NewGormRecorder(db)
		if err := gr.Migrate(); err != nil {
			_ = gr.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		backend = gr
	default:
		return nil, nil
	}
	return store.NewRecorder(backend, buffer, logger), nil
}

// awaitReady logs once the listener answers with every configured table open.
func awaitReady(ctx context.Context, logger *log.Logger, url string, n int) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	open, err := server.WaitForTables(ctx, url, n)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.Warn("Server did not become ready", "url", url, "error", err)
		}
		return
	}
	logger.Info("Server ready", "url", url, "tables", len(open))
}

// baseURL turns a listener address into a URL reachable from this host.
func baseURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}
