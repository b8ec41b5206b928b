package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/tablegames/internal/config"
	"github.com/lox/tablegames/internal/game"
	"github.com/lox/tablegames/internal/server"
)

func TestOpenRecorder(t *testing.T) {
	logger := log.NewWithOptions(io.Discard, log.Options{})

	t.Run("none", func(t *testing.T) {
		r, err := openRecorder(&config.RecorderSettings{Kind: config.RecorderNone}, 8, logger)
		require.NoError(t, err)
		assert.Nil(t, r)
	})

	t.Run("file", func(t *testing.T) {
		r, err := openRecorder(&config.RecorderSettings{Kind: config.RecorderFile, Dir: t.TempDir()}, 8, logger)
		require.NoError(t, err)
		require.NotNil(t, r)
		assert.NoError(t, r.Close())
	})

	t.Run("postgres without dsn", func(t *testing.T) {
		t.Setenv("TABLEGAMES_TEST_DSN", "")
		_, err := openRecorder(&config.RecorderSettings{Kind: config.RecorderPostgres, DSNEnv: "TABLEGAMES_TEST_DSN"}, 8, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "TABLEGAMES_TEST_DSN is not set")
	})
}

func TestNewLogger(t *testing.T) {
	assert.Equal(t, log.DebugLevel, newLogger("debug").GetLevel())
	assert.Equal(t, log.WarnLevel, newLogger("warn").GetLevel())
	assert.Equal(t, log.InfoLevel, newLogger("bogus").GetLevel())
}

func TestBaseURL(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{"[::]:8080", "http://127.0.0.1:8080"},
		{"0.0.0.0:9000", "http://127.0.0.1:9000"},
		{":7000", "http://127.0.0.1:7000"},
		{"10.1.2.3:80", "http://10.1.2.3:80"},
		{"localhost:8080", "http://localhost:8080"},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.want, baseURL(tt.addr))
		})
	}
}

func TestAwaitReady(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	logger := log.NewWithOptions(io.Discard, log.Options{})
	live := server.NewLiveTransport(ln, logger)
	registry := server.NewRegistry(server.Options{Logger: logger, Sink: live})
	live.Attach(registry)
	cfg := server.DefaultTemplate(game.Roulette)
	cfg.ID = "wheel"
	_, err = registry.Create(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- live.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = registry.CloseAll(context.Background())
	})

	var buf bytes.Buffer
	awaitReady(ctx, log.NewWithOptions(&buf, log.Options{}), baseURL(live.Addr()), 1)
	assert.Contains(t, buf.String(), "Server ready")
}
