package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/tablegames/internal/game"
)

// LiveTransport serves websocket clients and fans table events out to the
// connections watching each table.
type LiveTransport struct {
	listener    net.Listener
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	register    chan *Connection
	unregister  chan *Connection
	logger      *log.Logger
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	handler     handler
}

var _ Transport = (*LiveTransport)(nil)

// NewLiveTransport serves on an open listener.
func NewLiveTransport(ln net.Listener, logger *log.Logger) *LiveTransport {
	ctx, cancel := context.WithCancel(context.Background())
	l := logger.WithPrefix("server")

	return &LiveTransport{
		listener: ln,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		logger:      l,
		ctx:         ctx,
		cancel:      cancel,
		handler:     handler{logger: l},
	}
}

func (s *LiveTransport) Name() string { return "live" }

// Addr returns the address the transport listens on.
func (s *LiveTransport) Addr() string { return s.listener.Addr().String() }

func (s *LiveTransport) Attach(r *Registry) {
	s.handler.registry = r
}

// Serve accepts websocket clients on /ws until ctx is cancelled.
func (s *LiveTransport) Serve(ctx context.Context) error {
	go s.run()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/tables", s.handleTables)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("Starting WebSocket server", "addr", s.Addr())
		errc <- srv.Serve(s.listener)
	}()

	select {
	case err := <-errc:
		s.Stop()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Stop()
	return err
}

// Stop closes every client connection.
func (s *LiveTransport) Stop() {
	s.cancel()

	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close()
	}
	s.mu.Unlock()
}

// run handles connection lifecycle
func (s *LiveTransport) run() {
	for {
		select {
		case conn := <-s.register:
			s.mu.Lock()
			s.connections[conn] = true
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("Client connected", "total", total)

		case conn := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.connections[conn]; ok {
				delete(s.connections, conn)
				_ = conn.Close()
			}
			total := len(s.connections)
			s.mu.Unlock()
			s.leaveOnDisconnect(conn)
			s.logger.Info("Client disconnected", "total", total)

		case <-s.ctx.Done():
			return
		}
	}
}

// leaveOnDisconnect stands a disconnected player up so the seat frees once
// their bets settle.
func (s *LiveTransport) leaveOnDisconnect(conn *Connection) {
	playerID, tableID := conn.GetPlayer(), conn.GetTable()
	if playerID == "" || tableID == "" || s.handler.registry == nil {
		return
	}
	s.logger.Info("Cleaning up disconnected player", "player", playerID, "table", tableID)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := s.handler.registry.Leave(ctx, tableID, playerID); err != nil {
		s.logger.Debug("Disconnect cleanup failed", "player", playerID, "error", err)
	}
}

// handleWebSocket handles WebSocket upgrade requests
func (s *LiveTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, s.logger, &s.handler)
	select {
	case s.register <- client:
	case <-s.ctx.Done():
		_ = client.Close()
		return
	}
	client.Start()

	go func() {
		<-client.ctx.Done()
		select {
		case s.unregister <- client:
		case <-s.ctx.Done():
		}
	}()
}

// handleHealth handles health check requests
func (s *LiveTransport) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

func (s *LiveTransport) handleTables(w http.ResponseWriter, r *http.Request) {
	if s.handler.registry == nil {
		http.Error(w, errNoRegistry.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(TableListData{Tables: s.handler.registry.List()})
}

// Publish sends e to every connection watching its table.
func (s *LiveTransport) Publish(e game.Event) {
	msg, err := messageFromEvent(e)
	if err != nil {
		s.logger.Error("Failed to encode event", "type", e.Type, "error", err)
		return
	}
	s.BroadcastToTable(e.TableID, msg)
}

// BroadcastToTable sends a message to all connections at a specific table
func (s *LiveTransport) BroadcastToTable(tableID string, msg *Message) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for conn := range s.connections {
		if conn.GetTable() == tableID {
			if err := conn.SendMessage(msg); err != nil {
				s.logger.Error("Failed to send message to client", "error", err, "player", conn.GetPlayer())
			} else {
				count++
			}
		}
	}

	s.logger.Debug("Broadcasted message to table", "tableId", tableID, "type", msg.Type, "recipients", count)
}
