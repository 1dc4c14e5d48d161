package server

import (
	"context"
	"math/rand"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"

	"github.com/lox/tablestakes/internal/results"
)

// Store is the persistence surface the server needs: saving standings,
// health checks, and the leaderboard. *results.Store implements it; tests
// may pass a stand-in or nil.
type Store interface {
	ResultStore
	Ping(ctx context.Context) error
	Leaderboard(ctx context.Context, limit int) ([]results.LeaderboardEntry, error)
}

// Server ties the HTTP API, the WebSocket endpoints, the room registry and
// the connection broker together
type Server struct {
	config     *ServerConfig
	logger     *log.Logger
	registry   *Registry
	broker     *ConnectionManager
	store      Store
	upgrader   websocket.Upgrader
	mux        *http.ServeMux
	httpServer *http.Server
}

// NewServer wires up a server. The clock is injectable so tests can drive
// turn timeouts; pass quartz.NewReal() in production. A nil store disables
// persistence.
func NewServer(config *ServerConfig, logger *log.Logger, store Store, clock quartz.Clock, rng *rand.Rand) *Server {
	broker := NewConnectionManager(logger)

	var resultStore ResultStore
	if store != nil {
		resultStore = store
	}
	registry := NewRegistry(config.GameConfig(), broker.RoomBroadcaster(), resultStore, clock, rng, logger)

	s := &Server{
		config:   config,
		logger:   logger,
		registry: registry,
		broker:   broker,
		store:    store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// The browser client is served from arbitrary hosts.
				return true
			},
		},
		mux: http.NewServeMux(),
	}

	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/games", s.handleGames)
	s.mux.HandleFunc("/api/games/", s.handleGame)
	s.mux.HandleFunc("/api/leaderboard", s.handleLeaderboard)
	s.mux.HandleFunc("/ws/lobby", s.handleLobbyWS)
	s.mux.HandleFunc("/ws/game/", s.handleGameWS)

	return s
}

// Registry exposes the room registry, mainly for tests
func (s *Server) Registry() *Registry {
	return s.registry
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start listens on addr and serves until the listener fails or the server
// shuts down
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(listener)
}

// Serve starts the server using an existing listener
func (s *Server) Serve(listener net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Server starting", "addr", listener.Addr().String())
	return s.httpServer.Serve(listener)
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down")
	s.registry.StopAll()
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
