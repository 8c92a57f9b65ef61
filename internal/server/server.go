// Package server exposes labyrinth generation and tile state over HTTP and
// streams changes to WebSocket subscribers.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lawnchairsociety/epsilon/server/internal/cache"
	"github.com/lawnchairsociety/epsilon/server/internal/config"
	"github.com/lawnchairsociety/epsilon/server/internal/events"
	"github.com/lawnchairsociety/epsilon/server/internal/labyrinth"
	"github.com/lawnchairsociety/epsilon/server/internal/logger"
	"github.com/lawnchairsociety/epsilon/server/internal/scenario"
)

// Store is the persistence the server needs. *database.Database satisfies it.
type Store interface {
	SaveGenerated(m *labyrinth.Maze, positions []scenario.Position) (string, error)
	GetLabyrinth(id string) (*labyrinth.Maze, error)
	LabyrinthExists(id string) (bool, error)
	GetPositions(labyrinthID string, turn int) ([]scenario.Position, error)
	LatestTurn(labyrinthID string) (int, error)
	RevealTile(labyrinthID, tileID string) error
	PlaceTileOnBoard(labyrinthID, tileID string) error
	TilesToPlace(labyrinthID string) ([]*labyrinth.Tile, error)
}

type Server struct {
	cfg       *config.ServerConfig
	store     Store
	snapshots cache.Cache
	guard     *snapshotGuard
	publisher events.Publisher
	hub       *Hub
	limiter   *ConnLimiter
	creates   *CreateRateLimiter
	upgrader  websocket.Upgrader
	handler   http.Handler
	http      *http.Server
	started   time.Time
}

// New wires a server. A nil publisher disables external events; WebSocket
// subscribers are always notified.
func New(cfg *config.ServerConfig, store Store, snapshots cache.Cache, publisher events.Publisher) *Server {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	s := &Server{
		cfg:       cfg,
		store:     store,
		snapshots: snapshots,
		guard:     newSnapshotGuard(snapshots),
		publisher: publisher,
		hub:       NewHub(),
		limiter:   NewConnLimiter(cfg.Connections),
		creates:   NewCreateRateLimiter(cfg.RateLimit),
		started:   time.Now(),
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/labyrinths", s.handleCreate)
	mux.HandleFunc("GET /api/labyrinths/{id}", s.handleGet)
	mux.HandleFunc("GET /api/labyrinths/{id}/positions", s.handlePositions)
	mux.HandleFunc("POST /api/labyrinths/{id}/tiles/{tileID}/reveal", s.handleReveal)
	mux.HandleFunc("POST /api/labyrinths/{id}/tiles/{tileID}/place", s.handlePlace)
	mux.HandleFunc("GET /api/labyrinths/{id}/tiles-to-place", s.handleTilesToPlace)
	mux.HandleFunc("GET /ws/{id}", s.handleWebSocket)
	s.handler = logRequests(mux)

	s.http = &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      s.handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Slog().Handler(), slog.LevelError),
	}

	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// ListenAndServe blocks until the server stops. A clean Shutdown returns nil.
func (s *Server) ListenAndServe() error {
	logger.Info("HTTP server listening", "address", s.cfg.HTTP.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown disconnects subscribers and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	s.creates.Stop()
	err := s.http.Shutdown(ctx)
	logger.Info("Server shutdown complete", "uptime", time.Since(s.started).Round(time.Second))
	return err
}

// checkOrigin applies the configured WebSocket origin policy.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	allowed := s.cfg.WebSocket.IsOriginAllowed(origin, r.Host)
	if !allowed {
		logger.Warning("WebSocket connection rejected - origin not allowed",
			"origin", origin,
			"host", r.Host,
			"remote_addr", r.RemoteAddr)
	}
	return allowed
}

// handleWebSocket subscribes the caller to one labyrinth's events.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ok, err := s.store.LabyrinthExists(id)
	if err != nil {
		s.internalError(w, "Failed to look up labyrinth", err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "labyrinth not found")
		return
	}

	ip := clientIP(r)
	if !s.limiter.TryAcquire(ip) {
		logger.Warning("WebSocket connection rejected - limit exceeded",
			"remote_addr", r.RemoteAddr,
			"client_ip", ip)
		writeError(w, http.StatusTooManyRequests, "too many connections")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		logger.Debug("WebSocket upgrade failed", "error", err)
		s.limiter.Release(ip)
		return
	}

	sub := newSubscriber(conn, id, ip, s.cfg.WebSocket.SendBuffer)
	if hello, err := events.New(events.Subscribed, id, nil); err == nil {
		if data, err := json.Marshal(hello); err == nil {
			sub.send <- data
		}
	}
	if !s.hub.add(sub) {
		s.limiter.Release(ip)
		conn.Close()
		return
	}
	logger.Debug("WebSocket subscribed", "labyrinth_id", id, "client_ip", ip)

	go sub.writePump()
	go sub.readPump(s.cfg.WebSocket.MaxMessageSize, func() {
		s.hub.remove(sub)
		s.limiter.Release(ip)
	})
}

// announce sends an event to external subscribers and the WebSocket hub.
// Delivery failures are logged, never returned to the HTTP caller.
func (s *Server) announce(ctx context.Context, kind events.Type, labyrinthID string, payload any) {
	e, err := events.New(kind, labyrinthID, payload)
	if err != nil {
		logger.Error("Failed to encode event", "type", kind, "error", err)
		return
	}
	if err := (events.Multi{s.publisher, s.hub}).Publish(ctx, e); err != nil {
		logger.Warning("Failed to publish event", "type", kind, "labyrinth_id", labyrinthID, "error", err)
	}
}
