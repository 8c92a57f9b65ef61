package server

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/lawnchairsociety/epsilon/server/internal/cache"
	"github.com/lawnchairsociety/epsilon/server/internal/database"
	"github.com/lawnchairsociety/epsilon/server/internal/events"
	"github.com/lawnchairsociety/epsilon/server/internal/labyrinth"
	"github.com/lawnchairsociety/epsilon/server/internal/logger"
	"github.com/lawnchairsociety/epsilon/server/internal/placement"
	"github.com/lawnchairsociety/epsilon/server/internal/scenario"
)

const maxRequestBody = 1 << 20

type createRequest struct {
	Size   *int             `json:"size"`
	Seed   string           `json:"seed"`
	Roster *scenario.Roster `json:"roster"`
}

type tileResponse struct {
	ID             string            `json:"id"`
	X              int               `json:"x"`
	Y              int               `json:"y"`
	Type           string            `json:"type"`
	Image          string            `json:"image,omitempty"`
	OpenDirections []string          `json:"open_directions"`
	TileCode       string            `json:"tile_code"`
	ThematicArea   string            `json:"thematic_area"`
	Exits          map[string]string `json:"exits,omitempty"`
	Revealed       bool              `json:"revealed"`
	OnBoard        bool              `json:"on_board"`
}

type labyrinthResponse struct {
	ID     string         `json:"id"`
	Size   int            `json:"size"`
	Seed   string         `json:"seed"`
	StartX int            `json:"start_x"`
	StartY int            `json:"start_y"`
	Tiles  []tileResponse `json:"tiles"`
}

type themeSummary struct {
	Quotas   map[string]int `json:"quotas"`
	Counts   map[string]int `json:"counts"`
	Fallback int            `json:"fallback"`
}

type createResponse struct {
	labyrinthResponse
	PartyTile string              `json:"party_tile"`
	BossTile  string              `json:"boss_tile"`
	Positions []scenario.Position `json:"positions"`
	Themes    themeSummary        `json:"themes"`
}

type positionsResponse struct {
	LabyrinthID string              `json:"labyrinth_id"`
	Turn        int                 `json:"turn"`
	Positions   []scenario.Position `json:"positions"`
}

type tileActionResponse struct {
	LabyrinthID string `json:"labyrinth_id"`
	TileID      string `json:"tile_id"`
	Action      string `json:"action"`
}

func newTileResponse(m *labyrinth.Maze, t *labyrinth.Tile) tileResponse {
	tr := tileResponse{
		ID:             t.ID,
		X:              t.X,
		Y:              t.Y,
		Type:           t.Shape.String(),
		Image:          t.Image,
		OpenDirections: t.Open.Letters(),
		TileCode:       t.Code,
		ThematicArea:   t.Area,
		Revealed:       t.Revealed,
		OnBoard:        t.OnBoard,
	}
	if m != nil {
		tr.Exits = m.Exits(t)
	}
	return tr
}

func newLabyrinthResponse(id string, m *labyrinth.Maze) labyrinthResponse {
	lr := labyrinthResponse{
		ID:     id,
		Size:   m.Size,
		Seed:   m.Seed,
		StartX: m.Start.X,
		StartY: m.Start.Y,
		Tiles:  make([]tileResponse, len(m.Tiles)),
	}
	for i, t := range m.Tiles {
		lr.Tiles[i] = newTileResponse(m, t)
	}
	return lr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"uptime":      time.Since(s.started).Round(time.Second).String(),
		"subscribers": s.limiter.Stats(),
	})
}

// handleCreate runs the turn-zero pipeline, stores the result and announces it.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	if ok, wait := s.creates.Allow(ip); !ok {
		logger.Warning("Labyrinth generation throttled", "client_ip", ip, "retry_after", wait)
		w.Header().Set("Retry-After", strconv.Itoa(int(wait.Round(time.Second)/time.Second)))
		writeError(w, http.StatusTooManyRequests, "too many labyrinths generated, try again later")
		return
	}

	var req createRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	size := s.cfg.Labyrinth.DefaultSize
	if req.Size != nil {
		size = *req.Size
	}
	roster := scenario.DefaultRoster()
	if req.Roster != nil {
		roster = *req.Roster
	}

	res, err := scenario.Build(size, req.Seed, roster)
	switch {
	case errors.Is(err, labyrinth.ErrInvalidSize), errors.Is(err, scenario.ErrInvalidRoster):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, placement.ErrNoValidPlacement):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		s.internalError(w, "Failed to build labyrinth", err)
		return
	}

	id, err := s.store.SaveGenerated(res.Maze, res.Positions)
	if err != nil {
		s.storeError(w, err)
		return
	}

	logger.Always("Labyrinth generated", "labyrinth_id", id, "size", size, "seed", res.Maze.Seed)

	lr := newLabyrinthResponse(id, res.Maze)
	s.storeSnapshot(r, id, s.guard.version(id), lr)

	s.announce(r.Context(), events.Generated, id, map[string]any{"size": size, "seed": res.Maze.Seed})
	s.announce(r.Context(), events.Placed, id, positionsResponse{LabyrinthID: id, Turn: 0, Positions: res.Positions})

	writeJSON(w, http.StatusCreated, createResponse{
		labyrinthResponse: lr,
		PartyTile:         res.PartyTile.ID,
		BossTile:          res.BossTile.ID,
		Positions:         res.Positions,
		Themes: themeSummary{
			Quotas:   res.Themes.Quotas,
			Counts:   res.Themes.Counts,
			Fallback: res.Themes.Fallback,
		},
	})
}

// handleGet serves a labyrinth from the snapshot cache, falling back to the store.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	version := s.guard.version(id)

	if data, err := s.snapshots.Get(r.Context(), id); err == nil {
		w.Header().Set("X-Cache", "hit")
		writeRaw(w, http.StatusOK, data)
		return
	} else if !errors.Is(err, cache.ErrMiss) {
		logger.Warning("Snapshot cache read failed", "labyrinth_id", id, "error", err)
	}

	m, err := s.store.GetLabyrinth(id)
	if err != nil {
		s.storeError(w, err)
		return
	}

	lr := newLabyrinthResponse(id, m)
	s.storeSnapshot(r, id, version, lr)
	w.Header().Set("X-Cache", "miss")
	writeJSON(w, http.StatusOK, lr)
}

// handlePositions returns the positions for ?turn=N, defaulting to the latest turn.
func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var turn int
	if raw := r.URL.Query().Get("turn"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid turn %q", raw))
			return
		}
		turn = n
	} else {
		latest, err := s.store.LatestTurn(id)
		if err != nil {
			s.storeError(w, err)
			return
		}
		turn = latest
	}

	positions, err := s.store.GetPositions(id, turn)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, positionsResponse{LabyrinthID: id, Turn: turn, Positions: positions})
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	s.tileAction(w, r, "reveal", s.store.RevealTile)
}

func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	s.tileAction(w, r, "place", s.store.PlaceTileOnBoard)
}

// tileAction applies a tile flag change, invalidates the snapshot and announces it.
func (s *Server) tileAction(w http.ResponseWriter, r *http.Request, action string, apply func(string, string) error) {
	id, tileID := r.PathValue("id"), r.PathValue("tileID")

	if err := apply(id, tileID); err != nil {
		s.storeError(w, err)
		return
	}
	if err := s.guard.invalidate(r.Context(), id); err != nil {
		logger.Warning("Snapshot cache invalidation failed", "labyrinth_id", id, "error", err)
	}

	resp := tileActionResponse{LabyrinthID: id, TileID: tileID, Action: action}
	s.announce(r.Context(), events.Tile, id, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTilesToPlace(w http.ResponseWriter, r *http.Request) {
	tiles, err := s.store.TilesToPlace(r.PathValue("id"))
	if err != nil {
		s.storeError(w, err)
		return
	}

	out := make([]tileResponse, len(tiles))
	for i, t := range tiles {
		out[i] = newTileResponse(nil, t)
	}
	writeJSON(w, http.StatusOK, map[string][]tileResponse{"tiles_to_place": out})
}

// storeSnapshot caches lr unless the labyrinth changed after version was read.
func (s *Server) storeSnapshot(r *http.Request, id string, version uint64, lr labyrinthResponse) {
	data, err := json.Marshal(lr)
	if err != nil {
		logger.Error("Failed to encode labyrinth snapshot", "labyrinth_id", id, "error", err)
		return
	}
	stored, err := s.guard.store(r.Context(), id, version, data)
	if err != nil {
		logger.Warning("Snapshot cache write failed", "labyrinth_id", id, "error", err)
		return
	}
	if !stored {
		logger.Debug("Skipped stale labyrinth snapshot", "labyrinth_id", id)
	}
}

// storeError maps persistence errors to HTTP statuses.
func (s *Server) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrLabyrinthNotFound):
		writeError(w, http.StatusNotFound, "labyrinth not found")
	case errors.Is(err, database.ErrTileNotFound):
		writeError(w, http.StatusNotFound, "tile not found")
	case errors.Is(err, database.ErrDuplicateEntity):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.internalError(w, "Store request failed", err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, msg string, err error) {
	logger.Error(msg, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Error("Failed to encode response", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeRaw(w, status, data)
}

func writeRaw(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets the WebSocket upgrader take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"client_ip", clientIP(r))
	})
}
