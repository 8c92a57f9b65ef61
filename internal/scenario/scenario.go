// Package scenario runs the turn-zero pipeline: carve the labyrinth, paint the
// thematic regions and place every entity, all from one seeded random stream.
package scenario

import (
	"errors"
	"fmt"

	"github.com/lawnchairsociety/epsilon/server/internal/labyrinth"
	"github.com/lawnchairsociety/epsilon/server/internal/logger"
	"github.com/lawnchairsociety/epsilon/server/internal/placement"
	"github.com/lawnchairsociety/epsilon/server/internal/theme"
)

// ErrInvalidRoster means an entity ID is empty or used more than once.
var ErrInvalidRoster = errors.New("scenario: invalid roster")

// EntityType tags a Position with the kind of thing standing on the tile.
type EntityType string

const (
	EntityPlayer EntityType = "player"
	EntityEnemy  EntityType = "enemy"
	EntityNPC    EntityType = "npc"
	EntityObject EntityType = "object"
)

// ParseEntityType accepts the lower-case names used on the wire and in storage.
func ParseEntityType(s string) (EntityType, bool) {
	switch t := EntityType(s); t {
	case EntityPlayer, EntityEnemy, EntityNPC, EntityObject:
		return t, true
	}
	return "", false
}

// Roster lists what has to be placed.
type Roster struct {
	Players []string           `json:"players" yaml:"players"`
	Enemies []placement.Entity `json:"enemies" yaml:"enemies"`
	NPCs    []string           `json:"npcs" yaml:"npcs"`
	Objects []string           `json:"objects" yaml:"objects"`
}

// DefaultRoster is the Fulcrum Incident line-up used when a caller sends none.
func DefaultRoster() Roster {
	return Roster{
		Players: []string{"commander", "engineer", "medic", "security-officer"},
		Enemies: []placement.Entity{
			{ID: "fulcrum", Role: placement.RoleBoss},
			{ID: "security-drone-1", Role: "Security Drone"},
			{ID: "security-drone-2", Role: "Security Drone"},
			{ID: "infected-crew", Role: "Infected Crew"},
		},
		NPCs:    []string{"dr-vance"},
		Objects: []string{"emergency-terminal", "med-station", "armory-locker"},
	}
}

// Validate checks that every entity ID is non-empty and unique across the
// whole roster, since positions are keyed by entity ID.
func (r Roster) Validate() error {
	seen := make(map[string]EntityType)
	check := func(kind EntityType, id string) error {
		if id == "" {
			return fmt.Errorf("%w: empty %s id", ErrInvalidRoster, kind)
		}
		if prev, dup := seen[id]; dup {
			return fmt.Errorf("%w: id %q used by both %s and %s", ErrInvalidRoster, id, prev, kind)
		}
		seen[id] = kind
		return nil
	}

	for _, id := range r.Players {
		if err := check(EntityPlayer, id); err != nil {
			return err
		}
	}
	for _, e := range r.Enemies {
		if err := check(EntityEnemy, e.ID); err != nil {
			return err
		}
	}
	for _, id := range r.NPCs {
		if err := check(EntityNPC, id); err != nil {
			return err
		}
	}
	for _, id := range r.Objects {
		if err := check(EntityObject, id); err != nil {
			return err
		}
	}
	return nil
}

// Position puts one entity on one tile.
type Position struct {
	EntityID   string     `json:"entity_id" yaml:"entity_id"`
	EntityType EntityType `json:"entity_type" yaml:"entity_type"`
	TileID     string     `json:"tile_id" yaml:"tile_id"`
}

// Result is a fully built turn-zero labyrinth.
type Result struct {
	Maze      *labyrinth.Maze
	Themes    *theme.Result
	Positions []Position
	// PartyTile is where the players stand. It is unrelated to Maze.Start,
	// the cell the carve began from.
	PartyTile *labyrinth.Tile
	BossTile  *labyrinth.Tile
}

// Build generates the labyrinth for (size, seed) and places roster on it.
// The same inputs with a non-empty seed always produce the same Result.
//
// A region bookkeeping failure is logged and the build continues, since the
// safety pass leaves every tile assigned. A placement failure aborts the build.
func Build(size int, seed string, roster Roster) (*Result, error) {
	gen, err := labyrinth.NewGenerator(size, seed)
	if err != nil {
		return nil, err
	}
	if err := roster.Validate(); err != nil {
		return nil, err
	}

	m := gen.Generate()
	rng := gen.Rand()

	themes, err := theme.Assign(m, rng)
	if err != nil {
		if !errors.Is(err, theme.ErrUnassignedTiles) {
			return nil, err
		}
		logger.Error("Region assignment needed the safety pass", "seed", m.Seed, "size", size, "error", err)
	}

	placer := placement.New(rng)
	res := &Result{Maze: m, Themes: themes}

	players, partyTile, err := placer.PlacePlayers(m, roster.Players)
	if err != nil {
		return nil, fmt.Errorf("placing players: %w", err)
	}
	enemies, bossTile, err := placer.PlaceEnemies(m, roster.Enemies, partyTile)
	if err != nil {
		return nil, fmt.Errorf("placing enemies: %w", err)
	}
	npcs, err := placer.PlaceNPCs(m, roster.NPCs, bossTile)
	if err != nil {
		return nil, fmt.Errorf("placing npcs: %w", err)
	}
	objects, err := placer.PlaceObjects(m, roster.Objects)
	if err != nil {
		return nil, fmt.Errorf("placing objects: %w", err)
	}

	res.PartyTile = partyTile
	res.BossTile = bossTile
	res.Positions = appendPositions(res.Positions, EntityPlayer, roster.Players, players)
	res.Positions = appendPositions(res.Positions, EntityEnemy, enemyIDs(roster.Enemies), enemies)
	res.Positions = appendPositions(res.Positions, EntityNPC, roster.NPCs, npcs)
	res.Positions = appendPositions(res.Positions, EntityObject, roster.Objects, objects)

	logger.Info("Labyrinth built",
		"size", size,
		"seed", m.Seed,
		"party", partyTile.ID,
		"boss", bossTile.ID,
		"entities", len(res.Positions),
		"fallback_tiles", themes.Fallback)

	return res, nil
}

// appendPositions keeps roster order so results are stable across runs.
func appendPositions(dst []Position, kind EntityType, ids []string, tiles map[string]string) []Position {
	for _, id := range ids {
		dst = append(dst, Position{EntityID: id, EntityType: kind, TileID: tiles[id]})
	}
	return dst
}

func enemyIDs(roster []placement.Entity) []string {
	ids := make([]string, len(roster))
	for i, e := range roster {
		ids[i] = e.ID
	}
	return ids
}

// TileEntities groups positions by tile ID.
func (r *Result) TileEntities() map[string][]Position {
	out := make(map[string][]Position)
	for _, p := range r.Positions {
		out[p.TileID] = append(out[p.TileID], p)
	}
	return out
}
