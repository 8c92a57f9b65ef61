// Package placement positions players, enemies, NPCs and map objects on a
// generated labyrinth.
//
// Distances are Manhattan distances over grid coordinates, not path lengths
// through the maze.
package placement

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/lawnchairsociety/epsilon/server/internal/labyrinth"
)

// ErrNoValidPlacement is returned when no tile satisfies a placement rule.
var ErrNoValidPlacement = errors.New("placement: no valid tile")

const (
	// RoleBoss marks the enemy that anchors the boss tile.
	RoleBoss = "Boss Unit"

	// MinBossDistance is the minimum distance between the party and the boss.
	MinBossDistance = 2
)

// Entity is an enemy roster entry.
type Entity struct {
	ID   string `json:"id" yaml:"id"`
	Role string `json:"role,omitempty" yaml:"role,omitempty"`
}

// IsBoss reports whether the entity takes the boss tile.
func (e Entity) IsBoss() bool {
	return e.Role == RoleBoss
}

// Manhattan returns |x1-x2| + |y1-y2|.
func Manhattan(a, b labyrinth.Point) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Placer makes random placement choices from an injected stream.
type Placer struct {
	rng *rand.Rand
}

// New creates a Placer drawing from rng.
func New(rng *rand.Rand) *Placer {
	return &Placer{rng: rng}
}

// PlacePlayers puts the whole party on one random tile. The tile is chosen even
// for an empty party so enemy placement can chain from it.
func (p *Placer) PlacePlayers(m *labyrinth.Maze, ids []string) (map[string]string, *labyrinth.Tile, error) {
	if len(m.Tiles) == 0 {
		return nil, nil, fmt.Errorf("%w: labyrinth has no tiles", ErrNoValidPlacement)
	}

	tile := m.Tiles[p.rng.Intn(len(m.Tiles))]
	positions := make(map[string]string, len(ids))
	for _, id := range ids {
		positions[id] = tile.ID
	}
	return positions, tile, nil
}

// PlaceEnemies chooses the boss tile at least MinBossDistance from the party and
// spreads the remaining enemies over distinct free tiles.
//
// Every boss-role entity shares the boss tile. Other enemies never land on the
// boss or party tile, and never share a tile with each other.
func (p *Placer) PlaceEnemies(m *labyrinth.Maze, roster []Entity, playerTile *labyrinth.Tile) (map[string]string, *labyrinth.Tile, error) {
	if playerTile == nil {
		return nil, nil, fmt.Errorf("%w: no player tile", ErrNoValidPlacement)
	}

	var candidates []*labyrinth.Tile
	for _, t := range m.Tiles {
		if Manhattan(t.Point(), playerTile.Point()) >= MinBossDistance {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return nil, nil, fmt.Errorf("%w: no tile at distance >= %d from %s", ErrNoValidPlacement, MinBossDistance, playerTile.ID)
	}
	bossTile := candidates[p.rng.Intn(len(candidates))]

	var pool []*labyrinth.Tile
	for _, t := range m.Tiles {
		if t.ID != bossTile.ID && t.ID != playerTile.ID {
			pool = append(pool, t)
		}
	}

	positions := make(map[string]string, len(roster))
	for _, e := range roster {
		if e.IsBoss() {
			positions[e.ID] = bossTile.ID
			continue
		}
		if len(pool) == 0 {
			return nil, nil, fmt.Errorf("%w: out of free tiles for enemy %s", ErrNoValidPlacement, e.ID)
		}
		i := p.rng.Intn(len(pool))
		positions[e.ID] = pool[i].ID
		pool = append(pool[:i], pool[i+1:]...)
	}

	return positions, bossTile, nil
}

// PlaceNPCs puts every NPC on the tile farthest from the boss. Ties go to the
// first such tile in row-major order.
func (p *Placer) PlaceNPCs(m *labyrinth.Maze, ids []string, bossTile *labyrinth.Tile) (map[string]string, error) {
	if bossTile == nil || len(m.Tiles) == 0 {
		return nil, fmt.Errorf("%w: no boss tile to measure from", ErrNoValidPlacement)
	}

	tile := Farthest(m, bossTile.Point())
	positions := make(map[string]string, len(ids))
	for _, id := range ids {
		positions[id] = tile.ID
	}
	return positions, nil
}

// Farthest returns the first tile in row-major order with the greatest distance from p.
func Farthest(m *labyrinth.Maze, p labyrinth.Point) *labyrinth.Tile {
	var best *labyrinth.Tile
	bestDist := -1
	for _, t := range m.Tiles {
		if d := Manhattan(t.Point(), p); d > bestDist {
			best, bestDist = t, d
		}
	}
	return best
}

// PlaceObjects scatters map objects uniformly. Objects may share tiles with each
// other and with entities.
func (p *Placer) PlaceObjects(m *labyrinth.Maze, ids []string) (map[string]string, error) {
	if len(ids) > 0 && len(m.Tiles) == 0 {
		return nil, fmt.Errorf("%w: labyrinth has no tiles", ErrNoValidPlacement)
	}

	positions := make(map[string]string, len(ids))
	for _, id := range ids {
		positions[id] = m.Tiles[p.rng.Intn(len(m.Tiles))].ID
	}
	return positions, nil
}
