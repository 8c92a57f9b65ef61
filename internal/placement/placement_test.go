package placement

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/lawnchairsociety/epsilon/server/internal/labyrinth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generate(t *testing.T, size int, seed string) (*labyrinth.Maze, *Placer) {
	t.Helper()
	g, err := labyrinth.NewGenerator(size, seed)
	require.NoError(t, err)
	return g.Generate(), New(g.Rand())
}

func TestManhattan(t *testing.T) {
	tests := []struct {
		a, b labyrinth.Point
		want int
	}{
		{labyrinth.Point{X: 0, Y: 0}, labyrinth.Point{X: 0, Y: 0}, 0},
		{labyrinth.Point{X: 0, Y: 0}, labyrinth.Point{X: 3, Y: 3}, 6},
		{labyrinth.Point{X: 2, Y: 1}, labyrinth.Point{X: 1, Y: 2}, 2},
		{labyrinth.Point{X: 9, Y: 0}, labyrinth.Point{X: 0, Y: 9}, 18},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Manhattan(tt.a, tt.b), "%v -> %v", tt.a, tt.b)
		assert.Equal(t, tt.want, Manhattan(tt.b, tt.a))
	}
}

func TestPlacePlayersSameTile(t *testing.T) {
	m, p := generate(t, 6, "players")

	positions, tile, err := p.PlacePlayers(m, []string{"p1", "p2", "p3"})
	require.NoError(t, err)
	require.NotNil(t, tile)
	assert.Len(t, positions, 3)
	for _, tileID := range positions {
		assert.Equal(t, tile.ID, tileID)
	}

	empty, tile, err := p.PlacePlayers(m, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NotNil(t, tile)
}

func TestPlaceEnemiesDistance(t *testing.T) {
	for size := labyrinth.MinSize; size <= labyrinth.MaxSize; size++ {
		for i := 0; i < 10; i++ {
			seed := fmt.Sprintf("enemies-%d-%d", size, i)
			t.Run(seed, func(t *testing.T) {
				m, p := generate(t, size, seed)
				_, playerTile, err := p.PlacePlayers(m, []string{"p1"})
				require.NoError(t, err)

				roster := []Entity{
					{ID: "boss", Role: RoleBoss},
					{ID: "drone-1", Role: "Security Drone"},
					{ID: "drone-2", Role: "Security Drone"},
				}
				positions, bossTile, err := p.PlaceEnemies(m, roster, playerTile)
				require.NoError(t, err)

				assert.GreaterOrEqual(t, Manhattan(bossTile.Point(), playerTile.Point()), MinBossDistance)
				assert.Equal(t, bossTile.ID, positions["boss"])

				used := make(map[string]bool)
				for _, id := range []string{"drone-1", "drone-2"} {
					tileID := positions[id]
					assert.NotEqual(t, bossTile.ID, tileID)
					assert.NotEqual(t, playerTile.ID, tileID)
					assert.False(t, used[tileID], "enemies share %s", tileID)
					used[tileID] = true
					assert.NotNil(t, m.TileByID(tileID))
				}
			})
		}
	}
}

func TestPlaceEnemiesPoolExhausted(t *testing.T) {
	m, p := generate(t, 4, "crowded")
	_, playerTile, err := p.PlacePlayers(m, []string{"p1"})
	require.NoError(t, err)

	// 16 tiles minus the boss and party tiles leaves 14 free.
	roster := []Entity{{ID: "boss", Role: RoleBoss}}
	for i := 0; i < 15; i++ {
		roster = append(roster, Entity{ID: fmt.Sprintf("grunt-%d", i)})
	}

	_, _, err = p.PlaceEnemies(m, roster, playerTile)
	assert.True(t, errors.Is(err, ErrNoValidPlacement), "got %v", err)

	ok, _, err := p.PlaceEnemies(m, roster[:15], playerTile)
	require.NoError(t, err)
	assert.Len(t, ok, 15)
}

func TestPlaceEnemiesNoBossCandidate(t *testing.T) {
	// A hand-built 1x2 strip: every tile is within distance 1 of the party.
	m := &labyrinth.Maze{
		Size: 2,
		Tiles: []*labyrinth.Tile{
			{ID: labyrinth.TileID(0, 0), X: 0, Y: 0},
			{ID: labyrinth.TileID(1, 0), X: 1, Y: 0},
		},
	}
	p := New(rand.New(rand.NewSource(1)))

	_, _, err := p.PlaceEnemies(m, []Entity{{ID: "boss", Role: RoleBoss}}, m.Tiles[0])
	assert.True(t, errors.Is(err, ErrNoValidPlacement))

	_, _, err = p.PlaceEnemies(m, nil, nil)
	assert.True(t, errors.Is(err, ErrNoValidPlacement))
}

func TestPlaceNPCsFarthest(t *testing.T) {
	m, p := generate(t, 7, "npcs")
	boss := m.Tile(2, 5)

	positions, err := p.PlaceNPCs(m, []string{"npc-1", "npc-2"}, boss)
	require.NoError(t, err)
	require.Len(t, positions, 2)

	tile := m.TileByID(positions["npc-1"])
	require.NotNil(t, tile)
	assert.Equal(t, positions["npc-1"], positions["npc-2"])

	best := 0
	for _, other := range m.Tiles {
		if d := Manhattan(other.Point(), boss.Point()); d > best {
			best = d
		}
	}
	assert.Equal(t, best, Manhattan(tile.Point(), boss.Point()))
	assert.Equal(t, "tile_6_0", tile.ID)
}

func TestPlaceNPCsTieBreak(t *testing.T) {
	m, p := generate(t, 5, "tie")

	// From the centre all four corners are at distance 4; the north-west one wins.
	positions, err := p.PlaceNPCs(m, []string{"npc"}, m.Tile(2, 2))
	require.NoError(t, err)
	assert.Equal(t, "tile_0_0", positions["npc"])

	_, err = p.PlaceNPCs(m, []string{"npc"}, nil)
	assert.True(t, errors.Is(err, ErrNoValidPlacement))
}

func TestPlaceObjects(t *testing.T) {
	m, p := generate(t, 5, "objects")

	positions, err := p.PlaceObjects(m, []string{"terminal", "medkit", "keycard"})
	require.NoError(t, err)
	assert.Len(t, positions, 3)
	for _, tileID := range positions {
		assert.NotNil(t, m.TileByID(tileID))
	}

	_, err = p.PlaceObjects(&labyrinth.Maze{}, []string{"x"})
	assert.True(t, errors.Is(err, ErrNoValidPlacement))
}

func TestBoundaryScenarioFourByFour(t *testing.T) {
	for i := 0; i < 50; i++ {
		m, p := generate(t, 4, fmt.Sprintf("boundary-%d", i))

		_, playerTile, err := p.PlacePlayers(m, []string{"player"})
		require.NoError(t, err)

		enemies, bossTile, err := p.PlaceEnemies(m, []Entity{
			{ID: "boss", Role: RoleBoss},
			{ID: "grunt"},
		}, playerTile)
		if err != nil {
			require.True(t, errors.Is(err, ErrNoValidPlacement))
			continue
		}
		assert.GreaterOrEqual(t, Manhattan(bossTile.Point(), playerTile.Point()), MinBossDistance)
		assert.NotEqual(t, playerTile.ID, enemies["grunt"])
		assert.NotEqual(t, bossTile.ID, enemies["grunt"])

		npcs, err := p.PlaceNPCs(m, []string{"scientist"}, bossTile)
		require.NoError(t, err)
		npcTile := m.TileByID(npcs["scientist"])
		for _, other := range m.Tiles {
			assert.LessOrEqual(t, Manhattan(other.Point(), bossTile.Point()), Manhattan(npcTile.Point(), bossTile.Point()))
		}
	}
}
