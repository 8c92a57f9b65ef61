// Package labyrinth generates seeded perfect mazes over a square grid and
// classifies the resulting tiles.
package labyrinth

import (
	"errors"
	"fmt"
)

const (
	MinSize = 4
	MaxSize = 10
)

var (
	ErrInvalidSize      = errors.New("labyrinth: size must be between 4 and 10")
	ErrNoOpenDirections = errors.New("labyrinth: tile has no open directions")
	ErrNotSpanningTree  = errors.New("labyrinth: open edges do not form a spanning tree")
)

// Point is a grid coordinate, 0-indexed from the north-west corner.
type Point struct {
	X, Y int
}

// Tile is one grid position of a generated maze
type Tile struct {
	ID     string
	X, Y   int
	Open   DirectionSet
	Shape  Shape
	Image  string
	Area   string // Thematic area name, set by the region pass
	Code   string // e.g. "M-NS-7", set by the region pass
	Number int    // Sequence number used in Code

	// Gameplay flags; never touched during generation.
	Revealed bool
	OnBoard  bool
}

// Point returns the tile's coordinates.
func (t *Tile) Point() Point {
	return Point{X: t.X, Y: t.Y}
}

// TileID returns the identifier of the tile at x, y.
func TileID(x, y int) string {
	return fmt.Sprintf("tile_%d_%d", x, y)
}

// Maze is the full tile set for one (size, seed) pair.
type Maze struct {
	Size  int
	Seed  string
	Start Point
	Tiles []*Tile // row-major: index = y*Size + x
}

// ValidateSize checks that size is within [MinSize, MaxSize].
func ValidateSize(size int) error {
	if size < MinSize || size > MaxSize {
		return fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}
	return nil
}

// InBounds reports whether x, y lies on the grid
func (m *Maze) InBounds(x, y int) bool {
	return x >= 0 && x < m.Size && y >= 0 && y < m.Size
}

// Tile returns the tile at x, y or nil when out of bounds.
func (m *Maze) Tile(x, y int) *Tile {
	if !m.InBounds(x, y) {
		return nil
	}
	return m.Tiles[y*m.Size+x]
}

// TileByID returns the tile with the given ID or nil.
func (m *Maze) TileByID(id string) *Tile {
	for _, t := range m.Tiles {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// StartTile returns the tile the carve began from.
func (m *Maze) StartTile() *Tile {
	return m.Tile(m.Start.X, m.Start.Y)
}

// Neighbors returns the in-bounds grid neighbours of x, y in N, S, E, W order,
// regardless of walls.
func (m *Maze) Neighbors(x, y int) []*Tile {
	var out []*Tile
	for _, dir := range AllDirections() {
		dx, dy := dir.Delta()
		if t := m.Tile(x+dx, y+dy); t != nil {
			out = append(out, t)
		}
	}
	return out
}

// Exits maps each open direction of t (by name) to the tile it leads to.
func (m *Maze) Exits(t *Tile) map[string]string {
	exits := make(map[string]string, t.Open.Len())
	for _, dir := range t.Open.Sorted() {
		dx, dy := dir.Delta()
		if m.InBounds(t.X+dx, t.Y+dy) {
			exits[dir.String()] = TileID(t.X+dx, t.Y+dy)
		}
	}
	return exits
}

// Edge is an undirected open passage between two adjacent tiles.
type Edge struct {
	A, B Point
}

// Edges returns every open passage once, from the west or north side.
func (m *Maze) Edges() []Edge {
	var edges []Edge
	for _, t := range m.Tiles {
		if t.Open.Has(East) {
			edges = append(edges, Edge{A: t.Point(), B: Point{X: t.X + 1, Y: t.Y}})
		}
		if t.Open.Has(South) {
			edges = append(edges, Edge{A: t.Point(), B: Point{X: t.X, Y: t.Y + 1}})
		}
	}
	return edges
}

// Validate checks the spanning-tree invariant: every opening is reciprocated and
// in bounds, there are exactly Size²-1 edges, and every tile is reachable from Start.
func (m *Maze) Validate() error {
	if len(m.Tiles) != m.Size*m.Size {
		return fmt.Errorf("%w: %d tiles for size %d", ErrNotSpanningTree, len(m.Tiles), m.Size)
	}

	for _, t := range m.Tiles {
		if t.Open == 0 {
			return fmt.Errorf("%w at (%d,%d)", ErrNoOpenDirections, t.X, t.Y)
		}
		for _, dir := range t.Open.Sorted() {
			dx, dy := dir.Delta()
			n := m.Tile(t.X+dx, t.Y+dy)
			if n == nil {
				return fmt.Errorf("%w: (%d,%d) opens %s off the grid", ErrNotSpanningTree, t.X, t.Y, dir)
			}
			if !n.Open.Has(dir.Opposite()) {
				return fmt.Errorf("%w: (%d,%d) opens %s but neighbour is closed", ErrNotSpanningTree, t.X, t.Y, dir)
			}
		}
	}

	if want := m.Size*m.Size - 1; len(m.Edges()) != want {
		return fmt.Errorf("%w: %d edges, want %d", ErrNotSpanningTree, len(m.Edges()), want)
	}

	if reached := m.reachable(m.Start); reached != len(m.Tiles) {
		return fmt.Errorf("%w: %d of %d tiles reachable", ErrNotSpanningTree, reached, len(m.Tiles))
	}
	return nil
}

// reachable counts tiles reachable from p through open passages.
func (m *Maze) reachable(p Point) int {
	start := m.Tile(p.X, p.Y)
	if start == nil {
		return 0
	}

	seen := make([]bool, len(m.Tiles))
	seen[p.Y*m.Size+p.X] = true
	stack := []*Tile{start}
	count := 0

	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		count++

		for _, dir := range t.Open.Sorted() {
			dx, dy := dir.Delta()
			n := m.Tile(t.X+dx, t.Y+dy)
			if n == nil || seen[n.Y*m.Size+n.X] {
				continue
			}
			seen[n.Y*m.Size+n.X] = true
			stack = append(stack, n)
		}
	}
	return count
}
