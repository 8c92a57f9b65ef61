package labyrinth

import (
	"fmt"
	"math/rand"
)

// Generator carves a perfect maze using a DFS backtracker.
// Each generator owns its random stream; the same stream is meant to be continued
// by the region and placement passes so a whole build replays from (size, seed).
type Generator struct {
	size int
	seed string
	rng  *rand.Rand
}

// frame is one level of the carve stack.
type frame struct {
	x, y int
	dirs []Direction
	next int
}

// NewGenerator creates a generator for a size×size grid.
// An empty seed is replaced by a fresh random one (see Seed).
func NewGenerator(size int, seed string) (*Generator, error) {
	if err := ValidateSize(size); err != nil {
		return nil, err
	}

	seed = ResolveSeed(seed)
	return &Generator{
		size: size,
		seed: seed,
		rng:  rand.New(rand.NewSource(SeedValue(seed))),
	}, nil
}

// Seed returns the seed actually used.
func (g *Generator) Seed() string {
	return g.seed
}

// Rand returns the generator's random stream.
func (g *Generator) Rand() *rand.Rand {
	return g.rng
}

// Generate picks a random start cell and carves the maze from it.
func (g *Generator) Generate() *Maze {
	m := &Maze{
		Size:  g.size,
		Seed:  g.seed,
		Tiles: make([]*Tile, g.size*g.size),
	}
	for y := 0; y < g.size; y++ {
		for x := 0; x < g.size; x++ {
			m.Tiles[y*g.size+x] = &Tile{ID: TileID(x, y), X: x, Y: y}
		}
	}

	m.Start = Point{X: g.rng.Intn(g.size), Y: g.rng.Intn(g.size)}
	g.carve(m)

	for _, t := range m.Tiles {
		shape, err := Classify(t.Open)
		if err != nil {
			// A DFS over a connected grid always opens every cell.
			panic(fmt.Sprintf("labyrinth: tile (%d,%d) left closed by carve", t.X, t.Y))
		}
		t.Shape = shape
		t.Image = ImageName(shape, t.Open)
	}

	return m
}

// carve runs the backtracker with an explicit stack. Directions are shuffled once
// per cell on first visit, so the stream is consumed exactly as the recursive
// version would consume it.
func (g *Generator) carve(m *Maze) {
	visited := make([]bool, len(m.Tiles))

	visit := func(x, y int) *frame {
		visited[y*m.Size+x] = true
		return &frame{x: x, y: y, dirs: g.shuffledDirections()}
	}

	stack := []*frame{visit(m.Start.X, m.Start.Y)}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next >= len(top.dirs) {
			stack = stack[:len(stack)-1]
			continue
		}

		dir := top.dirs[top.next]
		top.next++

		dx, dy := dir.Delta()
		nx, ny := top.x+dx, top.y+dy
		if !m.InBounds(nx, ny) || visited[ny*m.Size+nx] {
			continue
		}

		cur := m.Tile(top.x, top.y)
		cur.Open = cur.Open.Add(dir)
		next := m.Tile(nx, ny)
		next.Open = next.Open.Add(dir.Opposite())

		stack = append(stack, visit(nx, ny))
	}
}

// shuffledDirections returns directions in random order
func (g *Generator) shuffledDirections() []Direction {
	dirs := AllDirections()
	g.rng.Shuffle(len(dirs), func(i, j int) {
		dirs[i], dirs[j] = dirs[j], dirs[i]
	})
	return dirs
}

// Generate builds a maze for size and seed in one call.
func Generate(size int, seed string) (*Maze, error) {
	g, err := NewGenerator(size, seed)
	if err != nil {
		return nil, err
	}
	return g.Generate(), nil
}
