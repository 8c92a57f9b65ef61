package theme

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/lawnchairsociety/epsilon/server/internal/labyrinth"
	"github.com/lawnchairsociety/epsilon/server/internal/logger"
)

// ErrUnassignedTiles means the quota pass left tiles without a region and the
// safety pass had to put them in DefaultRegion. It signals a bookkeeping bug.
var ErrUnassignedTiles = errors.New("theme: tiles left unassigned after quota pass")

// Result summarises one assignment pass.
type Result struct {
	Quotas    map[string]int // region name -> target tiles
	Counts    map[string]int // region name -> assigned tiles
	Fallback  int            // tiles placed from the pool after a BFS frontier ran dry
	Defaulted int            // tiles caught by the final safety pass
}

// assigner carries the bookkeeping for one pass.
type assigner struct {
	maze     *labyrinth.Maze
	rng      *rand.Rand
	assigned []bool
	counter  int
	result   *Result
}

// Assign gives every tile of m a thematic area and a unique tile code.
//
// Regions are processed in declared order. Each one grows from a random unassigned
// seed tile by breadth-first search over grid adjacency (walls are ignored) until
// its quota is met. When the frontier runs dry first, the rest of the quota is
// taken from the unassigned pool in row-major order.
//
// The tiles are always fully assigned on return. A non-nil error means the final
// safety pass had to step in; the result is still usable but should be reported.
func Assign(m *labyrinth.Maze, rng *rand.Rand) (*Result, error) {
	a := &assigner{
		maze:     m,
		rng:      rng,
		assigned: make([]bool, len(m.Tiles)),
		result: &Result{
			Quotas: make(map[string]int, len(Regions)),
			Counts: make(map[string]int, len(Regions)),
		},
	}

	quotas := Quotas(len(m.Tiles))
	for i, region := range Regions {
		a.result.Quotas[region.Name] = quotas[i]
		a.fill(region, quotas[i])
	}

	for i, t := range m.Tiles {
		if a.assigned[i] {
			continue
		}
		a.assign(i, DefaultRegion)
		a.result.Defaulted++
		logger.Error("Tile missed by region quotas", "tile", t.ID, "region", DefaultRegion.Name)
	}

	if a.result.Defaulted > 0 {
		return a.result, fmt.Errorf("%w: %d tiles defaulted to %s", ErrUnassignedTiles, a.result.Defaulted, DefaultRegion.Name)
	}
	return a.result, nil
}

// fill grows one region up to quota tiles.
func (a *assigner) fill(region Region, quota int) {
	if quota <= 0 {
		return
	}

	pool := a.unassigned()
	if len(pool) == 0 {
		return
	}

	seed := pool[a.rng.Intn(len(pool))]
	enqueued := make([]bool, len(a.maze.Tiles))
	enqueued[seed] = true
	queue := []int{seed}
	filled := 0

	for len(queue) > 0 && filled < quota {
		idx := queue[0]
		queue = queue[1:]

		a.assign(idx, region)
		filled++

		t := a.maze.Tiles[idx]
		for _, n := range a.maze.Neighbors(t.X, t.Y) {
			ni := n.Y*a.maze.Size + n.X
			if a.assigned[ni] || enqueued[ni] {
				continue
			}
			enqueued[ni] = true
			queue = append(queue, ni)
		}
	}

	if filled == quota {
		return
	}

	// Earlier regions can wall this one into a pocket smaller than its quota.
	// This is routine, so it is only reported through Result.Fallback.
	short := quota - filled
	for _, idx := range a.unassigned() {
		if filled == quota {
			break
		}
		a.assign(idx, region)
		filled++
		a.result.Fallback++
	}
	logger.Debug("Region frontier exhausted before quota",
		"region", region.Name, "quota", quota, "fallback", short, "seed", a.maze.Seed)
}

// assign labels one tile and gives it the next sequence number.
func (a *assigner) assign(idx int, region Region) {
	a.counter++
	t := a.maze.Tiles[idx]
	t.Area = region.Name
	t.Number = a.counter
	t.Code = fmt.Sprintf("%s-%s-%d", region.Code, t.Open, a.counter)
	a.assigned[idx] = true
	a.result.Counts[region.Name]++
}

// unassigned lists unassigned tile indexes in row-major order.
func (a *assigner) unassigned() []int {
	var out []int
	for i, done := range a.assigned {
		if !done {
			out = append(out, i)
		}
	}
	return out
}
