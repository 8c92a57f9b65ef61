package theme

import (
	"bytes"
	"fmt"
	"log/slog"
	"math/rand"
	"regexp"
	"testing"

	"github.com/lawnchairsociety/epsilon/server/internal/labyrinth"
	"github.com/lawnchairsociety/epsilon/server/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotasSumToTotal(t *testing.T) {
	for total := 16; total <= 100; total++ {
		quotas := Quotas(total)
		sum := 0
		for _, q := range quotas {
			sum += q
		}
		assert.Equal(t, total, sum, "total %d", total)
	}
}

func TestQuotas(t *testing.T) {
	tests := []struct {
		total int
		want  []int
	}{
		{16, []int{3, 6, 4, 3}},   // 2,5,4,3 + remainder 2
		{25, []int{4, 9, 7, 5}},   // 3,8,7,5 + remainder 2
		{36, []int{6, 13, 10, 7}}, // 5,12,10,7 + remainder 2
		{100, []int{15, 35, 30, 20}},
		{0, []int{0, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.total), func(t *testing.T) {
			assert.Equal(t, tt.want, Quotas(tt.total))
		})
	}
}

func TestAssignCoverage(t *testing.T) {
	codePattern := regexp.MustCompile(`^[CMYK]-[ENSW]{1,4}-\d+$`)

	for size := labyrinth.MinSize; size <= labyrinth.MaxSize; size++ {
		for i := 0; i < 4; i++ {
			seed := fmt.Sprintf("theme-%d-%d", size, i)
			t.Run(seed, func(t *testing.T) {
				g, err := labyrinth.NewGenerator(size, seed)
				require.NoError(t, err)
				m := g.Generate()

				res, err := Assign(m, g.Rand())
				require.NoError(t, err)
				assert.Zero(t, res.Defaulted)

				quotas := Quotas(size * size)
				for i, r := range Regions {
					assert.Equal(t, quotas[i], res.Quotas[r.Name], r.Name)
					assert.Equal(t, quotas[i], res.Counts[r.Name], r.Name)
				}

				codes := make(map[string]bool)
				numbers := make(map[int]bool)
				counts := make(map[string]int)
				for _, tile := range m.Tiles {
					require.NotEmpty(t, tile.Area, "tile %s", tile.ID)
					assert.Regexp(t, codePattern, tile.Code)
					assert.False(t, codes[tile.Code], "duplicate code %s", tile.Code)
					codes[tile.Code] = true
					numbers[tile.Number] = true
					counts[tile.Area]++

					region, ok := RegionByName(tile.Area)
					require.True(t, ok)
					assert.Equal(t, fmt.Sprintf("%s-%s-%d", region.Code, tile.Open, tile.Number), tile.Code)
				}
				assert.Len(t, numbers, size*size)
				for n := 1; n <= size*size; n++ {
					assert.True(t, numbers[n], "number %d unused", n)
				}
				assert.Equal(t, res.Counts, counts)

				if res.Fallback > 0 {
					t.Logf("seed %s: %d tiles placed by pool fallback", seed, res.Fallback)
				}
			})
		}
	}
}

func TestAssignDeterministic(t *testing.T) {
	codes := func() []string {
		g, err := labyrinth.NewGenerator(8, "theme-replay")
		require.NoError(t, err)
		m := g.Generate()
		_, err = Assign(m, g.Rand())
		require.NoError(t, err)

		out := make([]string, len(m.Tiles))
		for i, tile := range m.Tiles {
			out[i] = tile.Code
		}
		return out
	}

	assert.Equal(t, codes(), codes())
}

func TestAssignFirstRegionIsContiguous(t *testing.T) {
	// The first region grows on an empty grid, so BFS alone always reaches quota.
	g, err := labyrinth.NewGenerator(10, "contiguous")
	require.NoError(t, err)
	m := g.Generate()

	_, err = Assign(m, rand.New(rand.NewSource(7)))
	require.NoError(t, err)

	var first []*labyrinth.Tile
	for _, tile := range m.Tiles {
		if tile.Area == Regions[0].Name {
			first = append(first, tile)
		}
	}
	require.Len(t, first, 15)

	// Flood fill over grid adjacency restricted to the region.
	in := make(map[string]bool)
	for _, tile := range first {
		in[tile.ID] = true
	}
	seen := map[string]bool{first[0].ID: true}
	queue := []*labyrinth.Tile{first[0]}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range m.Neighbors(cur.X, cur.Y) {
			if in[n.ID] && !seen[n.ID] {
				seen[n.ID] = true
				queue = append(queue, n)
			}
		}
	}
	assert.Len(t, seen, 15)
}

func TestAssignFallbackIsNotWarned(t *testing.T) {
	var buf bytes.Buffer
	prev := logger.Slog()
	logger.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))
	t.Cleanup(func() { logger.SetLogger(prev) })

	fallback := 0
	for size := labyrinth.MinSize; size <= labyrinth.MaxSize; size++ {
		for i := 0; i < 10; i++ {
			g, err := labyrinth.NewGenerator(size, fmt.Sprintf("quiet-%d-%d", size, i))
			require.NoError(t, err)
			res, err := Assign(g.Generate(), g.Rand())
			require.NoError(t, err)
			fallback += res.Fallback
		}
	}

	assert.Positive(t, fallback, "pool fallback should occur across this many builds")
	assert.Empty(t, buf.String(), "routine fallback must not log at warning level")
}

func TestRegionByName(t *testing.T) {
	r, ok := RegionByName("Laboratory")
	require.True(t, ok)
	assert.Equal(t, "K", r.Code)

	_, ok = RegionByName("Bridge")
	assert.False(t, ok)
	assert.Equal(t, "Technical", DefaultRegion.Name)
}
