package labyrinth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		dirs  []Direction
		shape Shape
		image string
	}{
		{[]Direction{North}, DeadEnd, "tile_dead_end_N.png"},
		{[]Direction{West}, DeadEnd, "tile_dead_end_W.png"},
		{[]Direction{North, South}, Corridor, "tile_corridor_NS.png"},
		{[]Direction{East, West}, Corridor, "tile_corridor_EW.png"},
		{[]Direction{North, East}, Turn, "tile_turn_EN.png"},
		{[]Direction{South, West}, Turn, "tile_turn_SW.png"},
		{[]Direction{North, East, South}, Junction, "tile_t_section_W.png"},
		{[]Direction{East, South, West}, Junction, "tile_t_section_N.png"},
		{[]Direction{North, South, East, West}, Crossroad, "tile_crossroad.png"},
	}

	for _, tt := range tests {
		open := NewDirectionSet(tt.dirs...)
		t.Run(open.String(), func(t *testing.T) {
			shape, err := Classify(open)
			require.NoError(t, err)
			assert.Equal(t, tt.shape, shape)
			assert.Equal(t, tt.image, ImageName(shape, open))
		})
	}
}

func TestClassifyAllSubsets(t *testing.T) {
	corridors := map[DirectionSet]bool{
		NewDirectionSet(North, South): true,
		NewDirectionSet(East, West):   true,
	}

	for s := DirectionSet(1); s < 16; s++ {
		shape, err := Classify(s)
		require.NoError(t, err, "set %s", s)

		again, _ := Classify(s)
		assert.Equal(t, shape, again)
		assert.Equal(t, ImageName(shape, s), ImageName(again, s))

		assert.Equal(t, corridors[s], shape == Corridor, "set %s classified %s", s, shape)

		switch s.Len() {
		case 1:
			assert.Equal(t, DeadEnd, shape)
		case 2:
			assert.Contains(t, []Shape{Corridor, Turn}, shape)
		case 3:
			assert.Equal(t, Junction, shape)
		case 4:
			assert.Equal(t, Crossroad, shape)
		}
	}
}

func TestClassifyEmpty(t *testing.T) {
	_, err := Classify(0)
	assert.True(t, errors.Is(err, ErrNoOpenDirections))
}

func TestShapeString(t *testing.T) {
	for _, s := range []Shape{DeadEnd, Corridor, Turn, Junction, Crossroad} {
		parsed, ok := ParseShape(s.String())
		assert.True(t, ok)
		assert.Equal(t, s, parsed)
	}
	assert.Equal(t, "t_section", Junction.String())

	_, ok := ParseShape("spiral")
	assert.False(t, ok)
}

func TestDirectionSet(t *testing.T) {
	s := NewDirectionSet(West, North)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, "NW", s.String())
	assert.Equal(t, []string{"N", "W"}, s.Letters())
	assert.Equal(t, []Direction{East, South}, s.Missing())
	assert.True(t, s.Has(West))
	assert.False(t, s.Has(South))

	parsed, err := ParseDirectionSet([]string{"w", "N"})
	require.NoError(t, err)
	assert.Equal(t, s, parsed)

	_, err = ParseDirectionSet([]string{"X"})
	assert.Error(t, err)

	for _, d := range AllDirections() {
		assert.Equal(t, d, d.Opposite().Opposite())
		dx, dy := d.Delta()
		ox, oy := d.Opposite().Delta()
		assert.Equal(t, 0, dx+ox)
		assert.Equal(t, 0, dy+oy)
	}
}
