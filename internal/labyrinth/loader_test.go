package labyrinth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndLoadYAML(t *testing.T) {
	m, err := Generate(6, "yaml-export")
	require.NoError(t, err)
	m.Tiles[0].Area = "Command"
	m.Tiles[0].Code = "C-" + m.Tiles[0].Open.String() + "-1"

	path := filepath.Join(t.TempDir(), "labyrinth.yaml")
	require.NoError(t, WriteYAML(m, path))

	loaded, err := LoadFromYAML(path)
	require.NoError(t, err)

	assert.Equal(t, m.Size, loaded.Size)
	assert.Equal(t, m.Seed, loaded.Seed)
	assert.Equal(t, m.Start, loaded.Start)
	assert.Equal(t, openings(m), openings(loaded))
	assert.Equal(t, "Command", loaded.Tiles[0].Area)
	assert.Equal(t, m.Tiles[0].Code, loaded.Tiles[0].Code)
}

func TestToYAMLExits(t *testing.T) {
	m, err := Generate(4, "exits")
	require.NoError(t, err)

	doc := ToYAML(m)
	require.Len(t, doc.Tiles, 16)
	for id, tile := range doc.Tiles {
		assert.Len(t, tile.Exits, len(tile.OpenDirections), "tile %s", id)
	}
}

func TestLoadFromYAMLRejectsBrokenFiles(t *testing.T) {
	tests := map[string]string{
		"empty":    "size: 4\ntiles: {}\n",
		"bad size": "size: 2\ntiles:\n  tile_0_0: {x: 0, y: 0, open_directions: [E]}\n",
		"bad dir": `size: 4
tiles:
  tile_0_0: {x: 0, y: 0, open_directions: [Q]}
`,
		"missing tiles": `size: 4
tiles:
  tile_0_0: {x: 0, y: 0, open_directions: [E]}
  tile_1_0: {x: 1, y: 0, open_directions: [W]}
`,
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))

			_, err := LoadFromYAML(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadFromYAMLMissingFile(t *testing.T) {
	_, err := LoadFromYAML(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
