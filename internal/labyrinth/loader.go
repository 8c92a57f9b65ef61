package labyrinth

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// LabyrinthYAML represents the structure of an exported labyrinth file
type LabyrinthYAML struct {
	Size   int                 `yaml:"size"`
	Seed   string              `yaml:"seed"`
	StartX int                 `yaml:"start_x"`
	StartY int                 `yaml:"start_y"`
	Tiles  map[string]TileYAML `yaml:"tiles"`
}

// TileYAML represents a tile in the YAML file
type TileYAML struct {
	X              int               `yaml:"x"`
	Y              int               `yaml:"y"`
	Type           string            `yaml:"type"`
	Image          string            `yaml:"image"`
	OpenDirections []string          `yaml:"open_directions,flow"`
	TileCode       string            `yaml:"tile_code,omitempty"`
	ThematicArea   string            `yaml:"thematic_area,omitempty"`
	Exits          map[string]string `yaml:"exits,omitempty"`
}

// ToYAML converts a maze into its file representation.
func ToYAML(m *Maze) *LabyrinthYAML {
	out := &LabyrinthYAML{
		Size:   m.Size,
		Seed:   m.Seed,
		StartX: m.Start.X,
		StartY: m.Start.Y,
		Tiles:  make(map[string]TileYAML, len(m.Tiles)),
	}

	for _, t := range m.Tiles {
		ty := TileYAML{
			X:              t.X,
			Y:              t.Y,
			Type:           t.Shape.String(),
			Image:          t.Image,
			OpenDirections: t.Open.Letters(),
			TileCode:       t.Code,
			ThematicArea:   t.Area,
			Exits:          m.Exits(t),
		}
		out.Tiles[t.ID] = ty
	}

	return out
}

// WriteYAML writes the maze to path.
func WriteYAML(m *Maze, path string) error {
	data, err := yaml.Marshal(ToYAML(m))
	if err != nil {
		return fmt.Errorf("failed to marshal labyrinth: %w", err)
	}

	header := fmt.Sprintf("# Labyrinth %dx%d, seed %q\n# Regenerate with: mazegen -size %d -seed %s\n\n",
		m.Size, m.Size, m.Seed, m.Size, m.Seed)

	if err := os.WriteFile(path, append([]byte(header), data...), 0644); err != nil {
		return fmt.Errorf("failed to write labyrinth file: %w", err)
	}
	return nil
}

// LoadFromYAML loads a labyrinth from a YAML file
func LoadFromYAML(filename string) (*Maze, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read labyrinth file: %w", err)
	}

	var config LabyrinthYAML
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse labyrinth YAML: %w", err)
	}

	return FromYAML(&config)
}

// FromYAML rebuilds a maze from its file representation and checks it.
func FromYAML(config *LabyrinthYAML) (*Maze, error) {
	if config == nil || len(config.Tiles) == 0 {
		return nil, fmt.Errorf("labyrinth configuration is empty")
	}
	if err := ValidateSize(config.Size); err != nil {
		return nil, err
	}

	m := &Maze{
		Size:  config.Size,
		Seed:  config.Seed,
		Start: Point{X: config.StartX, Y: config.StartY},
		Tiles: make([]*Tile, config.Size*config.Size),
	}

	// Sorted IDs keep error messages stable across runs.
	ids := make([]string, 0, len(config.Tiles))
	for id := range config.Tiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		def := config.Tiles[id]
		if !m.InBounds(def.X, def.Y) {
			return nil, fmt.Errorf("tile %s at (%d,%d) is off the grid", id, def.X, def.Y)
		}
		open, err := ParseDirectionSet(def.OpenDirections)
		if err != nil {
			return nil, fmt.Errorf("tile %s: %w", id, err)
		}
		shape, err := Classify(open)
		if err != nil {
			return nil, fmt.Errorf("tile %s: %w", id, err)
		}
		m.Tiles[def.Y*m.Size+def.X] = &Tile{
			ID:    id,
			X:     def.X,
			Y:     def.Y,
			Open:  open,
			Shape: shape,
			Image: ImageName(shape, open),
			Area:  def.ThematicArea,
			Code:  def.TileCode,
		}
	}

	for i, t := range m.Tiles {
		if t == nil {
			return nil, fmt.Errorf("missing tile at (%d,%d)", i%m.Size, i/m.Size)
		}
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
