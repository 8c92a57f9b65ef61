package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/epsilon/server/internal/labyrinth"
	"github.com/lawnchairsociety/epsilon/server/internal/scenario"
)

// positionsFile is the companion file written next to labyrinth.yaml.
type positionsFile struct {
	Seed      string              `yaml:"seed"`
	PartyTile string              `yaml:"party_tile"`
	BossTile  string              `yaml:"boss_tile"`
	Positions []scenario.Position `yaml:"positions"`
}

func main() {
	size := flag.Int("size", 6, "Labyrinth size (width and height, 4-10)")
	seed := flag.String("seed", "", "Seed for random generation (default: random)")
	outDir := flag.String("out", "data/labyrinth", "Output directory")
	rosterFile := flag.String("roster", "", "Optional roster YAML file (default: built-in roster)")
	ascii := flag.Bool("ascii", true, "Print an ASCII rendering to stdout")
	flag.Parse()

	roster := scenario.DefaultRoster()
	if *rosterFile != "" {
		data, err := os.ReadFile(*rosterFile)
		if err != nil {
			fail("failed to read roster: %v", err)
		}
		roster = scenario.Roster{}
		if err := yaml.Unmarshal(data, &roster); err != nil {
			fail("failed to parse roster: %v", err)
		}
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		fail("failed to create output directory: %v", err)
	}

	fmt.Print("Generating labyrinth... ")
	res, err := scenario.Build(*size, *seed, roster)
	if err != nil {
		fmt.Println("FAILED")
		fail("%v", err)
	}
	fmt.Printf("OK (%dx%d, seed %s)\n", res.Maze.Size, res.Maze.Size, res.Maze.Seed)

	labPath := filepath.Join(*outDir, "labyrinth.yaml")
	fmt.Printf("Writing %s... ", labPath)
	if err := labyrinth.WriteYAML(res.Maze, labPath); err != nil {
		fmt.Println("FAILED")
		fail("%v", err)
	}
	fmt.Println("OK")

	posPath := filepath.Join(*outDir, "positions.yaml")
	fmt.Printf("Writing %s... ", posPath)
	data, err := yaml.Marshal(positionsFile{
		Seed:      res.Maze.Seed,
		PartyTile: res.PartyTile.ID,
		BossTile:  res.BossTile.ID,
		Positions: res.Positions,
	})
	if err == nil {
		err = os.WriteFile(posPath, data, 0644)
	}
	if err != nil {
		fmt.Println("FAILED")
		fail("%v", err)
	}
	fmt.Println("OK")

	if *ascii {
		fmt.Println()
		fmt.Print(labyrinth.Render(res.Maze, marks(res)))
		fmt.Println("  P party   B boss   N npc   letters: region code")
	}

	fmt.Printf("\nRegions:\n")
	names := make([]string, 0, len(res.Themes.Counts))
	for name := range res.Themes.Counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  - %s: %d tiles\n", name, res.Themes.Counts[name])
	}
	if res.Themes.Fallback > 0 {
		fmt.Printf("  (%d tiles placed from the pool)\n", res.Themes.Fallback)
	}
}

// marks labels the party, boss and NPC tiles. Later entries win on shared tiles.
func marks(res *scenario.Result) map[string]byte {
	m := map[string]byte{
		res.PartyTile.ID: 'P',
		res.BossTile.ID:  'B',
	}
	for _, p := range res.Positions {
		if p.EntityType == scenario.EntityNPC {
			m[p.TileID] = 'N'
		}
	}
	return m
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
