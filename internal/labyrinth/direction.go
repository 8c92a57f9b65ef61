package labyrinth

import "strings"

// Direction represents a cardinal direction
type Direction int

const (
	North Direction = iota
	South
	East
	West
)

// AllDirections returns all four cardinal directions
func AllDirections() []Direction {
	return []Direction{North, South, East, West}
}

// Opposite returns the opposite direction
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	}
	return d
}

// Letter returns the single-letter code used in tile codes and payloads.
func (d Direction) Letter() string {
	switch d {
	case North:
		return "N"
	case South:
		return "S"
	case East:
		return "E"
	case West:
		return "W"
	}
	return "?"
}

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case South:
		return "south"
	case East:
		return "east"
	case West:
		return "west"
	}
	return "unknown"
}

// Delta returns the coordinate offset of one step in this direction.
// Y grows southwards.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case North:
		return 0, -1
	case South:
		return 0, 1
	case East:
		return 1, 0
	case West:
		return -1, 0
	}
	return 0, 0
}

// ParseDirection parses a single-letter direction code.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToUpper(s) {
	case "N":
		return North, true
	case "S":
		return South, true
	case "E":
		return East, true
	case "W":
		return West, true
	}
	return North, false
}

// letterOrder lists directions alphabetically by letter (E, N, S, W).
var letterOrder = [4]Direction{East, North, South, West}

// DirectionSet is a subset of the four cardinal directions.
type DirectionSet uint8

// NewDirectionSet builds a set from the given directions.
func NewDirectionSet(dirs ...Direction) DirectionSet {
	var s DirectionSet
	for _, d := range dirs {
		s = s.Add(d)
	}
	return s
}

// Add returns the set with d included.
func (s DirectionSet) Add(d Direction) DirectionSet {
	return s | 1<<uint(d)
}

// Has reports whether d is in the set.
func (s DirectionSet) Has(d Direction) bool {
	return s&(1<<uint(d)) != 0
}

// Len returns the number of directions in the set.
func (s DirectionSet) Len() int {
	n := 0
	for _, d := range letterOrder {
		if s.Has(d) {
			n++
		}
	}
	return n
}

// Sorted returns the directions in alphabetical letter order.
func (s DirectionSet) Sorted() []Direction {
	dirs := make([]Direction, 0, 4)
	for _, d := range letterOrder {
		if s.Has(d) {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// Missing returns the directions not in the set, in alphabetical letter order.
func (s DirectionSet) Missing() []Direction {
	return (^s & NewDirectionSet(North, South, East, West)).Sorted()
}

// Letters returns the sorted single-letter codes, e.g. ["E", "N"].
func (s DirectionSet) Letters() []string {
	dirs := s.Sorted()
	letters := make([]string, len(dirs))
	for i, d := range dirs {
		letters[i] = d.Letter()
	}
	return letters
}

// String returns the sorted letters joined together, e.g. "EN".
func (s DirectionSet) String() string {
	return strings.Join(s.Letters(), "")
}

// ParseDirectionSet parses letter codes back into a set.
func ParseDirectionSet(letters []string) (DirectionSet, error) {
	var s DirectionSet
	for _, l := range letters {
		d, ok := ParseDirection(l)
		if !ok {
			return 0, &InvalidDirectionError{Value: l}
		}
		s = s.Add(d)
	}
	return s, nil
}

// InvalidDirectionError is returned when a direction code cannot be parsed.
type InvalidDirectionError struct {
	Value string
}

func (e *InvalidDirectionError) Error() string {
	return "labyrinth: invalid direction " + `"` + e.Value + `"`
}
