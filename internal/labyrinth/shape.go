package labyrinth

import "fmt"

// Shape is the structural category of a tile, derived from its open directions.
type Shape int

const (
	DeadEnd   Shape = iota // 1 open edge
	Corridor               // 2 opposite open edges
	Turn                   // 2 adjacent open edges
	Junction               // 3 open edges
	Crossroad              // 4 open edges
)

// String returns the shape name as stored and sent to clients
func (s Shape) String() string {
	switch s {
	case DeadEnd:
		return "dead_end"
	case Corridor:
		return "corridor"
	case Turn:
		return "turn"
	case Junction:
		return "t_section"
	case Crossroad:
		return "crossroad"
	default:
		return "unknown"
	}
}

// ParseShape converts a stored shape name back into a Shape.
func ParseShape(name string) (Shape, bool) {
	for _, s := range []Shape{DeadEnd, Corridor, Turn, Junction, Crossroad} {
		if s.String() == name {
			return s, true
		}
	}
	return DeadEnd, false
}

// Classify maps a set of open directions to its tile shape.
// An empty set never comes out of a generated maze and is reported as ErrNoOpenDirections.
func Classify(open DirectionSet) (Shape, error) {
	switch open.Len() {
	case 1:
		return DeadEnd, nil
	case 2:
		if open == NewDirectionSet(North, South) || open == NewDirectionSet(East, West) {
			return Corridor, nil
		}
		return Turn, nil
	case 3:
		return Junction, nil
	case 4:
		return Crossroad, nil
	}
	return DeadEnd, ErrNoOpenDirections
}

// ImageName returns the client image file for a tile of the given shape.
// Junction images are keyed by the single closed side.
func ImageName(shape Shape, open DirectionSet) string {
	switch shape {
	case DeadEnd:
		return fmt.Sprintf("tile_dead_end_%s.png", open)
	case Corridor:
		return fmt.Sprintf("tile_corridor_%s.png", open)
	case Turn:
		return fmt.Sprintf("tile_turn_%s.png", open)
	case Junction:
		missing := open.Missing()
		if len(missing) != 1 {
			return "tile_t_section.png"
		}
		return fmt.Sprintf("tile_t_section_%s.png", missing[0].Letter())
	default:
		return "tile_crossroad.png"
	}
}
