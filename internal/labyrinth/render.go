package labyrinth

import "strings"

// Render draws m as ASCII art, north up. Each cell shows its mark from marks
// (keyed by tile ID) or else the first letter of its tile code.
//
//	+---+---+
//	| C   M |
//	+   +---+
func Render(m *Maze, marks map[string]byte) string {
	var b strings.Builder

	for y := 0; y < m.Size; y++ {
		for x := 0; x < m.Size; x++ {
			b.WriteByte('+')
			if m.Tile(x, y).Open.Has(North) {
				b.WriteString("   ")
			} else {
				b.WriteString("---")
			}
		}
		b.WriteString("+\n")

		for x := 0; x < m.Size; x++ {
			t := m.Tile(x, y)
			if t.Open.Has(West) {
				b.WriteByte(' ')
			} else {
				b.WriteByte('|')
			}
			b.WriteByte(' ')
			b.WriteByte(cellMark(t, marks))
			b.WriteByte(' ')
		}
		b.WriteString("|\n")
	}

	for x := 0; x < m.Size; x++ {
		b.WriteString("+---")
	}
	b.WriteString("+\n")

	return b.String()
}

func cellMark(t *Tile, marks map[string]byte) byte {
	if c, ok := marks[t.ID]; ok {
		return c
	}
	if t.Code != "" {
		return t.Code[0]
	}
	return ' '
}
