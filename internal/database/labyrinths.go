package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/lawnchairsociety/epsilon/server/internal/labyrinth"
	"github.com/lawnchairsociety/epsilon/server/internal/scenario"
)

// SaveLabyrinth stores a maze and all of its tiles in one transaction and
// returns the new labyrinth ID.
func (d *Database) SaveLabyrinth(m *labyrinth.Maze) (string, error) {
	return d.SaveGenerated(m, nil)
}

// SaveGenerated stores a maze, its tiles and its turn-zero positions in one
// transaction, so a rejected position never leaves a labyrinth behind.
func (d *Database) SaveGenerated(m *labyrinth.Maze, positions []scenario.Position) (string, error) {
	id := uuid.NewString()

	tx, err := d.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := d.insertLabyrinth(tx, id, m); err != nil {
		return "", err
	}
	if len(positions) > 0 {
		if err := d.insertPositions(tx, id, 0, positions); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit labyrinth: %w", err)
	}
	return id, nil
}

func (d *Database) insertLabyrinth(tx *sql.Tx, id string, m *labyrinth.Maze) error {
	_, err := tx.Exec(d.qb.Build(`
		INSERT INTO labyrinths (id, size, seed, start_x, start_y)
		VALUES (?, ?, ?, ?, ?)
	`), id, m.Size, m.Seed, m.Start.X, m.Start.Y)
	if err != nil {
		return fmt.Errorf("failed to insert labyrinth: %w", err)
	}

	stmt, err := tx.Prepare(d.qb.Build(`
		INSERT INTO tiles (labyrinth_id, tile_id, x, y, type, image, open_directions,
			tile_code, tile_number, thematic_area, revealed, on_board)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`))
	if err != nil {
		return fmt.Errorf("failed to prepare tile insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range m.Tiles {
		open, err := json.Marshal(t.Open.Letters())
		if err != nil {
			return err
		}
		_, err = stmt.Exec(id, t.ID, t.X, t.Y, t.Shape.String(), t.Image, string(open),
			t.Code, t.Number, t.Area, t.Revealed, t.OnBoard)
		if err != nil {
			return fmt.Errorf("failed to insert tile %s: %w", t.ID, err)
		}
	}
	return nil
}

// GetLabyrinth loads a stored maze with its tiles in row-major order.
func (d *Database) GetLabyrinth(id string) (*labyrinth.Maze, error) {
	m := &labyrinth.Maze{}
	err := d.db.QueryRow(d.qb.Build(`
		SELECT size, seed, start_x, start_y FROM labyrinths WHERE id = ?
	`), id).Scan(&m.Size, &m.Seed, &m.Start.X, &m.Start.Y)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrLabyrinthNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load labyrinth: %w", err)
	}

	tiles, err := d.queryTiles(`WHERE labyrinth_id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(tiles) != m.Size*m.Size {
		return nil, fmt.Errorf("labyrinth %s has %d tiles, want %d", id, len(tiles), m.Size*m.Size)
	}
	m.Tiles = tiles
	return m, nil
}

// LabyrinthExists reports whether id is stored.
func (d *Database) LabyrinthExists(id string) (bool, error) {
	var n int
	err := d.db.QueryRow(d.qb.Build(`SELECT COUNT(*) FROM labyrinths WHERE id = ?`), id).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RevealTile marks a tile as revealed to the players.
func (d *Database) RevealTile(labyrinthID, tileID string) error {
	return d.setTileFlags(labyrinthID, tileID, `revealed = ?`, true)
}

// PlaceTileOnBoard marks a tile as laid on the physical board. A placed tile is
// also revealed.
func (d *Database) PlaceTileOnBoard(labyrinthID, tileID string) error {
	return d.setTileFlags(labyrinthID, tileID, `revealed = ?, on_board = ?`, true, true)
}

func (d *Database) setTileFlags(labyrinthID, tileID, set string, values ...any) error {
	if err := d.requireLabyrinth(labyrinthID); err != nil {
		return err
	}

	args := append(values, labyrinthID, tileID)
	res, err := d.db.Exec(d.qb.Build(`UPDATE tiles SET `+set+` WHERE labyrinth_id = ? AND tile_id = ?`), args...)
	if err != nil {
		return fmt.Errorf("failed to update tile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrTileNotFound, tileID)
	}
	return nil
}

// TilesToPlace returns the tiles that are revealed but not yet on the board.
func (d *Database) TilesToPlace(labyrinthID string) ([]*labyrinth.Tile, error) {
	if err := d.requireLabyrinth(labyrinthID); err != nil {
		return nil, err
	}
	return d.queryTiles(`WHERE labyrinth_id = ? AND revealed = ? AND on_board = ?`, labyrinthID, true, false)
}

func (d *Database) requireLabyrinth(id string) error {
	ok, err := d.LabyrinthExists(id)
	if err != nil {
		return fmt.Errorf("failed to look up labyrinth: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrLabyrinthNotFound, id)
	}
	return nil
}

func (d *Database) queryTiles(where string, args ...any) ([]*labyrinth.Tile, error) {
	rows, err := d.db.Query(d.qb.Build(`
		SELECT tile_id, x, y, type, image, open_directions, tile_code, tile_number,
			thematic_area, revealed, on_board
		FROM tiles `+where+`
		ORDER BY y, x
	`), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tiles: %w", err)
	}
	defer rows.Close()

	var tiles []*labyrinth.Tile
	for rows.Next() {
		var (
			t         labyrinth.Tile
			shapeName string
			openJSON  string
		)
		if err := rows.Scan(&t.ID, &t.X, &t.Y, &shapeName, &t.Image, &openJSON, &t.Code, &t.Number,
			&t.Area, &t.Revealed, &t.OnBoard); err != nil {
			return nil, fmt.Errorf("failed to scan tile: %w", err)
		}

		shape, ok := labyrinth.ParseShape(shapeName)
		if !ok {
			return nil, fmt.Errorf("tile %s: unknown type %q", t.ID, shapeName)
		}
		t.Shape = shape

		var letters []string
		if err := json.Unmarshal([]byte(openJSON), &letters); err != nil {
			return nil, fmt.Errorf("tile %s: bad open_directions: %w", t.ID, err)
		}
		if t.Open, err = labyrinth.ParseDirectionSet(letters); err != nil {
			return nil, fmt.Errorf("tile %s: %w", t.ID, err)
		}

		tiles = append(tiles, &t)
	}
	return tiles, rows.Err()
}
