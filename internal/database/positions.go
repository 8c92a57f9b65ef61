package database

import (
	"database/sql"
	"fmt"

	"github.com/lawnchairsociety/epsilon/server/internal/scenario"
)

// SavePositions replaces the recorded positions of a labyrinth for one turn.
func (d *Database) SavePositions(labyrinthID string, turn int, positions []scenario.Position) error {
	if err := d.requireLabyrinth(labyrinthID); err != nil {
		return err
	}

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(d.qb.Build(`DELETE FROM entity_positions WHERE labyrinth_id = ? AND turn_number = ?`),
		labyrinthID, turn)
	if err != nil {
		return fmt.Errorf("failed to clear turn %d: %w", turn, err)
	}

	if err := d.insertPositions(tx, labyrinthID, turn, positions); err != nil {
		return err
	}

	return tx.Commit()
}

func (d *Database) insertPositions(tx *sql.Tx, labyrinthID string, turn int, positions []scenario.Position) error {
	stmt, err := tx.Prepare(d.qb.Build(`
		INSERT INTO entity_positions (labyrinth_id, turn_number, entity_type, entity_id, tile_id)
		VALUES (?, ?, ?, ?, ?)
	`))
	if err != nil {
		return fmt.Errorf("failed to prepare position insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range positions {
		if _, err := stmt.Exec(labyrinthID, turn, string(p.EntityType), p.EntityID, p.TileID); err != nil {
			if d.dialect.IsDuplicateKeyError(err) {
				return fmt.Errorf("%w: entity %s listed twice in turn %d", ErrDuplicateEntity, p.EntityID, turn)
			}
			return fmt.Errorf("failed to insert position for %s: %w", p.EntityID, err)
		}
	}

	return nil
}

// GetPositions returns the positions recorded for a turn in insertion order.
func (d *Database) GetPositions(labyrinthID string, turn int) ([]scenario.Position, error) {
	if err := d.requireLabyrinth(labyrinthID); err != nil {
		return nil, err
	}

	rows, err := d.db.Query(d.qb.Build(`
		SELECT entity_type, entity_id, tile_id FROM entity_positions
		WHERE labyrinth_id = ? AND turn_number = ?
		ORDER BY id
	`), labyrinthID, turn)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	positions := []scenario.Position{}
	for rows.Next() {
		var p scenario.Position
		var kind string
		if err := rows.Scan(&kind, &p.EntityID, &p.TileID); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		p.EntityType = scenario.EntityType(kind)
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// LatestTurn returns the highest turn with recorded positions, or 0.
func (d *Database) LatestTurn(labyrinthID string) (int, error) {
	if err := d.requireLabyrinth(labyrinthID); err != nil {
		return 0, err
	}

	var turn int
	err := d.db.QueryRow(d.qb.Build(`
		SELECT COALESCE(MAX(turn_number), 0) FROM entity_positions WHERE labyrinth_id = ?
	`), labyrinthID).Scan(&turn)
	if err != nil {
		return 0, fmt.Errorf("failed to query latest turn: %w", err)
	}
	return turn, nil
}
