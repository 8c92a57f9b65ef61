// Package database persists generated labyrinths, their tiles and entity
// positions in SQLite or PostgreSQL.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

var (
	ErrLabyrinthNotFound = errors.New("database: labyrinth not found")
	ErrTileNotFound      = errors.New("database: tile not found")
	ErrDuplicateEntity   = errors.New("database: duplicate entity in turn")
)

// Database wraps the connection pool and provides persistence operations.
type Database struct {
	db      *sql.DB
	dialect Dialect
	qb      *QueryBuilder
}

// Open opens or creates the SQLite database at the given path.
func Open(path string) (*Database, error) {
	return OpenWithConfig(DefaultConfig(path))
}

// OpenWithConfig connects with the configured driver and runs migrations.
func OpenWithConfig(cfg Config) (*Database, error) {
	dialect := NewDialect(DialectType(cfg.Driver))

	var dsn string
	switch dialect.(type) {
	case *PostgresDialect:
		dsn = cfg.Postgres.DSN()
	default:
		dir := filepath.Dir(cfg.SQLitePath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = cfg.SQLitePath
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, ok := dialect.(*PostgresDialect); !ok {
		// PRAGMAs are per connection and SQLite has a single writer.
		db.SetMaxOpenConns(1)
	} else {
		if cfg.Postgres.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		}
		if cfg.Postgres.MaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
		}
		if cfg.Postgres.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
	}

	for _, stmt := range dialect.InitStatements() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run %q: %w", stmt, err)
		}
	}

	d := &Database{db: db, dialect: dialect, qb: NewQueryBuilder(dialect)}

	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return d, nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// DB returns the underlying connection pool.
func (d *Database) DB() *sql.DB {
	return d.db
}

// Dialect returns the SQL dialect in use.
func (d *Database) Dialect() Dialect {
	return d.dialect
}

// migrate creates the database schema if it doesn't exist.
func (d *Database) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS labyrinths (
			id TEXT PRIMARY KEY,
			size INTEGER NOT NULL,
			seed TEXT NOT NULL,
			start_x INTEGER NOT NULL,
			start_y INTEGER NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS tiles (
			labyrinth_id TEXT NOT NULL REFERENCES labyrinths(id) ON DELETE CASCADE,
			tile_id TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			type TEXT NOT NULL,
			image TEXT NOT NULL,
			open_directions {json} NOT NULL,
			tile_code TEXT NOT NULL,
			tile_number INTEGER NOT NULL DEFAULT 0,
			thematic_area TEXT NOT NULL,
			revealed {bool},
			on_board {bool},
			PRIMARY KEY (labyrinth_id, tile_id)
		)`,

		`CREATE TABLE IF NOT EXISTS entity_positions (
			id {serial},
			labyrinth_id TEXT NOT NULL REFERENCES labyrinths(id) ON DELETE CASCADE,
			turn_number INTEGER NOT NULL,
			entity_type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			tile_id TEXT NOT NULL,
			UNIQUE (labyrinth_id, turn_number, entity_id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_tiles_to_place ON tiles(labyrinth_id, revealed, on_board)`,
		`CREATE INDEX IF NOT EXISTS idx_positions_turn ON entity_positions(labyrinth_id, turn_number)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(d.qb.Schema(m)); err != nil {
			return err
		}
	}

	return nil
}
