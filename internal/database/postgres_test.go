package database

import (
	"os"
	"strconv"
	"testing"
	"time"
)

// postgresTestConfig returns PostgreSQL config when enabled, nil otherwise.
// Set these environment variables to run the PostgreSQL variants:
//
//	EPSILON_TEST_POSTGRES=1
//	EPSILON_TEST_POSTGRES_HOST (default: localhost)
//	EPSILON_TEST_POSTGRES_PORT (default: 5432)
//	EPSILON_TEST_POSTGRES_USER (default: epsilon)
//	EPSILON_TEST_POSTGRES_PASSWORD (default: epsilon)
//	EPSILON_TEST_POSTGRES_DATABASE (default: epsilon_test)
func postgresTestConfig() *Config {
	if os.Getenv("EPSILON_TEST_POSTGRES") == "" {
		return nil
	}

	port := 5432
	if p, err := strconv.Atoi(os.Getenv("EPSILON_TEST_POSTGRES_PORT")); err == nil {
		port = p
	}

	return &Config{
		Driver: string(DialectPostgres),
		Postgres: PostgresConfig{
			Host:            envOr("EPSILON_TEST_POSTGRES_HOST", "localhost"),
			Port:            port,
			User:            envOr("EPSILON_TEST_POSTGRES_USER", "epsilon"),
			Password:        envOr("EPSILON_TEST_POSTGRES_PASSWORD", "epsilon"),
			Database:        envOr("EPSILON_TEST_POSTGRES_DATABASE", "epsilon_test"),
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: time.Minute,
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDatabases returns a fresh SQLite database and, when configured, a
// PostgreSQL database with its tables emptied.
func testDatabases(t *testing.T) map[string]*Database {
	t.Helper()
	dbs := map[string]*Database{"sqlite": openTestDB(t)}

	if cfg := postgresTestConfig(); cfg != nil {
		pg, err := OpenWithConfig(*cfg)
		if err != nil {
			t.Logf("PostgreSQL not available: %v", err)
		} else {
			clearTables(pg)
			dbs["postgres"] = pg
			t.Cleanup(func() {
				clearTables(pg)
				pg.Close()
			})
		}
	}
	return dbs
}

func clearTables(d *Database) {
	for _, table := range []string{"entity_positions", "tiles", "labyrinths"} {
		d.db.Exec("DELETE FROM " + table)
	}
}
