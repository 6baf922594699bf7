package database

import (
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/viper"
)

// Connect opens the configured database. DB_DRIVER is "pgx" for Postgres or
// "sqlite3" for a local file database.
func Connect() (*sqlx.DB, error) {
	driver := viper.GetString("DB_DRIVER")
	dsn := viper.GetString("DB_DSN")
	switch driver {
	case "pgx", "sqlite3":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
	return sqlx.Connect(driver, dsn)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS washroom_configs (
		device_id TEXT PRIMARY KEY,
		profile   TEXT NOT NULL,
		threshold DOUBLE PRECISION NOT NULL,
		name      TEXT NOT NULL,
		location  TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS hygiene_logs (
		device_id        TEXT NOT NULL,
		recorded_at      TIMESTAMP NOT NULL,
		profile          TEXT NOT NULL,
		base_score       DOUBLE PRECISION NOT NULL,
		final_score      DOUBLE PRECISION NOT NULL,
		decay_applied    DOUBLE PRECISION NOT NULL,
		sensor_data      TEXT NOT NULL,
		component_scores TEXT NOT NULL,
		anomalies        TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS hygiene_logs_recorded_at ON hygiene_logs (recorded_at)`,
	`CREATE TABLE IF NOT EXISTS washroom_current (
		device_id  TEXT PRIMARY KEY,
		payload    TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS washroom_heartbeats (
		device_id      TEXT PRIMARY KEY,
		seen_at        TIMESTAMP NOT NULL,
		uptime_ms      BIGINT NOT NULL,
		free_heap      BIGINT NOT NULL,
		wifi_connected BOOLEAN NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id         TEXT PRIMARY KEY,
		device_id  TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		payload    TEXT NOT NULL
	)`,
}

// Migrate creates the tables used by the repository if they do not exist.
// The statements are valid for both Postgres and SQLite.
func Migrate(db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
