package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteDriverName = "sqlite"

// InitDB opens/creates the SQLite database file and ensures tables exist.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// SQLite is not great with many writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS organizations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		gateway_autoconfigure BOOLEAN NOT NULL DEFAULT 0
	);`,
	`CREATE TABLE IF NOT EXISTS locations (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL REFERENCES organizations(id),
		name TEXT NOT NULL,
		timezone TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS gateways (
		id TEXT PRIMARY KEY,
		location_id TEXT NOT NULL REFERENCES locations(id),
		duid TEXT NOT NULL,
		name TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS nodes (
		id TEXT PRIMARY KEY,
		gateway_id TEXT NOT NULL REFERENCES gateways(id)
	);`,
	`CREATE TABLE IF NOT EXISTS hvac_zones (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS thermostats (
		id TEXT PRIMARY KEY,
		location_id TEXT NOT NULL REFERENCES locations(id),
		duid TEXT NOT NULL,
		name TEXT NOT NULL,
		node_id TEXT,
		zone_id TEXT
	);`,
	`CREATE TABLE IF NOT EXISTS schedules (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS schedule_events (
		id TEXT PRIMARY KEY,
		schedule_id TEXT NOT NULL REFERENCES schedules(id),
		mode TEXT NOT NULL,
		hour INTEGER NOT NULL,
		minute INTEGER NOT NULL,
		setpoint_c REAL,
		heating_c REAL,
		cooling_c REAL
	);`,
	`CREATE TABLE IF NOT EXISTS zone_widgets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		thermostat_id TEXT REFERENCES thermostats(id),
		fan_mode TEXT NOT NULL DEFAULT 'auto'
	);`,
	`CREATE TABLE IF NOT EXISTS widget_days (
		widget_id TEXT NOT NULL REFERENCES zone_widgets(id),
		weekday INTEGER NOT NULL CHECK (weekday BETWEEN 0 AND 6),
		schedule_id TEXT NOT NULL REFERENCES schedules(id),
		PRIMARY KEY (widget_id, weekday)
	);`,
	`CREATE TABLE IF NOT EXISTS holds (
		id TEXT PRIMARY KEY,
		zone_id TEXT NOT NULL REFERENCES zone_widgets(id),
		mode TEXT NOT NULL,
		origin TEXT NOT NULL,
		author TEXT NOT NULL,
		setpoint_c REAL,
		heating_c REAL,
		cooling_c REAL,
		expire_estimated TIMESTAMP NOT NULL,
		expire_actual TIMESTAMP,
		created_at TIMESTAMP NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS unit_widgets (
		id TEXT PRIMARY KEY,
		low_c REAL NOT NULL,
		high_c REAL NOT NULL,
		alert_window_m INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS temperature_places (
		id TEXT PRIMARY KEY,
		location_id TEXT NOT NULL REFERENCES locations(id),
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		sensor_duid TEXT,
		gateway_duid TEXT
	);`,
	`CREATE TABLE IF NOT EXISTS place_unit_widgets (
		place_id TEXT NOT NULL REFERENCES temperature_places(id),
		unit_widget_id TEXT NOT NULL REFERENCES unit_widgets(id),
		PRIMARY KEY (place_id, unit_widget_id)
	);`,
	`CREATE TABLE IF NOT EXISTS electric_sensors (
		id TEXT PRIMARY KEY,
		location_id TEXT NOT NULL REFERENCES locations(id),
		duid TEXT NOT NULL,
		name TEXT NOT NULL,
		node_id TEXT
	);`,
	`CREATE TABLE IF NOT EXISTS electric_clamps (
		sensor_id TEXT NOT NULL REFERENCES electric_sensors(id),
		port_name TEXT NOT NULL,
		rated_amps REAL NOT NULL,
		PRIMARY KEY (sensor_id, port_name)
	);`,
	`CREATE TABLE IF NOT EXISTS electricity_prices (
		location_id TEXT NOT NULL REFERENCES locations(id),
		per_kwh REAL NOT NULL,
		since TIMESTAMP NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS time_of_use_rates (
		location_id TEXT NOT NULL REFERENCES locations(id),
		label TEXT NOT NULL,
		per_kwh REAL NOT NULL,
		from_hour INTEGER NOT NULL,
		from_minute INTEGER NOT NULL,
		to_hour INTEGER NOT NULL,
		to_minute INTEGER NOT NULL
	);`,
}

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		// rollback is a no-op once committed
		_ = tx.Rollback()
	}()

	for i, stmt := range schemaStatements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}
	return tx.Commit()
}
