// Package repository is the Data Access collaborator: SQLite-backed reads
// of the entity graph the sync engine snapshots, plus the append-only hold
// store. Consumers depend on the interfaces they declare; this package
// satisfies them.
package repository

import (
	"database/sql"

	"zone_control/internal/hold"
	"zone_control/internal/metasync"
	"zone_control/internal/models"
)

// Store bundles every query family over one database handle.
type Store struct {
	db *sql.DB
}

var (
	_ metasync.DataAccess = (*Store)(nil)
	_ hold.Store          = (*Store)(nil)
)

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ZoneSite is a control-zone widget together with the location whose
// clock its schedule resolves on and the thermostat it drives. The hold
// restorer walks these.
type ZoneSite struct {
	Widget         *models.ControlZoneWidget
	Location       models.Location
	ThermostatDuid string
}
