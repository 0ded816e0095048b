package repository

import (
	"context"
	"database/sql"
	"time"

	"zone_control/internal/models"
)

const (
	insertHoldSQL = `
		INSERT INTO holds (id, zone_id, mode, origin, author,
			setpoint_c, heating_c, cooling_c,
			expire_estimated, expire_actual, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	selectHoldsByZoneSQL = `
		SELECT id, zone_id, mode, origin, author,
			setpoint_c, heating_c, cooling_c,
			expire_estimated, expire_actual, created_at
		FROM holds WHERE zone_id = ?
		ORDER BY created_at DESC
	`

	updateHoldExpireSQL = `UPDATE holds SET expire_actual = ? WHERE id = ?`
)

// Append persists a new hold. Holds are append-only; nothing here ever
// deletes one.
func (s *Store) Append(ctx context.Context, h models.HvacHold) error {
	var expireActual any
	if h.ExpireAtActual != nil {
		expireActual = h.ExpireAtActual.UTC()
	}
	_, err := s.db.ExecContext(ctx, insertHoldSQL,
		h.ID, h.ZoneID, string(h.Mode), string(h.Origin), h.Author,
		h.SetpointC, h.HeatingSetpointC, h.CoolingSetpointC,
		h.ExpireAtEstimated.UTC(), expireActual, h.CreatedAt.UTC(),
	)
	return err
}

// ByZone returns a zone's holds, most recently created first.
func (s *Store) ByZone(ctx context.Context, zoneID string) ([]models.HvacHold, error) {
	rows, err := s.db.QueryContext(ctx, selectHoldsByZoneSQL, zoneID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var holds []models.HvacHold
	for rows.Next() {
		h, err := scanHold(rows)
		if err != nil {
			return nil, err
		}
		holds = append(holds, h)
	}
	return holds, rows.Err()
}

// SetExpireAt stamps the authoritative expiry of a hold.
func (s *Store) SetExpireAt(ctx context.Context, holdID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, updateHoldExpireSQL, at.UTC(), holdID)
	return err
}

func scanHold(rows *sql.Rows) (models.HvacHold, error) {
	var (
		h            models.HvacHold
		mode, origin string
		setC         sql.NullFloat64
		heatC        sql.NullFloat64
		coolC        sql.NullFloat64
		expireActual sql.NullTime
	)
	if err := rows.Scan(
		&h.ID, &h.ZoneID, &mode, &origin, &h.Author,
		&setC, &heatC, &coolC,
		&h.ExpireAtEstimated, &expireActual, &h.CreatedAt,
	); err != nil {
		return models.HvacHold{}, err
	}
	h.Mode = models.HvacMode(mode)
	h.Origin = models.HoldOrigin(origin)
	h.SetpointC = nullFloat(setC)
	h.HeatingSetpointC = nullFloat(heatC)
	h.CoolingSetpointC = nullFloat(coolC)
	if expireActual.Valid {
		t := expireActual.Time.UTC()
		h.ExpireAtActual = &t
	}
	h.ExpireAtEstimated = h.ExpireAtEstimated.UTC()
	h.CreatedAt = h.CreatedAt.UTC()
	return h, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
