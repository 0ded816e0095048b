package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"zone_control/internal/metasync"
	"zone_control/internal/models"
)

var ErrNotFound = errors.New("not found")

// Location fetches the sync scope. Absence is a hard error: a sync call
// against a missing location has nothing to iterate.
func (s *Store) Location(ctx context.Context, id string) (*models.Location, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, org_id, name, timezone FROM locations WHERE id = ?`, id)
	var l models.Location
	if err := row.Scan(&l.ID, &l.OrgID, &l.Name, &l.Timezone); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (s *Store) Organization(ctx context.Context, id string) (*models.Organization, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, gateway_autoconfigure FROM organizations WHERE id = ?`, id)
	var o models.Organization
	if err := row.Scan(&o.ID, &o.Name, &o.GatewayAutoconfigure); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// TemperaturePlaces lists a location's temperature places with their
// linked unit widgets. Unbound places come back too; the engine decides
// what is in scope.
func (s *Store) TemperaturePlaces(ctx context.Context, locationID string) ([]models.TemperatureSensorPlace, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, kind, COALESCE(sensor_duid, ''), COALESCE(gateway_duid, '')
		FROM temperature_places WHERE location_id = ?`, locationID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var places []models.TemperatureSensorPlace
	for rows.Next() {
		var p models.TemperatureSensorPlace
		var kind string
		if err := rows.Scan(&p.ID, &p.Name, &kind, &p.SensorDuid, &p.GatewayDuid); err != nil {
			return nil, err
		}
		p.Kind = models.TemperaturePlaceKind(kind)
		places = append(places, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range places {
		widgets, err := s.unitWidgets(ctx, places[i].ID)
		if err != nil {
			return nil, err
		}
		places[i].UnitWidgets = widgets
	}
	return places, nil
}

func (s *Store) unitWidgets(ctx context.Context, placeID string) ([]models.UnitWidget, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT uw.id, uw.low_c, uw.high_c, uw.alert_window_m
		FROM place_unit_widgets puw
		JOIN unit_widgets uw ON uw.id = puw.unit_widget_id
		WHERE puw.place_id = ?`, placeID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.UnitWidget
	for rows.Next() {
		var w models.UnitWidget
		if err := rows.Scan(&w.ID, &w.LowBoundC, &w.HighBoundC, &w.AlertWindowM); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// Thermostats fetches each thermostat with its relations resolved through
// LEFT JOINs so a broken link surfaces as a nil relation instead of a
// dropped row.
func (s *Store) Thermostats(ctx context.Context, locationID string) ([]metasync.ThermostatSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.duid, t.name,
			COALESCE(t.node_id, ''), COALESCE(t.zone_id, ''),
			z.id, z.name,
			n.id, n.gateway_id,
			g.id, g.duid, g.name,
			w.id
		FROM thermostats t
		LEFT JOIN hvac_zones z ON z.id = t.zone_id
		LEFT JOIN nodes n ON n.id = t.node_id
		LEFT JOIN gateways g ON g.id = n.gateway_id
		LEFT JOIN zone_widgets w ON w.thermostat_id = t.id
		WHERE t.location_id = ?`, locationID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var snaps []metasync.ThermostatSnapshot
	var widgetIDs []string
	for rows.Next() {
		var (
			snap               metasync.ThermostatSnapshot
			zoneID, zoneName   sql.NullString
			nodeID, nodeGwID   sql.NullString
			gwID, gwDuid, gwNm sql.NullString
			widgetID           sql.NullString
		)
		if err := rows.Scan(
			&snap.Thermostat.ID, &snap.Thermostat.Duid, &snap.Thermostat.Name,
			&snap.Thermostat.NodeID, &snap.Thermostat.ZoneID,
			&zoneID, &zoneName,
			&nodeID, &nodeGwID,
			&gwID, &gwDuid, &gwNm,
			&widgetID,
		); err != nil {
			return nil, err
		}
		if zoneID.Valid {
			snap.Zone = &models.HvacZone{ID: zoneID.String, Name: zoneName.String}
		}
		if nodeID.Valid {
			snap.Node = &models.Node{ID: nodeID.String, GatewayID: nodeGwID.String}
		}
		if gwID.Valid {
			snap.Gateway = &models.Gateway{ID: gwID.String, Duid: gwDuid.String, Name: gwNm.String}
		}
		snaps = append(snaps, snap)
		if widgetID.Valid {
			widgetIDs = append(widgetIDs, widgetID.String)
		} else {
			widgetIDs = append(widgetIDs, "")
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, id := range widgetIDs {
		if id == "" {
			continue
		}
		w, err := s.widget(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("widget %s: %w", id, err)
		}
		snaps[i].Widget = w
	}
	return snaps, nil
}

// Gateways fetches a location's gateways, each with the zone widgets
// whose thermostat node hangs off it.
func (s *Store) Gateways(ctx context.Context, locationID string) ([]metasync.GatewaySnapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, duid, name FROM gateways WHERE location_id = ?`, locationID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var snaps []metasync.GatewaySnapshot
	for rows.Next() {
		var g models.Gateway
		if err := rows.Scan(&g.ID, &g.Duid, &g.Name); err != nil {
			return nil, err
		}
		snaps = append(snaps, metasync.GatewaySnapshot{Gateway: g})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range snaps {
		zones, err := s.zoneBindings(ctx, snaps[i].Gateway.ID)
		if err != nil {
			return nil, err
		}
		snaps[i].Zones = zones
	}
	return snaps, nil
}

func (s *Store) zoneBindings(ctx context.Context, gatewayID string) ([]metasync.ZoneBinding, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT w.id, t.duid
		FROM zone_widgets w
		JOIN thermostats t ON t.id = w.thermostat_id
		JOIN nodes n ON n.id = t.node_id
		WHERE n.gateway_id = ?`, gatewayID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	type binding struct{ widgetID, duid string }
	var raw []binding
	for rows.Next() {
		var b binding
		if err := rows.Scan(&b.widgetID, &b.duid); err != nil {
			return nil, err
		}
		raw = append(raw, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []metasync.ZoneBinding
	for _, b := range raw {
		w, err := s.widget(ctx, b.widgetID)
		if err != nil {
			return nil, fmt.Errorf("widget %s: %w", b.widgetID, err)
		}
		out = append(out, metasync.ZoneBinding{Widget: w, ThermostatDuid: b.duid})
	}
	return out, nil
}

// ElectricSensors fetches a location's metering units with their clamps
// and owning gateway (nil when the node link is broken).
func (s *Store) ElectricSensors(ctx context.Context, locationID string) ([]metasync.ElectricSensorSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.duid, e.name, COALESCE(e.node_id, ''),
			g.id, g.duid, g.name
		FROM electric_sensors e
		LEFT JOIN nodes n ON n.id = e.node_id
		LEFT JOIN gateways g ON g.id = n.gateway_id
		WHERE e.location_id = ?`, locationID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var snaps []metasync.ElectricSensorSnapshot
	for rows.Next() {
		var (
			snap               metasync.ElectricSensorSnapshot
			gwID, gwDuid, gwNm sql.NullString
		)
		if err := rows.Scan(
			&snap.Sensor.ID, &snap.Sensor.Duid, &snap.Sensor.Name, &snap.Sensor.NodeID,
			&gwID, &gwDuid, &gwNm,
		); err != nil {
			return nil, err
		}
		if gwID.Valid {
			snap.Gateway = &models.Gateway{ID: gwID.String, Duid: gwDuid.String, Name: gwNm.String}
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range snaps {
		clamps, err := s.clamps(ctx, snaps[i].Sensor.ID)
		if err != nil {
			return nil, err
		}
		snaps[i].Sensor.Clamps = clamps
	}
	return snaps, nil
}

func (s *Store) clamps(ctx context.Context, sensorID string) ([]models.ElectricClamp, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT port_name, rated_amps FROM electric_clamps WHERE sensor_id = ?`, sensorID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.ElectricClamp
	for rows.Next() {
		var c models.ElectricClamp
		if err := rows.Scan(&c.PortName, &c.RatedAmps); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) ElectricityPrices(ctx context.Context, locationID string) ([]models.ElectricityPrice, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT per_kwh, since FROM electricity_prices WHERE location_id = ? ORDER BY since`, locationID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.ElectricityPrice
	for rows.Next() {
		var p models.ElectricityPrice
		if err := rows.Scan(&p.PerKwh, &p.Since); err != nil {
			return nil, err
		}
		p.Since = p.Since.UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) TimeOfUseRates(ctx context.Context, locationID string) ([]models.TimeOfUseRate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT label, per_kwh, from_hour, from_minute, to_hour, to_minute
		FROM time_of_use_rates WHERE location_id = ?`, locationID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.TimeOfUseRate
	for rows.Next() {
		var r models.TimeOfUseRate
		if err := rows.Scan(&r.Label, &r.PerKwh,
			&r.From.Hour, &r.From.Minute, &r.To.Hour, &r.To.Minute); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ZoneSites lists every control zone with its location, for the hold
// restorer's periodic walk.
func (s *Store) ZoneSites(ctx context.Context) ([]ZoneSite, error) {
	return s.zoneSites(ctx, "")
}

// ZoneSiteByWidget resolves one control zone for the hold API handlers.
func (s *Store) ZoneSiteByWidget(ctx context.Context, widgetID string) (*ZoneSite, error) {
	sites, err := s.zoneSites(ctx, widgetID)
	if err != nil {
		return nil, err
	}
	if len(sites) == 0 {
		return nil, ErrNotFound
	}
	return &sites[0], nil
}

func (s *Store) zoneSites(ctx context.Context, widgetID string) ([]ZoneSite, error) {
	query := `
		SELECT w.id, t.duid, l.id, l.org_id, l.name, l.timezone
		FROM zone_widgets w
		JOIN thermostats t ON t.id = w.thermostat_id
		JOIN locations l ON l.id = t.location_id`
	args := []any{}
	if widgetID != "" {
		query += ` WHERE w.id = ?`
		args = append(args, widgetID)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	type site struct {
		widgetID string
		duid     string
		loc      models.Location
	}
	var raw []site
	for rows.Next() {
		var r site
		if err := rows.Scan(&r.widgetID, &r.duid,
			&r.loc.ID, &r.loc.OrgID, &r.loc.Name, &r.loc.Timezone); err != nil {
			return nil, err
		}
		raw = append(raw, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []ZoneSite
	for _, r := range raw {
		w, err := s.widget(ctx, r.widgetID)
		if err != nil {
			return nil, fmt.Errorf("widget %s: %w", r.widgetID, err)
		}
		out = append(out, ZoneSite{Widget: w, Location: r.loc, ThermostatDuid: r.duid})
	}
	return out, nil
}

// widget loads a control-zone widget and its seven day assignments.
func (s *Store) widget(ctx context.Context, id string) (*models.ControlZoneWidget, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(thermostat_id, ''), fan_mode
		FROM zone_widgets WHERE id = ?`, id)
	var w models.ControlZoneWidget
	if err := row.Scan(&w.ID, &w.Name, &w.ThermostatID, &w.FanMode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT wd.weekday, sc.id, sc.name
		FROM widget_days wd
		JOIN schedules sc ON sc.id = wd.schedule_id
		WHERE wd.widget_id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	type day struct {
		weekday  int
		schedID  string
		schedNm  string
	}
	var days []day
	for rows.Next() {
		var d day
		if err := rows.Scan(&d.weekday, &d.schedID, &d.schedNm); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, d := range days {
		if d.weekday < 0 || d.weekday >= models.DaysPerWeek {
			continue
		}
		events, err := s.scheduleEvents(ctx, d.schedID)
		if err != nil {
			return nil, err
		}
		w.Days[d.weekday] = &models.HvacSchedule{ID: d.schedID, Name: d.schedNm, Events: events}
	}
	return &w, nil
}

func (s *Store) scheduleEvents(ctx context.Context, scheduleID string) ([]models.ScheduleEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mode, hour, minute, setpoint_c, heating_c, cooling_c
		FROM schedule_events WHERE schedule_id = ?
		ORDER BY hour, minute`, scheduleID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.ScheduleEvent
	for rows.Next() {
		var (
			e                 models.ScheduleEvent
			mode              string
			setC, heatC, cool sql.NullFloat64
		)
		if err := rows.Scan(&e.ID, &mode,
			&e.TimeOfDay.Hour, &e.TimeOfDay.Minute,
			&setC, &heatC, &cool); err != nil {
			return nil, err
		}
		e.Mode = models.HvacMode(mode)
		e.SetpointC = nullFloat(setC)
		e.HeatingSetpointC = nullFloat(heatC)
		e.CoolingSetpointC = nullFloat(cool)
		out = append(out, e)
	}
	return out, rows.Err()
}
