package metasync

import (
	"context"
	"fmt"
	"time"

	"zone_control/internal/models"
	"zone_control/internal/pes"
	"zone_control/internal/units"
)

// SyncThermostats pushes identity, timezone, schedule reference, fan mode
// and any live hold for every thermostat in the location. exportOnly, when
// non-nil, restricts the batch to the given thermostat ids.
func (e *Engine) SyncThermostats(ctx context.Context, locationID string, exportOnly map[string]struct{}) (Result, error) {
	loc, _, err := e.location(ctx, locationID)
	if err != nil {
		return Result{}, err
	}
	snaps, err := e.store.Thermostats(ctx, locationID)
	if err != nil {
		return Result{}, err
	}

	if exportOnly != nil {
		scoped := snaps[:0]
		for _, s := range snaps {
			if _, ok := exportOnly[s.Thermostat.ID]; ok {
				scoped = append(scoped, s)
			}
		}
		snaps = scoped
	}

	now := e.now()
	acc := NewAccumulator()
	e.runBatch(len(snaps), acc, func(i int) {
		e.syncThermostat(ctx, loc, snaps[i], now, acc)
	})
	return acc.Result(), nil
}

func (e *Engine) syncThermostat(ctx context.Context, loc *models.Location, s ThermostatSnapshot, now time.Time, acc *Accumulator) {
	th := s.Thermostat
	// Every relation is required; a thermostat detached from its zone,
	// widget, node or gateway cannot be addressed downstream.
	switch {
	case s.Zone == nil:
		acc.Failed(th.ID, th.Name, fmt.Errorf("thermostat %s: no linked hvac zone", th.Duid))
		return
	case s.Widget == nil:
		acc.Failed(th.ID, th.Name, fmt.Errorf("thermostat %s: no control-zone widget", th.Duid))
		return
	case s.Node == nil:
		acc.Failed(th.ID, th.Name, fmt.Errorf("thermostat %s: no node", th.Duid))
		return
	case s.Gateway == nil:
		acc.Failed(th.ID, th.Name, fmt.Errorf("thermostat %s: no gateway", th.Duid))
		return
	}

	holdPayload, err := e.holdPayload(ctx, s.Widget, now)
	if err != nil {
		acc.Failed(th.ID, th.Name, err)
		return
	}

	payload := pes.ThermostatMetadata{
		Duid:        th.Duid,
		GatewayDuid: s.Gateway.Duid,
		Name:        th.Name,
		Timezone:    loc.Timezone,
		ScheduleRef: s.Widget.ID,
		FanMode:     s.Widget.FanMode,
		Hold:        holdPayload,
	}
	if err := e.client.PushThermostatMetadata(ctx, payload); err != nil {
		acc.Failed(th.ID, th.Name, err)
		return
	}
	acc.Exported(th.ID, th.Name)
}

// holdPayload builds the optional hold block. A hold whose mode demands a
// setpoint it doesn't carry is logged and omitted rather than failing the
// thermostat; only hold-store errors are fatal to the entity.
func (e *Engine) holdPayload(ctx context.Context, w *models.ControlZoneWidget, now time.Time) (*pes.ThermostatHold, error) {
	h, err := e.holds.Active(ctx, w.ID, now)
	if err != nil {
		return nil, fmt.Errorf("zone %s: load active hold: %w", w.ID, err)
	}
	if h == nil {
		return nil, nil
	}

	payload := &pes.ThermostatHold{
		Mode:      string(h.Mode),
		ExpiresAt: h.ExpireAtActual.UTC().Format(time.RFC3339),
	}
	switch h.Mode {
	case models.ModeOff:
		// no setpoint
	case models.ModeHeating, models.ModeCooling:
		if h.SetpointC == nil {
			e.log.Errorw("hold_missing_setpoint", "zone", w.ID, "hold", h.ID, "mode", h.Mode)
			return nil, nil
		}
		payload.SetPointF = units.CToFPtr(h.SetpointC)
	case models.ModeAuto:
		if h.HeatingSetpointC == nil || h.CoolingSetpointC == nil {
			e.log.Errorw("hold_missing_setpoint", "zone", w.ID, "hold", h.ID, "mode", h.Mode)
			return nil, nil
		}
		payload.SetPointHeatingF = units.CToFPtr(h.HeatingSetpointC)
		payload.SetPointCoolingF = units.CToFPtr(h.CoolingSetpointC)
	default:
		panic(models.UnhandledMode(h.Mode))
	}
	return payload, nil
}
