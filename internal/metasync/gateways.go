package metasync

import (
	"context"
	"fmt"

	"zone_control/internal/models"
	"zone_control/internal/pes"
	"zone_control/internal/units"
)

// SyncGatewaySchedules pushes one weekly schedule batch per gateway,
// covering every control zone whose thermostat node hangs off it. The
// outcome granularity is the gateway, not the zone.
func (e *Engine) SyncGatewaySchedules(ctx context.Context, locationID string) (Result, error) {
	loc, _, err := e.location(ctx, locationID)
	if err != nil {
		return Result{}, err
	}
	org, err := e.store.Organization(ctx, loc.OrgID)
	if err != nil {
		return Result{}, fmt.Errorf("organization %s: %w", loc.OrgID, err)
	}
	gws, err := e.store.Gateways(ctx, locationID)
	if err != nil {
		return Result{}, err
	}

	acc := NewAccumulator()
	e.runBatch(len(gws), acc, func(i int) {
		e.syncGateway(ctx, gws[i], org.GatewayAutoconfigure, acc)
	})
	return acc.Result(), nil
}

func (e *Engine) syncGateway(ctx context.Context, g GatewaySnapshot, autoconfigure bool, acc *Accumulator) {
	payload := pes.GatewaySchedules{
		GatewayDuid:   g.Gateway.Duid,
		Autoconfigure: autoconfigure,
	}
	for _, z := range g.Zones {
		payload.Zones = append(payload.Zones, pes.ZoneSchedule{
			ThermostatDuid: z.ThermostatDuid,
			Days:           wireWeek(z.Widget),
		})
	}

	if err := e.client.PushGatewaySchedules(ctx, payload); err != nil {
		acc.Failed(g.Gateway.ID, g.Gateway.Name, err)
		return
	}
	acc.Exported(g.Gateway.ID, g.Gateway.Name)
}

// wireWeek converts a widget's assigned day templates to the weekday-keyed
// wire shape. Days without events are left out of the map.
func wireWeek(w *models.ControlZoneWidget) map[string][]pes.WireEvent {
	days := make(map[string][]pes.WireEvent)
	for d := models.Weekday(0); d < models.DaysPerWeek; d++ {
		s := w.Days[d]
		if s == nil || len(s.Events) == 0 {
			continue
		}
		events := make([]pes.WireEvent, 0, len(s.Events))
		for _, ev := range s.Events {
			events = append(events, wireEvent(ev))
		}
		days[d.String()] = events
	}
	return days
}

// wireEvent converts one event, Celsius in, integer Fahrenheit out.
func wireEvent(ev models.ScheduleEvent) pes.WireEvent {
	out := pes.WireEvent{
		Mode: wireMode(ev.Mode),
		Time: ev.TimeOfDay.String(),
	}
	switch ev.Mode {
	case models.ModeOff:
		// status only
	case models.ModeHeating, models.ModeCooling:
		out.SetPointF = units.CToFPtr(ev.SetpointC)
	case models.ModeAuto:
		out.SetPointHeatingF = units.CToFPtr(ev.HeatingSetpointC)
		out.SetPointCoolingF = units.CToFPtr(ev.CoolingSetpointC)
	default:
		panic(models.UnhandledMode(ev.Mode))
	}
	return out
}

func wireMode(m models.HvacMode) string {
	switch m {
	case models.ModeOff:
		return "Off"
	case models.ModeHeating:
		return "Heating"
	case models.ModeCooling:
		return "Cooling"
	case models.ModeAuto:
		return "Auto"
	default:
		panic(models.UnhandledMode(m))
	}
}
