package metasync

import (
	"context"
	"errors"

	"zone_control/internal/models"
	"zone_control/internal/pes"
	"zone_control/internal/units"
)

var (
	errMultipleWidgets = errors.New("multiple widgets found")
	errNoGateway       = errors.New("no owning gateway")
)

// SyncTemperatureSensors pushes an alerting spec for every temperature
// place in the location that has a physical sensor bound. Places without
// a sensor are not part of the batch at all.
func (e *Engine) SyncTemperatureSensors(ctx context.Context, locationID string) (Result, error) {
	if _, _, err := e.location(ctx, locationID); err != nil {
		return Result{}, err
	}
	places, err := e.store.TemperaturePlaces(ctx, locationID)
	if err != nil {
		return Result{}, err
	}

	var bound []models.TemperatureSensorPlace
	for _, p := range places {
		if p.SensorDuid != "" {
			bound = append(bound, p)
		}
	}

	acc := NewAccumulator()
	e.runBatch(len(bound), acc, func(i int) {
		e.syncTemperaturePlace(ctx, bound[i], acc)
	})
	return acc.Result(), nil
}

func (e *Engine) syncTemperaturePlace(ctx context.Context, p models.TemperatureSensorPlace, acc *Accumulator) {
	alert, err := alertSpec(p)
	if err != nil {
		acc.Failed(p.ID, p.Name, err)
		return
	}
	if p.GatewayDuid == "" {
		acc.Failed(p.ID, p.Name, errNoGateway)
		return
	}

	payload := pes.TemperatureMetadata{
		GatewayDuid: p.GatewayDuid,
		SensorDuid:  p.SensorDuid,
		PlaceName:   p.Name,
		Alert:       alert,
	}
	if err := e.client.PushTemperatureMetadata(ctx, payload); err != nil {
		acc.Failed(p.ID, p.Name, err)
		return
	}
	acc.Exported(p.ID, p.Name)
}

// alertSpec derives bounds from the place's linked unit widget. No widget
// means no alerting; more than one is ambiguous and fails the place.
func alertSpec(p models.TemperatureSensorPlace) (*pes.TemperatureAlertSpec, error) {
	switch len(p.UnitWidgets) {
	case 0:
		return nil, nil
	case 1:
		w := p.UnitWidgets[0]
		return &pes.TemperatureAlertSpec{
			LowBoundF:    units.CToF(w.LowBoundC),
			HighBoundF:   units.CToF(w.HighBoundC),
			AlertWindowM: w.AlertWindowM,
		}, nil
	default:
		return nil, errMultipleWidgets
	}
}
