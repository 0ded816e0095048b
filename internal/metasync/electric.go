package metasync

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"zone_control/internal/pes"
)

// SyncElectricSensors pushes prices, time-of-use rates and clamp
// configuration for every electric sensor under the location's gateways.
// Callers that also need the gateway schedules refreshed use
// SyncElectricSensorsAndSchedules.
func (e *Engine) SyncElectricSensors(ctx context.Context, locationID string) (Result, error) {
	if _, _, err := e.location(ctx, locationID); err != nil {
		return Result{}, err
	}
	sensors, err := e.store.ElectricSensors(ctx, locationID)
	if err != nil {
		return Result{}, err
	}
	prices, err := e.store.ElectricityPrices(ctx, locationID)
	if err != nil {
		return Result{}, err
	}
	rates, err := e.store.TimeOfUseRates(ctx, locationID)
	if err != nil {
		return Result{}, err
	}

	priceEntries := make([]pes.PriceEntry, 0, len(prices))
	for _, p := range prices {
		priceEntries = append(priceEntries, pes.PriceEntry{
			PerKwh: p.PerKwh,
			Since:  p.Since.UTC().Format(time.RFC3339),
		})
	}
	rateEntries := make([]pes.TimeOfUseEntry, 0, len(rates))
	for _, r := range rates {
		rateEntries = append(rateEntries, pes.TimeOfUseEntry{
			Label:  r.Label,
			PerKwh: r.PerKwh,
			From:   r.From.String(),
			To:     r.To.String(),
		})
	}

	acc := NewAccumulator()
	e.runBatch(len(sensors), acc, func(i int) {
		e.syncElectricSensor(ctx, sensors[i], priceEntries, rateEntries, acc)
	})
	return acc.Result(), nil
}

func (e *Engine) syncElectricSensor(ctx context.Context, s ElectricSensorSnapshot, prices []pes.PriceEntry, rates []pes.TimeOfUseEntry, acc *Accumulator) {
	sensor := s.Sensor
	if s.Gateway == nil {
		acc.Failed(sensor.ID, sensor.Name, fmt.Errorf("electric sensor %s: no owning gateway", sensor.Duid))
		return
	}

	clamps := make([]pes.ClampConfig, 0, len(sensor.Clamps))
	for _, c := range sensor.Clamps {
		pin, err := clampPin(c.PortName)
		if err != nil {
			acc.Failed(sensor.ID, sensor.Name, err)
			return
		}
		clamps = append(clamps, pes.ClampConfig{Pin: pin, RatedAmps: c.RatedAmps})
	}

	payload := pes.ElectricSensorMetadata{
		Duid:   sensor.Duid,
		Name:   sensor.Name,
		Prices: prices,
		Rates:  rates,
		Clamps: clamps,
	}
	if err := e.client.PushElectricSensorMetadata(ctx, payload); err != nil {
		acc.Failed(sensor.ID, sensor.Name, err)
		return
	}
	acc.Exported(sensor.ID, sensor.Name)
}

// clampPin extracts the wire pin number from a "P<n>" port name.
func clampPin(port string) (int, error) {
	digits, ok := strings.CutPrefix(port, "P")
	if !ok {
		return 0, fmt.Errorf("clamp port %q: want P<pin>", port)
	}
	pin, err := strconv.Atoi(digits)
	if err != nil || pin < 0 {
		return 0, fmt.Errorf("clamp port %q: bad pin number", port)
	}
	return pin, nil
}
