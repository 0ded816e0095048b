// Package metasync pushes resolved zone state and device configuration to
// the DP-PES device-control service, one entity family at a time. A batch
// never aborts on a single entity: every entity comes back as exactly one
// Exported or Failed outcome.
package metasync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"zone_control/internal/hold"
	"zone_control/internal/logger"
	"zone_control/internal/models"
	"zone_control/internal/pes"
)

// ThermostatSnapshot is a thermostat with its resolved relations, fetched
// once per sync call. A nil relation is a relationship-integrity failure
// for that thermostat only.
type ThermostatSnapshot struct {
	Thermostat models.Thermostat
	Zone       *models.HvacZone
	Widget     *models.ControlZoneWidget
	Node       *models.Node
	Gateway    *models.Gateway
}

// ZoneBinding ties a control-zone widget to the thermostat duid it drives,
// scoped under one gateway.
type ZoneBinding struct {
	Widget         *models.ControlZoneWidget
	ThermostatDuid string
}

// GatewaySnapshot is a gateway with every zone widget whose thermostat
// node hangs off it.
type GatewaySnapshot struct {
	Gateway models.Gateway
	Zones   []ZoneBinding
}

// ElectricSensorSnapshot is an electric sensor with its owning gateway.
type ElectricSensorSnapshot struct {
	Sensor  models.ElectricSensor
	Gateway *models.Gateway
}

// DataAccess is the read-side collaborator. The engine treats everything
// it returns as a snapshot; the surrounding CRUD layer re-triggers a sync
// whenever any of it mutates.
type DataAccess interface {
	Location(ctx context.Context, id string) (*models.Location, error)
	Organization(ctx context.Context, id string) (*models.Organization, error)
	TemperaturePlaces(ctx context.Context, locationID string) ([]models.TemperatureSensorPlace, error)
	Thermostats(ctx context.Context, locationID string) ([]ThermostatSnapshot, error)
	Gateways(ctx context.Context, locationID string) ([]GatewaySnapshot, error)
	ElectricSensors(ctx context.Context, locationID string) ([]ElectricSensorSnapshot, error)
	ElectricityPrices(ctx context.Context, locationID string) ([]models.ElectricityPrice, error)
	TimeOfUseRates(ctx context.Context, locationID string) ([]models.TimeOfUseRate, error)
}

// DeviceClient is the slice of the DP-PES client the engine submits
// through. The DP-PES sink is idempotent; resubmitting is always safe.
type DeviceClient interface {
	PushTemperatureMetadata(ctx context.Context, p pes.TemperatureMetadata) error
	PushThermostatMetadata(ctx context.Context, p pes.ThermostatMetadata) error
	PushGatewaySchedules(ctx context.Context, p pes.GatewaySchedules) error
	PushElectricSensorMetadata(ctx context.Context, p pes.ElectricSensorMetadata) error
}

const defaultWorkers = 4

// Engine runs the per-family sync batches.
type Engine struct {
	store   DataAccess
	client  DeviceClient
	holds   *hold.Manager
	log     *logger.Logger
	workers int
	now     func() time.Time
}

// NewEngine wires the engine's collaborators. workers bounds the number of
// concurrent submissions per batch; <=0 picks the default.
func NewEngine(store DataAccess, client DeviceClient, holds *hold.Manager, log *logger.Logger, workers int) *Engine {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Engine{
		store:   store,
		client:  client,
		holds:   holds,
		log:     log,
		workers: workers,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// runBatch fans fn out over n entities on a bounded pool. One entity's
// failure never cancels its siblings; fn records exactly one outcome per
// index on acc.
func (e *Engine) runBatch(n int, acc *Accumulator, fn func(i int)) {
	sem := make(chan struct{}, e.workers)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(i)
		}(i)
	}
	wg.Wait()
}

// location resolves the sync scope. An unknown location is the one error
// class that propagates out of a sync call as a hard error.
func (e *Engine) location(ctx context.Context, id string) (*models.Location, *time.Location, error) {
	loc, err := e.store.Location(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("location %s: %w", id, err)
	}
	tz, err := time.LoadLocation(loc.Timezone)
	if err != nil {
		return nil, nil, fmt.Errorf("location %s timezone %q: %w", id, loc.Timezone, err)
	}
	return loc, tz, nil
}

// SyncElectricSensorsAndSchedules runs the electric sensor push and then
// the gateway schedule push for the same location. The trailing schedule
// push mirrors what thermostat installs expect after metering changes;
// composing the two here keeps the dependency visible instead of hiding
// it inside the sensor sync.
func (e *Engine) SyncElectricSensorsAndSchedules(ctx context.Context, locationID string) (sensors Result, schedules Result, err error) {
	sensors, err = e.SyncElectricSensors(ctx, locationID)
	if err != nil {
		return sensors, Result{}, err
	}
	schedules, err = e.SyncGatewaySchedules(ctx, locationID)
	return sensors, schedules, err
}
