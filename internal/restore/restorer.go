// Package restore is the periodic sweep that hands zones back to their
// schedules after a hold lapses. It walks every control zone, asks the
// hold manager whether schedule state must be pushed, and drives the
// thermostat over the modbus endpoints when it must.
package restore

import (
	"context"
	"fmt"
	"time"

	"zone_control/internal/hold"
	"zone_control/internal/logger"
	"zone_control/internal/models"
	"zone_control/internal/pes"
	"zone_control/internal/repository"
	"zone_control/internal/units"
)

// Directory lists the zones to sweep.
type Directory interface {
	ZoneSites(ctx context.Context) ([]repository.ZoneSite, error)
}

// DeviceClient is the modbus slice of the DP-PES client.
type DeviceClient interface {
	PushThermostatStatus(ctx context.Context, p pes.ThermostatStatus) error
	PushSimpleHold(ctx context.Context, p pes.SimpleHold) error
	PushAutoModeHold(ctx context.Context, p pes.AutoModeHold) error
}

// Restorer owns the sweep loop.
type Restorer struct {
	dir    Directory
	holds  *hold.Manager
	client DeviceClient
	log    *logger.Logger
	now    func() time.Time
}

func NewRestorer(dir Directory, holds *hold.Manager, client DeviceClient, log *logger.Logger) *Restorer {
	return &Restorer{
		dir:    dir,
		holds:  holds,
		client: client,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Run sweeps at the given interval until ctx is cancelled.
func (r *Restorer) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep checks every zone once. A zone's failure is logged and never
// stops the sweep; the next tick retries.
func (r *Restorer) Sweep(ctx context.Context) {
	sites, err := r.dir.ZoneSites(ctx)
	if err != nil {
		r.log.Errorw("restore_list_zones_failed", "err", err)
		return
	}
	now := r.now()
	for _, site := range sites {
		if err := r.sweepZone(ctx, site, now); err != nil {
			r.log.Errorw("restore_zone_failed", "zone", site.Widget.ID, "err", err)
		}
	}
}

func (r *Restorer) sweepZone(ctx context.Context, site repository.ZoneSite, now time.Time) error {
	tz, err := time.LoadLocation(site.Location.Timezone)
	if err != nil {
		return fmt.Errorf("timezone %q: %w", site.Location.Timezone, err)
	}
	act, err := r.holds.ShouldRestore(ctx, site.Widget, tz, now)
	if err != nil {
		return err
	}
	if act == nil {
		return nil
	}
	if err := r.push(ctx, site.ThermostatDuid, act); err != nil {
		return err
	}
	r.log.Infow("restored_schedule_state",
		"zone", site.Widget.ID, "thermostat", site.ThermostatDuid, "mode", act.Mode)
	return nil
}

// push drives the thermostat to the restore action's state. The switch
// enumerates every mode; an unhandled variant is a programming error.
func (r *Restorer) push(ctx context.Context, duid string, act *hold.RestoreAction) error {
	switch act.Mode {
	case models.ModeOff:
		return r.client.PushThermostatStatus(ctx, pes.ThermostatStatus{Duid: duid, Status: "off"})
	case models.ModeHeating, models.ModeCooling:
		if act.SetpointC == nil {
			return fmt.Errorf("restore %s: %s action without setpoint", duid, act.Mode)
		}
		return r.client.PushSimpleHold(ctx, pes.SimpleHold{
			Duid:      duid,
			Mode:      string(act.Mode),
			SetPointF: units.CToF(*act.SetpointC),
		})
	case models.ModeAuto:
		if act.HeatingSetpointC == nil || act.CoolingSetpointC == nil {
			return fmt.Errorf("restore %s: AUTO action without setpoint pair", duid)
		}
		return r.client.PushAutoModeHold(ctx, pes.AutoModeHold{
			Duid:             duid,
			SetPointHeatingF: units.CToF(*act.HeatingSetpointC),
			SetPointCoolingF: units.CToF(*act.CoolingSetpointC),
		})
	default:
		panic(models.UnhandledMode(act.Mode))
	}
}
