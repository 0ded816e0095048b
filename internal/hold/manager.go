// Package hold manages manual overrides of a control zone's schedule:
// creating them, deciding whether one is currently in force, expiring
// them, and restoring schedule-driven state once one lapses.
package hold

import (
	"context"
	"fmt"
	"time"

	"zone_control/internal/models"
	"zone_control/internal/schedule"

	"github.com/google/uuid"
)

// Store is the persistence collaborator for holds. Holds are append-only:
// the only mutation is stamping ExpireAtActual.
type Store interface {
	Append(ctx context.Context, h models.HvacHold) error
	// ByZone returns a zone's holds, most recently created first.
	ByZone(ctx context.Context, zoneID string) ([]models.HvacHold, error)
	SetExpireAt(ctx context.Context, holdID string, at time.Time) error
}

const (
	// restoreGuard skips restoration when a schedule transition is about
	// to fire anyway, so the two don't race.
	restoreGuard = 2 * time.Minute

	// indefiniteYears pushes the expiry of a hold created in a zone with
	// no upcoming events far enough out to never lapse in practice.
	indefiniteYears = 100
)

// Spec is the caller-supplied shape of a new hold.
type Spec struct {
	Mode             models.HvacMode
	SetpointC        *float64
	HeatingSetpointC *float64
	CoolingSetpointC *float64
	Origin           models.HoldOrigin
	Author           string
}

// validate reuses the event setpoint invariant: a hold carries the same
// mode/setpoint shape as a schedule event.
func (s Spec) validate() error {
	probe := models.ScheduleEvent{
		Mode:             s.Mode,
		SetpointC:        s.SetpointC,
		HeatingSetpointC: s.HeatingSetpointC,
		CoolingSetpointC: s.CoolingSetpointC,
	}
	return probe.Validate()
}

// RestoreAction is the device state to push once a hold has lapsed: the
// mode and setpoints of the schedule event currently in force.
type RestoreAction struct {
	Mode             models.HvacMode
	SetpointC        *float64
	HeatingSetpointC *float64
	CoolingSetpointC *float64
}

// Manager owns hold lifecycle for control zones.
type Manager struct {
	store Store
}

func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Create records a new hold on the widget. Its expiry, both estimated and
// actual, is the next resolved schedule event's occurrence instant, or
// effectively never when the zone has no upcoming event in its cycle.
func (m *Manager) Create(ctx context.Context, w *models.ControlZoneWidget, loc *time.Location, spec Spec, now time.Time) (models.HvacHold, error) {
	if err := spec.validate(); err != nil {
		return models.HvacHold{}, fmt.Errorf("hold for zone %s: %w", w.ID, err)
	}

	_, next := schedule.Resolve(w, now, loc)
	expire := now.UTC().AddDate(indefiniteYears, 0, 0)
	if next != nil {
		expire = next.OccursAt
	}

	h := models.HvacHold{
		ID:                uuid.NewString(),
		ZoneID:            w.ID,
		Mode:              spec.Mode,
		Origin:            spec.Origin,
		Author:            spec.Author,
		SetpointC:         spec.SetpointC,
		HeatingSetpointC:  spec.HeatingSetpointC,
		CoolingSetpointC:  spec.CoolingSetpointC,
		ExpireAtEstimated: expire,
		ExpireAtActual:    &expire,
		CreatedAt:         now.UTC(),
	}
	if err := m.store.Append(ctx, h); err != nil {
		return models.HvacHold{}, err
	}
	return h, nil
}

// Active returns the hold currently suppressing the zone's schedule, or
// nil. Only user-initiated holds with an ExpireAtActual strictly in the
// future count; schedule-initiated holds are inert by definition.
func (m *Manager) Active(ctx context.Context, zoneID string, now time.Time) (*models.HvacHold, error) {
	holds, err := m.store.ByZone(ctx, zoneID)
	if err != nil {
		return nil, err
	}
	for i := range holds {
		h := &holds[i]
		if isActive(h, now) {
			return h, nil
		}
	}
	return nil, nil
}

func isActive(h *models.HvacHold, now time.Time) bool {
	return h.Origin == models.UserInitiated &&
		h.ExpireAtActual != nil &&
		h.ExpireAtActual.After(now)
}

// Expire stamps the hold's authoritative expiry. Holds never get deleted.
func (m *Manager) Expire(ctx context.Context, h *models.HvacHold, at time.Time) error {
	at = at.UTC()
	if err := m.store.SetExpireAt(ctx, h.ID, at); err != nil {
		return err
	}
	h.ExpireAtActual = &at
	return nil
}

// ShouldRestore decides whether schedule-driven state must be pushed back
// to the zone's devices. It returns nil when a hold is still in force,
// when there is no upcoming event to eventually take over, or when the
// upcoming event fires within the guard window and will do the job itself.
func (m *Manager) ShouldRestore(ctx context.Context, w *models.ControlZoneWidget, loc *time.Location, now time.Time) (*RestoreAction, error) {
	active, err := m.Active(ctx, w.ID, now)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, nil
	}

	current, next := schedule.Resolve(w, now, loc)
	if next == nil || current == nil {
		return nil, nil
	}
	if next.OccursAt.Sub(now) <= restoreGuard {
		return nil, nil
	}
	return restoreFor(current.Event), nil
}

// restoreFor maps a schedule event onto the device state to push. The
// switch enumerates every mode; a new variant reaching the default branch
// is a programming error and must fail loudly.
func restoreFor(e models.ScheduleEvent) *RestoreAction {
	switch e.Mode {
	case models.ModeOff:
		return &RestoreAction{Mode: models.ModeOff}
	case models.ModeHeating:
		return &RestoreAction{Mode: models.ModeHeating, SetpointC: e.SetpointC}
	case models.ModeCooling:
		return &RestoreAction{Mode: models.ModeCooling, SetpointC: e.SetpointC}
	case models.ModeAuto:
		return &RestoreAction{
			Mode:             models.ModeAuto,
			HeatingSetpointC: e.HeatingSetpointC,
			CoolingSetpointC: e.CoolingSetpointC,
		}
	default:
		panic(models.UnhandledMode(e.Mode))
	}
}
