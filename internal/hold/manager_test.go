package hold

import (
	"context"
	"errors"
	"testing"
	"time"

	"zone_control/internal/models"
)

type fakeStore struct {
	holds     []models.HvacHold // newest first
	appendErr error
	byZoneErr error
	expired   map[string]time.Time
}

func (f *fakeStore) Append(ctx context.Context, h models.HvacHold) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.holds = append([]models.HvacHold{h}, f.holds...)
	return nil
}

func (f *fakeStore) ByZone(ctx context.Context, zoneID string) ([]models.HvacHold, error) {
	if f.byZoneErr != nil {
		return nil, f.byZoneErr
	}
	var out []models.HvacHold
	for _, h := range f.holds {
		if h.ZoneID == zoneID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeStore) SetExpireAt(ctx context.Context, holdID string, at time.Time) error {
	if f.expired == nil {
		f.expired = map[string]time.Time{}
	}
	f.expired[holdID] = at
	return nil
}

func fp(v float64) *float64 { return &v }

func tp(t time.Time) *time.Time { return &t }

// widget with Monday 08:00 HEATING 20C and 18:00 OFF.
func mondayWidget() *models.ControlZoneWidget {
	w := &models.ControlZoneWidget{ID: "zone-1", ThermostatID: "th-1"}
	w.Days[models.Monday] = &models.HvacSchedule{
		ID: "sched-1",
		Events: []models.ScheduleEvent{
			{ID: "e-morning", Mode: models.ModeHeating, TimeOfDay: models.TimeOfDay{Hour: 8}, SetpointC: fp(20)},
			{ID: "e-evening", Mode: models.ModeOff, TimeOfDay: models.TimeOfDay{Hour: 18}},
		},
	}
	return w
}

func hold(zone string, origin models.HoldOrigin, created time.Time, expire *time.Time) models.HvacHold {
	return models.HvacHold{
		ID:             "h-" + created.Format("150405"),
		ZoneID:         zone,
		Mode:           models.ModeHeating,
		Origin:         origin,
		Author:         "user1",
		SetpointC:      fp(22),
		ExpireAtActual: expire,
		CreatedAt:      created,
	}
}

func TestActive_ScheduleOriginIsInert(t *testing.T) {
	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	st := &fakeStore{holds: []models.HvacHold{
		hold("zone-1", models.ScheduleInitiated, now.Add(-time.Minute), tp(now.Add(time.Hour))),
	}}
	m := NewManager(st)

	got, err := m.Active(context.Background(), "zone-1", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("schedule-initiated hold reported active: %+v", got)
	}
}

func TestActive_ExpiredAndNilExpiry(t *testing.T) {
	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	st := &fakeStore{holds: []models.HvacHold{
		hold("zone-1", models.UserInitiated, now.Add(-time.Minute), tp(now.Add(-time.Second))),
		hold("zone-1", models.UserInitiated, now.Add(-2*time.Minute), nil),
	}}
	m := NewManager(st)

	got, err := m.Active(context.Background(), "zone-1", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("lapsed hold reported active: %+v", got)
	}
}

func TestActive_UserHoldInFuture(t *testing.T) {
	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	inert := hold("zone-1", models.ScheduleInitiated, now, tp(now.Add(time.Hour)))
	live := hold("zone-1", models.UserInitiated, now.Add(-time.Minute), tp(now.Add(10*time.Minute)))
	st := &fakeStore{holds: []models.HvacHold{inert, live}}
	m := NewManager(st)

	got, err := m.Active(context.Background(), "zone-1", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.ID != live.ID {
		t.Fatalf("active = %+v, want %s past the inert newer hold", got, live.ID)
	}
}

func TestCreate_ExpiresAtNextEvent(t *testing.T) {
	st := &fakeStore{}
	m := NewManager(st)
	// Monday 10:00 UTC; next event is 18:00 the same day.
	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

	h, err := m.Create(context.Background(), mondayWidget(), time.UTC, Spec{
		Mode:      models.ModeCooling,
		SetpointC: fp(24),
		Origin:    models.UserInitiated,
		Author:    "user1",
	}, now)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	want := time.Date(2026, time.March, 2, 18, 0, 0, 0, time.UTC)
	if !h.ExpireAtEstimated.Equal(want) {
		t.Fatalf("estimated expiry %v, want %v", h.ExpireAtEstimated, want)
	}
	if h.ExpireAtActual == nil || !h.ExpireAtActual.Equal(want) {
		t.Fatalf("actual expiry %v, want %v", h.ExpireAtActual, want)
	}
	if h.ID == "" || len(st.holds) != 1 {
		t.Fatalf("hold not persisted: %+v", h)
	}
}

func TestCreate_IndefiniteWhenNoNextEvent(t *testing.T) {
	st := &fakeStore{}
	m := NewManager(st)
	w := &models.ControlZoneWidget{ID: "zone-empty"}
	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

	h, err := m.Create(context.Background(), w, time.UTC, Spec{
		Mode:   models.ModeOff,
		Origin: models.UserInitiated,
		Author: "user1",
	}, now)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if h.ExpireAtActual == nil || h.ExpireAtActual.Year() != now.Year()+100 {
		t.Fatalf("expected +100y expiry, got %v", h.ExpireAtActual)
	}
}

func TestCreate_RejectsBadShape(t *testing.T) {
	m := NewManager(&fakeStore{})
	now := time.Now()
	_, err := m.Create(context.Background(), mondayWidget(), time.UTC, Spec{
		Mode:   models.ModeHeating, // missing setpoint
		Origin: models.UserInitiated,
	}, now)
	if !errors.Is(err, models.ErrSingleSetpoint) {
		t.Fatalf("expected ErrSingleSetpoint, got %v", err)
	}
}

func TestShouldRestore_ActiveHoldWins(t *testing.T) {
	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	st := &fakeStore{holds: []models.HvacHold{
		hold("zone-1", models.UserInitiated, now.Add(-time.Minute), tp(now.Add(10*time.Minute))),
	}}
	m := NewManager(st)

	act, err := m.ShouldRestore(context.Background(), mondayWidget(), time.UTC, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if act != nil {
		t.Fatalf("restore action while hold active: %+v", act)
	}
}

func TestShouldRestore_GuardWindow(t *testing.T) {
	// Next event at 18:00; 17:58:30 is within the 2-minute guard.
	now := time.Date(2026, time.March, 2, 17, 58, 30, 0, time.UTC)
	m := NewManager(&fakeStore{})

	act, err := m.ShouldRestore(context.Background(), mondayWidget(), time.UTC, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if act != nil {
		t.Fatalf("restore action inside guard window: %+v", act)
	}
}

func TestShouldRestore_ReturnsCurrentEventState(t *testing.T) {
	// Next event at 18:00 is 5 minutes out; current is the 08:00 HEATING 20C.
	now := time.Date(2026, time.March, 2, 17, 55, 0, 0, time.UTC)
	m := NewManager(&fakeStore{})

	act, err := m.ShouldRestore(context.Background(), mondayWidget(), time.UTC, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if act == nil {
		t.Fatalf("expected a restore action")
	}
	if act.Mode != models.ModeHeating || act.SetpointC == nil || *act.SetpointC != 20 {
		t.Fatalf("restore action = %+v, want HEATING 20C", act)
	}
}

func TestShouldRestore_NoNextEvent(t *testing.T) {
	// After Monday's last event with no other day assigned there is no next
	// event in the cycle, so there is nothing to hand control back to.
	now := time.Date(2026, time.March, 2, 19, 0, 0, 0, time.UTC)
	m := NewManager(&fakeStore{})

	act, err := m.ShouldRestore(context.Background(), mondayWidget(), time.UTC, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if act != nil {
		t.Fatalf("restore action without next event: %+v", act)
	}
}

func TestExpire_StampsActual(t *testing.T) {
	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	h := hold("zone-1", models.UserInitiated, now.Add(-time.Minute), tp(now.Add(time.Hour)))
	st := &fakeStore{holds: []models.HvacHold{h}}
	m := NewManager(st)

	if err := m.Expire(context.Background(), &h, now); err != nil {
		t.Fatalf("Expire: %v", err)
	}
	if h.ExpireAtActual == nil || !h.ExpireAtActual.Equal(now) {
		t.Fatalf("hold expiry not updated: %v", h.ExpireAtActual)
	}
	if got, ok := st.expired[h.ID]; !ok || !got.Equal(now) {
		t.Fatalf("store not stamped: %v", st.expired)
	}
}
