package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"zone_control/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db), mock
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func fp(v float64) *float64 { return &v }

func TestAppendHold(t *testing.T) {
	t.Parallel()
	store, mock := newMock(t)

	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	expire := now.Add(8 * time.Hour)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO holds")).
		WithArgs("h-1", "w-1", "COOLING", "user", "user1",
			24.0, nil, nil,
			expire, expire, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Append(testCtx(t), models.HvacHold{
		ID: "h-1", ZoneID: "w-1", Mode: models.ModeCooling,
		Origin: models.UserInitiated, Author: "user1",
		SetpointC:         fp(24),
		ExpireAtEstimated: expire, ExpireAtActual: &expire, CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestByZone_ScansNullables(t *testing.T) {
	t.Parallel()
	store, mock := newMock(t)

	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	cols := []string{"id", "zone_id", "mode", "origin", "author",
		"setpoint_c", "heating_c", "cooling_c",
		"expire_estimated", "expire_actual", "created_at"}
	mock.ExpectQuery("SELECT (.+) FROM holds WHERE zone_id").
		WithArgs("w-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("h-2", "w-1", "AUTO", "user", "user1",
				nil, 19.0, 25.0, now, now.Add(time.Hour), now).
			AddRow("h-1", "w-1", "OFF", "schedule", "Schedule",
				nil, nil, nil, now, nil, now.Add(-time.Hour)))

	holds, err := store.ByZone(testCtx(t), "w-1")
	if err != nil {
		t.Fatalf("ByZone: %v", err)
	}
	if len(holds) != 2 {
		t.Fatalf("len = %d, want 2", len(holds))
	}
	h := holds[0]
	if h.Mode != models.ModeAuto || h.Origin != models.UserInitiated {
		t.Fatalf("first hold = %+v", h)
	}
	if h.SetpointC != nil || h.HeatingSetpointC == nil || *h.HeatingSetpointC != 19 {
		t.Fatalf("setpoints = %+v", h)
	}
	if h.ExpireAtActual == nil {
		t.Fatalf("expire_actual should scan to non-nil")
	}
	if holds[1].ExpireAtActual != nil {
		t.Fatalf("nil expire_actual should stay nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestSetExpireAt_DBError(t *testing.T) {
	t.Parallel()
	store, mock := newMock(t)

	mock.ExpectExec("UPDATE holds SET expire_actual").
		WillReturnError(errors.New("down"))

	if err := store.SetExpireAt(testCtx(t), "h-1", time.Now()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLocation_NotFound(t *testing.T) {
	t.Parallel()
	store, mock := newMock(t)

	mock.ExpectQuery("SELECT (.+) FROM locations WHERE id").
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, err := store.Location(testCtx(t), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestThermostats_NullRelations(t *testing.T) {
	t.Parallel()
	store, mock := newMock(t)

	cols := []string{"t.id", "t.duid", "t.name", "t.node_id", "t.zone_id",
		"z.id", "z.name", "n.id", "n.gateway_id",
		"g.id", "g.duid", "g.name", "w.id"}
	mock.ExpectQuery("SELECT (.+) FROM thermostats t").
		WithArgs("loc-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("th-1", "T-1", "Lobby stat", "", "",
				nil, nil, nil, nil, nil, nil, nil, nil))

	snaps, err := store.Thermostats(testCtx(t), "loc-1")
	if err != nil {
		t.Fatalf("Thermostats: %v", err)
	}
	if len(snaps) != 1 {
		t.Fatalf("len = %d, want 1", len(snaps))
	}
	s := snaps[0]
	if s.Zone != nil || s.Node != nil || s.Gateway != nil || s.Widget != nil {
		t.Fatalf("broken relations must scan to nil: %+v", s)
	}
	if s.Thermostat.Duid != "T-1" {
		t.Fatalf("thermostat = %+v", s.Thermostat)
	}
}
