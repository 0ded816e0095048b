package models

import (
	"errors"
	"testing"
	"time"
)

func fp(v float64) *float64 { return &v }

func TestWeekday_FromTime(t *testing.T) {
	cases := []struct {
		in   time.Weekday
		want Weekday
	}{
		{time.Monday, Monday},
		{time.Sunday, Sunday},
		{time.Saturday, Saturday},
	}
	for _, tc := range cases {
		if got := FromTime(tc.in); got != tc.want {
			t.Errorf("FromTime(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestWeekday_NextWraps(t *testing.T) {
	if got := Sunday.Next(1); got != Monday {
		t.Errorf("Sunday.Next(1) = %v, want monday", got)
	}
	if got := Monday.Next(-1); got != Sunday {
		t.Errorf("Monday.Next(-1) = %v, want sunday", got)
	}
	if got := Wednesday.Next(14); got != Wednesday {
		t.Errorf("Wednesday.Next(14) = %v, want wednesday", got)
	}
}

func TestScheduleEvent_Validate(t *testing.T) {
	cases := []struct {
		name  string
		event ScheduleEvent
		want  error
	}{
		{"heating ok", ScheduleEvent{Mode: ModeHeating, SetpointC: fp(20)}, nil},
		{"off ok", ScheduleEvent{Mode: ModeOff}, nil},
		{"auto ok", ScheduleEvent{Mode: ModeAuto, HeatingSetpointC: fp(19), CoolingSetpointC: fp(25)}, nil},
		{"heating missing setpoint", ScheduleEvent{Mode: ModeHeating}, ErrSingleSetpoint},
		{"cooling with pair", ScheduleEvent{Mode: ModeCooling, SetpointC: fp(24), HeatingSetpointC: fp(19)}, ErrSingleSetpoint},
		{"off with setpoint", ScheduleEvent{Mode: ModeOff, SetpointC: fp(20)}, ErrOffCarriesSetpoint},
		{"auto missing cooling", ScheduleEvent{Mode: ModeAuto, HeatingSetpointC: fp(19)}, ErrAutoNeedsPair},
		{"auto with single", ScheduleEvent{Mode: ModeAuto, HeatingSetpointC: fp(19), CoolingSetpointC: fp(25), SetpointC: fp(22)}, ErrAutoNeedsPair},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.event.Validate()
			if !errors.Is(err, tc.want) {
				t.Fatalf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestParseHvacMode(t *testing.T) {
	m, err := ParseHvacMode("HEATING")
	if err != nil || m != ModeHeating {
		t.Fatalf("ParseHvacMode(HEATING) = %v, %v", m, err)
	}
	if _, err := ParseHvacMode("TOAST"); err == nil {
		t.Fatalf("ParseHvacMode(TOAST) did not fail")
	}
}
