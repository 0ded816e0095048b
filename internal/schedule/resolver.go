// Package schedule resolves which weekly event drives a control zone at a
// given instant. Resolution is a pure function of the widget's day
// assignments, the reference instant and the location time zone.
package schedule

import (
	"time"

	"zone_control/internal/models"
)

// CurrentEvent is the event in force at the reference instant and the
// weekday slot it was found on.
type CurrentEvent struct {
	Event   models.ScheduleEvent
	Weekday models.Weekday
}

// NextEvent is the first upcoming event and the UTC instant it fires.
type NextEvent struct {
	Event    models.ScheduleEvent
	OccursAt time.Time
}

// Resolve computes the current and next event for a widget relative to
// `at`, evaluated on the location's wall clock. Either result may be nil:
// a widget with no events anywhere in its 7-day cycle has neither.
func Resolve(w *models.ControlZoneWidget, at time.Time, loc *time.Location) (*CurrentEvent, *NextEvent) {
	local := at.In(loc)
	today := models.FromTime(local.Weekday())
	nowMin := local.Hour()*60 + local.Minute()

	return resolveCurrent(w, today, nowMin), resolveNext(w, local, today, nowMin, loc)
}

// dayEvents returns the events assigned to a weekday slot. A schedule with
// zero events is the same as no schedule at all.
func dayEvents(w *models.ControlZoneWidget, d models.Weekday) []models.ScheduleEvent {
	s := w.Days[d]
	if s == nil || len(s.Events) == 0 {
		return nil
	}
	return s.Events
}

// lastAtOrBefore picks the event with the greatest time of day not after
// limit. Equality counts: an event firing exactly now is current.
func lastAtOrBefore(events []models.ScheduleEvent, limit int) *models.ScheduleEvent {
	var best *models.ScheduleEvent
	for i := range events {
		e := &events[i]
		if e.TimeOfDay.Minutes() > limit {
			continue
		}
		if best == nil || e.TimeOfDay.Minutes() >= best.TimeOfDay.Minutes() {
			best = e
		}
	}
	return best
}

// firstAfter picks the event with the smallest time of day strictly after
// limit. Pass limit=-1 to get the earliest event of the day.
func firstAfter(events []models.ScheduleEvent, limit int) *models.ScheduleEvent {
	var best *models.ScheduleEvent
	for i := range events {
		e := &events[i]
		if e.TimeOfDay.Minutes() <= limit {
			continue
		}
		if best == nil || e.TimeOfDay.Minutes() < best.TimeOfDay.Minutes() {
			best = e
		}
	}
	return best
}

func resolveCurrent(w *models.ControlZoneWidget, today models.Weekday, nowMin int) *CurrentEvent {
	if e := lastAtOrBefore(dayEvents(w, today), nowMin); e != nil {
		return &CurrentEvent{Event: *e, Weekday: today}
	}
	// Nothing fired yet today: the zone is still driven by the last event
	// of the nearest prior day that has any.
	for back := 1; back < models.DaysPerWeek; back++ {
		d := today.Next(-back)
		events := dayEvents(w, d)
		if len(events) == 0 {
			continue
		}
		e := lastAtOrBefore(events, 24*60)
		return &CurrentEvent{Event: *e, Weekday: d}
	}
	return nil
}

func resolveNext(w *models.ControlZoneWidget, local time.Time, today models.Weekday, nowMin int, loc *time.Location) *NextEvent {
	if e := firstAfter(dayEvents(w, today), nowMin); e != nil {
		return &NextEvent{Event: *e, OccursAt: occursAt(local, 0, e.TimeOfDay, loc)}
	}
	for ahead := 1; ahead < models.DaysPerWeek; ahead++ {
		d := today.Next(ahead)
		events := dayEvents(w, d)
		if len(events) == 0 {
			continue
		}
		e := firstAfter(events, -1)
		return &NextEvent{Event: *e, OccursAt: occursAt(local, ahead, e.TimeOfDay, loc)}
	}
	return nil
}

// occursAt places a wall-clock time dayOffset days after the reference
// local date and normalizes to UTC for callers to compare.
func occursAt(local time.Time, dayOffset int, tod models.TimeOfDay, loc *time.Location) time.Time {
	return time.Date(local.Year(), local.Month(), local.Day()+dayOffset,
		tod.Hour, tod.Minute, 0, 0, loc).UTC()
}
