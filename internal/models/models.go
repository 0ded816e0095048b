package models

import (
	"errors"
	"fmt"
	"time"
)

// Weekday indexes the weekly schedule slots, 0=Monday .. 6=Sunday.
// This is deliberately not time.Weekday (which starts at Sunday).
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday

	DaysPerWeek = 7
)

var weekdayNames = [DaysPerWeek]string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

func (d Weekday) String() string {
	if d < 0 || d >= DaysPerWeek {
		return fmt.Sprintf("weekday(%d)", int(d))
	}
	return weekdayNames[d]
}

// FromTime maps the stdlib weekday (Sunday=0) onto the Monday-based index.
func FromTime(wd time.Weekday) Weekday {
	return Weekday((int(wd) + 6) % 7)
}

// Next returns the weekday n days after d, wrapping Sunday->Monday.
func (d Weekday) Next(n int) Weekday {
	return Weekday(((int(d)+n)%DaysPerWeek + DaysPerWeek) % DaysPerWeek)
}

// TimeOfDay is a wall-clock time with no date attached.
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// Minutes returns minutes since midnight, the ordering key for events.
func (t TimeOfDay) Minutes() int { return t.Hour*60 + t.Minute }

func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

// ScheduleEvent is one step of a day template. Immutable once created;
// editing a schedule replaces its events wholesale.
type ScheduleEvent struct {
	ID        string    `json:"id"`
	Mode      HvacMode  `json:"mode"`
	TimeOfDay TimeOfDay `json:"time_of_day"`

	// SetpointC is set for HEATING and COOLING events only.
	SetpointC *float64 `json:"setpoint_c,omitempty"`
	// Heating/CoolingSetpointC are set for AUTO events only.
	HeatingSetpointC *float64 `json:"heating_setpoint_c,omitempty"`
	CoolingSetpointC *float64 `json:"cooling_setpoint_c,omitempty"`
}

var (
	ErrAutoNeedsPair      = errors.New("AUTO event requires heating and cooling setpoints and no single setpoint")
	ErrOffCarriesSetpoint = errors.New("OFF event must not carry a setpoint")
	ErrSingleSetpoint     = errors.New("HEATING/COOLING event requires exactly one single setpoint")
)

// Validate enforces the mode/setpoint invariant.
func (e ScheduleEvent) Validate() error {
	switch e.Mode {
	case ModeAuto:
		if e.HeatingSetpointC == nil || e.CoolingSetpointC == nil || e.SetpointC != nil {
			return ErrAutoNeedsPair
		}
	case ModeOff:
		if e.SetpointC != nil || e.HeatingSetpointC != nil || e.CoolingSetpointC != nil {
			return ErrOffCarriesSetpoint
		}
	case ModeHeating, ModeCooling:
		if e.SetpointC == nil || e.HeatingSetpointC != nil || e.CoolingSetpointC != nil {
			return ErrSingleSetpoint
		}
	default:
		panic(UnhandledMode(e.Mode))
	}
	return nil
}

// HvacSchedule is a named day template. Events are kept sorted by time of
// day; duplicate times are not resolved here.
type HvacSchedule struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Events []ScheduleEvent `json:"events"`
}

// TemperaturePlaceKind tags what a temperature place measures.
type TemperaturePlaceKind string

const (
	PlaceRoom       TemperaturePlaceKind = "room"
	PlaceInputDuct  TemperaturePlaceKind = "input_duct"
	PlaceOutputDuct TemperaturePlaceKind = "output_duct"
)

// TemperaturePlaceLink attributes telemetry to a spot in the zone. It plays
// no part in scheduling.
type TemperaturePlaceLink struct {
	PlaceID string               `json:"place_id"`
	Kind    TemperaturePlaceKind `json:"kind"`
}

// ControlZoneWidget maps one HVAC zone and its thermostat to up to seven
// day templates, one per weekday. A nil day has no events that day.
type ControlZoneWidget struct {
	ID           string                     `json:"id"`
	Name         string                     `json:"name"`
	ThermostatID string                     `json:"thermostat_id"`
	FanMode      string                     `json:"fan_mode"` // auto | on | circulate
	Days         [DaysPerWeek]*HvacSchedule `json:"days"`     // Monday..Sunday
	Places       []TemperaturePlaceLink     `json:"places,omitempty"`
}

// HoldOrigin tags who created a hold. Schedule-initiated holds are inert
// for override purposes: they never count as active.
type HoldOrigin string

const (
	UserInitiated     HoldOrigin = "user"
	ScheduleInitiated HoldOrigin = "schedule"
)

// HvacHold is a temporary manual override of a zone's schedule. Holds are
// never deleted; they lapse by ExpireAtActual and are superseded by newer
// holds.
type HvacHold struct {
	ID       string     `json:"id"`
	ZoneID   string     `json:"zone_id"` // owning ControlZoneWidget
	Mode     HvacMode   `json:"mode"`
	Origin   HoldOrigin `json:"origin"`
	Author   string     `json:"author"` // informational free text

	SetpointC        *float64 `json:"setpoint_c,omitempty"`
	HeatingSetpointC *float64 `json:"heating_setpoint_c,omitempty"`
	CoolingSetpointC *float64 `json:"cooling_setpoint_c,omitempty"`

	// ExpireAtEstimated is informational; ExpireAtActual is authoritative.
	// A nil or past ExpireAtActual means the hold is inactive.
	ExpireAtEstimated time.Time  `json:"expire_at_estimated"`
	ExpireAtActual    *time.Time `json:"expire_at_actual,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// Location owns widgets, gateways and sensors and carries the IANA time
// zone all schedule resolution for it happens in.
type Location struct {
	ID       string `json:"id"`
	OrgID    string `json:"org_id"`
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

// Organization feature toggles the sync pipeline consults.
type Organization struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	GatewayAutoconfigure bool   `json:"gateway_autoconfigure"`
}

// Gateway is the field device that fronts nodes for a location.
type Gateway struct {
	ID   string `json:"id"`
	Duid string `json:"duid"`
	Name string `json:"name"`
}

// Node is the radio endpoint a thermostat or sensor hangs off.
type Node struct {
	ID        string `json:"id"`
	GatewayID string `json:"gateway_id"`
}

// HvacZone is the physical zone a thermostat controls.
type HvacZone struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Thermostat is the schedulable device of a control zone.
type Thermostat struct {
	ID     string `json:"id"`
	Duid   string `json:"duid"`
	Name   string `json:"name"`
	NodeID string `json:"node_id"`
	ZoneID string `json:"zone_id"`
}

// UnitWidget carries the alerting bounds a temperature place inherits.
type UnitWidget struct {
	ID           string  `json:"id"`
	LowBoundC    float64 `json:"low_bound_c"`
	HighBoundC   float64 `json:"high_bound_c"`
	AlertWindowM int     `json:"alert_window_m"` // minutes out of bounds before alerting
}

// TemperatureSensorPlace is a spot with (possibly) a physical sensor bound
// to it. SensorDuid is empty when nothing is bound.
type TemperatureSensorPlace struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Kind        TemperaturePlaceKind `json:"kind"`
	SensorDuid  string               `json:"sensor_duid,omitempty"`
	GatewayDuid string               `json:"gateway_duid,omitempty"`
	UnitWidgets []UnitWidget         `json:"unit_widgets,omitempty"`
}

// ElectricClamp is one current clamp on an electric sensor. PortName uses
// the "P<pin>" encoding; the wire pin number is parsed out of it.
type ElectricClamp struct {
	PortName  string  `json:"port_name"`
	RatedAmps float64 `json:"rated_amps"`
}

// ElectricSensor is a LoRaWAN metering unit under a location gateway.
type ElectricSensor struct {
	ID     string          `json:"id"`
	Duid   string          `json:"duid"`
	Name   string          `json:"name"`
	NodeID string          `json:"node_id"`
	Clamps []ElectricClamp `json:"clamps,omitempty"`
}

// ElectricityPrice is a flat per-kWh price in effect from a point in time.
type ElectricityPrice struct {
	PerKwh float64   `json:"per_kwh"`
	Since  time.Time `json:"since"`
}

// TimeOfUseRate is a per-kWh price for a daily window.
type TimeOfUseRate struct {
	Label  string    `json:"label"`
	PerKwh float64   `json:"per_kwh"`
	From   TimeOfDay `json:"from"`
	To     TimeOfDay `json:"to"`
}
