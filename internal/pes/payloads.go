package pes

// Wire payloads for the DP-PES device-control service. All temperatures
// cross this boundary as integer Fahrenheit.

// Envelope is the response body shape shared by every DP-PES endpoint.
// Code must equal the "successful" sentinel for a call to count as a
// success regardless of the HTTP status.
type Envelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const codeSuccessful = "successful"

// TemperatureAlertSpec bounds a sensor reading and says how long it may
// stay out of bounds before alerting.
type TemperatureAlertSpec struct {
	LowBoundF    int `json:"low_bound_f"`
	HighBoundF   int `json:"high_bound_f"`
	AlertWindowM int `json:"alert_window_m"`
}

// TemperatureMetadata pushes a temperature place's alerting spec.
type TemperatureMetadata struct {
	GatewayDuid string                `json:"gateway_duid"`
	SensorDuid  string                `json:"sensor_duid"`
	PlaceName   string                `json:"place_name"`
	Alert       *TemperatureAlertSpec `json:"alert,omitempty"`
}

// ThermostatHold is the optional override block of a thermostat push.
type ThermostatHold struct {
	Mode             string `json:"mode"`
	SetPointF        *int   `json:"set_point_f,omitempty"`
	SetPointHeatingF *int   `json:"set_point_heating_f,omitempty"`
	SetPointCoolingF *int   `json:"set_point_cooling_f,omitempty"`
	ExpiresAt        string `json:"expires_at"` // RFC 3339 UTC
}

// ThermostatMetadata pushes a thermostat's identity, schedule reference,
// fan mode and any hold in force.
type ThermostatMetadata struct {
	Duid        string          `json:"duid"`
	GatewayDuid string          `json:"gateway_duid"`
	Name        string          `json:"name"`
	Timezone    string          `json:"timezone"`
	ScheduleRef string          `json:"schedule_ref"` // control-zone widget id
	FanMode     string          `json:"fan_mode"`
	Hold        *ThermostatHold `json:"hold,omitempty"`
}

// WireEvent is one schedule step in a gateway batch. Simple modes carry
// set_point_f; Auto carries the heating/cooling pair.
type WireEvent struct {
	Mode             string `json:"mode"`
	Time             string `json:"time"` // "HH:MM" wall clock
	SetPointF        *int   `json:"set_point_f,omitempty"`
	SetPointHeatingF *int   `json:"set_point_heating_f,omitempty"`
	SetPointCoolingF *int   `json:"set_point_cooling_f,omitempty"`
}

// ZoneSchedule is one control zone's week keyed by lowercase weekday name.
type ZoneSchedule struct {
	ThermostatDuid string                 `json:"thermostat_duid"`
	Days           map[string][]WireEvent `json:"days"`
}

// GatewaySchedules batches every zone schedule behind one gateway.
type GatewaySchedules struct {
	GatewayDuid   string         `json:"gateway_duid"`
	Autoconfigure bool           `json:"autoconfigure"`
	Zones         []ZoneSchedule `json:"zones"`
}

// ThermostatStatus pushes an OFF status over modbus.
type ThermostatStatus struct {
	Duid   string `json:"duid"`
	Status string `json:"status"`
}

// SimpleHold pushes a heating/cooling hold over modbus.
type SimpleHold struct {
	Duid      string `json:"duid"`
	Mode      string `json:"mode"`
	SetPointF int    `json:"set_point_f"`
}

// AutoModeHold pushes an auto-mode hold over modbus.
type AutoModeHold struct {
	Duid             string `json:"duid"`
	SetPointHeatingF int    `json:"set_point_heating_f"`
	SetPointCoolingF int    `json:"set_point_cooling_f"`
}

// Lockout pushes the keypad lockout state.
type Lockout struct {
	Duid   string `json:"duid"`
	Locked bool   `json:"locked"`
}

// FanMode pushes the fan mode.
type FanMode struct {
	Duid    string `json:"duid"`
	FanMode string `json:"fan_mode"`
}

// ClampConfig is one current clamp of an electric sensor push.
type ClampConfig struct {
	Pin       int     `json:"pin"`
	RatedAmps float64 `json:"rated_amps"`
}

// PriceEntry is a flat per-kWh price in effect since a point in time.
type PriceEntry struct {
	PerKwh float64 `json:"per_kwh"`
	Since  string  `json:"since"` // RFC 3339 UTC
}

// TimeOfUseEntry is a per-kWh price for a daily window.
type TimeOfUseEntry struct {
	Label  string  `json:"label"`
	PerKwh float64 `json:"per_kwh"`
	From   string  `json:"from"` // "HH:MM"
	To     string  `json:"to"`
}

// ElectricSensorMetadata pushes prices, time-of-use rates and clamp
// configuration for one LoRaWAN metering unit.
type ElectricSensorMetadata struct {
	Duid   string           `json:"duid"`
	Name   string           `json:"name"`
	Prices []PriceEntry     `json:"prices"`
	Rates  []TimeOfUseEntry `json:"time_of_use_rates"`
	Clamps []ClampConfig    `json:"clamps"`
}
