package models

import "fmt"

// HvacMode is the closed set of operating modes a zone can be driven in.
type HvacMode string

const (
	ModeOff     HvacMode = "OFF"
	ModeHeating HvacMode = "HEATING"
	ModeCooling HvacMode = "COOLING"
	ModeAuto    HvacMode = "AUTO"
)

// ParseHvacMode validates a textual mode coming from API payloads.
func ParseHvacMode(s string) (HvacMode, error) {
	switch HvacMode(s) {
	case ModeOff, ModeHeating, ModeCooling, ModeAuto:
		return HvacMode(s), nil
	default:
		return "", fmt.Errorf("unknown hvac mode %q", s)
	}
}

// UnhandledMode reports a mode that slipped past an exhaustive switch.
// Dispatch sites over HvacMode must enumerate all four variants and call
// this from their default branch; an unhandled variant means the mode set
// grew without updating the caller and must not be absorbed silently.
func UnhandledMode(m HvacMode) string {
	return fmt.Sprintf("unhandled hvac mode %q", m)
}
