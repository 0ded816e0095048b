// Package units converts setpoints between Celsius, used internally, and
// the integer Fahrenheit the device-control wire contract requires.
package units

import "math"

// CToF converts Celsius to Fahrenheit rounded to the nearest integer.
// Halves round away from zero (math.Round), so 20.5°C -> 68.9°F -> 69.
func CToF(c float64) int {
	return int(math.Round(c*9.0/5.0 + 32.0))
}

// FToC converts Fahrenheit back to Celsius, unrounded.
func FToC(f float64) float64 {
	return (f - 32.0) * 5.0 / 9.0
}

// CToFPtr is CToF lifted over optional setpoints.
func CToFPtr(c *float64) *int {
	if c == nil {
		return nil
	}
	f := CToF(*c)
	return &f
}
