// Package physics holds the closed-form corrections applied to predicted
// irradiance before it is turned into energy.
package physics

import "math"

const (
	MinTiltFactor = 0.85
	MaxTiltFactor = 1.15

	MinDerating = 0.75
	MaxDerating = 1.05

	// TemperatureCoefficient is the fractional power change per °C above
	// ReferenceCellTemp.
	TemperatureCoefficient = -0.004
	ReferenceCellTemp      = 25.0
)

// OptimalTilt is the latitude heuristic used when no tilt is given.
func OptimalTilt(latitude float64) float64 {
	return math.Abs(0.76*latitude + 3.1)
}

// TiltFactor is the ratio between plane-of-array and horizontal irradiance,
// bounded to [MinTiltFactor, MaxTiltFactor].
func TiltFactor(latitude, tilt float64) float64 {
	lat := DegToRad(latitude)
	t := DegToRad(tilt)
	return clamp(math.Cos(lat-t)/math.Cos(lat), MinTiltFactor, MaxTiltFactor)
}

// ApplyTiltCorrection converts global horizontal irradiance to irradiance on
// a panel at the given tilt.
func ApplyTiltCorrection(ghi, latitude, tilt float64) float64 {
	return ghi * TiltFactor(latitude, tilt)
}

// CellTemperature estimates the operating cell temperature in °C from the
// ambient temperature and daily irradiance in kWh/m²/day.
func CellTemperature(ambient, irradianceKWhM2Day, noct float64) float64 {
	irradianceWM2 := irradianceKWhM2Day * 1000 / 24
	return ambient + ((noct-20)/800)*irradianceWM2
}

// TemperatureDerating is the output multiplier for a cell temperature.
func TemperatureDerating(cellTemp float64) float64 {
	effect := 1 + TemperatureCoefficient*(cellTemp-ReferenceCellTemp)
	return clamp(effect, MinDerating, MaxDerating)
}

func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// NaN clamps to lo.
func clamp(v, lo, hi float64) float64 {
	switch {
	case math.IsNaN(v), v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}
