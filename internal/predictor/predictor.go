package predictor

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// ErrPrediction is returned when the predictor cannot produce a usable value.
var ErrPrediction = errors.New("irradiance prediction failed")

// Feature names one input column of a trained model.
type Feature string

const (
	FeatureLatitude    Feature = "latitude"
	FeatureLongitude   Feature = "longitude"
	FeatureTemperature Feature = "temperature"
	FeatureHumidity    Feature = "humidity"
	FeatureWindSpeed   Feature = "wind_speed"
	FeatureMonthSin    Feature = "month_sin"
	FeatureMonthCos    Feature = "month_cos"
)

// Schema pins the exact order and count of features a model was trained on.
type Schema struct {
	Version  string    `json:"version"`
	Features []Feature `json:"features"`
}

var (
	// SchemaCalendarV1 is the five-feature layout of the single-month model.
	SchemaCalendarV1 = Schema{
		Version: "calendar-v1",
		Features: []Feature{
			FeatureLatitude, FeatureLongitude, FeatureTemperature,
			FeatureMonthSin, FeatureMonthCos,
		},
	}
	// SchemaClimateV2 is the seven-feature layout of the monthly location model.
	SchemaClimateV2 = Schema{
		Version: "climate-v2",
		Features: []Feature{
			FeatureLatitude, FeatureLongitude, FeatureTemperature,
			FeatureHumidity, FeatureWindSpeed,
			FeatureMonthSin, FeatureMonthCos,
		},
	}
)

var knownSchemas = map[string]Schema{
	SchemaCalendarV1.Version: SchemaCalendarV1,
	SchemaClimateV2.Version:  SchemaClimateV2,
}

// Validate checks that s is a registered schema with exactly the registered
// features, in order.
func (s Schema) Validate() error {
	known, ok := knownSchemas[s.Version]
	if !ok {
		return fmt.Errorf("%w: unknown feature schema %q", ErrPrediction, s.Version)
	}
	if !slices.Equal(known.Features, s.Features) {
		return fmt.Errorf("%w: feature list does not match schema %s", ErrPrediction, s.Version)
	}
	return nil
}

// Inputs are the raw values a feature vector is assembled from.
type Inputs struct {
	Latitude    float64
	Longitude   float64
	Temperature float64
	Humidity    float64
	WindSpeed   float64
	MonthSin    float64
	MonthCos    float64
}

// Vector lays out in according to the schema.
func (s Schema) Vector(in Inputs) ([]float64, error) {
	out := make([]float64, len(s.Features))
	for i, f := range s.Features {
		switch f {
		case FeatureLatitude:
			out[i] = in.Latitude
		case FeatureLongitude:
			out[i] = in.Longitude
		case FeatureTemperature:
			out[i] = in.Temperature
		case FeatureHumidity:
			out[i] = in.Humidity
		case FeatureWindSpeed:
			out[i] = in.WindSpeed
		case FeatureMonthSin:
			out[i] = in.MonthSin
		case FeatureMonthCos:
			out[i] = in.MonthCos
		default:
			return nil, fmt.Errorf("%w: unsupported feature %q", ErrPrediction, f)
		}
	}
	return out, nil
}

// CyclicalMonth encodes a 1-12 month on the unit circle so December and
// January are neighbours.
func CyclicalMonth(month int) (sin, cos float64) {
	angle := 2 * math.Pi * float64(month) / 12
	return math.Sin(angle), math.Cos(angle)
}

// Predictor returns the predicted irradiance in kWh/m²/day for one feature
// vector laid out per Schema. Implementations must be safe for concurrent use.
type Predictor interface {
	Schema() Schema
	Predict(features []float64) (float64, error)
}

// Func adapts a plain function to the Predictor interface. The vector length
// is checked against S before F is called.
type Func struct {
	S Schema
	F func(features []float64) (float64, error)
}

func (p Func) Schema() Schema {
	return p.S
}

func (p Func) Predict(features []float64) (float64, error) {
	if err := checkLength(p.S, features); err != nil {
		return 0, err
	}
	v, err := p.F(features)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPrediction, err)
	}
	return checkFinite(v)
}

func checkLength(s Schema, features []float64) error {
	if len(features) != len(s.Features) {
		return fmt.Errorf("%w: got %d features, schema %s expects %d",
			ErrPrediction, len(features), s.Version, len(s.Features))
	}
	return nil
}

func checkFinite(v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: non-finite prediction %v", ErrPrediction, v)
	}
	return v, nil
}
