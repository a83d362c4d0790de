package estimator

import (
	"errors"
	"fmt"
	"math"

	"github.com/saviottt/solarcalc/internal/climate"
	"github.com/saviottt/solarcalc/internal/physics"
	"github.com/saviottt/solarcalc/internal/predictor"
)

// PerformanceRatio covers inverter, wiring and soiling losses.
const PerformanceRatio = 0.8

// TiltFor returns the explicit tilt, or the latitude heuristic when unset.
func (s InstallationSpec) TiltFor() float64 {
	if s.Tilt != nil {
		return *s.Tilt
	}
	return physics.OptimalTilt(s.Location.Latitude)
}

// Simulate runs the twelve-month loop and returns the per-month results and
// their sum.
func Simulate(p predictor.Predictor, inst InstallationSpec, normals climate.Normals) ([]MonthlyResult, float64, error) {
	months := make([]MonthlyResult, 0, 12)
	var yearly float64
	for _, m := range climate.Months() {
		normal, err := normals.Get(m)
		if err != nil {
			return nil, 0, err
		}
		res, err := SimulateMonth(p, inst, m, normal)
		if err != nil {
			return nil, 0, err
		}
		months = append(months, res)
		yearly += res.EnergyKWh
	}
	return months, yearly, nil
}

// SimulateMonth predicts and corrects the irradiance of a single month and
// converts it to energy.
func SimulateMonth(p predictor.Predictor, inst InstallationSpec, m climate.Month, normal climate.MonthNormal) (MonthlyResult, error) {
	if p == nil {
		return MonthlyResult{}, fmt.Errorf("%w: no predictor configured", predictor.ErrPrediction)
	}

	sin, cos := predictor.CyclicalMonth(int(m))
	features, err := p.Schema().Vector(predictor.Inputs{
		Latitude:    inst.Location.Latitude,
		Longitude:   inst.Location.Longitude,
		Temperature: normal.Temperature,
		Humidity:    normal.Humidity,
		WindSpeed:   normal.WindSpeed,
		MonthSin:    sin,
		MonthCos:    cos,
	})
	if err != nil {
		return MonthlyResult{}, err
	}

	predicted, err := p.Predict(features)
	if err != nil {
		if !errors.Is(err, predictor.ErrPrediction) {
			err = fmt.Errorf("%w: %s: %w", predictor.ErrPrediction, m.Code(), err)
		}
		return MonthlyResult{}, err
	}
	if math.IsNaN(predicted) || math.IsInf(predicted, 0) {
		return MonthlyResult{}, fmt.Errorf("%w: %s: non-finite prediction", predictor.ErrPrediction, m.Code())
	}

	corrected := physics.ApplyTiltCorrection(predicted, inst.Location.Latitude, inst.TiltFor())
	cell := physics.CellTemperature(normal.Temperature, corrected, inst.NOCT)
	derating := physics.TemperatureDerating(cell)
	energy := inst.SystemSizeKW * corrected * float64(m.Days()) * PerformanceRatio * derating

	return MonthlyResult{
		Month:               m,
		PredictedIrradiance: predicted,
		CorrectedIrradiance: corrected,
		CellTemperature:     cell,
		DeratingFactor:      derating,
		EnergyKWh:           energy,
	}, nil
}
