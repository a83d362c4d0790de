package estimator

import (
	"math"

	"github.com/saviottt/solarcalc/internal/billing"
)

const (
	// CostPerKW is the installed capital cost per kW of array.
	CostPerKW = 60000.0
	// GridEmissionFactor is tonnes of CO2 per MWh of grid electricity.
	GridEmissionFactor = 0.82
	// AnnualRetention is the fraction of output kept from one year to the next.
	AnnualRetention = 0.995
	ProjectionYears = 25
)

// Benefit is the first-year grid exchange and its value.
type Benefit struct {
	ImportKWh        float64
	ExportKWh        float64
	BillWithoutSolar float64
	BillWithSolar    float64
	ExportIncome     float64
	Net              float64
}

// NetBenefit compares the bill for usage with and without the given yield.
func NetBenefit(t billing.Tariff, yield, usage float64) Benefit {
	imp := math.Max(0, usage-yield)
	exp := math.Max(0, yield-usage)
	without := t.Bill(usage)
	with := t.Bill(imp)
	income := exp * t.ExportRate()
	return Benefit{
		ImportKWh:        imp,
		ExportKWh:        exp,
		BillWithoutSolar: without,
		BillWithSolar:    with,
		ExportIncome:     income,
		Net:              without - with + income,
	}
}

// GrossCost is the capital cost before subsidy.
func GrossCost(sizeKW float64) float64 {
	return sizeKW * CostPerKW
}

// Subsidy is the PM Surya Ghar central subsidy for a residential array.
func Subsidy(sizeKW float64) float64 {
	switch {
	case sizeKW <= 2:
		return sizeKW * 30000
	case sizeKW <= 3:
		return 60000 + (sizeKW-2)*18000
	default:
		return 78000
	}
}

// Payback returns years to recover netCost, or nil when the annual benefit
// is not positive.
func Payback(netCost, annualBenefit float64) *float64 {
	if annualBenefit <= 0 {
		return nil
	}
	years := netCost / annualBenefit
	return &years
}

// CO2Offset is the tonnes of CO2 avoided per year.
func CO2Offset(yieldKWh float64) float64 {
	return yieldKWh * GridEmissionFactor / 1000
}

// Project runs the degraded projection over ProjectionYears. For flat tariffs
// the baseline bill is frozen at its first-year value; slab tariffs rebill
// usage every year.
func Project(t billing.Tariff, yield, usage float64) []YearlyProjection {
	frozen := t.Bill(usage)
	out := make([]YearlyProjection, ProjectionYears)
	for y := range out {
		energy := yield * math.Pow(AnnualRetention, float64(y))
		b := NetBenefit(t, energy, usage)

		baseline := frozen
		if t.Kind() == billing.KindSlab {
			// Equal to frozen while usage is constant across years; kept so
			// that usage growth only needs to change this branch.
			baseline = b.BillWithoutSolar
		}

		out[y] = YearlyProjection{
			Year:          y,
			EnergyKWh:     energy,
			ImportKWh:     b.ImportKWh,
			ExportKWh:     b.ExportKWh,
			BillWithSolar: b.BillWithSolar,
			BaselineBill:  baseline,
			ExportIncome:  b.ExportIncome,
			Savings:       baseline - b.BillWithSolar + b.ExportIncome,
		}
	}
	return out
}

// TotalSavings sums the savings of a projection.
func TotalSavings(years []YearlyProjection) float64 {
	var total float64
	for _, y := range years {
		total += y.Savings
	}
	return total
}
