package estimator

import (
	"github.com/saviottt/solarcalc/internal/billing"
	"github.com/saviottt/solarcalc/internal/climate"
)

// DefaultNOCT is the nominal operating cell temperature assumed when a
// request does not give one.
const DefaultNOCT = 45.0

// ReportMode selects how much detail a Result carries.
type ReportMode string

const (
	ReportAggregate ReportMode = "aggregate"
	ReportMonthly   ReportMode = "monthly"
)

// InstallationSpec describes the array being simulated.
type InstallationSpec struct {
	Location     climate.Location
	SystemSizeKW float64
	// Tilt in degrees; nil means the latitude heuristic.
	Tilt *float64
	NOCT float64
}

// ConsumptionSpec describes household and EV demand.
type ConsumptionSpec struct {
	MonthlyKWh           float64
	EVDailyKM            float64
	EVEfficiencyKMPerKWh float64
}

// MonthlyResult is the simulated output of one calendar month.
type MonthlyResult struct {
	Month               climate.Month `json:"month"`
	PredictedIrradiance float64       `json:"predicted_irradiance_kwh_m2_day"`
	CorrectedIrradiance float64       `json:"corrected_irradiance_kwh_m2_day"`
	CellTemperature     float64       `json:"cell_temperature_c"`
	DeratingFactor      float64       `json:"derating_factor"`
	EnergyKWh           float64       `json:"energy_kwh"`
}

// YearlyProjection is one year of the degraded long-term projection.
type YearlyProjection struct {
	Year          int
	EnergyKWh     float64
	ImportKWh     float64
	ExportKWh     float64
	BillWithSolar float64
	BaselineBill  float64
	ExportIncome  float64
	Savings       float64
}

// Result is the rounded outcome of one estimation run.
type Result struct {
	RunID    string           `json:"run_id"`
	Location climate.Location `json:"location"`
	Tariff   billing.Kind     `json:"tariff"`

	TiltUsed      float64 `json:"tilt_used_deg"`
	SuggestedTilt float64 `json:"suggested_tilt_deg"`

	YearlyEnergyKWh float64 `json:"yearly_energy_kwh"`
	HomeUsageKWh    float64 `json:"home_usage_kwh"`
	EVUsageKWh      float64 `json:"ev_usage_kwh"`
	AnnualUsageKWh  float64 `json:"annual_usage_kwh"`
	ImportKWh       float64 `json:"grid_import_kwh"`
	ExportKWh       float64 `json:"grid_export_kwh"`

	BillWithoutSolar float64 `json:"bill_without_solar"`
	BillWithSolar    float64 `json:"bill_with_solar"`
	ExportIncome     float64 `json:"export_income"`
	NetAnnualBenefit float64 `json:"net_annual_benefit"`

	GrossCost    float64  `json:"gross_cost"`
	Subsidy      float64  `json:"subsidy"`
	NetCost      float64  `json:"net_cost"`
	PaybackYears *float64 `json:"payback_years"`

	CO2OffsetTonnesPerYear float64 `json:"co2_offset_tonnes_per_year"`
	TotalSavings25Y        float64 `json:"total_savings_25y"`
	NetProfit25Y           float64 `json:"net_profit_25y"`

	Monthly []MonthlyResult `json:"monthly,omitempty"`
}
