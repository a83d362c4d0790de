package estimator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/saviottt/solarcalc/internal/billing"
	"github.com/saviottt/solarcalc/internal/climate"
	"github.com/saviottt/solarcalc/internal/common"
	"github.com/saviottt/solarcalc/internal/geocode"
	"github.com/saviottt/solarcalc/internal/logging"
	"github.com/saviottt/solarcalc/internal/physics"
	"github.com/saviottt/solarcalc/internal/predictor"
)

// ErrNonFinite is returned when a result figure overflows or is undefined.
var ErrNonFinite = errors.New("estimation produced a non-finite figure")

// NormalsProvider returns monthly climate normals for a location.
type NormalsProvider interface {
	Normals(ctx context.Context, loc climate.Location) (climate.Normals, error)
}

// Engine runs estimations against a shared predictor and climate source.
type Engine struct {
	normals   NormalsProvider
	predictor predictor.Predictor
	resolver  geocode.Resolver
	tariff    billing.Tariff
	newID     func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithResolver enables city/country lookup for requests without coordinates.
func WithResolver(r geocode.Resolver) Option {
	return func(e *Engine) { e.resolver = r }
}

// WithDefaultTariff sets the tariff used when a request names none.
func WithDefaultTariff(t billing.Tariff) Option {
	return func(e *Engine) {
		if t != nil {
			e.tariff = t
		}
	}
}

// NewEngine creates an Engine. The default tariff is the KSEB domestic
// schedule.
func NewEngine(normals NormalsProvider, p predictor.Predictor, opts ...Option) *Engine {
	e := &Engine{
		normals:   normals,
		predictor: p,
		tariff:    billing.KSEBDomestic(),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Estimate validates req, fetches climate normals once and runs the full
// yield and financial projection.
func (e *Engine) Estimate(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	tariff, err := req.Tariff.build(e.tariff)
	if err != nil {
		return nil, err
	}
	loc, err := e.resolveLocation(ctx, req)
	if err != nil {
		return nil, err
	}

	runID := e.newID()
	logger := logging.Ctx(ctx).With(slog.String("run_id", runID))
	ctx = logging.With(ctx, logger)
	started := time.Now()

	normals, err := e.normals.Normals(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("fetching climate normals: %w", err)
	}

	inst := InstallationSpec{
		Location:     loc,
		SystemSizeKW: req.SystemSizeKW,
		Tilt:         req.Tilt,
		NOCT:         req.noct(),
	}
	months, yield, err := Simulate(e.predictor, inst, normals)
	if err != nil {
		return nil, err
	}

	cons := req.consumption()
	usage := cons.AnnualKWh()
	benefit := NetBenefit(tariff, yield, usage)

	gross := GrossCost(req.SystemSizeKW)
	var subsidy float64
	if req.subsidyEnabled() {
		subsidy = Subsidy(req.SystemSizeKW)
	}
	net := gross - subsidy
	total := TotalSavings(Project(tariff, yield, usage))

	if !allFinite(yield, usage, benefit.Net, benefit.BillWithoutSolar, benefit.ExportIncome, net, total) {
		return nil, fmt.Errorf("%w: yield %g kWh, usage %g kWh", ErrNonFinite, yield, usage)
	}

	res := &Result{
		RunID:                  runID,
		Location:               loc,
		Tariff:                 tariff.Kind(),
		TiltUsed:               common.Round2(inst.TiltFor()),
		SuggestedTilt:          common.Round2(physics.OptimalTilt(loc.Latitude)),
		YearlyEnergyKWh:        common.Round2(yield),
		HomeUsageKWh:           common.Round2(cons.HomeKWh()),
		EVUsageKWh:             common.Round2(cons.EVKWh()),
		AnnualUsageKWh:         common.Round2(usage),
		ImportKWh:              common.Round2(benefit.ImportKWh),
		ExportKWh:              common.Round2(benefit.ExportKWh),
		BillWithoutSolar:       common.Round2(benefit.BillWithoutSolar),
		BillWithSolar:          common.Round2(benefit.BillWithSolar),
		ExportIncome:           common.Round2(benefit.ExportIncome),
		NetAnnualBenefit:       common.Round2(benefit.Net),
		GrossCost:              common.Round2(gross),
		Subsidy:                common.Round2(subsidy),
		NetCost:                common.Round2(net),
		PaybackYears:           common.Round2Ptr(Payback(net, benefit.Net)),
		CO2OffsetTonnesPerYear: common.Round2(CO2Offset(yield)),
		TotalSavings25Y:        common.Round2(total),
		NetProfit25Y:           common.Round2(total - net),
	}
	if req.Report == ReportMonthly {
		res.Monthly = make([]MonthlyResult, len(months))
		for i, m := range months {
			res.Monthly[i] = roundMonthly(m)
		}
	}

	logger.Info("estimation completed",
		slog.String("location", loc.Key()),
		slog.String("tariff", string(tariff.Kind())),
		slog.Float64("yearly_energy_kwh", res.YearlyEnergyKWh),
		slog.Float64("net_annual_benefit", res.NetAnnualBenefit),
		slog.Duration("took", time.Since(started)))

	return res, nil
}

// Irradiance simulates a single month at a location.
func (e *Engine) Irradiance(ctx context.Context, req IrradianceRequest) (*MonthlyResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	loc := climate.Location{Latitude: req.Latitude, Longitude: req.Longitude}
	month := climate.Month(req.Month)

	normals, err := e.normals.Normals(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("fetching climate normals: %w", err)
	}
	normal, err := normals.Get(month)
	if err != nil {
		return nil, err
	}

	inst := InstallationSpec{
		Location:     loc,
		SystemSizeKW: 1,
		Tilt:         req.Tilt,
		NOCT:         DefaultNOCT,
	}
	if req.SystemSizeKW != nil {
		inst.SystemSizeKW = *req.SystemSizeKW
	}
	if req.NOCT != nil {
		inst.NOCT = *req.NOCT
	}

	res, err := SimulateMonth(e.predictor, inst, month, normal)
	if err != nil {
		return nil, err
	}
	if !allFinite(res.EnergyKWh) {
		return nil, fmt.Errorf("%w: energy for %s", ErrNonFinite, month.Code())
	}
	res = roundMonthly(res)
	return &res, nil
}

func (e *Engine) resolveLocation(ctx context.Context, req Request) (climate.Location, error) {
	if req.Latitude != nil && req.Longitude != nil {
		return climate.Location{Latitude: *req.Latitude, Longitude: *req.Longitude}, nil
	}
	if e.resolver == nil {
		return climate.Location{}, fmt.Errorf("%w: %w", ErrValidation, geocode.ErrNotConfigured)
	}
	loc, err := e.resolver.Resolve(ctx, req.City, req.Country)
	if err != nil {
		return climate.Location{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return loc, nil
}

func allFinite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func roundMonthly(m MonthlyResult) MonthlyResult {
	return MonthlyResult{
		Month:               m.Month,
		PredictedIrradiance: common.Round2(m.PredictedIrradiance),
		CorrectedIrradiance: common.Round2(m.CorrectedIrradiance),
		CellTemperature:     common.Round2(m.CellTemperature),
		DeratingFactor:      common.Round2(m.DeratingFactor),
		EnergyKWh:           common.Round2(m.EnergyKWh),
	}
}
