package estimator

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/saviottt/solarcalc/internal/billing"
)

// ErrValidation is returned for requests that fail validation. No
// computation is started for them.
var ErrValidation = errors.New("invalid request")

var validate = validator.New()

// Request is the input of one estimation run.
type Request struct {
	Latitude  *float64 `json:"latitude,omitempty" yaml:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude,omitempty" yaml:"longitude" validate:"omitempty,gte=-180,lte=180"`
	// City and Country are geocoded when coordinates are absent.
	City    string `json:"city,omitempty" yaml:"city" validate:"max=128"`
	Country string `json:"country,omitempty" yaml:"country" validate:"max=128"`

	SystemSizeKW float64  `json:"system_size_kw" yaml:"system_size_kw" validate:"gt=0,lte=1000"`
	Tilt         *float64 `json:"tilt,omitempty" yaml:"tilt" validate:"omitempty,gte=0,lte=90"`
	NOCT         *float64 `json:"noct,omitempty" yaml:"noct" validate:"omitempty,gt=20,lte=80"`

	MonthlyConsumptionKWh float64 `json:"monthly_consumption_kwh" yaml:"monthly_consumption_kwh" validate:"gte=0,lte=1000000"`
	EVDailyKM             float64 `json:"ev_daily_km" yaml:"ev_daily_km" validate:"gte=0,lte=5000"`
	EVEfficiencyKMPerKWh  float64 `json:"ev_efficiency_km_per_kwh" yaml:"ev_efficiency_km_per_kwh" validate:"gte=0,lte=1000"`

	Tariff       *TariffRequest `json:"tariff,omitempty" yaml:"tariff"`
	ApplySubsidy *bool          `json:"apply_subsidy,omitempty" yaml:"apply_subsidy"`
	Report       ReportMode     `json:"report,omitempty" yaml:"report" validate:"omitempty,oneof=aggregate monthly"`
}

// TariffRequest selects a flat or slab tariff. An empty mode means the
// engine's default tariff.
type TariffRequest struct {
	Mode       billing.Kind  `json:"mode" yaml:"mode" validate:"omitempty,oneof=flat slab"`
	BuyRate    float64       `json:"buy_rate,omitempty" yaml:"buy_rate" validate:"gte=0,lte=1000"`
	SellRate   float64       `json:"sell_rate,omitempty" yaml:"sell_rate" validate:"gte=0,lte=1000"`
	Slabs      []SlabRequest `json:"slabs,omitempty" yaml:"slabs" validate:"max=32,dive"`
	ExportRate float64       `json:"export_rate,omitempty" yaml:"export_rate" validate:"gte=0,lte=1000"`
}

// SlabRequest is one tariff band. A nil capacity marks the unbounded final
// band.
type SlabRequest struct {
	CapacityKWh *float64 `json:"capacity_kwh,omitempty" yaml:"capacity_kwh" validate:"omitempty,gt=0,lte=1000000"`
	Rate        float64  `json:"rate" yaml:"rate" validate:"gte=0,lte=1000"`
}

// Validate checks field ranges and that a location can be determined.
func (r Request) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if (r.Latitude == nil) != (r.Longitude == nil) {
		return fmt.Errorf("%w: latitude and longitude must be given together", ErrValidation)
	}
	if r.Latitude == nil && r.City == "" {
		return fmt.Errorf("%w: either latitude/longitude or city is required", ErrValidation)
	}
	return nil
}

func (r Request) noct() float64 {
	if r.NOCT != nil {
		return *r.NOCT
	}
	return DefaultNOCT
}

func (r Request) subsidyEnabled() bool {
	return r.ApplySubsidy == nil || *r.ApplySubsidy
}

func (r Request) consumption() ConsumptionSpec {
	return ConsumptionSpec{
		MonthlyKWh:           r.MonthlyConsumptionKWh,
		EVDailyKM:            r.EVDailyKM,
		EVEfficiencyKMPerKWh: r.EVEfficiencyKMPerKWh,
	}
}

// build returns the tariff described by t, or fallback when t is absent or
// entirely empty. Rates or slabs without a mode are rejected.
func (t *TariffRequest) build(fallback billing.Tariff) (billing.Tariff, error) {
	if t == nil {
		return fallback, nil
	}
	if t.Mode == "" {
		if t.BuyRate != 0 || t.SellRate != 0 || t.ExportRate != 0 || len(t.Slabs) > 0 {
			return nil, fmt.Errorf("%w: tariff mode is required when rates or slabs are given", ErrValidation)
		}
		return fallback, nil
	}
	switch t.Mode {
	case billing.KindFlat:
		return billing.Flat{BuyRate: t.BuyRate, SellRate: t.SellRate}, nil
	case billing.KindSlab:
		bands := make([]billing.Band, len(t.Slabs))
		for i, s := range t.Slabs {
			capacity := billing.Unbounded
			if s.CapacityKWh != nil {
				capacity = *s.CapacityKWh
			}
			bands[i] = billing.Band{Capacity: capacity, Rate: s.Rate}
		}
		slab, err := billing.NewSlab(bands, t.ExportRate)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		return slab, nil
	default:
		return nil, fmt.Errorf("%w: unknown tariff mode %q", ErrValidation, t.Mode)
	}
}

// IrradianceRequest asks for the simulation of a single month.
type IrradianceRequest struct {
	Latitude     float64  `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude    float64  `json:"longitude" validate:"gte=-180,lte=180"`
	Month        int      `json:"month" validate:"gte=1,lte=12"`
	Tilt         *float64 `json:"tilt,omitempty" validate:"omitempty,gte=0,lte=90"`
	NOCT         *float64 `json:"noct,omitempty" validate:"omitempty,gt=20,lte=80"`
	SystemSizeKW *float64 `json:"system_size_kw,omitempty" validate:"omitempty,gt=0,lte=1000"`
}

func (r IrradianceRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}
