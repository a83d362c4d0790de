package billing

import (
	"errors"
	"fmt"
	"math"
)

// Kind identifies which tariff variant a Tariff is.
type Kind string

const (
	KindFlat Kind = "flat"
	KindSlab Kind = "slab"
)

var (
	// ErrInvalidTariff is returned when a slab schedule violates its invariants.
	ErrInvalidTariff = errors.New("invalid tariff")
)

// Tariff converts an energy quantity into a cost.
type Tariff interface {
	Kind() Kind
	// Bill returns the cost of importing units kWh. Negative units bill as zero.
	Bill(units float64) float64
	// ExportRate is the price paid per kWh exported to the grid.
	ExportRate() float64
}

// Flat charges a single rate for every imported kWh.
type Flat struct {
	BuyRate  float64
	SellRate float64
}

func (f Flat) Kind() Kind {
	return KindFlat
}

func (f Flat) Bill(units float64) float64 {
	if units <= 0 {
		return 0
	}
	return units * f.BuyRate
}

func (f Flat) ExportRate() float64 {
	return f.SellRate
}

// Band is one step of a slab schedule. The final band of a schedule has an
// infinite Capacity.
type Band struct {
	Capacity float64
	Rate     float64
}

// Unbounded is the capacity of the last band in a schedule.
var Unbounded = math.Inf(1)

// Slab charges successive consumption bands at their own rates.
type Slab struct {
	bands      []Band
	exportRate float64
}

// NewSlab validates bands and returns a slab tariff. Rates need not be
// increasing.
func NewSlab(bands []Band, exportRate float64) (*Slab, error) {
	if len(bands) == 0 {
		return nil, fmt.Errorf("%w: slab schedule has no bands", ErrInvalidTariff)
	}
	if exportRate < 0 || math.IsNaN(exportRate) {
		return nil, fmt.Errorf("%w: export rate must be non-negative", ErrInvalidTariff)
	}

	last := len(bands) - 1
	for i, b := range bands {
		if b.Rate < 0 || math.IsNaN(b.Rate) {
			return nil, fmt.Errorf("%w: band %d has a negative rate", ErrInvalidTariff, i+1)
		}
		if i == last {
			if !math.IsInf(b.Capacity, 1) {
				return nil, fmt.Errorf("%w: final band must be unbounded", ErrInvalidTariff)
			}
			continue
		}
		if !(b.Capacity > 0) || math.IsInf(b.Capacity, 1) {
			return nil, fmt.Errorf("%w: band %d must have a positive, finite capacity", ErrInvalidTariff, i+1)
		}
	}

	return &Slab{
		bands:      append([]Band(nil), bands...),
		exportRate: exportRate,
	}, nil
}

func (s *Slab) Kind() Kind {
	return KindSlab
}

func (s *Slab) Bill(units float64) float64 {
	remaining := units
	cost := 0.0

	for _, b := range s.bands {
		if remaining <= 0 {
			break
		}
		used := math.Min(remaining, b.Capacity)
		cost += used * b.Rate
		remaining -= used
	}

	return cost
}

func (s *Slab) ExportRate() float64 {
	return s.exportRate
}

// Bands returns a copy of the schedule.
func (s *Slab) Bands() []Band {
	return append([]Band(nil), s.bands...)
}

// KSEBDomestic is the Kerala State Electricity Board domestic schedule with
// its 3.15/kWh export tariff.
func KSEBDomestic() *Slab {
	s, err := NewSlab([]Band{
		{Capacity: 50, Rate: 3.15},
		{Capacity: 50, Rate: 3.70},
		{Capacity: 100, Rate: 4.80},
		{Capacity: 100, Rate: 6.40},
		{Capacity: Unbounded, Rate: 7.50},
	}, 3.15)
	if err != nil {
		panic(err)
	}
	return s
}
