package common

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round2 rounds x half away from zero to two decimal places. NaN and ±Inf are
// returned unchanged.
func Round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return decimal.NewFromFloat(x).Round(2).InexactFloat64()
}

// Round2Ptr rounds *x, passing nil through.
func Round2Ptr(x *float64) *float64 {
	if x == nil {
		return nil
	}
	v := Round2(*x)
	return &v
}
