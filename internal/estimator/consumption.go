package estimator

const daysPerYear = 365

// HomeKWh is the annual household demand.
func (c ConsumptionSpec) HomeKWh() float64 {
	return c.MonthlyKWh * 12
}

// EVKWh is the annual EV charging demand. It is zero unless both the daily
// distance and the efficiency are positive.
func (c ConsumptionSpec) EVKWh() float64 {
	if c.EVDailyKM <= 0 || c.EVEfficiencyKMPerKWh <= 0 {
		return 0
	}
	return c.EVDailyKM / c.EVEfficiencyKMPerKWh * daysPerYear
}

// AnnualKWh is the total annual demand.
func (c ConsumptionSpec) AnnualKWh() float64 {
	return c.HomeKWh() + c.EVKWh()
}
