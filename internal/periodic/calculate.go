package periodic

import (
	"math"

	"forecast/internal/core"
)

// applicationsPerYear maps a frequency ID to fixed-amount applications per
// year. It doubles as the compounding count for custom types.
var applicationsPerYear = map[int]float64{
	core.FrequencyDaily:     365,
	core.FrequencyWeekly:    52,
	core.FrequencyMonthly:   12,
	core.FrequencyQuarterly: 4,
	core.FrequencyYearly:    1,
}

// ratePeriodsPerYear annualizes a rate quoted over a rate period.
var ratePeriodsPerYear = map[int]float64{
	core.RatePeriodAnnual:    1,
	core.RatePeriodMonthly:   12,
	core.RatePeriodQuarterly: 4,
	core.RatePeriodDaily:     365,
	core.RatePeriodWeekly:    52,
}

// Calculate returns principal after applying pc over years of elapsed time.
// A nil or zero-valued change is the identity. Nothing is rounded.
func Calculate(principal float64, pc *Expanded, years float64) float64 {
	if pc == nil || pc.Value == 0 {
		return principal
	}

	if pc.IsFixedAmount() {
		perYear := applicationsPerYear[core.FrequencyMonthly]
		if pc.Period != nil {
			if n, ok := applicationsPerYear[pc.Period.ID]; ok {
				perYear = n
			}
		}
		return principal + pc.Value*years*perYear
	}

	rate := pc.Value / 100
	switch pc.ChangeType.ID {
	case core.ChangeSimple:
		return principal * (1 + rate*years)
	case core.ChangeCompoundMonthly:
		return compound(principal, rate, 12, years)
	case core.ChangeCompoundDaily:
		return compound(principal, rate, 365, years)
	case core.ChangeCompoundQuarterly:
		return compound(principal, rate, 4, years)
	case core.ChangeCompoundAnnually:
		return principal * math.Pow(1+rate, years)
	case core.ChangeContinuous:
		return principal * math.Exp(rate*years)
	case core.ChangeCustomCompounding:
		if pc.CustomCompounding == nil {
			return principal
		}
		n, ok := applicationsPerYear[pc.CustomCompounding.Frequency]
		if !ok {
			return principal
		}
		return compound(principal, rate*annualizer(pc.CustomCompounding.Period), n, years)
	case core.ChangeCustomNominal:
		ratePeriod := core.RatePeriodAnnual
		if pc.RatePeriod != nil {
			ratePeriod = pc.RatePeriod.ID
		}
		n := applicationsPerYear[core.FrequencyMonthly]
		if pc.Frequency != nil {
			if v, ok := applicationsPerYear[pc.Frequency.ID]; ok {
				n = v
			}
		}
		return compound(principal, rate*annualizer(ratePeriod), n, years)
	default:
		return principal
	}
}

// compound applies a nominal annual rate compounded n times per year.
func compound(principal, annualRate, n, years float64) float64 {
	return principal * math.Pow(1+annualRate/n, n*years)
}

func annualizer(ratePeriod int) float64 {
	if v, ok := ratePeriodsPerYear[ratePeriod]; ok {
		return v
	}
	return 1
}
