package projection

import "forecast/internal/core"

// GeneratePeriods tiles [start, end] with periods of type pt.
//
// The first period starts at start itself and runs to the end of the calendar
// unit containing it. Every later period covers one whole calendar unit. All
// periods are clipped to end. Weeks run Monday to Sunday.
func GeneratePeriods(start, end core.Date, pt PeriodType) []core.Period {
	if !pt.Valid() {
		pt = PeriodMonthly
	}
	var periods []core.Period
	for cur := start; !cur.After(end); {
		unitEnd := endOfUnit(cur, pt)
		periods = append(periods, core.Period{Start: cur, End: core.MinDate(unitEnd, end)})
		cur = unitEnd.AddDays(1)
	}
	return periods
}

// endOfUnit returns the last day of the calendar unit containing d.
func endOfUnit(d core.Date, pt PeriodType) core.Date {
	switch pt {
	case PeriodDaily:
		return d
	case PeriodWeekly:
		return d.AddDays((7 - int(d.Weekday())) % 7)
	case PeriodQuarterly:
		lastMonth := (d.Month()-1)/3*3 + 3
		return core.NewDate(d.Year(), lastMonth+1, 0)
	case PeriodYearly:
		return core.NewDate(d.Year(), 12, 31)
	default:
		return d.EndOfMonth()
	}
}
