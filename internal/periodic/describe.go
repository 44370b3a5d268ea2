package periodic

import (
	"fmt"
	"strconv"
	"strings"

	"forecast/internal/core"
	"forecast/internal/lookup"
)

var compoundedBy = map[int]string{
	core.ChangeCompoundMonthly:   "monthly",
	core.ChangeCompoundDaily:     "daily",
	core.ChangeCompoundQuarterly: "quarterly",
	core.ChangeCompoundAnnually:  "annually",
}

// Describe renders a one-line summary such as "6% annual, compounded monthly".
// A no-op or unresolvable spec describes as "".
func Describe(spec *core.PeriodicChange, data *lookup.Data) string {
	pc := Expand(spec, data)
	if pc == nil {
		return ""
	}
	value := strconv.FormatFloat(pc.Value, 'f', -1, 64)

	if pc.IsFixedAmount() {
		every := "monthly"
		if pc.Period != nil {
			every = strings.ToLower(pc.Period.Name)
		}
		return fmt.Sprintf("%s %s", core.FormatAmount(pc.Value), every)
	}

	switch id := pc.ChangeType.ID; id {
	case core.ChangeSimple:
		return value + "% simple interest"
	case core.ChangeContinuous:
		return value + "% continuous"
	case core.ChangeCustomCompounding:
		if pc.CustomCompounding == nil {
			return value + "% custom"
		}
		period := nameOr(data.RatePeriods, pc.CustomCompounding.Period, "annual")
		freq := nameOr(data.Frequencies, pc.CustomCompounding.Frequency, "")
		if freq == "" {
			return fmt.Sprintf("%s%% %s", value, period)
		}
		return fmt.Sprintf("%s%% %s, compounded %s", value, period, freq)
	case core.ChangeCustomNominal:
		period, freq := "annual", "monthly"
		if pc.RatePeriod != nil {
			period = strings.ToLower(pc.RatePeriod.Name)
		}
		if pc.Frequency != nil {
			freq = strings.ToLower(pc.Frequency.Name)
		}
		return fmt.Sprintf("%s%% nominal %s, compounded %s", value, period, freq)
	default:
		if by, ok := compoundedBy[id]; ok {
			return fmt.Sprintf("%s%% annual, compounded %s", value, by)
		}
		return value + "% annual"
	}
}

func nameOr(entries []lookup.Entry, id int, fallback string) string {
	if e, ok := lookup.Find(entries, id); ok {
		return strings.ToLower(e.Name)
	}
	return fallback
}
