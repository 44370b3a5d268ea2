// Package periodic resolves stored periodic-change specs into calculation
// descriptors and applies them to a principal.
package periodic

import (
	"forecast/internal/core"
	"forecast/internal/lookup"
)

// Expanded is a periodic change with its IDs resolved to lookup descriptors.
// Optional descriptors are nil when the stored spec did not set them or they
// did not resolve.
type Expanded struct {
	Value      float64
	ChangeMode lookup.Entry
	ChangeType lookup.Entry
	// RatePeriod is the period the nominal rate is quoted over (types 7 and 8).
	RatePeriod *lookup.Entry
	// Period is how often a fixed amount applies.
	Period *lookup.Entry
	// Frequency is the legacy flat compounding frequency (never set for type 7).
	Frequency *lookup.Entry
	// CustomCompounding carries rate-period and frequency IDs for type 7.
	CustomCompounding *core.CustomCompounding
}

// IsFixedAmount reports whether the change adds a flat amount per application.
func (e *Expanded) IsFixedAmount() bool {
	return e.ChangeMode.ID == core.ChangeModeFixedAmount
}

// IsSimple reports whether the change is percentage simple interest.
func (e *Expanded) IsSimple() bool {
	return e.ChangeMode.ID == core.ChangeModePercentage && e.ChangeType.ID == core.ChangeSimple
}

func resolve(entries []lookup.Entry, id int) *lookup.Entry {
	if id == 0 {
		return nil
	}
	e, ok := lookup.Find(entries, id)
	if !ok {
		return nil
	}
	return &e
}

// Expand resolves spec against data. It returns nil when spec is a no-op
// (nil or zero value) or when its change mode or change type is unknown.
func Expand(spec *core.PeriodicChange, data *lookup.Data) *Expanded {
	if spec.IsZero() || data == nil {
		return nil
	}
	mode, ok := data.ChangeMode(spec.ChangeMode)
	if !ok {
		return nil
	}
	typ, ok := data.ChangeType(spec.ChangeType)
	if !ok {
		return nil
	}

	out := &Expanded{
		Value:      spec.Value,
		ChangeMode: mode,
		ChangeType: typ,
	}

	if typ.ID == core.ChangeCustomCompounding || typ.ID == core.ChangeCustomNominal {
		out.RatePeriod = resolve(data.RatePeriods, spec.RatePeriod)
	}
	if mode.ID == core.ChangeModeFixedAmount {
		out.Period = resolve(data.Frequencies, spec.Period)
	}

	if typ.ID == core.ChangeCustomCompounding {
		out.CustomCompounding = customCompounding(spec)
	} else {
		out.Frequency = resolve(data.Frequencies, spec.Frequency)
	}
	return out
}

// customCompounding prefers the explicit sub-object and falls back to the
// legacy flat frequency. A missing period means the rate period, then Annual.
func customCompounding(spec *core.PeriodicChange) *core.CustomCompounding {
	defaultPeriod := spec.RatePeriod
	if defaultPeriod == 0 {
		defaultPeriod = core.RatePeriodAnnual
	}

	switch {
	case spec.CustomCompounding != nil:
		cc := *spec.CustomCompounding
		if cc.Period == 0 {
			cc.Period = defaultPeriod
		}
		return &cc
	case spec.Frequency != 0:
		return &core.CustomCompounding{Period: defaultPeriod, Frequency: spec.Frequency}
	default:
		return nil
	}
}
