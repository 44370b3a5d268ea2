// Package recurrence expands recurrence rules into concrete occurrence dates.
//
// Each recurrence type has its own Generator registered by type ID, following
// the same strategy-registry shape used elsewhere in the service. Generators are
// pure: they read the rule and a resolved Window and return dates, never
// errors. A rule that cannot be interpreted yields no dates.
package recurrence

import (
	"slices"
	"strings"
	"time"

	"forecast/internal/core"
)

// Window is the set of bounds a generator works within.
type Window struct {
	// Anchor is the rule's own start date, or the projection start if unset.
	Anchor core.Date
	// Start and End are the projection window intersected with the rule's
	// own [startDate, endDate].
	Start core.Date
	End   core.Date
	// ProjectionStart and ProjectionEnd are the raw projection window.
	ProjectionStart core.Date
	ProjectionEnd   core.Date
}

// Generator produces the occurrence dates of one recurrence type.
type Generator interface {
	Generate(spec *core.Recurrence, w Window) []core.Date
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(spec *core.Recurrence, w Window) []core.Date

func (f GeneratorFunc) Generate(spec *core.Recurrence, w Window) []core.Date {
	return f(spec, w)
}

var generators = map[int]Generator{
	core.RecurrenceOneTime:       GeneratorFunc(oneTime),
	core.RecurrenceDaily:         GeneratorFunc(daily),
	core.RecurrenceWeekly:        GeneratorFunc(weekly),
	core.RecurrenceMonthlyByDay:  GeneratorFunc(monthlyByDay),
	core.RecurrenceMonthlyByWeek: GeneratorFunc(monthlyByWeek),
	core.RecurrenceQuarterly:     GeneratorFunc(quarterly),
	core.RecurrenceYearly:        GeneratorFunc(yearly),
	core.RecurrenceCustomDates:   GeneratorFunc(customDates),
}

// GetGenerator returns the generator registered for a recurrence type ID.
func GetGenerator(recurrenceType int) (Generator, bool) {
	g, ok := generators[recurrenceType]
	return g, ok
}

// NewWindow resolves the bounds of spec against a projection window.
// Unset or unparseable rule dates fall back to the projection bounds.
func NewWindow(spec *core.Recurrence, windowStart, windowEnd core.Date) Window {
	anchor := windowStart
	ruleEnd := windowEnd
	if d, err := core.ParseDate(spec.StartDate); err == nil {
		anchor = d
	}
	if d, err := core.ParseDate(spec.EndDate); err == nil {
		ruleEnd = d
	}
	return Window{
		Anchor:          anchor,
		Start:           core.MaxDate(anchor, windowStart),
		End:             core.MinDate(ruleEnd, windowEnd),
		ProjectionStart: windowStart,
		ProjectionEnd:   windowEnd,
	}
}

// GenerateDates returns the chronologically sorted occurrence dates of spec
// inside [windowStart, windowEnd] and inside the rule's own date range.
// A nil spec, a missing type or an unknown type yields no dates.
func GenerateDates(spec *core.Recurrence, windowStart, windowEnd core.Date) []core.Date {
	if spec == nil || spec.RecurrenceType == 0 {
		return nil
	}
	gen, ok := GetGenerator(spec.RecurrenceType)
	if !ok {
		return nil
	}

	dates := gen.Generate(spec, NewWindow(spec, windowStart, windowEnd))
	slices.SortStableFunc(dates, func(a, b core.Date) int {
		return a.Key() - b.Key()
	})
	return dates
}

func interval(spec *core.Recurrence) int {
	if spec.Interval < 1 {
		return 1
	}
	return spec.Interval
}

// oneTime fires on the rule's start date when it lies in the projection window.
func oneTime(_ *core.Recurrence, w Window) []core.Date {
	if w.Anchor.Between(w.ProjectionStart, w.ProjectionEnd) && !w.Anchor.After(w.End) {
		return []core.Date{w.Anchor}
	}
	return nil
}

// daily steps from the effective start, not from the anchor.
func daily(spec *core.Recurrence, w Window) []core.Date {
	step := interval(spec)
	var dates []core.Date
	for d := w.Start; !d.After(w.End); d = d.AddDays(step) {
		dates = append(dates, d)
	}
	return dates
}

func weekly(spec *core.Recurrence, w Window) []core.Date {
	step := 7 * interval(spec)

	target := w.Anchor.Weekday()
	if spec.DayOfWeek != nil {
		target = time.Weekday((*spec.DayOfWeek%7 + 7) % 7)
	}
	d := w.Anchor.AddDays((int(target) - int(w.Anchor.Weekday()) + 7) % 7)

	// Jump whole intervals instead of walking from a distant anchor.
	if d.Before(w.Start) {
		weeks := core.DaysBetween(d, w.Start) / 7
		skip := (weeks + interval(spec) - 1) / interval(spec)
		d = d.AddDays(skip * step)
	}

	var dates []core.Date
	for ; !d.After(w.End); d = d.AddDays(step) {
		if !d.Before(w.Start) {
			dates = append(dates, d)
		}
	}
	return dates
}

// eachMonth calls fn with the first day of every month touching [start, end].
func eachMonth(start, end core.Date, stepMonths int, fn func(first core.Date)) {
	year, month := start.Year(), start.Month()
	if stepMonths == 3 {
		month = (month-1)/3*3 + 1
	}
	for i := 0; ; i++ {
		first := core.NewDate(year, month+i*stepMonths, 1)
		if first.After(end) {
			return
		}
		fn(first)
	}
}

func monthlyByDay(spec *core.Recurrence, w Window) []core.Date {
	var dates []core.Date
	eachMonth(w.Start, w.End, 1, func(first core.Date) {
		last := core.DaysInMonth(first.Year(), first.Month())
		day := spec.DayOfMonth
		switch {
		case day == 0:
			day = 1
		case day < 0 || day > last:
			day = last
		}
		d := core.NewDate(first.Year(), first.Month(), day)
		if d.Between(w.Start, w.End) {
			dates = append(dates, d)
		}
	})
	return dates
}

func monthlyByWeek(spec *core.Recurrence, w Window) []core.Date {
	n := spec.WeekOfMonth
	switch n {
	case 0:
		n = 1
	case 5:
		n = -1
	}
	weekday := time.Monday
	if spec.DayOfWeekInMonth != nil {
		weekday = time.Weekday((*spec.DayOfWeekInMonth%7 + 7) % 7)
	}

	var dates []core.Date
	eachMonth(w.Start, w.End, 1, func(first core.Date) {
		d, ok := NthWeekdayOfMonth(first, weekday, n)
		if ok && d.Between(w.Start, w.End) {
			dates = append(dates, d)
		}
	})
	return dates
}

func quarterly(spec *core.Recurrence, w Window) []core.Date {
	offset := spec.DayOfQuarter - 1
	if offset < 0 {
		offset = 0
	}
	var dates []core.Date
	eachMonth(w.Start, w.End, 3, func(first core.Date) {
		d := first.AddDays(offset)
		if d.Between(w.Start, w.End) {
			dates = append(dates, d)
		}
	})
	return dates
}

// yearly places the occurrence dayOfYear-1 days after the 1st of month.
// Each year is recomputed from its own month start so leap days never drift.
func yearly(spec *core.Recurrence, w Window) []core.Date {
	month, day := spec.Month, spec.DayOfYear
	if month == 0 {
		month = 1
	}
	if day == 0 {
		day = 1
	}

	year := w.Start.Year()
	if core.NewDate(year, month, day).Before(w.Start) {
		year++
	}

	var dates []core.Date
	for d := core.NewDate(year, month, day); !d.After(w.End); d = core.NewDate(year, month, day) {
		if !d.Before(w.Start) {
			dates = append(dates, d)
		}
		year++
	}
	return dates
}

// customDates keeps every parseable listed date inside the effective window.
// Duplicates are preserved.
func customDates(spec *core.Recurrence, w Window) []core.Date {
	var dates []core.Date
	for _, raw := range strings.Split(spec.CustomDates, ",") {
		d, err := core.ParseDate(raw)
		if err != nil {
			continue
		}
		if d.Between(w.Start, w.End) {
			dates = append(dates, d)
		}
	}
	return dates
}

// NthWeekdayOfMonth returns the nth weekday of the month containing month.
// n == -1 selects the last one. It reports false when the month has fewer
// than n such weekdays or n is otherwise out of range.
func NthWeekdayOfMonth(month core.Date, weekday time.Weekday, n int) (core.Date, bool) {
	year, m := month.Year(), month.Month()
	last := core.DaysInMonth(year, m)

	if n == -1 {
		for day := last; day > 0; day-- {
			d := core.NewDate(year, m, day)
			if d.Weekday() == weekday {
				return d, true
			}
		}
		return core.Date{}, false
	}
	if n < 1 {
		return core.Date{}, false
	}

	count := 0
	for day := 1; day <= last; day++ {
		d := core.NewDate(year, m, day)
		if d.Weekday() != weekday {
			continue
		}
		count++
		if count == n {
			return d, true
		}
	}
	return core.Date{}, false
}
