package recurrence

import (
	"fmt"
	"strings"
	"time"

	"forecast/internal/core"
)

var ordinals = map[int]string{1: "first", 2: "second", 3: "third", 4: "fourth", -1: "last", 5: "last"}

// Describe renders a short human-readable summary of a recurrence rule,
// e.g. "Every 2 weeks on Mon until 2026-12-31".
func Describe(spec *core.Recurrence) string {
	if spec == nil || spec.RecurrenceType == 0 {
		return ""
	}

	n := interval(spec)
	until := ""
	if spec.EndDate != "" {
		until = " until " + spec.EndDate
	}
	every := func(unit string) string {
		if n == 1 {
			return "Every " + unit
		}
		return fmt.Sprintf("Every %d %ss", n, unit)
	}
	start, startErr := core.ParseDate(spec.StartDate)

	switch spec.RecurrenceType {
	case core.RecurrenceOneTime:
		if spec.StartDate != "" {
			return "One time on " + spec.StartDate
		}
		return "One time"
	case core.RecurrenceDaily:
		return every("day") + until
	case core.RecurrenceWeekly:
		day := ""
		switch {
		case spec.DayOfWeek != nil:
			day = " on " + shortWeekday(time.Weekday((*spec.DayOfWeek%7+7)%7))
		case startErr == nil:
			day = " on " + shortWeekday(start.Weekday())
		}
		return every("week") + day + until
	case core.RecurrenceMonthlyByDay:
		day := ""
		switch {
		case spec.DayOfMonth < 0:
			day = " on the last day"
		case spec.DayOfMonth > 0:
			day = fmt.Sprintf(" on day %d", spec.DayOfMonth)
		case startErr == nil:
			day = fmt.Sprintf(" on day %d", start.Day())
		}
		return every("month") + day + until
	case core.RecurrenceMonthlyByWeek:
		week := ordinals[spec.WeekOfMonth]
		if week == "" {
			week = "first"
		}
		weekday := time.Monday
		if spec.DayOfWeekInMonth != nil {
			weekday = time.Weekday((*spec.DayOfWeekInMonth%7 + 7) % 7)
		}
		return fmt.Sprintf("%s on the %s %s%s", every("month"), week, shortWeekday(weekday), until)
	case core.RecurrenceQuarterly:
		day := spec.DayOfQuarter
		if day == 0 {
			day = 1
		}
		return fmt.Sprintf("%s on day %d%s", every("quarter"), day, until)
	case core.RecurrenceYearly:
		month, day := spec.Month, spec.DayOfYear
		if month == 0 {
			month = 1
		}
		if day == 0 {
			day = 1
		}
		anchor := core.NewDate(2001, month, day).Format("Jan 02")
		return every("year") + " on " + anchor + until
	case core.RecurrenceCustomDates:
		count := 0
		for _, raw := range strings.Split(spec.CustomDates, ",") {
			if strings.TrimSpace(raw) != "" {
				count++
			}
		}
		if count > 0 {
			return fmt.Sprintf("Custom: %d dates", count)
		}
		return "Custom dates"
	default:
		return "Recurring"
	}
}

func shortWeekday(d time.Weekday) string {
	return d.String()[:3]
}
