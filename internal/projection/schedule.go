package projection

import (
	"slices"

	"forecast/internal/core"
)

// scheduleEntry is a parsed rate window. open entries have no end date.
type scheduleEntry struct {
	start  core.Date
	end    core.Date
	open   bool
	change *core.PeriodicChange
}

type schedule []scheduleEntry

// newSchedule parses and sorts an account's rate windows. Entries without a
// valid start date are dropped; an unparseable end date leaves the entry open.
func newSchedule(entries []core.ScheduledChange) schedule {
	var s schedule
	for _, e := range entries {
		start, err := core.ParseDate(e.StartDate)
		if err != nil {
			continue
		}
		entry := scheduleEntry{start: start, open: true, change: e.PeriodicChange}
		if end, err := core.ParseDate(e.EndDate); err == nil {
			entry.end, entry.open = end, false
		}
		s = append(s, entry)
	}
	slices.SortStableFunc(s, func(a, b scheduleEntry) int {
		return a.start.Key() - b.start.Key()
	})
	return s
}

// changeFor returns the change of the first entry whose window contains d,
// or fallback when no entry does.
func (s schedule) changeFor(d core.Date, fallback *core.PeriodicChange) *core.PeriodicChange {
	for _, e := range s {
		if d.Before(e.start) {
			break
		}
		if e.open || !d.After(e.end) {
			return e.change
		}
	}
	return fallback
}

// segments splits p at every schedule boundary falling strictly inside it.
func (s schedule) segments(p core.Period) []core.Period {
	points := []core.Date{p.Start}
	inside := func(d core.Date) bool {
		return d.After(p.Start) && !d.After(p.End)
	}
	for _, e := range s {
		if inside(e.start) {
			points = append(points, e.start)
		}
		if !e.open {
			if next := e.end.AddDays(1); inside(next) {
				points = append(points, next)
			}
		}
	}

	slices.SortFunc(points, func(a, b core.Date) int { return a.Key() - b.Key() })
	points = slices.CompactFunc(points, func(a, b core.Date) bool { return a.Equal(b) })

	out := make([]core.Period, 0, len(points))
	for i, start := range points {
		end := p.End
		if i+1 < len(points) {
			end = points[i+1].AddDays(-1)
		}
		out = append(out, core.Period{Start: start, End: end})
	}
	return out
}
