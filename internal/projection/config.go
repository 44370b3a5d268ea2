// Package projection turns a scenario into per-account, per-period balance
// summaries.
//
// The engine is a pure, synchronous computation over an in-memory scenario.
// It performs no I/O; callers load the scenario and lookup tables beforehand
// and persist the returned records afterwards.
package projection

import (
	"errors"
	"fmt"
	"strings"

	"forecast/internal/core"
)

// Projection sources.
const (
	SourceTransactions = "transactions"
	SourceBudget       = "budget"
)

var ErrInvalidWindow = errors.New("projection window ends before it starts")

// PeriodType is the periodicity records are summarized over.
type PeriodType int

const (
	PeriodDaily PeriodType = iota + 1
	PeriodWeekly
	PeriodMonthly
	PeriodQuarterly
	PeriodYearly
)

var periodNames = map[PeriodType]string{
	PeriodDaily:     "daily",
	PeriodWeekly:    "weekly",
	PeriodMonthly:   "monthly",
	PeriodQuarterly: "quarterly",
	PeriodYearly:    "yearly",
}

// Valid reports whether p is a known period type.
func (p PeriodType) Valid() bool {
	_, ok := periodNames[p]
	return ok
}

func (p PeriodType) String() string {
	if name, ok := periodNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PeriodType(%d)", int(p))
}

// ParsePeriodType accepts both unit and adjective names ("month", "monthly"),
// case-insensitively.
func ParsePeriodType(s string) (PeriodType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day", "daily":
		return PeriodDaily, true
	case "week", "weekly":
		return PeriodWeekly, true
	case "month", "monthly":
		return PeriodMonthly, true
	case "quarter", "quarterly":
		return PeriodQuarterly, true
	case "year", "yearly":
		return PeriodYearly, true
	default:
		return 0, false
	}
}

// Options are caller overrides for a single run. Zero fields fall back to the
// scenario's stored projection config.
type Options struct {
	Source       string `json:"source,omitempty"`
	Periodicity  string `json:"periodicity,omitempty"`
	PeriodTypeID int    `json:"periodTypeId,omitempty"`
	StartDate    string `json:"startDate,omitempty"`
	EndDate      string `json:"endDate,omitempty"`
}

// Config is the fully resolved configuration of a run.
type Config struct {
	StartDate  core.Date  `json:"startDate"`
	EndDate    core.Date  `json:"endDate"`
	PeriodType PeriodType `json:"periodTypeId"`
	Source     string     `json:"source"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// ResolveConfig merges opts over the scenario's stored config over defaults
// (monthly periods, transactions source). Unparseable window dates return an
// error wrapping core.ErrMissingDates.
func ResolveConfig(scenario *core.Scenario, opts Options) (Config, error) {
	var stored core.ProjectionConfig
	if scenario != nil && scenario.Projection != nil {
		stored = scenario.Projection.Config
	}

	startRaw := firstNonEmpty(opts.StartDate, stored.StartDate)
	endRaw := firstNonEmpty(opts.EndDate, stored.EndDate)
	start, err := core.ParseDate(startRaw)
	if err != nil {
		return Config{}, fmt.Errorf("%w: start date %q", core.ErrMissingDates, startRaw)
	}
	end, err := core.ParseDate(endRaw)
	if err != nil {
		return Config{}, fmt.Errorf("%w: end date %q", core.ErrMissingDates, endRaw)
	}
	if end.Before(start) {
		return Config{}, fmt.Errorf("%w: %s to %s", ErrInvalidWindow, start, end)
	}

	cfg := Config{
		StartDate:  start,
		EndDate:    end,
		PeriodType: PeriodMonthly,
		Source:     SourceTransactions,
	}

	if pt, ok := ParsePeriodType(opts.Periodicity); ok {
		cfg.PeriodType = pt
	} else if pt := PeriodType(opts.PeriodTypeID); pt.Valid() {
		cfg.PeriodType = pt
	} else if pt := PeriodType(stored.PeriodTypeID); pt.Valid() {
		cfg.PeriodType = pt
	}

	if firstNonEmpty(opts.Source, stored.Source) == SourceBudget {
		cfg.Source = SourceBudget
	}
	return cfg, nil
}
