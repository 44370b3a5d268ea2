package projection

import (
	"log/slog"

	"forecast/internal/core"
	"forecast/internal/lookup"
	"forecast/internal/periodic"
)

// Engine runs projections against a fixed set of lookup tables. It holds no
// per-run state and is safe for concurrent use.
type Engine struct {
	lookup *lookup.Data
}

// NewEngine creates an engine over data. A nil data uses the embedded tables.
func NewEngine(data *lookup.Data) *Engine {
	if data == nil {
		data = lookup.Default()
	}
	return &Engine{lookup: data}
}

// Run projects every account of scenario over the resolved window and
// returns one record per (account, period), grouped by account in input
// order. Only configuration errors are returned; malformed items contribute
// nothing.
func (e *Engine) Run(scenario *core.Scenario, opts Options) ([]core.ProjectionRecord, Config, error) {
	if scenario == nil {
		return nil, Config{}, core.ErrScenarioNotFound
	}
	cfg, err := ResolveConfig(scenario, opts)
	if err != nil {
		return nil, Config{}, err
	}

	occurrences := BuildOccurrences(scenario, cfg, e.lookup)
	periods := GeneratePeriods(cfg.StartDate, cfg.EndDate, cfg.PeriodType)

	records := make([]core.ProjectionRecord, 0, len(periods)*len(scenario.Accounts))
	for _, account := range scenario.Accounts {
		w := newAccountWalk(account, e.lookup)
		for i, p := range periods {
			s := w.step(p, occurrences)
			records = append(records, core.ProjectionRecord{
				ID:         len(records) + 1,
				ScenarioID: scenario.ID,
				AccountID:  account.ID,
				Account:    account.Name,
				Date:       p.Start.String(),
				Balance:    core.Round2(w.balance),
				Income:     core.Round2(s.income),
				Expenses:   core.Round2(s.expenses),
				NetChange:  core.Round2(s.income - s.expenses),
				Interest:   core.Round2(s.interest),
				Period:     i + 1,
			})
		}
	}

	slog.Debug("Projection run complete",
		"scenario_id", scenario.ID,
		"accounts", len(scenario.Accounts),
		"periods", len(periods),
		"occurrences", len(occurrences),
		"period_type", cfg.PeriodType.String())
	return records, cfg, nil
}

type periodSummary struct {
	income   float64
	expenses float64
	interest float64
}

// addDelta folds a signed balance change into income or expenses.
func (s *periodSummary) addDelta(delta float64) {
	if delta >= 0 {
		s.income += delta
	} else {
		s.expenses -= delta
	}
}

// accountWalk carries one account's running state across periods.
type accountWalk struct {
	account  core.Account
	lookup   *lookup.Data
	schedule schedule
	balance  float64

	// Simple interest accrues against the starting balance only.
	principalBase float64
	elapsedYears  float64
}

func newAccountWalk(account core.Account, data *lookup.Data) *accountWalk {
	return &accountWalk{
		account:       account,
		lookup:        data,
		schedule:      newSchedule(account.PeriodicChangeSchedule),
		balance:       account.StartingBalance,
		principalBase: account.StartingBalance,
	}
}

func (w *accountWalk) step(p core.Period, occurrences []Occurrence) periodSummary {
	var s periodSummary
	w.applyOccurrences(p, occurrences, &s)
	if len(w.schedule) > 0 {
		w.applySchedule(p, &s)
	} else {
		w.applyChange(p, &s)
	}
	return s
}

func (w *accountWalk) applyOccurrences(p core.Period, occurrences []Occurrence, s *periodSummary) {
	startKey, endKey := p.Start.Key(), p.End.Key()
	id := w.account.ID

	for _, occ := range occurrences {
		if occ.DateKey < startKey || occ.DateKey > endKey {
			continue
		}
		amount := occ.Amount
		if amount < 0 {
			amount = -amount
		}
		moneyIn := occ.TransactionTypeID == core.MoneyIn

		switch {
		case occ.PrimaryAccountID == id && occ.SecondaryAccountID == id:
			// Self-transfer: only the primary leg applies.
			w.move(amount, moneyIn, s)
		case occ.PrimaryAccountID == id:
			w.move(amount, moneyIn, s)
		case occ.SecondaryAccountID == id:
			w.move(amount, !moneyIn, s)
		}
	}
}

func (w *accountWalk) move(amount float64, credit bool, s *periodSummary) {
	if credit {
		w.balance += amount
		s.income += amount
		return
	}
	w.balance -= amount
	s.expenses += amount
}

// applySchedule applies the scheduled rate of each segment of p in turn.
// Simple interest in a segment accrues on the principal base without
// advancing the elapsed-years accumulator.
func (w *accountWalk) applySchedule(p core.Period, s *periodSummary) {
	for _, seg := range w.schedule.segments(p) {
		pc := w.expand(w.schedule.changeFor(seg.Start, w.account.PeriodicChange))
		if pc == nil {
			continue
		}
		years := float64(seg.Days()) / core.DaysPerYear
		if years == 0 {
			continue
		}

		before := w.balance
		if pc.IsSimple() {
			w.balance += w.principalBase * pc.Value / 100 * years
		} else {
			w.balance = periodic.Calculate(w.balance, pc, years)
		}
		w.recordInterest(before, s)
	}
}

// expand resolves spec against the lookup tables. A non-zero spec that does
// not resolve is skipped.
func (w *accountWalk) expand(spec *core.PeriodicChange) *periodic.Expanded {
	pc := periodic.Expand(spec, w.lookup)
	if pc == nil && !spec.IsZero() {
		slog.Debug("Skipping unresolvable periodic change",
			"account_id", w.account.ID, "change_type", spec.ChangeType)
	}
	return pc
}

// applyChange applies the account's single periodic change over all of p.
func (w *accountWalk) applyChange(p core.Period, s *periodSummary) {
	pc := w.expand(w.account.PeriodicChange)
	if pc == nil {
		return
	}
	years := float64(p.Days()) / core.DaysPerYear
	if years == 0 {
		return
	}

	before := w.balance
	if pc.IsSimple() {
		rate := pc.Value / 100
		prev := w.principalBase * rate * w.elapsedYears
		w.elapsedYears += years
		w.balance += w.principalBase*rate*w.elapsedYears - prev
	} else {
		w.balance = periodic.Calculate(w.balance, pc, years)
	}
	w.recordInterest(before, s)
}

func (w *accountWalk) recordInterest(before float64, s *periodSummary) {
	delta := w.balance - before
	s.interest += delta
	s.addDelta(delta)
}
