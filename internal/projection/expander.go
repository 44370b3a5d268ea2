package projection

import (
	"slices"

	"forecast/internal/core"
	"forecast/internal/lookup"
	"forecast/internal/periodic"
	"forecast/internal/recurrence"
)

// ExpandedTransaction is one firing of a transaction on a concrete date.
type ExpandedTransaction struct {
	core.Transaction
	OccurrenceDate core.Date
}

// ExpandTransactions returns one entry per (transaction, occurrence date).
// Transactions with a recurrence fire on every generated date; others fire
// once on their effective date when it falls inside [start, end]. When
// accounts is non-empty, transactions touching none of them are skipped.
func ExpandTransactions(txs []core.Transaction, start, end core.Date, accounts []core.Account) []ExpandedTransaction {
	known := make(map[int]struct{}, len(accounts))
	for _, a := range accounts {
		known[a.ID] = struct{}{}
	}

	var out []ExpandedTransaction
	for _, tx := range txs {
		if len(known) > 0 {
			_, primary := known[tx.PrimaryAccountID]
			_, secondary := known[tx.SecondaryAccountID]
			if !primary && !secondary {
				continue
			}
		}

		if tx.Recurrence != nil {
			for _, d := range recurrence.GenerateDates(tx.Recurrence, start, end) {
				out = append(out, ExpandedTransaction{Transaction: tx, OccurrenceDate: d})
			}
			continue
		}

		d, err := core.ParseDate(tx.EffectiveDate)
		if err != nil || !d.Between(start, end) {
			continue
		}
		out = append(out, ExpandedTransaction{Transaction: tx, OccurrenceDate: d})
	}
	return out
}

// Occurrence is a dated money movement with its amount resolved.
type Occurrence struct {
	Date                core.Date
	DateKey             int
	PrimaryAccountID    int
	SecondaryAccountID  int
	TransactionTypeID   int
	Amount              float64
	Description         string
	SourceTransactionID int
}

// plannedItems selects the planned items of the configured source in the
// transaction shape.
func plannedItems(scenario *core.Scenario, source string) []core.Transaction {
	var out []core.Transaction
	if source == SourceBudget {
		for _, b := range scenario.Budgets {
			if b.IsPlanned() {
				out = append(out, b.AsTransaction())
			}
		}
		return out
	}
	for _, tx := range scenario.Transactions {
		if tx.IsPlanned() {
			out = append(out, tx)
		}
	}
	return out
}

// BuildOccurrences expands the scenario's planned items over the configured
// window, escalates amounts that carry a periodic change and orders the
// result by date. Items sharing a date keep their input order.
func BuildOccurrences(scenario *core.Scenario, cfg Config, data *lookup.Data) []Occurrence {
	expanded := ExpandTransactions(plannedItems(scenario, cfg.Source), cfg.StartDate, cfg.EndDate, scenario.Accounts)

	occurrences := make([]Occurrence, 0, len(expanded))
	for _, tx := range expanded {
		amount := tx.Amount
		if pc := periodic.Expand(tx.PeriodicChange, data); pc != nil {
			base := cfg.StartDate
			if tx.Recurrence != nil {
				if d, err := core.ParseDate(tx.Recurrence.StartDate); err == nil {
					base = d
				}
			}
			amount = periodic.Calculate(tx.Amount, pc, core.YearsBetween(base, tx.OccurrenceDate))
		}

		occurrences = append(occurrences, Occurrence{
			Date:                tx.OccurrenceDate,
			DateKey:             tx.OccurrenceDate.Key(),
			PrimaryAccountID:    tx.PrimaryAccountID,
			SecondaryAccountID:  tx.SecondaryAccountID,
			TransactionTypeID:   tx.TransactionTypeID,
			Amount:              amount,
			Description:         tx.Description,
			SourceTransactionID: tx.ID,
		})
	}

	slices.SortStableFunc(occurrences, func(a, b Occurrence) int {
		return a.DateKey - b.DateKey
	})
	return occurrences
}
