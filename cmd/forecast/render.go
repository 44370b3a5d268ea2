package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"forecast/internal/core"
	"forecast/internal/lookup"
	"forecast/internal/periodic"
	"forecast/internal/recurrence"
)

const (
	formatTable = "table"
	formatCSV   = "csv"
	formatJSON  = "json"
)

var recordHeader = []string{"date", "account", "balance", "income", "expenses", "net_change", "interest"}

func renderRecords(w io.Writer, format string, rows []core.ProjectionRecord) error {
	switch format {
	case formatTable, "":
		return writeTable(w, rows)
	case formatCSV:
		return writeCSV(w, rows)
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	default:
		return fmt.Errorf("unknown format %q: must be table, csv or json", format)
	}
}

func recordFields(r core.ProjectionRecord) []string {
	return []string{
		r.Date,
		r.Account,
		core.FormatAmount(r.Balance),
		core.FormatAmount(r.Income),
		core.FormatAmount(r.Expenses),
		core.FormatAmount(r.NetChange),
		core.FormatAmount(r.Interest),
	}
}

func writeTable(w io.Writer, rows []core.ProjectionRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	line := func(fields []string) {
		for _, f := range fields {
			fmt.Fprint(tw, f, "\t")
		}
		fmt.Fprintln(tw)
	}
	line([]string{"DATE", "ACCOUNT", "BALANCE", "INCOME", "EXPENSES", "NET", "INTEREST"})
	for _, r := range rows {
		line(recordFields(r))
	}
	return tw.Flush()
}

func writeCSV(w io.Writer, rows []core.ProjectionRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"account_id"}, recordHeader...)); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(append([]string{strconv.Itoa(r.AccountID)}, recordFields(r)...)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// describeScenario prints the accounts and transactions of s with their
// growth and recurrence rules spelled out.
func describeScenario(w io.Writer, s *core.Scenario, data *lookup.Data) {
	fmt.Fprintf(w, "Scenario %d: %s\n", s.ID, s.Name)
	if s.Projection != nil {
		c := s.Projection.Config
		fmt.Fprintf(w, "Window: %s to %s\n", orDash(c.StartDate), orDash(c.EndDate))
	}

	fmt.Fprintln(w, "\nAccounts:")
	for _, a := range s.Accounts {
		fmt.Fprintf(w, "  [%d] %s, starting balance %s\n", a.ID, a.Name, core.FormatAmount(a.StartingBalance))
		if a.PeriodicChange != nil && !a.PeriodicChange.IsZero() {
			fmt.Fprintf(w, "      growth: %s\n", periodic.Describe(a.PeriodicChange, data))
		}
		for _, sc := range a.PeriodicChangeSchedule {
			fmt.Fprintf(w, "      from %s until %s: %s\n",
				sc.StartDate, orDash(sc.EndDate), periodic.Describe(sc.PeriodicChange, data))
		}
	}

	fmt.Fprintln(w, "\nTransactions:")
	for _, t := range s.Transactions {
		direction := "in"
		if t.TransactionTypeID != core.MoneyIn {
			direction = "out"
		}
		label := t.Description
		if label == "" {
			label = "transaction " + strconv.Itoa(t.ID)
		}
		fmt.Fprintf(w, "  [%d] %s: %s %s, account %d, %s\n",
			t.ID, label, core.FormatAmount(t.Amount), direction, t.PrimaryAccountID, orDash(t.Status))
		if t.Recurrence != nil {
			fmt.Fprintf(w, "      %s\n", recurrence.Describe(t.Recurrence))
		} else if t.EffectiveDate != "" {
			fmt.Fprintf(w, "      once on %s\n", t.EffectiveDate)
		}
		if t.PeriodicChange != nil && !t.PeriodicChange.IsZero() {
			fmt.Fprintf(w, "      escalates %s\n", periodic.Describe(t.PeriodicChange, data))
		}
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
