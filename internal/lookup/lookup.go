// Package lookup holds the static ID -> name tables that stored scenario data
// refers to (change modes, compounding types, rate periods, frequencies, ...).
package lookup

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"forecast/assets"
)

// Entry is a resolved enum descriptor.
type Entry struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Data is a full set of lookup tables.
type Data struct {
	PeriodTypes         []Entry `json:"periodTypes"`
	AccountTypes        []Entry `json:"accountTypes"`
	Currencies          []Entry `json:"currencies"`
	TransactionTypes    []Entry `json:"transactionTypes"`
	ChangeModes         []Entry `json:"changeModes"`
	PeriodicChangeTypes []Entry `json:"periodicChangeTypes"`
	RatePeriods         []Entry `json:"ratePeriods"`
	Frequencies         []Entry `json:"frequencies"`
	RecurrenceTypes     []Entry `json:"recurrenceTypes"`
}

// Find returns the entry with the given id.
func Find(entries []Entry, id int) (Entry, bool) {
	for _, e := range entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

func (d *Data) ChangeMode(id int) (Entry, bool)     { return Find(d.ChangeModes, id) }
func (d *Data) ChangeType(id int) (Entry, bool)     { return Find(d.PeriodicChangeTypes, id) }
func (d *Data) RatePeriod(id int) (Entry, bool)     { return Find(d.RatePeriods, id) }
func (d *Data) Frequency(id int) (Entry, bool)      { return Find(d.Frequencies, id) }
func (d *Data) PeriodType(id int) (Entry, bool)     { return Find(d.PeriodTypes, id) }
func (d *Data) AccountType(id int) (Entry, bool)    { return Find(d.AccountTypes, id) }
func (d *Data) Currency(id int) (Entry, bool)       { return Find(d.Currencies, id) }
func (d *Data) RecurrenceType(id int) (Entry, bool) { return Find(d.RecurrenceTypes, id) }

// Validate checks that the tables the projection engine depends on are present.
func (d *Data) Validate() error {
	var missing []string
	required := map[string][]Entry{
		"changeModes":         d.ChangeModes,
		"periodicChangeTypes": d.PeriodicChangeTypes,
		"ratePeriods":         d.RatePeriods,
		"frequencies":         d.Frequencies,
	}
	for _, name := range []string{"changeModes", "periodicChangeTypes", "ratePeriods", "frequencies"} {
		if len(required[name]) == 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("lookup data missing tables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Parse decodes and validates lookup tables from JSON.
func Parse(r io.Reader) (*Data, error) {
	var d Data
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("decode lookup data: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Default returns the embedded lookup tables. It panics if the embedded file
// is broken, which only a bad build can cause.
func Default() *Data {
	f, err := assets.LookupFS.Open(assets.LookupFile)
	if err != nil {
		panic(fmt.Sprintf("open embedded lookup data: %v", err))
	}
	defer f.Close()
	d, err := Parse(f)
	if err != nil {
		panic(fmt.Sprintf("parse embedded lookup data: %v", err))
	}
	return d
}
