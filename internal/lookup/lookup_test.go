package lookup

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"
)

func TestDefaultTables(t *testing.T) {
	d := Default()
	if e, ok := d.ChangeMode(2); !ok || e.Name != "Fixed Amount" {
		t.Fatalf("ChangeMode(2) = %+v, %v", e, ok)
	}
	if _, ok := d.ChangeType(8); !ok {
		t.Fatalf("expected change type 8")
	}
	if e, ok := d.Frequency(3); !ok || e.Name != "Monthly" {
		t.Fatalf("Frequency(3) = %+v, %v", e, ok)
	}
	if e, ok := d.RatePeriod(4); !ok || e.Name != "Daily" {
		t.Fatalf("RatePeriod(4) = %+v, %v", e, ok)
	}
	if _, ok := d.RecurrenceType(11); !ok {
		t.Fatalf("expected custom dates recurrence type")
	}
	if _, ok := d.ChangeMode(99); ok {
		t.Fatalf("unknown id resolved")
	}
}

func TestParseRejectsIncompleteTables(t *testing.T) {
	_, err := Parse(strings.NewReader(`{"changeModes":[{"id":1,"name":"Percentage Rate"}]}`))
	if err == nil || !strings.Contains(err.Error(), "periodicChangeTypes") {
		t.Fatalf("expected missing tables error, got %v", err)
	}
	if _, err := Parse(strings.NewReader(`{`)); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestLoaderCachesByName(t *testing.T) {
	fsys := fstest.MapFS{
		"custom.json": &fstest.MapFile{Data: []byte(`{
			"changeModes":[{"id":1,"name":"Percentage Rate"}],
			"periodicChangeTypes":[{"id":2,"name":"Monthly"}],
			"ratePeriods":[{"id":1,"name":"Annual"}],
			"frequencies":[{"id":3,"name":"Monthly"}]
		}`)},
	}
	l := NewLoader(fsys)
	first, err := l.Load(context.Background(), "custom.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Removing the file must not matter once cached.
	delete(fsys, "custom.json")
	second, err := l.Load(context.Background(), "custom.json")
	if err != nil {
		t.Fatalf("cached Load: %v", err)
	}
	if first != second {
		t.Fatalf("expected the cached instance")
	}

	if _, err := l.Load(context.Background(), "missing.json"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoaderEmbeddedDefault(t *testing.T) {
	d, err := NewLoader(nil).Load(context.Background(), "lookup-data.json")
	if err != nil {
		t.Fatalf("Load embedded: %v", err)
	}
	if len(d.PeriodicChangeTypes) != 8 {
		t.Fatalf("expected 8 change types, got %d", len(d.PeriodicChangeTypes))
	}
}
