package projection

import (
	"testing"

	"forecast/internal/core"
)

func TestGeneratePeriods(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		pt         PeriodType
		want       [][2]string
	}{
		{
			name: "daily", start: "2026-01-30", end: "2026-02-02", pt: PeriodDaily,
			want: [][2]string{{"2026-01-30", "2026-01-30"}, {"2026-01-31", "2026-01-31"}, {"2026-02-01", "2026-02-01"}, {"2026-02-02", "2026-02-02"}},
		},
		{
			name: "weekly from a wednesday", start: "2026-01-07", end: "2026-01-20", pt: PeriodWeekly,
			want: [][2]string{{"2026-01-07", "2026-01-11"}, {"2026-01-12", "2026-01-18"}, {"2026-01-19", "2026-01-20"}},
		},
		{
			name: "weekly from a sunday", start: "2026-01-11", end: "2026-01-19", pt: PeriodWeekly,
			want: [][2]string{{"2026-01-11", "2026-01-11"}, {"2026-01-12", "2026-01-18"}, {"2026-01-19", "2026-01-19"}},
		},
		{
			name: "monthly", start: "2026-01-15", end: "2026-03-20", pt: PeriodMonthly,
			want: [][2]string{{"2026-01-15", "2026-01-31"}, {"2026-02-01", "2026-02-28"}, {"2026-03-01", "2026-03-20"}},
		},
		{
			name: "quarterly", start: "2026-02-10", end: "2026-12-31", pt: PeriodQuarterly,
			want: [][2]string{{"2026-02-10", "2026-03-31"}, {"2026-04-01", "2026-06-30"}, {"2026-07-01", "2026-09-30"}, {"2026-10-01", "2026-12-31"}},
		},
		{
			name: "yearly", start: "2026-06-01", end: "2028-03-01", pt: PeriodYearly,
			want: [][2]string{{"2026-06-01", "2026-12-31"}, {"2027-01-01", "2027-12-31"}, {"2028-01-01", "2028-03-01"}},
		},
		{
			name: "single day window", start: "2026-05-05", end: "2026-05-05", pt: PeriodMonthly,
			want: [][2]string{{"2026-05-05", "2026-05-05"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GeneratePeriods(core.MustParseDate(tt.start), core.MustParseDate(tt.end), tt.pt)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d periods, want %d: %v", len(got), len(tt.want), got)
			}
			for i, p := range got {
				if p.Start.String() != tt.want[i][0] || p.End.String() != tt.want[i][1] {
					t.Fatalf("period %d = %s..%s, want %s..%s", i+1, p.Start, p.End, tt.want[i][0], tt.want[i][1])
				}
			}
		})
	}
}

func TestGeneratePeriodsTileWindow(t *testing.T) {
	start, end := core.MustParseDate("2025-11-17"), core.MustParseDate("2027-02-03")
	for pt := PeriodDaily; pt <= PeriodYearly; pt++ {
		periods := GeneratePeriods(start, end, pt)
		if !periods[0].Start.Equal(start) || !periods[len(periods)-1].End.Equal(end) {
			t.Fatalf("%s: periods do not cover the window", pt)
		}
		for i := 1; i < len(periods); i++ {
			if !periods[i].Start.Equal(periods[i-1].End.AddDays(1)) {
				t.Fatalf("%s: gap or overlap before period %d", pt, i+1)
			}
		}
	}
}

func TestResolveConfig(t *testing.T) {
	stored := &core.Scenario{Projection: &core.Projection{Config: core.ProjectionConfig{
		StartDate: "2026-01-01", EndDate: "2026-12-31", PeriodTypeID: int(PeriodQuarterly), Source: SourceBudget,
	}}}

	cfg, err := ResolveConfig(stored, Options{})
	if err != nil {
		t.Fatalf("ResolveConfig: %v", err)
	}
	if cfg.PeriodType != PeriodQuarterly || cfg.Source != SourceBudget || cfg.StartDate.String() != "2026-01-01" {
		t.Fatalf("stored config not applied: %+v", cfg)
	}

	cfg, err = ResolveConfig(stored, Options{StartDate: "2026-03-01", PeriodTypeID: int(PeriodDaily), Periodicity: "Weekly", Source: SourceTransactions})
	if err != nil {
		t.Fatalf("ResolveConfig: %v", err)
	}
	if cfg.PeriodType != PeriodWeekly || cfg.Source != SourceTransactions || cfg.StartDate.String() != "2026-03-01" || cfg.EndDate.String() != "2026-12-31" {
		t.Fatalf("options did not win: %+v", cfg)
	}

	cfg, err = ResolveConfig(&core.Scenario{}, Options{StartDate: "2026-01-01", EndDate: "2026-02-01", PeriodTypeID: 42, Source: "other"})
	if err != nil {
		t.Fatalf("ResolveConfig: %v", err)
	}
	if cfg.PeriodType != PeriodMonthly || cfg.Source != SourceTransactions {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestParsePeriodType(t *testing.T) {
	for in, want := range map[string]PeriodType{
		"day": PeriodDaily, "Daily": PeriodDaily, "week": PeriodWeekly, " monthly ": PeriodMonthly,
		"QUARTER": PeriodQuarterly, "yearly": PeriodYearly,
	} {
		if got, ok := ParsePeriodType(in); !ok || got != want {
			t.Errorf("ParsePeriodType(%q) = %v, %v", in, got, ok)
		}
	}
	if _, ok := ParsePeriodType("fortnightly"); ok {
		t.Errorf("unexpected period type")
	}
}
