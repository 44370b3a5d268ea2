package core

import "testing"

func TestRound2(t *testing.T) {
	cases := []struct {
		in  float64
		out float64
	}{
		{10616.778118644996, 10616.78},
		{1.005, 1.01},
		{100, 100},
		{-0.004, 0},
		{-12.345, -12.35},
	}
	for _, tc := range cases {
		if got := Round2(tc.in); got != tc.out {
			t.Fatalf("Round2(%v) = %v, want %v", tc.in, got, tc.out)
		}
	}
}

func TestFormatAmountAndCents(t *testing.T) {
	if got := FormatAmount(100); got != "100.00" {
		t.Fatalf("FormatAmount = %q", got)
	}
	if got := FormatAmount(-3.456); got != "-3.46" {
		t.Fatalf("FormatAmount negative = %q", got)
	}
	if got := Cents(12.345); got != 1235 {
		t.Fatalf("Cents = %d", got)
	}
}
