package domain

import (
	"testing"
	"time"

	"github.com/aibes/standsight/internal/period"
)

func TestNewDeltaZeroOverZero(t *testing.T) {
	d := NewDelta(0, 0)
	if d.Label != "0% (no change)" {
		t.Fatalf("unexpected label %q", d.Label)
	}
	if d.Unbounded {
		t.Fatal("0 vs 0 must not be unbounded")
	}
}

func TestNewDeltaGrowthFromZero(t *testing.T) {
	d := NewDelta(5000, 0)
	if !d.Unbounded {
		t.Fatal("growth from zero must be unbounded")
	}
	if d.Label != "+∞% (prev: $0)" {
		t.Fatalf("unexpected label %q", d.Label)
	}
}

func TestNewDeltaRegularChange(t *testing.T) {
	d := NewDelta(150, 100)
	if d.Percent != 50 {
		t.Fatalf("expected 50%%, got %f", d.Percent)
	}
	if d.Label != "+50.0% (prev: $100)" {
		t.Fatalf("unexpected label %q", d.Label)
	}

	d = NewDelta(50, 100)
	if d.Label != "-50.0% (prev: $100)" {
		t.Fatalf("unexpected label %q", d.Label)
	}
}

func TestTopNameEmptyBreakdown(t *testing.T) {
	b := Breakdown{GroupBy: GroupByAgent}
	if got := b.TopName(); got != "N/A" {
		t.Fatalf("expected N/A, got %q", got)
	}
}

func TestTotals(t *testing.T) {
	b := Breakdown{Rows: []BreakdownRow{
		{Name: "Hillside", StandsSold: 3, TotalValue: 300, StandsAvailable: 2},
		{Name: "Lakeview", StandsSold: 1, TotalValue: 150, StandsAvailable: 5},
	}}
	total := b.Totals()
	if total.Name != "TOTAL" || total.StandsSold != 4 || total.TotalValue != 450 || total.StandsAvailable != 7 {
		t.Fatalf("unexpected totals row %+v", total)
	}
}

func TestGridSize(t *testing.T) {
	short, _ := period.Custom(
		time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC),
	)
	long, _ := period.Custom(
		time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC),
	)

	tests := []struct {
		grid Grid
		p    period.Period
		want int
	}{
		{GridHours24, short, 24},
		{GridDays7, short, 7},
		{GridMonths12, short, 12},
		{GridPeriodDays, short, 10},
		{GridPeriodDays, long, 31},
	}
	for _, tc := range tests {
		got, err := tc.grid.Size(tc.p)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.grid, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.grid, tc.want, got)
		}
	}

	if _, err := Grid("weeks_52").Size(short); err == nil {
		t.Fatal("expected error for unknown grid")
	}
}

func TestSnapshotIsZero(t *testing.T) {
	if !(MetricSnapshot{}).IsZero() {
		t.Fatal("empty snapshot must be zero")
	}
	if (MetricSnapshot{StandsSold: 1}).IsZero() {
		t.Fatal("non-empty snapshot must not be zero")
	}
}
