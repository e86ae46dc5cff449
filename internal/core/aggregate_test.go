package core

import (
	"math"
	"testing"
)

func sampleDataset() Dataset {
	values := []float64{100, 110, 95, 105, 115, 90, 100, 110, 105, 95}
	cats := []Category{"A", "B", "A", "C", "B", "A", "C", "B", "A", "C"}
	ds := make(Dataset, len(values))
	for i := range values {
		ds[i] = Record{Date: NewDate(2024, 1, i+1), Value: values[i], Category: cats[i]}
	}
	return ds
}

func TestAggregateSample(t *testing.T) {
	rows := Aggregate(sampleDataset())
	want := []AggregateRow{
		{Category: CategoryA, Count: 4, Mean: 97.5, Median: 97.5, StdDev: 6.45, Min: 90, Max: 105},
		{Category: CategoryB, Count: 3, Mean: 111.67, Median: 110, StdDev: 2.89, Min: 110, Max: 115},
		{Category: CategoryC, Count: 3, Mean: 100, Median: 100, StdDev: 5, Min: 95, Max: 105},
	}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(rows))
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, rows[i], want[i])
		}
	}
}

func TestAggregateSkipsAbsentCategories(t *testing.T) {
	view, err := Apply(sampleDataset(), Filter{Categories: []Category{CategoryC, CategoryA}})
	if err != nil {
		t.Fatal(err)
	}
	rows := Aggregate(view)
	if len(rows) != 2 || rows[0].Category != CategoryA || rows[1].Category != CategoryC {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestAggregateSingleRecordGroup(t *testing.T) {
	rows := Aggregate(Dataset{{Date: NewDate(2024, 1, 1), Value: 42.123, Category: CategoryB}})
	if len(rows) != 1 {
		t.Fatalf("expected one row, got %d", len(rows))
	}
	r := rows[0]
	if !math.IsNaN(r.StdDev) {
		t.Fatalf("expected NaN stddev, got %v", r.StdDev)
	}
	if r.Mean != 42.12 || r.Median != 42.12 || r.Min != 42.12 || r.Max != 42.12 {
		t.Fatalf("unexpected row %+v", r)
	}
}

func TestAggregateEmpty(t *testing.T) {
	if rows := Aggregate(nil); len(rows) != 0 {
		t.Fatalf("expected no rows, got %+v", rows)
	}
}

func TestMedianEvenOdd(t *testing.T) {
	if m := median([]float64{3, 1, 2}); m != 2 {
		t.Fatalf("odd median = %v", m)
	}
	if m := median([]float64{4, 1, 3, 2}); m != 2.5 {
		t.Fatalf("even median = %v", m)
	}
}

func TestRound2(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{111.66666, 111.67},
		{6.454972, 6.45},
		{2.886751, 2.89},
		{1.005, 1.01},
		{-1.005, -1.01},
		{5, 5},
	}
	for _, tc := range cases {
		if got := Round2(tc.in); got != tc.want {
			t.Errorf("Round2(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
	if !math.IsNaN(Round2(math.NaN())) {
		t.Error("Round2(NaN) should stay NaN")
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleDataset())
	if s.Count != 10 || s.Mean != 102.5 || s.Min != 90 || s.Max != 115 {
		t.Fatalf("unexpected summary %+v", s)
	}
	empty := Summarize(nil)
	if empty.Count != 0 || !math.IsNaN(empty.Mean) || !math.IsNaN(empty.Min) {
		t.Fatalf("unexpected empty summary %+v", empty)
	}
}
