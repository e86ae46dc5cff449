package core

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestFilterSpecRoundTrip(t *testing.T) {
	f := Filter{
		Dates:      &DateRange{Start: NewDate(2024, 2, 1), End: NewDate(2024, 2, 10)},
		Categories: []Category{CategoryB},
		Values:     &ValueRange{Min: 80.5, Max: 120},
	}
	back, err := f.Spec().Filter()
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if back.Key() != f.Key() {
		t.Fatalf("round trip changed filter: %q vs %q", back.Key(), f.Key())
	}

	empty, err := Filter{}.Spec().Filter()
	if err != nil || empty.Key() != (Filter{}).Key() {
		t.Fatalf("empty filter did not survive: %q %v", empty.Key(), err)
	}
}

func TestFilterSpecSingleDate(t *testing.T) {
	f, err := FilterSpec{End: "2024-05-05"}.Filter()
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if f.Dates == nil || f.Dates.Start != f.Dates.End || f.Dates.Start.String() != "2024-05-05" {
		t.Fatalf("expected single day, got %+v", f.Dates)
	}
}

func TestFilterSpecOpenRange(t *testing.T) {
	lo := 95.0
	f, err := FilterSpec{Min: &lo}.Filter()
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if f.Values == nil || f.Values.Min != 95 || !math.IsInf(f.Values.Max, 1) {
		t.Fatalf("expected [95, +Inf], got %+v", f.Values)
	}

	spec := f.Spec()
	if spec.Max != nil || spec.Min == nil || *spec.Min != 95 {
		t.Fatalf("infinite side should be omitted, got %+v", spec)
	}
	if _, err := json.Marshal(spec); err != nil {
		t.Fatalf("spec should encode: %v", err)
	}
}

func TestFilterSpecErrors(t *testing.T) {
	nan := math.NaN()
	cases := map[string]FilterSpec{
		"bad date":     {Start: "2024-02-30", End: "2024-03-01"},
		"bad category": {Categories: []string{"X"}},
		"nan bound":    {Max: &nan},
	}
	for name, s := range cases {
		if _, err := s.Filter(); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("%s: expected ErrInvalidArgument, got %v", name, err)
		}
	}
}

func TestExportJobValidate(t *testing.T) {
	ok := ExportJob{ID: "j1", Status: ExportPending}
	if err := ok.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []ExportJob{
		{ID: "", Status: ExportPending},
		{ID: "j", Status: "running"},
		{ID: "j", Status: ExportDone, Filter: FilterSpec{Categories: []string{"Q"}}},
	}
	for i, j := range bads {
		if err := j.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}
