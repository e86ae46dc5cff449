package http

import (
	"errors"
	"math"
	"net/url"
	"testing"

	"tsdash/internal/core"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name  string
		query string
		key   string
	}{
		{"empty", "", "d=*;c=*;v=*"},
		{"date range", "start=2024-01-01&end=2024-01-31", "d=2024-01-01~2024-01-31;c=*;v=*"},
		{"single date param", "date=2024-03-15", "d=2024-03-15~2024-03-15;c=*;v=*"},
		{"lone start is a single day", "start=2024-03-15&end=", "d=2024-03-15~2024-03-15;c=*;v=*"},
		{"categories", "category=C&category=A&category=A", "d=*;c=AC;v=*"},
		{"submitted empty categories", "cf=1", "d=*;c=;v=*"},
		{"blank category ignored", "cf=1&category=", "d=*;c=;v=*"},
		{"value range", "min=80&max=120.5", "d=*;c=*;v=80~120.5"},
		{"open min", "min=100", "d=*;c=*;v=100~+Inf"},
		{"open max", "min=&max=90", "d=*;c=*;v=-Inf~90"},
		{"all combined", "start=2024-06-01&end=2024-06-30&category=B&min=90&max=110", "d=2024-06-01~2024-06-30;c=B;v=90~110"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatal(err)
			}
			f, err := ParseFilter(q)
			if err != nil {
				t.Fatalf("ParseFilter(%q) error = %v", tt.query, err)
			}
			if got := f.Key(); got != tt.key {
				t.Errorf("ParseFilter(%q).Key() = %q, want %q", tt.query, got, tt.key)
			}
		})
	}
}

func TestParseFilterErrors(t *testing.T) {
	for _, query := range []string{
		"start=2024-13-01&end=2024-12-31",
		"date=yesterday",
		"date=2024-01-01&start=2024-01-01",
		"category=D",
		"category=a",
		"min=abc",
		"max=NaN",
		"min=Inf",
	} {
		q, _ := url.ParseQuery(query)
		if _, err := ParseFilter(q); !errors.Is(err, core.ErrInvalidArgument) {
			t.Errorf("ParseFilter(%q) error = %v, want ErrInvalidArgument", query, err)
		}
	}
}

func TestEncodeFilterRoundTrip(t *testing.T) {
	filters := []core.Filter{
		{},
		{Categories: []core.Category{}},
		{
			Dates:      &core.DateRange{Start: core.NewDate(2024, 2, 1), End: core.NewDate(2024, 2, 29)},
			Categories: []core.Category{core.CategoryA, core.CategoryC},
			Values:     &core.ValueRange{Min: 85.25, Max: 130},
		},
		{Values: &core.ValueRange{Min: math.Inf(-1), Max: 99}},
	}
	for _, f := range filters {
		back, err := ParseFilter(EncodeFilter(f))
		if err != nil {
			t.Fatalf("ParseFilter(EncodeFilter(%q)) error = %v", f.Key(), err)
		}
		if back.Key() != f.Key() {
			t.Errorf("round trip %q -> %q", f.Key(), back.Key())
		}
	}
}
