package core

import (
	"math"
	"strconv"
	"strings"
)

type (
	// DateRange is inclusive on both ends.
	DateRange struct {
		Start Date
		End   Date
	}

	// ValueRange is inclusive on both ends.
	ValueRange struct {
		Min float64
		Max float64
	}

	// Filter holds the active predicates. A nil field means "no restriction";
	// a non-nil empty Categories slice matches nothing.
	Filter struct {
		Dates      *DateRange
		Categories []Category
		Values     *ValueRange
	}
)

// SingleDay selects exactly one calendar day.
func SingleDay(d Date) *DateRange {
	return &DateRange{Start: d, End: d}
}

func (r DateRange) Contains(d Date) bool {
	return !d.Before(r.Start.Time) && !d.After(r.End.Time)
}

func (r ValueRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

func (f Filter) Validate() error {
	for _, c := range f.Categories {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	if f.Dates != nil {
		if err := f.Dates.Start.Validate(); err != nil {
			return err
		}
		if err := f.Dates.End.Validate(); err != nil {
			return err
		}
	}
	if f.Values != nil {
		for _, v := range []float64{f.Values.Min, f.Values.Max} {
			if math.IsNaN(v) {
				return ErrInvalidValue
			}
		}
	}
	return nil
}

// Apply returns the records of ds satisfying every active predicate, in the
// original order. Inverted ranges match nothing; they are not errors.
func Apply(ds Dataset, f Filter) (Dataset, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	var allowed map[Category]bool
	if f.Categories != nil {
		allowed = make(map[Category]bool, len(f.Categories))
		for _, c := range f.Categories {
			allowed[c] = true
		}
	}

	out := make(Dataset, 0, len(ds))
	for _, r := range ds {
		if f.Dates != nil && !f.Dates.Contains(r.Date) {
			continue
		}
		if allowed != nil && !allowed[r.Category] {
			continue
		}
		if f.Values != nil && !f.Values.Contains(r.Value) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// Bounds reports the full date span and value range of ds, used as widget
// defaults. ok is false for an empty dataset.
func Bounds(ds Dataset) (dates DateRange, values ValueRange, ok bool) {
	if len(ds) == 0 {
		return DateRange{}, ValueRange{}, false
	}
	dates = DateRange{Start: ds[0].Date, End: ds[0].Date}
	values = ValueRange{Min: ds[0].Value, Max: ds[0].Value}
	for _, r := range ds[1:] {
		if r.Date.Before(dates.Start.Time) {
			dates.Start = r.Date
		}
		if r.Date.After(dates.End.Time) {
			dates.End = r.Date
		}
		values.Min = math.Min(values.Min, r.Value)
		values.Max = math.Max(values.Max, r.Value)
	}
	return dates, values, true
}

// Key returns a canonical string for f, stable across category ordering.
func (f Filter) Key() string {
	var b strings.Builder
	b.WriteString("d=")
	if f.Dates != nil {
		b.WriteString(f.Dates.Start.String())
		b.WriteByte('~')
		b.WriteString(f.Dates.End.String())
	} else {
		b.WriteByte('*')
	}
	b.WriteString(";c=")
	if f.Categories != nil {
		set := make(map[Category]bool, len(f.Categories))
		for _, c := range f.Categories {
			set[c] = true
		}
		for _, c := range Categories() {
			if set[c] {
				b.WriteString(string(c))
			}
		}
	} else {
		b.WriteByte('*')
	}
	b.WriteString(";v=")
	if f.Values != nil {
		b.WriteString(strconv.FormatFloat(f.Values.Min, 'g', -1, 64))
		b.WriteByte('~')
		b.WriteString(strconv.FormatFloat(f.Values.Max, 'g', -1, 64))
	} else {
		b.WriteByte('*')
	}
	return b.String()
}
