package core

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	CategoryA Category = "A"
	CategoryB Category = "B"
	CategoryC Category = "C"
)

// DefaultSeed is the seed used when none is configured.
const DefaultSeed int64 = 42

type (
	Category string

	Date struct {
		time.Time
	}

	Record struct {
		Date     Date
		Value    float64
		Category Category
	}

	// Dataset is an ordered, read-only sequence of daily records.
	Dataset []Record
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnknownCategory = fmt.Errorf("%w: unknown category", ErrInvalidArgument)
	ErrInvalidDate     = fmt.Errorf("%w: invalid date", ErrInvalidArgument)
	ErrInvalidSeed     = fmt.Errorf("%w: seed must be an integer", ErrInvalidArgument)
	ErrInvalidValue    = fmt.Errorf("%w: value must be finite", ErrInvalidArgument)
)

// Categories returns the fixed label set in ascending order.
func Categories() []Category {
	return []Category{CategoryA, CategoryB, CategoryC}
}

func (c Category) Validate() error {
	switch c {
	case CategoryA, CategoryB, CategoryC:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownCategory, string(c))
}

// ParseCategory trims s and checks it against the fixed label set.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.TrimSpace(s))
	if err := c.Validate(); err != nil {
		return "", err
	}
	return c, nil
}

// ParseCategories parses every label, dropping duplicates while keeping input order.
func ParseCategories(labels []string) ([]Category, error) {
	out := make([]Category, 0, len(labels))
	seen := make(map[Category]struct{}, len(labels))
	for _, l := range labels {
		c, err := ParseCategory(l)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}

// ParseSeed converts a textual seed. Anything that is not a base-10 integer is rejected.
func ParseSeed(s string) (int64, error) {
	seed, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSeed, s)
	}
	return seed, nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a date string in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: zero date", ErrInvalidDate)
	}
	return nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(time.DateOnly)
}

// AddDays returns the date n calendar days later.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (r Record) Validate() error {
	if err := r.Date.Validate(); err != nil {
		return err
	}
	if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
		return ErrInvalidValue
	}
	return r.Category.Validate()
}

// Validate checks every record and the strictly increasing date order.
func (ds Dataset) Validate() error {
	for i, r := range ds {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if i > 0 && !r.Date.After(ds[i-1].Date.Time) {
			return fmt.Errorf("record %d: %w: dates must be strictly increasing", i, ErrInvalidArgument)
		}
	}
	return nil
}

// Values returns the value column.
func (ds Dataset) Values() []float64 {
	out := make([]float64, len(ds))
	for i, r := range ds {
		out[i] = r.Value
	}
	return out
}

// CategoriesPresent returns the distinct categories in ascending order.
func (ds Dataset) CategoriesPresent() []Category {
	seen := make(map[Category]bool, 3)
	for _, r := range ds {
		seen[r.Category] = true
	}
	out := make([]Category, 0, len(seen))
	for _, c := range Categories() {
		if seen[c] {
			out = append(out, c)
		}
	}
	return out
}

// Count returns how many records carry category c.
func (ds Dataset) Count(c Category) int {
	n := 0
	for _, r := range ds {
		if r.Category == c {
			n++
		}
	}
	return n
}
