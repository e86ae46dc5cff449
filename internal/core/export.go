package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	ExportPending ExportStatus = "pending"
	ExportDone    ExportStatus = "done"
	ExportFailed  ExportStatus = "failed"
)

type (
	ExportStatus string

	// FilterSpec is the serialisable form of a Filter, used in queues and
	// storage. Empty strings and nil pointers mean "no restriction"; a nil
	// Categories slice means all categories.
	FilterSpec struct {
		Start      string   `json:"start,omitempty"`
		End        string   `json:"end,omitempty"`
		Categories []string `json:"categories"`
		Min        *float64 `json:"min,omitempty"`
		Max        *float64 `json:"max,omitempty"`
	}

	// ExportJob tracks one request to copy a filtered view to a spreadsheet.
	ExportJob struct {
		ID        string
		Seed      int64
		Filter    FilterSpec
		Status    ExportStatus
		SheetRef  string
		Error     string
		CreatedAt time.Time
		UpdatedAt time.Time
	}
)

// Spec converts f to its serialisable form.
func (f Filter) Spec() FilterSpec {
	var s FilterSpec
	if f.Dates != nil {
		s.Start = f.Dates.Start.String()
		s.End = f.Dates.End.String()
	}
	if f.Categories != nil {
		s.Categories = make([]string, len(f.Categories))
		for i, c := range f.Categories {
			s.Categories[i] = string(c)
		}
	}
	if f.Values != nil {
		// Infinite sides are open bounds and stay nil so FilterSpec stays
		// JSON-encodable.
		if lo := f.Values.Min; !math.IsInf(lo, 0) {
			s.Min = &lo
		}
		if hi := f.Values.Max; !math.IsInf(hi, 0) {
			s.Max = &hi
		}
	}
	return s
}

// Filter parses s back into a Filter. A lone Start or End selects a single
// day; a lone Min or Max leaves the other side unbounded.
func (s FilterSpec) Filter() (Filter, error) {
	var f Filter

	start, end := strings.TrimSpace(s.Start), strings.TrimSpace(s.End)
	switch {
	case start != "" && end != "":
		a, err := ParseDate(start)
		if err != nil {
			return Filter{}, err
		}
		b, err := ParseDate(end)
		if err != nil {
			return Filter{}, err
		}
		f.Dates = &DateRange{Start: a, End: b}
	case start != "" || end != "":
		d, err := ParseDate(start + end)
		if err != nil {
			return Filter{}, err
		}
		f.Dates = SingleDay(d)
	}

	if s.Categories != nil {
		cats, err := ParseCategories(s.Categories)
		if err != nil {
			return Filter{}, err
		}
		f.Categories = cats
	}

	if s.Min != nil || s.Max != nil {
		vr := ValueRange{Min: math.Inf(-1), Max: math.Inf(1)}
		if s.Min != nil {
			vr.Min = *s.Min
		}
		if s.Max != nil {
			vr.Max = *s.Max
		}
		if math.IsNaN(vr.Min) || math.IsNaN(vr.Max) {
			return Filter{}, ErrInvalidValue
		}
		f.Values = &vr
	}
	return f, nil
}

func (j ExportJob) Validate() error {
	if strings.TrimSpace(j.ID) == "" {
		return errors.New("export job id cannot be empty")
	}
	switch j.Status {
	case ExportPending, ExportDone, ExportFailed:
	default:
		return fmt.Errorf("invalid export status %q", j.Status)
	}
	_, err := j.Filter.Filter()
	return err
}
