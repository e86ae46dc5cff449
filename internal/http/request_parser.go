// Package http serves the dashboard pages, HTMX partials, charts and export
// endpoints.
//
// This file turns query strings and form bodies into core filters.
package http

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"tsdash/internal/core"
)

// Filter query parameters.
const (
	ParamStart    = "start"
	ParamEnd      = "end"
	ParamDate     = "date"
	ParamCategory = "category"
	ParamMin      = "min"
	ParamMax      = "max"

	// ParamCategoriesSet marks that the category checkboxes were submitted,
	// so an empty selection means "none" instead of "all".
	ParamCategoriesSet = "cf"
)

// ParseFilter reads filter parameters from q. Blank values count as absent.
// Every malformed value yields an error wrapping core.ErrInvalidArgument.
func ParseFilter(q url.Values) (core.Filter, error) {
	var f core.Filter

	dates, err := parseDates(q)
	if err != nil {
		return core.Filter{}, err
	}
	f.Dates = dates

	if labels, ok := q[ParamCategory]; ok || q.Has(ParamCategoriesSet) {
		var cleaned []string
		for _, l := range labels {
			if l = strings.TrimSpace(l); l != "" {
				cleaned = append(cleaned, l)
			}
		}
		cats, err := core.ParseCategories(cleaned)
		if err != nil {
			return core.Filter{}, err
		}
		if cats == nil {
			cats = []core.Category{}
		}
		f.Categories = cats
	}

	values, err := parseValues(q)
	if err != nil {
		return core.Filter{}, err
	}
	f.Values = values

	return f, nil
}

func parseDates(q url.Values) (*core.DateRange, error) {
	single := strings.TrimSpace(q.Get(ParamDate))
	start := strings.TrimSpace(q.Get(ParamStart))
	end := strings.TrimSpace(q.Get(ParamEnd))

	if single != "" {
		if start != "" || end != "" {
			return nil, fmt.Errorf("%w: %q cannot be combined with %q/%q", core.ErrInvalidArgument, ParamDate, ParamStart, ParamEnd)
		}
		d, err := core.ParseDate(single)
		if err != nil {
			return nil, err
		}
		return core.SingleDay(d), nil
	}

	switch {
	case start != "" && end != "":
		a, err := core.ParseDate(start)
		if err != nil {
			return nil, err
		}
		b, err := core.ParseDate(end)
		if err != nil {
			return nil, err
		}
		return &core.DateRange{Start: a, End: b}, nil
	case start != "" || end != "":
		d, err := core.ParseDate(start + end)
		if err != nil {
			return nil, err
		}
		return core.SingleDay(d), nil
	}
	return nil, nil
}

// parseValues accepts an open-ended range; a missing side is unbounded.
func parseValues(q url.Values) (*core.ValueRange, error) {
	lo, hasLo, err := parseBound(q, ParamMin)
	if err != nil {
		return nil, err
	}
	hi, hasHi, err := parseBound(q, ParamMax)
	if err != nil {
		return nil, err
	}
	if !hasLo && !hasHi {
		return nil, nil
	}
	if !hasLo {
		lo = math.Inf(-1)
	}
	if !hasHi {
		hi = math.Inf(1)
	}
	return &core.ValueRange{Min: lo, Max: hi}, nil
}

func parseBound(q url.Values, key string) (float64, bool, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false, fmt.Errorf("%w: %s=%q", core.ErrInvalidValue, key, raw)
	}
	return v, true, nil
}

// EncodeFilter is the inverse of ParseFilter, used to build partial and
// chart URLs for the current view.
func EncodeFilter(f core.Filter) url.Values {
	q := url.Values{}
	if f.Dates != nil {
		q.Set(ParamStart, f.Dates.Start.String())
		q.Set(ParamEnd, f.Dates.End.String())
	}
	if f.Categories != nil {
		q.Set(ParamCategoriesSet, "1")
		for _, c := range f.Categories {
			q.Add(ParamCategory, string(c))
		}
	}
	if f.Values != nil {
		if !math.IsInf(f.Values.Min, 0) {
			q.Set(ParamMin, strconv.FormatFloat(f.Values.Min, 'f', -1, 64))
		}
		if !math.IsInf(f.Values.Max, 0) {
			q.Set(ParamMax, strconv.FormatFloat(f.Values.Max, 'f', -1, 64))
		}
	}
	return q
}
