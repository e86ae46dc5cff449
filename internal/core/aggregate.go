package core

import (
	"math"
	"slices"

	"github.com/shopspring/decimal"
)

// AggregateRow holds per-category descriptive statistics, each rounded to
// two decimals. StdDev is NaN for single-record groups.
type AggregateRow struct {
	Category Category
	Count    int
	Mean     float64
	Median   float64
	StdDev   float64
	Min      float64
	Max      float64
}

// Summary is the whole-view metric block. Mean/Min/Max are NaN when Count is 0.
type Summary struct {
	Count int
	Mean  float64
	Min   float64
	Max   float64
}

// Aggregate groups view by category (ascending) and computes statistics.
// Categories absent from view produce no row.
func Aggregate(view Dataset) []AggregateRow {
	groups := make(map[Category][]float64, 3)
	for _, r := range view {
		groups[r.Category] = append(groups[r.Category], r.Value)
	}

	keys := make([]Category, 0, len(groups))
	for c := range groups {
		keys = append(keys, c)
	}
	slices.Sort(keys)

	rows := make([]AggregateRow, 0, len(keys))
	for _, c := range keys {
		xs := groups[c]
		lo, hi := minMax(xs)
		rows = append(rows, AggregateRow{
			Category: c,
			Count:    len(xs),
			Mean:     Round2(mean(xs)),
			Median:   Round2(median(xs)),
			StdDev:   Round2(sampleStdDev(xs)),
			Min:      Round2(lo),
			Max:      Round2(hi),
		})
	}
	return rows
}

// Summarize computes count, mean, min and max over the whole view. Values are
// not rounded; presentation decides the format.
func Summarize(view Dataset) Summary {
	if len(view) == 0 {
		return Summary{Mean: math.NaN(), Min: math.NaN(), Max: math.NaN()}
	}
	xs := view.Values()
	lo, hi := minMax(xs)
	return Summary{Count: len(xs), Mean: mean(xs), Min: lo, Max: hi}
}

// Round2 rounds half away from zero to two decimals. NaN and ±Inf pass through.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range xs {
		sum += v
	}
	return sum / float64(len(xs))
}

// median interpolates linearly between the two middle ranks for even sizes.
func median(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return math.NaN()
	}
	s := slices.Clone(xs)
	slices.Sort(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// sampleStdDev uses the N-1 denominator and is NaN below two samples.
func sampleStdDev(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return math.NaN()
	}
	m := mean(xs)
	ss := 0.0
	for _, v := range xs {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}

func minMax(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return math.NaN(), math.NaN()
	}
	lo, hi := xs[0], xs[0]
	for _, v := range xs[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
