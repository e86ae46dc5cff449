// Package chart renders dashboard charts as SVG using go-chart.
package chart

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"tsdash/internal/core"
)

// ErrNotEnoughData is returned when a view cannot produce a meaningful chart.
var ErrNotEnoughData = errors.New("not enough data to chart")

// Options control the canvas size.
type Options struct {
	Width  int
	Height int
}

// DefaultOptions returns the canvas used by the dashboard pages.
func DefaultOptions() Options {
	return Options{Width: 960, Height: 400}
}

var categoryColors = map[core.Category]drawing.Color{
	core.CategoryA: gochart.ColorBlue,
	core.CategoryB: gochart.ColorOrange,
	core.CategoryC: gochart.ColorGreen,
}

func colorFor(c core.Category) drawing.Color {
	if col, ok := categoryColors[c]; ok {
		return col
	}
	return gochart.ColorAlternateGray
}

// TimeSeries draws value over date as a single line.
func TimeSeries(w io.Writer, view core.Dataset, opts Options) error {
	if err := requireSpan(view); err != nil {
		return err
	}

	xs := make([]time.Time, len(view))
	ys := make([]float64, len(view))
	for i, r := range view {
		xs[i] = r.Date.Time
		ys[i] = r.Value
	}

	graph := gochart.Chart{
		Title:      "Time Series Analysis",
		Width:      opts.Width,
		Height:     opts.Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      gochart.XAxis{Name: "Date", ValueFormatter: gochart.TimeDateValueFormatter},
		YAxis:      gochart.YAxis{Name: "Value", Range: paddedRange(ys)},
		Series: []gochart.Series{
			gochart.TimeSeries{
				Name:    "Value",
				XValues: xs,
				YValues: ys,
				Style:   gochart.Style{StrokeColor: gochart.ColorBlue, StrokeWidth: 1.5},
			},
		},
	}
	if err := graph.Render(gochart.SVG, w); err != nil {
		return fmt.Errorf("render time series: %w", err)
	}
	return nil
}

// Scatter draws one dot series per category present in view.
func Scatter(w io.Writer, view core.Dataset, opts Options) error {
	if err := requireSpan(view); err != nil {
		return err
	}

	type points struct {
		xs []time.Time
		ys []float64
	}
	byCat := make(map[core.Category]*points, 3)
	for _, r := range view {
		p, ok := byCat[r.Category]
		if !ok {
			p = &points{}
			byCat[r.Category] = p
		}
		p.xs = append(p.xs, r.Date.Time)
		p.ys = append(p.ys, r.Value)
	}

	var series []gochart.Series
	for _, c := range view.CategoriesPresent() {
		p := byCat[c]
		series = append(series, gochart.TimeSeries{
			Name:    string(c),
			XValues: p.xs,
			YValues: p.ys,
			Style: gochart.Style{
				StrokeWidth: gochart.Disabled,
				DotWidth:    3,
				DotColor:    colorFor(c),
			},
		})
	}

	graph := gochart.Chart{
		Title:      "Value by Date and Category",
		Width:      opts.Width,
		Height:     opts.Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      gochart.XAxis{Name: "Date", ValueFormatter: gochart.TimeDateValueFormatter},
		YAxis:      gochart.YAxis{Name: "Value", Range: paddedRange(view.Values())},
		Series:     series,
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}
	if err := graph.Render(gochart.SVG, w); err != nil {
		return fmt.Errorf("render scatter: %w", err)
	}
	return nil
}

// Distribution draws a grouped histogram: per bin, one bar per category.
func Distribution(w io.Writer, view core.Dataset, bins int, opts Options) error {
	hist := core.Histogram(view, bins)
	if len(hist) == 0 {
		return ErrNotEnoughData
	}
	cats := view.CategoriesPresent()

	maxCount := 0
	var bars []gochart.Value
	for _, b := range hist {
		center := (b.Lower + b.Upper) / 2
		for i, c := range cats {
			n := b.Counts[c]
			if n > maxCount {
				maxCount = n
			}
			label := ""
			if i == len(cats)/2 {
				label = fmt.Sprintf("%.0f", center)
			}
			bars = append(bars, gochart.Value{
				Label: label,
				Value: float64(n),
				Style: gochart.Style{FillColor: colorFor(c), StrokeColor: colorFor(c), StrokeWidth: 1},
			})
		}
	}

	spacing := 2
	barWidth := (opts.Width-160)/len(bars) - spacing
	if barWidth < 1 {
		barWidth = 1
	}

	bc := gochart.BarChart{
		Title:      "Value Distribution by Category",
		Width:      opts.Width,
		Height:     opts.Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		BarWidth:   barWidth,
		BarSpacing: spacing,
		YAxis:      gochart.YAxis{Name: "Frequency", Range: &gochart.ContinuousRange{Min: 0, Max: float64(maxCount) + 1}},
		Bars:       bars,
	}
	if err := bc.Render(gochart.SVG, w); err != nil {
		return fmt.Errorf("render distribution: %w", err)
	}
	return nil
}

// requireSpan rejects views whose dates do not span at least two days; the
// time axis needs a non-zero range.
func requireSpan(view core.Dataset) error {
	if len(view) < 2 {
		return ErrNotEnoughData
	}
	dr, _, _ := core.Bounds(view)
	if dr.Start.Equal(dr.End.Time) {
		return ErrNotEnoughData
	}
	return nil
}

func paddedRange(ys []float64) *gochart.ContinuousRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, y := range ys {
		lo = math.Min(lo, y)
		hi = math.Max(hi, y)
	}
	pad := (hi - lo) * 0.05
	if pad < 1 {
		pad = 1
	}
	return &gochart.ContinuousRange{Min: math.Floor(lo - pad), Max: math.Ceil(hi + pad)}
}
