package http

import (
	"html/template"
	"math"
	"slices"
	"strconv"

	"tsdash/internal/core"
	"tsdash/internal/report"
)

var templateFuncs = template.FuncMap{
	"num": formatNumber,
}

// formatNumber prints two decimals, or "n/a" for values a view could not
// produce (NaN standard deviation, empty groups).
func formatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

type categoryOption struct {
	Label   string
	Checked bool
}

// filterForm carries the sidebar state so a rendered page reproduces the
// request's filter.
type filterForm struct {
	Start      string
	End        string
	Min        string
	Max        string
	Categories []categoryOption
	// DateMin and DateMax bound the date pickers to the dataset.
	DateMin string
	DateMax string
}

type statsView struct {
	Rows []core.AggregateRow
}

type tableView struct {
	Rows [][]string
}

type summaryView struct {
	core.Summary
}

type pageView struct {
	Title   string
	Query   template.URL
	Form    filterForm
	Stats   statsView
	Table   tableView
	Summary summaryView
	Exports bool
}

// newFilterForm fills the sidebar from f, falling back to the dataset bounds
// for unset ranges.
func newFilterForm(full core.Dataset, f core.Filter) filterForm {
	form := filterForm{}
	dates, values, ok := core.Bounds(full)
	if ok {
		form.DateMin = dates.Start.String()
		form.DateMax = dates.End.String()
		form.Start = form.DateMin
		form.End = form.DateMax
		form.Min = strconv.FormatFloat(math.Floor(values.Min*100)/100, 'f', 2, 64)
		form.Max = strconv.FormatFloat(math.Ceil(values.Max*100)/100, 'f', 2, 64)
	}
	if f.Dates != nil {
		form.Start = f.Dates.Start.String()
		form.End = f.Dates.End.String()
	}
	if f.Values != nil {
		if !math.IsInf(f.Values.Min, 0) {
			form.Min = strconv.FormatFloat(f.Values.Min, 'f', -1, 64)
		}
		if !math.IsInf(f.Values.Max, 0) {
			form.Max = strconv.FormatFloat(f.Values.Max, 'f', -1, 64)
		}
	}
	for _, c := range core.Categories() {
		form.Categories = append(form.Categories, categoryOption{
			Label:   string(c),
			Checked: f.Categories == nil || slices.Contains(f.Categories, c),
		})
	}
	return form
}

// newTableView renders view rows newest first, or oldest first when
// ascending is set.
func newTableView(view core.Dataset, ascending bool) tableView {
	rows := report.Rows(view)
	if ascending {
		slices.Reverse(rows)
	}
	return tableView{Rows: rows}
}

func queryURL(f core.Filter) template.URL {
	// Encoded by url.Values; safe to place after '?' in src and href.
	return template.URL(EncodeFilter(f).Encode())
}
