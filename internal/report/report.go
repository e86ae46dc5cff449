// Package report turns filtered views into tabular output.
package report

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/go-gota/gota/dataframe"

	"tsdash/internal/core"
)

type recordRow struct {
	Date     string  `dataframe:"date"`
	Value    float64 `dataframe:"value"`
	Category string  `dataframe:"category"`
}

// Frame builds a dataframe of view sorted newest first, matching the raw
// data table on the dashboard.
func Frame(view core.Dataset) (dataframe.DataFrame, error) {
	rows := make([]recordRow, len(view))
	for i, r := range view {
		rows[i] = recordRow{Date: r.Date.String(), Value: r.Value, Category: string(r.Category)}
	}
	df := dataframe.LoadStructs(rows)
	if df.Err != nil {
		return df, fmt.Errorf("load records: %w", df.Err)
	}
	df = df.Arrange(dataframe.RevSort("date"))
	if df.Err != nil {
		return df, fmt.Errorf("sort records: %w", df.Err)
	}
	return df, nil
}

// WriteCSV writes view as CSV with a header row, newest first.
func WriteCSV(w io.Writer, view core.Dataset) error {
	if len(view) == 0 {
		_, err := io.WriteString(w, "date,value,category\n")
		return err
	}
	df, err := Frame(view)
	if err != nil {
		return err
	}
	if err := df.WriteCSV(w); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// Rows returns view newest first as string cells, for HTML tables and
// spreadsheet exports.
func Rows(view core.Dataset) [][]string {
	out := make([][]string, 0, len(view))
	for i := len(view) - 1; i >= 0; i-- {
		r := view[i]
		out = append(out, []string{r.Date.String(), FormatFloat(r.Value), string(r.Category)})
	}
	return out
}

// StatsRows renders aggregate rows with a header, NaN shown as "NaN".
func StatsRows(rows []core.AggregateRow) [][]string {
	out := [][]string{{"category", "mean", "median", "std_dev", "min", "max"}}
	for _, r := range rows {
		out = append(out, []string{
			string(r.Category),
			FormatFloat(r.Mean),
			FormatFloat(r.Median),
			FormatFloat(r.StdDev),
			FormatFloat(r.Min),
			FormatFloat(r.Max),
		})
	}
	return out
}

// FormatFloat prints v with two decimals; NaN and infinities use their Go names.
func FormatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
