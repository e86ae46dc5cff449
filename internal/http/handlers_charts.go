package http

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"

	"tsdash/internal/chart"
	"tsdash/internal/core"
	applog "tsdash/internal/log"
)

func (s *Server) handleTimeSeriesChart(w http.ResponseWriter, r *http.Request) {
	s.renderChart(w, r, "timeseries", func(out io.Writer, view core.Dataset) error {
		return chart.TimeSeries(out, view, s.chartOpts)
	})
}

func (s *Server) handleDistributionChart(w http.ResponseWriter, r *http.Request) {
	s.renderChart(w, r, "distribution", func(out io.Writer, view core.Dataset) error {
		return chart.Distribution(out, view, s.bins, s.chartOpts)
	})
}

func (s *Server) handleScatterChart(w http.ResponseWriter, r *http.Request) {
	s.renderChart(w, r, "scatter", func(out io.Writer, view core.Dataset) error {
		return chart.Scatter(out, view, s.chartOpts)
	})
}

func (s *Server) renderChart(w http.ResponseWriter, r *http.Request, name string, draw func(io.Writer, core.Dataset) error) {
	_, view, ok := s.filteredView(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	err := draw(&buf, view)
	switch {
	case errors.Is(err, chart.ErrNotEnoughData):
		buf.Reset()
		writePlaceholderSVG(&buf, s.chartOpts, "No data for the current filters")
	case err != nil:
		applog.FromContext(r.Context()).WithComponent(applog.ComponentChart).
			ErrorContext(r.Context(), "Chart rendering failed",
				applog.FieldChart, name, applog.FieldError, err)
		InternalServerError("Failed to render chart").Write(w)
		return
	}

	NewHTMXResponse().Body(buf.Bytes()).
		Header("Content-Type", "image/svg+xml").
		Header("Cache-Control", "private, max-age=60").
		Write(w)
}

func writePlaceholderSVG(w io.Writer, opts chart.Options, msg string) {
	fmt.Fprintf(w, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+
		`<rect width="100%%" height="100%%" fill="#fafafa"/>`+
		`<text x="50%%" y="50%%" text-anchor="middle" fill="#888" font-family="sans-serif" font-size="16">%s</text>`+
		`</svg>`,
		opts.Width, opts.Height, opts.Width, opts.Height, template.HTMLEscapeString(msg))
}
