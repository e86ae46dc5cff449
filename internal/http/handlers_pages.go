package http

import (
	"bytes"
	"net/http"

	"tsdash/internal/core"
	applog "tsdash/internal/log"
)

const (
	dashboardTitle = "Data Analysis Dashboard"
	explorerTitle  = "Data Explorer"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "dashboard.html", dashboardTitle, false)
}

func (s *Server) handleExplorer(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "explorer.html", explorerTitle, true)
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, name, title string, ascending bool) {
	f, view, ok := s.filteredView(w, r)
	if !ok {
		return
	}
	full, err := s.data.Dataset(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to load dataset", applog.FieldError, err)
		ErrorFor(err).Write(w)
		return
	}

	data := pageView{
		Title:   title,
		Query:   queryURL(f),
		Form:    newFilterForm(full, f),
		Stats:   statsView{Rows: core.Aggregate(view)},
		Table:   newTableView(view, ascending),
		Summary: summaryView{core.Summarize(view)},
		Exports: s.ExportsEnabled(),
	}
	s.render(w, r, name, data)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	_, view, ok := s.filteredView(w, r)
	if !ok {
		return
	}
	s.render(w, r, "stats", statsView{Rows: core.Aggregate(view)})
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	_, view, ok := s.filteredView(w, r)
	if !ok {
		return
	}
	s.render(w, r, "table", newTableView(view, r.URL.Query().Get("order") == "asc"))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	_, view, ok := s.filteredView(w, r)
	if !ok {
		return
	}
	s.render(w, r, "summary", summaryView{core.Summarize(view)})
}

// render executes a named template into a buffer so a failing template
// never leaves a half-written 200 behind.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		InternalServerError("Templates not loaded").Write(w)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		applog.FromContext(r.Context()).WithComponent(applog.ComponentTemplate).
			ErrorContext(r.Context(), "Template execution failed",
				"template", name, applog.FieldError, err)
		InternalServerError("Failed to render page").Write(w)
		return
	}
	NewHTMXResponse().Body(buf.Bytes()).
		Header("Content-Type", "text/html; charset=utf-8").
		Write(w)
}
