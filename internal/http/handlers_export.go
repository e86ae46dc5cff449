package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"tsdash/internal/core"
	applog "tsdash/internal/log"
	"tsdash/internal/report"
	"tsdash/internal/store"
)

// exportStatusView feeds the export_status partial.
type exportStatusView struct {
	Job     core.ExportJob
	Pending bool
}

func (s *Server) handleCSV(w http.ResponseWriter, r *http.Request) {
	_, view, ok := s.filteredView(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, view); err != nil {
		s.logger.ErrorContext(r.Context(), "CSV export failed", applog.FieldError, err)
		InternalServerError("Failed to build CSV").Write(w)
		return
	}
	NewHTMXResponse().Body(buf.Bytes()).
		Header("Content-Type", "text/csv; charset=utf-8").
		Header("Content-Disposition", fmt.Sprintf(`attachment; filename="tsdash-%d.csv"`, s.data.Seed())).
		Write(w)
}

// handleCreateExport records a job for the submitted filter and queues it.
func (s *Server) handleCreateExport(w http.ResponseWriter, r *http.Request) {
	if !s.ExportsEnabled() {
		ServiceUnavailableError("Exports are not configured").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid form").Write(w)
		return
	}
	f, err := ParseFilter(r.Form)
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}

	ctx := r.Context()
	seed := s.data.Seed()
	job, err := s.exports.RequestExport(ctx, seed, f)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to request export", applog.FieldError, err)
		ErrorFor(err).Write(w)
		return
	}
	s.events.LogExportRequested(ctx, job.ID, seed, f.Key())

	s.renderExportStatus(w, r, job, http.StatusAccepted)
}

func (s *Server) handleExportStatus(w http.ResponseWriter, r *http.Request) {
	if !s.ExportsEnabled() {
		ServiceUnavailableError("Exports are not configured").Write(w)
		return
	}
	id := strings.TrimSpace(r.PathValue("id"))
	job, err := s.exports.ExportStatus(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		NotFoundError("Export not found").Write(w)
		return
	case err != nil:
		s.logger.ErrorContext(r.Context(), "Failed to load export job",
			applog.FieldJobID, id, applog.FieldError, err)
		InternalServerError("Failed to load export").Write(w)
		return
	}
	s.renderExportStatus(w, r, job, http.StatusOK)
}

func (s *Server) renderExportStatus(w http.ResponseWriter, r *http.Request, job core.ExportJob, status int) {
	if s.templates == nil {
		InternalServerError("Templates not loaded").Write(w)
		return
	}
	var buf bytes.Buffer
	data := exportStatusView{Job: job, Pending: job.Status == core.ExportPending}
	if err := s.templates.ExecuteTemplate(&buf, "export_status", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution failed", applog.FieldError, err)
		InternalServerError("Failed to render export status").Write(w)
		return
	}

	resp := NewHTMXResponse().Status(status).Body(buf.Bytes()).
		Header("Content-Type", "text/html; charset=utf-8")
	if status == http.StatusAccepted {
		resp.TriggerExportQueued(job.ID).
			TriggerSuccessNotification("Export queued")
	}
	resp.Write(w)
}
