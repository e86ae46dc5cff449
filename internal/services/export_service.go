package services

import (
	"context"
	"fmt"
	"log/slog"

	"tsdash/internal/core"
)

type (
	// JobStore persists export jobs. The SQLite repository implements it.
	JobStore interface {
		CreateExportJob(ctx context.Context, seed int64, spec core.FilterSpec) (core.ExportJob, error)
		GetExportJob(ctx context.Context, id string) (core.ExportJob, error)
	}

	// Publisher hands a job to the export worker. The AMQP client implements it.
	Publisher interface {
		PublishExportRequest(ctx context.Context, jobID string, seed int64, filter core.FilterSpec) error
	}
)

// ExportService records export jobs in SQLite and announces them over AMQP.
type ExportService struct {
	jobs      JobStore
	publisher Publisher
}

func NewExportService(jobs JobStore, publisher Publisher) *ExportService {
	return &ExportService{
		jobs:      jobs,
		publisher: publisher,
	}
}

// RequestExport saves a pending job for the filter and publishes it. The job
// is returned even when publishing fails: the worker sweep republishes
// pending jobs, so the request itself still succeeded.
func (s *ExportService) RequestExport(ctx context.Context, seed int64, f core.Filter) (core.ExportJob, error) {
	if err := f.Validate(); err != nil {
		return core.ExportJob{}, err
	}

	job, err := s.jobs.CreateExportJob(ctx, seed, f.Spec())
	if err != nil {
		return core.ExportJob{}, fmt.Errorf("save export job: %w", err)
	}

	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, export left for sweep", "job_id", job.ID)
		return job, nil
	}
	if err := s.publisher.PublishExportRequest(ctx, job.ID, job.Seed, job.Filter); err != nil {
		slog.ErrorContext(ctx, "Failed to publish export request", "job_id", job.ID, "error", err)
	}

	return job, nil
}

// ExportStatus returns the job with id. Unknown ids yield store.ErrNotFound.
func (s *ExportService) ExportStatus(ctx context.Context, id string) (core.ExportJob, error) {
	return s.jobs.GetExportJob(ctx, id)
}
