package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tsdash/internal/amqp"
	"tsdash/internal/core"
	"tsdash/internal/report"
	"tsdash/internal/sheets"
	"tsdash/internal/storage"
)

// JobStore is the part of the SQLite repository the worker needs.
type JobStore interface {
	LoadOrGenerate(ctx context.Context, seed int64) (core.Dataset, error)
	GetExportJob(ctx context.Context, id string) (core.ExportJob, error)
	CompleteExportJob(ctx context.Context, id, sheetRef string) error
	FailExportJob(ctx context.Context, id, msg string) error
	ListPendingExportJobs(ctx context.Context, cutoff time.Time, limit int) ([]core.ExportJob, error)
	TouchExportJob(ctx context.Context, id string) error
}

// Publisher re-enqueues export requests found by the sweep.
type Publisher interface {
	PublishExportRequest(ctx context.Context, jobID string, seed int64, filter core.FilterSpec) error
}

// ExportWorker turns export requests into spreadsheet writes and records the
// outcome on the job.
type ExportWorker struct {
	store      JobStore
	writer     sheets.ExportWriter
	publisher  Publisher
	batchSize  int
	staleAfter time.Duration
	now        func() time.Time
}

func NewExportWorker(store JobStore, writer sheets.ExportWriter, publisher Publisher, batchSize int, staleAfter time.Duration) *ExportWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &ExportWorker{
		store:      store,
		writer:     writer,
		publisher:  publisher,
		batchSize:  batchSize,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// HandleExportRequest processes one export request from AMQP. A non-nil
// error means the job state could not be read or recorded and the message
// should be redelivered.
func (w *ExportWorker) HandleExportRequest(ctx context.Context, msg *amqp.ExportRequestMessage) error {
	slog.InfoContext(ctx, "Processing export request", "job_id", msg.JobID, "seed", msg.Seed)

	job, err := w.store.GetExportJob(ctx, msg.JobID)
	if errors.Is(err, storage.ErrNotFound) {
		slog.WarnContext(ctx, "Export job no longer exists, dropping request", "job_id", msg.JobID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get export job: %w", err)
	}
	if job.Status != core.ExportPending {
		slog.InfoContext(ctx, "Export job already finished, skipping", "job_id", job.ID, "status", job.Status)
		return nil
	}

	ref, runErr := w.run(ctx, job)
	if runErr != nil {
		slog.ErrorContext(ctx, "Export failed", "job_id", job.ID, "error", runErr)
		if err := w.store.FailExportJob(ctx, job.ID, runErr.Error()); err != nil {
			return fmt.Errorf("mark export failed: %w", err)
		}
		return nil
	}

	if err := w.store.CompleteExportJob(ctx, job.ID, ref); err != nil {
		return fmt.Errorf("mark export done: %w", err)
	}
	slog.InfoContext(ctx, "Export completed", "job_id", job.ID, "sheet_ref", ref)
	return nil
}

// run builds the export from the job's own seed and filter, not the message's,
// so a stale or replayed message cannot change what gets written.
func (w *ExportWorker) run(ctx context.Context, job core.ExportJob) (string, error) {
	filter, err := job.Filter.Filter()
	if err != nil {
		return "", fmt.Errorf("parse filter: %w", err)
	}

	ds, err := w.store.LoadOrGenerate(ctx, job.Seed)
	if err != nil {
		return "", fmt.Errorf("load dataset: %w", err)
	}

	view, err := core.Apply(ds, filter)
	if err != nil {
		return "", fmt.Errorf("apply filter: %w", err)
	}

	ref, err := w.writer.WriteExport(ctx, sheets.Export{
		JobID:  job.ID,
		Seed:   job.Seed,
		Filter: job.Filter,
		Stats:  report.StatsRows(core.Aggregate(view)),
		Rows:   report.Rows(view),
	})
	if err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return ref, nil
}

// SweepPending republishes jobs that have stayed pending longer than the
// stale threshold. It is the backup path for lost AMQP messages.
func (w *ExportWorker) SweepPending(ctx context.Context) (int, error) {
	if w.publisher == nil {
		return 0, nil
	}

	jobs, err := w.store.ListPendingExportJobs(ctx, w.now().Add(-w.staleAfter), w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending export jobs: %w", err)
	}
	if len(jobs) == 0 {
		return 0, nil
	}

	slog.InfoContext(ctx, "Republishing stale export jobs", "count", len(jobs))

	published := 0
	for _, job := range jobs {
		if err := w.publisher.PublishExportRequest(ctx, job.ID, job.Seed, job.Filter); err != nil {
			slog.ErrorContext(ctx, "Failed to republish export job", "job_id", job.ID, "error", err)
			continue
		}
		if err := w.store.TouchExportJob(ctx, job.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to touch export job", "job_id", job.ID, "error", err)
		}
		published++
	}
	return published, nil
}

// RunSweeper calls SweepPending every interval until ctx is done.
func (w *ExportWorker) RunSweeper(ctx context.Context, interval time.Duration) error {
	if _, err := w.SweepPending(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup export sweep failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.SweepPending(ctx); err != nil {
				slog.ErrorContext(ctx, "Export sweep failed", "error", err)
			}
		}
	}
}
