package worker

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"tsdash/internal/amqp"
	"tsdash/internal/core"
	"tsdash/internal/sheets"
	sheetsmem "tsdash/internal/sheets/memory"
	"tsdash/internal/storage"
)

func newRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "worker.db"))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

type failingWriter struct{}

func (failingWriter) WriteExport(context.Context, sheets.Export) (string, error) {
	return "", errors.New("quota exceeded")
}

type recordingPublisher struct {
	mu   sync.Mutex
	jobs []string
	err  error
}

func (p *recordingPublisher) PublishExportRequest(_ context.Context, jobID string, _ int64, _ core.FilterSpec) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, jobID)
	return nil
}

func TestHandleExportRequest_Success(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	writer := sheetsmem.New()
	w := NewExportWorker(repo, writer, nil, 10, time.Minute)

	spec := core.FilterSpec{Start: "2024-03-01", End: "2024-03-10", Categories: []string{"A", "B"}}
	job, err := repo.CreateExportJob(ctx, 42, spec)
	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	if err := w.HandleExportRequest(ctx, amqp.NewExportRequestMessage(job.ID, 42, spec)); err != nil {
		t.Fatalf("handle: %v", err)
	}

	got, err := repo.GetExportJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.Status != core.ExportDone || got.SheetRef != "mem:1" {
		t.Fatalf("unexpected job state %+v", got)
	}

	exports := writer.Exports()
	if len(exports) != 1 {
		t.Fatalf("expected one export, got %d", len(exports))
	}
	f, _ := spec.Filter()
	view, _ := core.Apply(core.Generate(42), f)
	if len(exports[0].Rows) != len(view) {
		t.Errorf("rows = %d, want %d", len(exports[0].Rows), len(view))
	}
	if exports[0].Stats[0][0] != "category" {
		t.Errorf("stats should start with a header row, got %v", exports[0].Stats[0])
	}
	for _, row := range exports[0].Rows {
		if row[2] == "C" {
			t.Fatalf("category C leaked into export: %v", row)
		}
	}
}

func TestHandleExportRequest_WriterFailureMarksFailed(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	w := NewExportWorker(repo, failingWriter{}, nil, 10, time.Minute)

	job, err := repo.CreateExportJob(ctx, 42, core.FilterSpec{})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	if err := w.HandleExportRequest(ctx, amqp.NewExportRequestMessage(job.ID, 42, core.FilterSpec{})); err != nil {
		t.Fatalf("handle should record the failure, got %v", err)
	}

	got, _ := repo.GetExportJob(ctx, job.ID)
	if got.Status != core.ExportFailed || !strings.Contains(got.Error, "quota exceeded") {
		t.Fatalf("unexpected job state %+v", got)
	}
}

func TestHandleExportRequest_SkipsFinishedAndMissing(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	writer := sheetsmem.New()
	w := NewExportWorker(repo, writer, nil, 10, time.Minute)

	job, _ := repo.CreateExportJob(ctx, 42, core.FilterSpec{})
	if err := repo.CompleteExportJob(ctx, job.ID, "Export!A1"); err != nil {
		t.Fatalf("complete: %v", err)
	}

	for _, id := range []string{job.ID, "does-not-exist"} {
		if err := w.HandleExportRequest(ctx, amqp.NewExportRequestMessage(id, 42, core.FilterSpec{})); err != nil {
			t.Errorf("handle %s: %v", id, err)
		}
	}
	if n := len(writer.Exports()); n != 0 {
		t.Errorf("expected no writes, got %d", n)
	}
}

func TestSweepPending(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	pub := &recordingPublisher{}
	w := NewExportWorker(repo, sheetsmem.New(), pub, 10, time.Minute)
	w.now = func() time.Time { return time.Now().Add(time.Hour) }

	pending, _ := repo.CreateExportJob(ctx, 42, core.FilterSpec{})
	done, _ := repo.CreateExportJob(ctx, 42, core.FilterSpec{})
	if err := repo.CompleteExportJob(ctx, done.ID, "ref"); err != nil {
		t.Fatalf("complete: %v", err)
	}

	n, err := w.SweepPending(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 || len(pub.jobs) != 1 || pub.jobs[0] != pending.ID {
		t.Fatalf("expected only %s republished, got n=%d jobs=%v", pending.ID, n, pub.jobs)
	}

	got, _ := repo.GetExportJob(ctx, pending.ID)
	if !got.UpdatedAt.After(pending.UpdatedAt) {
		t.Errorf("sweep should touch the job: before %v after %v", pending.UpdatedAt, got.UpdatedAt)
	}
}

func TestSweepPending_PublishErrorsAreSkipped(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	pub := &recordingPublisher{err: errors.New("broker down")}
	w := NewExportWorker(repo, sheetsmem.New(), pub, 10, time.Minute)
	w.now = func() time.Time { return time.Now().Add(time.Hour) }

	if _, err := repo.CreateExportJob(ctx, 42, core.FilterSpec{}); err != nil {
		t.Fatalf("create job: %v", err)
	}
	n, err := w.SweepPending(ctx)
	if err != nil || n != 0 {
		t.Fatalf("expected 0 republished without error, got %d, %v", n, err)
	}
}

func TestSweepPending_NoPublisher(t *testing.T) {
	w := NewExportWorker(newRepo(t), sheetsmem.New(), nil, 0, time.Minute)
	if n, err := w.SweepPending(context.Background()); n != 0 || err != nil {
		t.Fatalf("expected no-op, got %d, %v", n, err)
	}
}
