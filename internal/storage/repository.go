package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"tsdash/internal/core"
	"tsdash/internal/store"

	_ "modernc.org/sqlite"
)

// ErrNotFound aliases the port error so callers can match either.
var ErrNotFound = store.ErrNotFound

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Debug("SQLite schema ready", "path", dbPath, "schema_version", version)

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveDataset stores ds under seed in one transaction, replacing any
// previous snapshot for the same seed.
func (r *SQLiteRepository) SaveDataset(ctx context.Context, seed int64, ds core.Dataset) error {
	if err := ds.Validate(); err != nil {
		return fmt.Errorf("validate dataset: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE seed = ?`, seed); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO datasets (seed, record_count, created_at) VALUES (?, ?, ?)
		 ON CONFLICT (seed) DO UPDATE SET record_count = excluded.record_count, created_at = excluded.created_at`,
		seed, len(ds), r.now().UnixNano()); err != nil {
		return fmt.Errorf("upsert dataset: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO records (seed, day, value, category) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare record insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range ds {
		if _, err := stmt.ExecContext(ctx, seed, rec.Date.String(), rec.Value, string(rec.Category)); err != nil {
			return fmt.Errorf("insert record %s: %w", rec.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit dataset: %w", err)
	}

	slog.InfoContext(ctx, "Dataset snapshot saved to SQLite", "seed", seed, "records", len(ds))
	return nil
}

// LoadDataset returns the snapshot for seed, or ErrNotFound.
func (r *SQLiteRepository) LoadDataset(ctx context.Context, seed int64) (core.Dataset, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT record_count FROM datasets WHERE seed = ?`, seed).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("dataset seed=%d: %w", seed, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get dataset: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT day, value, category FROM records WHERE seed = ? ORDER BY day`, seed)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	ds := make(core.Dataset, 0, count)
	for rows.Next() {
		var (
			day      string
			value    float64
			category string
		)
		if err := rows.Scan(&day, &value, &category); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		d, err := core.ParseDate(day)
		if err != nil {
			return nil, fmt.Errorf("parse record day: %w", err)
		}
		ds = append(ds, core.Record{Date: d, Value: value, Category: core.Category(category)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	if len(ds) != count {
		return nil, fmt.Errorf("dataset seed=%d: expected %d records, found %d", seed, count, len(ds))
	}
	return ds, nil
}

// LoadOrGenerate returns the stored snapshot for seed, generating and
// persisting it on first use.
func (r *SQLiteRepository) LoadOrGenerate(ctx context.Context, seed int64) (core.Dataset, error) {
	ds, err := r.LoadDataset(ctx, seed)
	if err == nil {
		slog.DebugContext(ctx, "Dataset loaded from SQLite", "seed", seed, "records", len(ds))
		return ds, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	ds = core.Generate(seed)
	if err := r.SaveDataset(ctx, seed, ds); err != nil {
		return nil, err
	}
	return ds, nil
}

// CreateExportJob records a pending export for the given seed and filter.
func (r *SQLiteRepository) CreateExportJob(ctx context.Context, seed int64, spec core.FilterSpec) (core.ExportJob, error) {
	if _, err := spec.Filter(); err != nil {
		return core.ExportJob{}, err
	}
	body, err := json.Marshal(spec)
	if err != nil {
		return core.ExportJob{}, fmt.Errorf("marshal filter: %w", err)
	}

	now := r.now()
	job := core.ExportJob{
		ID:        uuid.NewString(),
		Seed:      seed,
		Filter:    spec,
		Status:    core.ExportPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO export_jobs (id, seed, filter_json, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		job.ID, seed, string(body), string(job.Status), now.UnixNano(), now.UnixNano())
	if err != nil {
		return core.ExportJob{}, fmt.Errorf("insert export job: %w", err)
	}
	return job, nil
}

// GetExportJob returns the job with id, or ErrNotFound.
func (r *SQLiteRepository) GetExportJob(ctx context.Context, id string) (core.ExportJob, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, seed, filter_json, status, sheet_ref, error, created_at, updated_at FROM export_jobs WHERE id = ?`, id)
	job, err := scanExportJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ExportJob{}, fmt.Errorf("export job %s: %w", id, ErrNotFound)
	}
	return job, err
}

// CompleteExportJob marks the job done with the sheet reference it produced.
func (r *SQLiteRepository) CompleteExportJob(ctx context.Context, id, sheetRef string) error {
	return r.finishExportJob(ctx, id, core.ExportDone, sheetRef, "")
}

// FailExportJob marks the job failed with a message.
func (r *SQLiteRepository) FailExportJob(ctx context.Context, id, msg string) error {
	return r.finishExportJob(ctx, id, core.ExportFailed, "", msg)
}

func (r *SQLiteRepository) finishExportJob(ctx context.Context, id string, status core.ExportStatus, ref, msg string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE export_jobs SET status = ?, sheet_ref = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(status), ref, msg, r.now().UnixNano(), id)
	if err != nil {
		return fmt.Errorf("update export job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("export job %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListPendingExportJobs returns up to limit pending jobs last touched before
// cutoff, oldest first.
func (r *SQLiteRepository) ListPendingExportJobs(ctx context.Context, cutoff time.Time, limit int) ([]core.ExportJob, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, seed, filter_json, status, sheet_ref, error, created_at, updated_at
		 FROM export_jobs WHERE status = ? AND updated_at < ? ORDER BY updated_at LIMIT ?`,
		string(core.ExportPending), cutoff.UnixNano(), limit)
	if err != nil {
		return nil, fmt.Errorf("query pending export jobs: %w", err)
	}
	defer rows.Close()

	var jobs []core.ExportJob
	for rows.Next() {
		job, err := scanExportJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate export jobs: %w", err)
	}
	return jobs, nil
}

// TouchExportJob bumps updated_at so a republished job is not swept again
// immediately.
func (r *SQLiteRepository) TouchExportJob(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE export_jobs SET updated_at = ? WHERE id = ?`, r.now().UnixNano(), id)
	if err != nil {
		return fmt.Errorf("touch export job: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExportJob(s rowScanner) (core.ExportJob, error) {
	var (
		job                  core.ExportJob
		filterJSON, status   string
		createdAt, updatedAt int64
	)
	if err := s.Scan(&job.ID, &job.Seed, &filterJSON, &status, &job.SheetRef, &job.Error, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.ExportJob{}, err
		}
		return core.ExportJob{}, fmt.Errorf("scan export job: %w", err)
	}
	if err := json.Unmarshal([]byte(filterJSON), &job.Filter); err != nil {
		return core.ExportJob{}, fmt.Errorf("decode export filter: %w", err)
	}
	job.Status = core.ExportStatus(status)
	job.CreatedAt = time.Unix(0, createdAt)
	job.UpdatedAt = time.Unix(0, updatedAt)
	return job, nil
}
