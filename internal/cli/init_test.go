package cli

import (
	"context"
	"path/filepath"
	"testing"

	"tsdash/internal/config"
	"tsdash/internal/storage"
)

func TestNewDatasetReader(t *testing.T) {
	ctx := context.Background()

	mem, err := NewDatasetReader(ctx, &config.Config{DataBackend: config.BackendMemory, DataSeed: 7}, nil)
	if err != nil {
		t.Fatalf("memory backend: %v", err)
	}
	if mem.Seed() != 7 {
		t.Errorf("seed = %d, want 7", mem.Seed())
	}

	if _, err := NewDatasetReader(ctx, &config.Config{DataBackend: config.BackendSQLite}, nil); err == nil {
		t.Error("sqlite backend without repository should fail")
	}

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "cli.db"))
	if err != nil {
		t.Fatalf("repository: %v", err)
	}
	defer repo.Close()

	sq, err := NewDatasetReader(ctx, &config.Config{DataBackend: config.BackendSQLite, DataSeed: 7}, repo)
	if err != nil {
		t.Fatalf("sqlite backend: %v", err)
	}
	a, _ := mem.Dataset(ctx)
	b, _ := sq.Dataset(ctx)
	if len(a) != len(b) || a[100].Value != b[100].Value {
		t.Error("backends should serve the same dataset for the same seed")
	}

	if _, err := NewDatasetReader(ctx, &config.Config{DataBackend: "csv"}, nil); err == nil {
		t.Error("unknown backend should fail")
	}
}
