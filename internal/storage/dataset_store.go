package storage

import (
	"context"
	"fmt"

	"tsdash/internal/core"
	"tsdash/internal/store"
)

var _ store.DatasetReader = (*DatasetStore)(nil)

// DatasetStore serves the snapshot for one seed from memory after loading it
// once through the repository.
type DatasetStore struct {
	seed int64
	data core.Dataset
}

// NewDatasetStore loads (or generates and persists) the dataset for seed.
func NewDatasetStore(ctx context.Context, repo *SQLiteRepository, seed int64) (*DatasetStore, error) {
	ds, err := repo.LoadOrGenerate(ctx, seed)
	if err != nil {
		return nil, fmt.Errorf("load dataset seed=%d: %w", seed, err)
	}
	return &DatasetStore{seed: seed, data: ds}, nil
}

func (s *DatasetStore) Dataset(_ context.Context) (core.Dataset, error) {
	return s.data, nil
}

func (s *DatasetStore) Seed() int64 {
	return s.seed
}
