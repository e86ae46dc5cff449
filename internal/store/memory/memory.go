package memory

import (
	"context"

	"tsdash/internal/core"
	"tsdash/internal/store"
)

var _ store.DatasetReader = (*Store)(nil)

// Store keeps a dataset generated once at construction.
type Store struct {
	seed int64
	data core.Dataset
}

func New(seed int64) *Store {
	return &Store{seed: seed, data: core.Generate(seed)}
}

// NewFromDataset wraps an existing dataset, for tests and fixtures.
func NewFromDataset(seed int64, ds core.Dataset) *Store {
	return &Store{seed: seed, data: ds}
}

// Dataset returns the generated records. Callers must not modify them.
func (s *Store) Dataset(_ context.Context) (core.Dataset, error) {
	return s.data, nil
}

func (s *Store) Seed() int64 {
	return s.seed
}
