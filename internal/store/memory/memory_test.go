package memory

import (
	"context"
	"testing"

	"tsdash/internal/core"
)

func TestMemoryStoreGeneratesOnce(t *testing.T) {
	s := New(42)
	if s.Seed() != 42 {
		t.Fatalf("unexpected seed %d", s.Seed())
	}
	a, err := s.Dataset(context.Background())
	if err != nil || len(a) != 366 {
		t.Fatalf("unexpected dataset: len=%d err=%v", len(a), err)
	}
	b, _ := s.Dataset(context.Background())
	if &a[0] != &b[0] {
		t.Fatalf("expected the same backing dataset on every call")
	}
}

func TestNewFromDataset(t *testing.T) {
	ds := core.Dataset{{Date: core.NewDate(2024, 1, 1), Value: 1, Category: core.CategoryA}}
	s := NewFromDataset(7, ds)
	got, _ := s.Dataset(context.Background())
	if len(got) != 1 || got[0] != ds[0] {
		t.Fatalf("unexpected dataset %v", got)
	}
}
