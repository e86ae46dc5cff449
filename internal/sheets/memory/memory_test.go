package memory

import (
	"context"
	"testing"

	"tsdash/internal/sheets"
)

func TestWriterStoresExports(t *testing.T) {
	w := New()
	ref, err := w.WriteExport(context.Background(), sheets.Export{JobID: "j1", Rows: [][]string{{"2024-01-01", "1.00", "A"}}})
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected write: ref=%q err=%v", ref, err)
	}
	if _, err := w.WriteExport(context.Background(), sheets.Export{}); err == nil {
		t.Fatal("expected error for missing job id")
	}
	got := w.Exports()
	if len(got) != 1 || got[0].JobID != "j1" {
		t.Fatalf("unexpected exports %+v", got)
	}
}
