package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"tsdash/internal/sheets"
)

var _ sheets.ExportWriter = (*Writer)(nil)

// Writer keeps exports in memory, for local runs without Google credentials.
type Writer struct {
	mu    sync.Mutex
	items []sheets.Export
}

func New() *Writer {
	return &Writer{}
}

// WriteExport stores e and returns a synthetic reference.
func (w *Writer) WriteExport(_ context.Context, e sheets.Export) (string, error) {
	if e.JobID == "" {
		return "", errors.New("export job id cannot be empty")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.items = append(w.items, e)
	return fmt.Sprintf("mem:%d", len(w.items)), nil
}

// Exports returns a copy of everything written so far.
func (w *Writer) Exports() []sheets.Export {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]sheets.Export(nil), w.items...)
}
