package sheets

import (
	"context"

	"tsdash/internal/core"
)

// Export is one filtered view ready to be written to a spreadsheet. Rows and
// Stats are pre-rendered string cells; Stats includes its header row.
type Export struct {
	JobID  string
	Seed   int64
	Filter core.FilterSpec
	Stats  [][]string
	Rows   [][]string
}

// Ports for outbound adapters.
type (
	ExportWriter interface {
		// WriteExport stores the export and returns a reference to where it landed.
		WriteExport(ctx context.Context, e Export) (ref string, err error)
	}
)
