package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"tsdash/internal/core"
	ports "tsdash/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// DefaultSheetName is the tab exports are written to when none is configured.
const DefaultSheetName = "Export"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ ports.ExportWriter = (*Client)(nil)

// New wraps an existing Sheets service.
func New(svc *gsheet.Service, spreadsheetID, sheetName string) *Client {
	if strings.TrimSpace(sheetName) == "" {
		sheetName = DefaultSheetName
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}
}

// NewService builds a Sheets service from service account credentials found
// in GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS. The spreadsheet and tab come from config
// and are passed to New.
func NewService(ctx context.Context) (*gsheet.Service, error) {
	creds, err := credentialsFromEnv(ctx)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created")
	return svc, nil
}

func credentialsFromEnv(ctx context.Context) ([]byte, error) {
	inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	file := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		return []byte(inline), nil
	case file != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", file)
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// WriteExport clears the export tab and writes a header block, the
// statistics table and the raw rows. It returns the updated range.
func (c *Client) WriteExport(ctx context.Context, e ports.Export) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if e.JobID == "" {
		return "", errors.New("export job id cannot be empty")
	}

	clearRange := fmt.Sprintf("%s!A:Z", c.sheetName)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear %s: %w", clearRange, err)
	}

	vr := &gsheet.ValueRange{Values: exportValues(e)}
	resp, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, c.sheetName+"!A1", vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", c.sheetName, err)
	}

	slog.InfoContext(ctx, "Export written to Google Sheets",
		"job_id", e.JobID,
		"range", resp.UpdatedRange,
		"rows", len(e.Rows))
	return resp.UpdatedRange, nil
}

// exportValues lays out the sheet: metadata, blank, stats, blank, records.
func exportValues(e ports.Export) [][]interface{} {
	var out [][]interface{}
	out = append(out,
		[]interface{}{"job", e.JobID},
		[]interface{}{"seed", strconv.FormatInt(e.Seed, 10)},
		[]interface{}{"filter", describeFilter(e.Filter)},
		[]interface{}{},
	)
	for _, row := range e.Stats {
		out = append(out, toInterfaces(row))
	}
	out = append(out, []interface{}{}, []interface{}{"date", "value", "category"})
	for _, row := range e.Rows {
		out = append(out, toInterfaces(row))
	}
	return out
}

func describeFilter(s core.FilterSpec) string {
	var parts []string
	if s.Start != "" || s.End != "" {
		parts = append(parts, "dates="+s.Start+".."+s.End)
	}
	if s.Categories != nil {
		parts = append(parts, "categories="+strings.Join(s.Categories, "|"))
	}
	if s.Min != nil || s.Max != nil {
		parts = append(parts, "values="+formatBound(s.Min)+".."+formatBound(s.Max))
	}
	if len(parts) == 0 {
		return "all"
	}
	return strings.Join(parts, " ")
}

// formatBound prints an open side of a range as blank.
func formatBound(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

func toInterfaces(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
