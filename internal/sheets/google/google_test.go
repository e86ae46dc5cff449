package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"tsdash/internal/core"
	ports "tsdash/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

func TestNewService_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := NewService(context.Background())
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected credentials error, got %v", err)
	}
}

func TestNewService_UnreadableCredentialsFile(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "/nonexistent/creds.json")

	_, err := NewService(context.Background())
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestNewUsesGivenTarget(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "from-env")
	t.Setenv("GOOGLE_SHEET_NAME", "EnvTab")

	tests := []struct {
		name      string
		sheet     string
		wantSheet string
	}{
		{name: "configured tab", sheet: "Reports", wantSheet: "Reports"},
		{name: "blank tab", sheet: " ", wantSheet: DefaultSheetName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(nil, "from-config", tt.sheet)
			if c.spreadsheetID != "from-config" || c.sheetName != tt.wantSheet {
				t.Fatalf("client target = %s/%s, want from-config/%s", c.spreadsheetID, c.sheetName, tt.wantSheet)
			}
		})
	}
}

type fakeSheets struct {
	mu      sync.Mutex
	cleared []string
	updates []gsheet.ValueRange
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":clear"):
		f.cleared = append(f.cleared, r.URL.Path)
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-id","clearedRange":"Export!A1:Z1000"}`))
	case r.Method == http.MethodPut:
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.updates = append(f.updates, vr)
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-id","updatedRange":"Export!A1:F12","updatedRows":12}`))
	default:
		http.Error(w, "unexpected "+r.Method+" "+r.URL.Path, http.StatusNotFound)
	}
}

func newFakeClient(t *testing.T) (*Client, *fakeSheets) {
	t.Helper()
	fake := &fakeSheets{}
	ts := httptest.NewServer(fake)
	t.Cleanup(ts.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(ts.URL+"/"),
		goption.WithHTTPClient(ts.Client()))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return New(svc, "sheet-id", ""), fake
}

func TestWriteExport(t *testing.T) {
	c, fake := newFakeClient(t)
	ref, err := c.WriteExport(context.Background(), ports.Export{
		JobID:  "job-1",
		Seed:   42,
		Filter: core.FilterSpec{Start: "2024-01-01", End: "2024-01-05"},
		Stats:  [][]string{{"category", "mean"}, {"A", "100.00"}},
		Rows:   [][]string{{"2024-01-05", "101.00", "A"}, {"2024-01-04", "99.00", "B"}},
	})
	if err != nil {
		t.Fatalf("write export: %v", err)
	}
	if ref != "Export!A1:F12" {
		t.Fatalf("unexpected ref %q", ref)
	}
	if len(fake.cleared) != 1 || len(fake.updates) != 1 {
		t.Fatalf("expected one clear and one update, got %d/%d", len(fake.cleared), len(fake.updates))
	}

	values := fake.updates[0].Values
	// 4 metadata rows, 2 stats rows, blank, header, 2 records.
	if len(values) != 10 {
		t.Fatalf("expected 10 rows, got %d: %v", len(values), values)
	}
	if values[0][1] != "job-1" || values[7][0] != "date" || values[9][2] != "B" {
		t.Fatalf("unexpected layout %v", values)
	}
}

func TestWriteExportRequiresService(t *testing.T) {
	c := New(nil, "sheet-id", "Tab")
	if _, err := c.WriteExport(context.Background(), ports.Export{JobID: "j"}); err == nil {
		t.Fatal("expected error without service")
	}
}

func TestDescribeFilter(t *testing.T) {
	lo, hi := 80.0, 120.5
	cases := []struct {
		spec core.FilterSpec
		want string
	}{
		{core.FilterSpec{}, "all"},
		{core.FilterSpec{Start: "2024-01-01", End: "2024-02-01"}, "dates=2024-01-01..2024-02-01"},
		{core.FilterSpec{Categories: []string{"A", "C"}, Min: &lo, Max: &hi}, "categories=A|C values=80..120.5"},
		{core.FilterSpec{Min: &lo}, "values=80.."},
		{core.FilterSpec{Max: &hi}, "values=..120.5"},
		{core.FilterSpec{Start: "2024-03-01", Max: &hi}, "dates=2024-03-01.. values=..120.5"},
	}
	for _, tc := range cases {
		if got := describeFilter(tc.spec); got != tc.want {
			t.Errorf("describeFilter(%+v) = %q, want %q", tc.spec, got, tc.want)
		}
	}
}
