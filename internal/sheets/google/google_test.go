package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"rumclub/internal/core"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{ServiceAccountJSON: "{}"})
	if err == nil {
		t.Fatal("expected error for missing GOOGLE_SPREADSHEET_ID")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewSheetsService_MissingCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "test-id"})
	if err == nil {
		t.Fatal("expected error without credentials")
	}
	if !strings.Contains(err.Error(), "missing service account credentials") {
		t.Errorf("expected missing credentials error, got: %v", err)
	}
}

func TestNewSheetsService_UnreadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.json")
	_, err := New(context.Background(), Config{SpreadsheetID: "test-id", ServiceAccountFile: path})
	if err == nil {
		t.Fatal("expected error for unreadable credentials file")
	}
	if !strings.Contains(err.Error(), "read service account file") {
		t.Errorf("expected read error, got: %v", err)
	}
}

func TestWriteSummary_ServiceNotInitialized(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetBase: "Trésorerie"} // svc is nil
	err := c.WriteSummary(context.Background(), 2026, core.AnnualSummary{})
	if err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Fatalf("expected not initialized error, got %v", err)
	}
}

// Test year prefixed name function
func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		baseName string
		year     int
		expected string
	}{
		{"Trésorerie", 2025, "2025 Trésorerie"},
		{"Bilan", 2024, "2024 Bilan"},
		{"", 2023, ""}, // Empty base returns empty
		{"Test Sheet", 2022, "2022 Test Sheet"},
		{"2025 Already Prefixed", 2024, "2025 Already Prefixed"}, // Already has year prefix
	}

	for _, tt := range tests {
		got := yearPrefixedName(tt.baseName, tt.year)
		if got != tt.expected {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q",
				tt.baseName, tt.year, got, tt.expected)
		}
	}
}

func TestSheetName(t *testing.T) {
	c := &Client{sheetBase: "Trésorerie"}
	if got := c.SheetName(2026); got != "2026 Trésorerie" {
		t.Fatalf("SheetName = %q", got)
	}
}

// fakeSheetsAPI answers the Sheets v4 calls WriteSummary makes and records them.
type fakeSheetsAPI struct {
	mu     sync.Mutex
	tabs   []string
	calls  []string
	bodies map[string]string
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	defer f.mu.Unlock()
	call := r.Method + " " + r.URL.Path
	f.calls = append(f.calls, call)
	if f.bodies == nil {
		f.bodies = map[string]string{}
	}
	f.bodies[call] = string(body)

	w.Header().Set("Content-Type", "application/json")
	if r.Method == http.MethodGet {
		var sheets []map[string]any
		for _, t := range f.tabs {
			sheets = append(sheets, map[string]any{"properties": map[string]any{"title": t}})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": "sid", "sheets": sheets})
		return
	}
	fmt.Fprint(w, "{}")
}

func newFakeClient(t *testing.T, api *fakeSheetsAPI) *Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication())
	if err != nil {
		t.Fatal(err)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: "sid",
		sheetBase:     "Trésorerie",
		now:           func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func TestWriteSummaryCreatesMissingTab(t *testing.T) {
	api := &fakeSheetsAPI{tabs: []string{"Feuille 1"}}
	c := newFakeClient(t, api)
	if err := c.WriteSummary(context.Background(), 2026, core.AnnualSummary{}); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"GET /v4/spreadsheets/sid",
		"POST /v4/spreadsheets/sid:batchUpdate",
		"POST /v4/spreadsheets/sid/values/'2026 Trésorerie'!A:H:clear",
	}
	if len(api.calls) != 4 {
		t.Fatalf("calls = %v", api.calls)
	}
	for i, w := range want {
		if api.calls[i] != w {
			t.Fatalf("call %d = %q, want %q", i, api.calls[i], w)
		}
	}
	if !strings.HasPrefix(api.calls[3], "PUT /v4/spreadsheets/sid/values/'2026 Trésorerie'!A1:H") {
		t.Fatalf("update call = %q", api.calls[3])
	}
	if add := api.bodies[want[1]]; !strings.Contains(add, `"title":"2026 Trésorerie"`) {
		t.Fatalf("add sheet request = %s", add)
	}
}

func TestWriteSummaryReusesExistingTab(t *testing.T) {
	api := &fakeSheetsAPI{tabs: []string{"2026 Trésorerie"}}
	c := newFakeClient(t, api)
	if err := c.WriteSummary(context.Background(), 2026, core.AnnualSummary{}); err != nil {
		t.Fatal(err)
	}
	for _, call := range api.calls {
		if strings.Contains(call, "batchUpdate") {
			t.Fatalf("existing tab must not be added again: %v", api.calls)
		}
	}
}

func TestA1RangeQuotesSheetName(t *testing.T) {
	cases := map[string]string{
		"2026 Trésorerie": "'2026 Trésorerie'!A:H",
		"Club's":          "'Club''s'!A:H",
	}
	for sheet, want := range cases {
		if got := a1Range(sheet, "A:H"); got != want {
			t.Fatalf("a1Range(%q) = %q, want %q", sheet, got, want)
		}
	}
}
