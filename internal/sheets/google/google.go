package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"rumclub/internal/core"
	ports "rumclub/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base name without year (e.g. "Trésorerie"); the year is prefixed per write.
	sheetBase string
	now       func() time.Time
}

// Ensure interface conformance
var _ ports.SummaryWriter = (*Client)(nil)

// Config selects the spreadsheet and the service account used to reach it.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

// New creates a Sheets client authenticated with a service account.
// Required: SpreadsheetID and either ServiceAccountJSON or ServiceAccountFile.
// SheetName defaults to "Trésorerie".
func New(ctx context.Context, cfg Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	base := strings.TrimSpace(cfg.SheetName)
	if base == "" {
		base = "Trésorerie"
	}

	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetBase:     base,
		now:           time.Now,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Inline JSON wins over the file path.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(cfg.ServiceAccountJSON)
	serviceAccountFile := strings.TrimSpace(cfg.ServiceAccountFile)

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created successfully")
	return service, nil
}

// SheetName returns the tab written for the given fiscal year.
func (c *Client) SheetName(year int) string {
	return yearPrefixedName(c.sheetBase, year)
}

// WriteSummary replaces the content of the year's tab with the summary.
// The tab is created on first use.
func (c *Client) WriteSummary(ctx context.Context, year int, s core.AnnualSummary) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	sheet := c.SheetName(year)
	if err := c.ensureSheet(ctx, sheet); err != nil {
		return err
	}

	// Clear first so a shorter layout leaves no stale rows behind.
	clearRange := a1Range(sheet, "A:H")
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to clear %s: %w", clearRange, err)
	}

	rows := ports.Rows(s, c.now())
	dataRange := a1Range(sheet, fmt.Sprintf("A1:H%d", len(rows)))
	vr := &gsheet.ValueRange{Values: rows}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to update %s: %w", dataRange, err)
	}
	return nil
}

// ensureSheet adds a tab named title unless the spreadsheet already has one.
func (c *Client) ensureSheet(ctx context.Context, title string) error {
	doc, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to read spreadsheet: %w", err)
	}
	for _, sh := range doc.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: title},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to add sheet %q: %w", title, err)
	}
	slog.InfoContext(ctx, "Created sheet", "sheet", title)
	return nil
}

// a1Range quotes the sheet name so names with spaces or accents are valid.
func a1Range(sheet, cells string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'!" + cells
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
