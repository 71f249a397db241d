//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"bankit/internal/core"
	"bankit/internal/ledger"
)

// Integration tests require real Google Sheets credentials
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_ExportAndReadBack(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	if os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON") == "" &&
		os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE") == "" &&
		os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
		t.Skip("service account credentials not configured, skipping integration test")
	}

	sheet := os.Getenv("GOOGLE_SHEET_NAME")
	if sheet == "" {
		sheet = "Summary Test"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	exporter, err := New(ctx, spreadsheetID, sheet, nil)
	if err != nil {
		t.Fatalf("Failed to create exporter: %v", err)
	}

	want := []ledger.MonthSummary{{
		Month: core.MonthOf(core.Today()),
		Totals: []core.CategoryTotal{
			{Category: core.Category{Name: "Integration"}, Total: core.MustParseAmount("-12.34")},
		},
	}}

	if err := exporter.ExportSummary(ctx, want); err != nil {
		t.Fatalf("ExportSummary() error = %v", err)
	}

	got, err := exporter.ReadSummary(ctx)
	if err != nil {
		t.Fatalf("ReadSummary() error = %v", err)
	}
	if len(got) != 1 || got[0].Month != want[0].Month {
		t.Fatalf("ReadSummary() = %+v, want %+v", got, want)
	}
	if !got[0].Total().Equal(want[0].Total()) {
		t.Errorf("read back total %s, want %s", got[0].Total(), want[0].Total())
	}
}
