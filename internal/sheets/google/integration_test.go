//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"fintrack/internal/core"
)

// Integration tests require real Google Sheets credentials
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_MirrorFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	cfg := Config{
		SpreadsheetID:   spreadsheetID,
		SheetName:       os.Getenv("GOOGLE_SHEET_NAME"),
		CredentialsFile: os.Getenv("GOOGLE_CREDENTIALS_FILE"),
		CredentialsJSON: os.Getenv("GOOGLE_CREDENTIALS_JSON"),
	}
	if cfg.CredentialsFile == "" && cfg.CredentialsJSON == "" {
		t.Skip("service account credentials not configured, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	e := core.Expense{
		ID:        core.NewID(),
		User:      "integration",
		Title:     "Integration test expense",
		Amount:    1.23,
		Category:  core.Other,
		Date:      time.Now().UTC(),
		CreatedAt: time.Now().UTC(),
	}

	first, err := client.UpsertExpense(ctx, e)
	if err != nil {
		t.Fatalf("UpsertExpense() error = %v", err)
	}

	e.Amount = 4.56
	second, err := client.UpsertExpense(ctx, e)
	if err != nil {
		t.Fatalf("second UpsertExpense() error = %v", err)
	}
	if first != second {
		t.Errorf("upsert should rewrite the same row: %s != %s", first, second)
	}

	if err := client.DeleteExpense(ctx, e.ID); err != nil {
		t.Fatalf("DeleteExpense() error = %v", err)
	}
}
