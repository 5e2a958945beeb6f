package google

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"finanzbuch/internal/investing"
)

func TestNewFromEnv_MissingSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")

	_, err := NewFromEnv(context.Background())
	if err == nil {
		t.Fatal("expected error for missing GOOGLE_SPREADSHEET_ID")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewFromEnv_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "test-id")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := NewFromEnv(context.Background())
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected credentials error, got: %v", err)
	}
}

func TestServiceAccountCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	path := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(path, []byte(`{"type":"service_account"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", path)

	got, err := serviceAccountCredentials()
	if err != nil || string(got) != `{"type":"service_account"}` {
		t.Fatalf("credentials = %q, %v", got, err)
	}

	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", `{"inline":true}`)
	got, _ = serviceAccountCredentials()
	if string(got) != `{"inline":true}` {
		t.Fatalf("inline JSON should win, got %q", got)
	}
}

func TestWriteLedgerWithoutService(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetName: defaultSheetName}
	if _, err := c.WriteLedger(context.Background(), investing.Ledger{}); err == nil {
		t.Fatal("expected error without service")
	}
}

func TestColumnName(t *testing.T) {
	tests := map[int]string{1: "A", 8: "H", 26: "Z", 27: "AA", 52: "AZ", 53: "BA"}
	for n, want := range tests {
		if got := columnName(n); got != want {
			t.Errorf("columnName(%d) = %q, want %q", n, got, want)
		}
	}
}
