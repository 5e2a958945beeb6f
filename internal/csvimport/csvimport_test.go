package csvimport

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"finanzbuch/internal/core"
)

const export = `Datum;Verwendungszweck;Betrag
01.03.2023;Gehalt;"2.500,00"
03.03.2023;Miete;-900,50
15.03.2023;Supermarkt;-45,99 EUR
`

func TestReadAndColumn(t *testing.T) {
	table, err := Read(strings.NewReader(export))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"Datum", "Verwendungszweck", "Betrag"}, table.Header); diff != "" {
		t.Fatalf("header mismatch (-want +got):\n%s", diff)
	}
	if len(table.Rows) != 3 {
		t.Fatalf("rows = %d", len(table.Rows))
	}

	idx, ok := table.ColumnIndex("Verwendungszweck")
	if !ok || idx != 1 {
		t.Fatalf("ColumnIndex = %d, %v", idx, ok)
	}

	// thousands separators are not supported: "2.500,00" becomes "2.500.00"
	if _, err := table.Column(2); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	table.Rows[0][2] = "2500,00"
	values, err := table.Column(2)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{2500, -900.5, -45.99}, values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestColumnOutOfRange(t *testing.T) {
	table := &Table{Header: []string{"a", "b"}, Rows: [][]string{{"1"}}}
	if _, err := table.Column(5); !errors.Is(err, ErrColumnMissing) {
		t.Fatalf("expected ErrColumnMissing, got %v", err)
	}
	if _, err := table.Column(1); !errors.Is(err, ErrColumnMissing) {
		t.Fatalf("short row: expected ErrColumnMissing, got %v", err)
	}
}

func TestReadEmpty(t *testing.T) {
	if _, err := Read(strings.NewReader("")); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	if err := os.WriteFile(path, []byte("Betrag\n1,5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	table, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	values, err := table.Column(0)
	if err != nil || len(values) != 1 || values[0] != 1.5 {
		t.Fatalf("values = %v, %v", values, err)
	}
	if _, err := ReadFile(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
