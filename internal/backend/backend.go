// Package backend selects the ledger export target from configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"finanzbuch/internal/config"
	"finanzbuch/internal/sheets"
	gsheet "finanzbuch/internal/sheets/google"
	"finanzbuch/internal/sheets/memory"
)

// ExportType names a ledger export target.
type ExportType string

const (
	SheetsExport ExportType = "sheets"
	MemoryExport ExportType = "memory"
)

func (t ExportType) String() string { return string(t) }

// IsValid returns true if the export type is known
func (t ExportType) IsValid() bool {
	switch t {
	case SheetsExport, MemoryExport:
		return true
	}
	return false
}

// Config holds what the factory needs to build an exporter.
type Config struct {
	Type          ExportType
	SpreadsheetID string
	SheetName     string
}

// FromAppConfig exports to Google Sheets when a spreadsheet is configured
// and to memory otherwise.
func FromAppConfig(cfg *config.Config) (Config, error) {
	if cfg == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	if !cfg.SheetsEnabled() {
		return Config{Type: MemoryExport}, nil
	}
	return Config{
		Type:          SheetsExport,
		SpreadsheetID: cfg.GoogleSpreadsheetID,
		SheetName:     cfg.GoogleSheetName,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid export type: %q", c.Type)
	}
	if c.Type == SheetsExport {
		if c.SpreadsheetID == "" {
			return fmt.Errorf("spreadsheet ID is required for sheets export")
		}
		if c.SheetName == "" {
			return fmt.Errorf("sheet name is required for sheets export")
		}
	}
	return nil
}

// Factory builds exporters. newSheets is replaced in tests.
type Factory struct {
	logger    *slog.Logger
	newSheets func(ctx context.Context) (sheets.LedgerWriter, error)
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{
		logger: logger,
		newSheets: func(ctx context.Context) (sheets.LedgerWriter, error) {
			c, err := gsheet.NewFromEnv(ctx)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
	}
}

// CreateExporter returns the ledger writer selected by cfg.
func (f *Factory) CreateExporter(ctx context.Context, cfg Config) (sheets.LedgerWriter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case SheetsExport:
		w, err := f.newSheets(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		f.logger.Info("Google Sheets export enabled",
			"spreadsheet_id", cfg.SpreadsheetID,
			"sheet", cfg.SheetName)
		return w, nil
	default:
		f.logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, exporting to memory")
		return memory.New(), nil
	}
}
