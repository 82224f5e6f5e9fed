// internal/output/types.go

// Package output writes session reports in the configured formats.
package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/promptharvest/promptharvest/internal/config"
	"github.com/promptharvest/promptharvest/internal/scan"
)

// Format identifies a report format.
type Format string

const (
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
)

// reportColumns is the fixed column order shared by tabular formats.
var reportColumns = []string{
	"index",
	"generation_date",
	"prompt",
	"quality_score",
	"date_method",
	"prompt_method",
	"duplicate",
	"duration_ms",
}

// Writer renders one scan summary to a file.
type Writer interface {
	Write(summary *scan.Summary) error
}

// Manager selects the writer for the configured report format.
type Manager struct {
	format Format
	path   string
}

// NewManager validates the report configuration and builds a manager.
func NewManager(cfg *config.ReportConfig) (*Manager, error) {
	if cfg == nil || cfg.Format == "" {
		return nil, fmt.Errorf("report configuration is required")
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("report path is required")
	}

	format := Format(cfg.Format)
	switch format {
	case FormatJSON, FormatCSV, FormatExcel:
	default:
		return nil, fmt.Errorf("unsupported report format: %s", cfg.Format)
	}

	return &Manager{format: format, path: cfg.Path}, nil
}

// GetWriter returns the writer for the configured format.
func (m *Manager) GetWriter() (Writer, error) {
	switch m.format {
	case FormatJSON:
		return NewJSONWriter(m.path), nil
	case FormatCSV:
		return NewCSVWriter(m.path), nil
	case FormatExcel:
		return NewExcelWriter(m.path), nil
	default:
		return nil, fmt.Errorf("unsupported report format: %s", m.format)
	}
}

// Write renders the summary using the configured format.
func (m *Manager) Write(summary *scan.Summary) error {
	writer, err := m.GetWriter()
	if err != nil {
		return fmt.Errorf("failed to get report writer: %w", err)
	}
	return writer.Write(summary)
}

// ensureDir creates the report's parent directory when needed.
func ensureDir(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	return nil
}
