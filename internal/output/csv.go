// internal/output/csv.go
package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/promptharvest/promptharvest/internal/scan"
)

// CSVWriter renders per-item rows under a fixed header.
type CSVWriter struct {
	path string
}

// NewCSVWriter creates a CSV report writer.
func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

// Write implements Writer.
func (w *CSVWriter) Write(summary *scan.Summary) error {
	if err := ensureDir(w.path); err != nil {
		return err
	}

	file, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("failed to create CSV report: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(reportColumns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, item := range summary.Results {
		row := []string{
			strconv.Itoa(item.Index),
			item.GenerationDate,
			item.Prompt,
			strconv.FormatFloat(item.QualityScore, 'f', 2, 64),
			item.DateMethod,
			item.PromptMethod,
			strconv.FormatBool(item.Duplicate),
			strconv.FormatInt(item.DurationMS, 10),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
