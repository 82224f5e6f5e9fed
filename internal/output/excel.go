// internal/output/excel.go
package output

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/promptharvest/promptharvest/internal/scan"
)

const excelSheet = "Scan Results"

// ExcelWriter renders per-item rows into a styled workbook.
type ExcelWriter struct {
	path string
}

// NewExcelWriter creates an Excel report writer.
func NewExcelWriter(path string) *ExcelWriter {
	return &ExcelWriter{path: path}
}

// Write implements Writer.
func (w *ExcelWriter) Write(summary *scan.Summary) error {
	if err := ensureDir(w.path); err != nil {
		return err
	}

	file := excelize.NewFile()
	defer file.Close()

	index, err := file.NewSheet(excelSheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	file.SetActiveSheet(index)
	file.DeleteSheet("Sheet1")

	if err := w.writeHeader(file); err != nil {
		return err
	}

	for i, item := range summary.Results {
		row := i + 2
		values := []interface{}{
			item.Index,
			item.GenerationDate,
			item.Prompt,
			item.QualityScore,
			item.DateMethod,
			item.PromptMethod,
			item.Duplicate,
			item.DurationMS,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return fmt.Errorf("failed to compute cell name: %w", err)
			}
			if err := file.SetCellValue(excelSheet, cell, value); err != nil {
				return fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	if err := file.SaveAs(w.path); err != nil {
		return fmt.Errorf("failed to save Excel report: %w", err)
	}
	return nil
}

func (w *ExcelWriter) writeHeader(file *excelize.File) error {
	style, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for col, name := range reportColumns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to compute header cell: %w", err)
		}
		if err := file.SetCellValue(excelSheet, cell, name); err != nil {
			return fmt.Errorf("failed to write header cell: %w", err)
		}
		if err := file.SetCellStyle(excelSheet, cell, cell, style); err != nil {
			return fmt.Errorf("failed to style header cell: %w", err)
		}
	}
	return nil
}
